//go:build !gocv
// +build !gocv

package vision

// GoCVAvailable reports whether the binary was built with OpenCV support.
const GoCVAvailable = false

// FindContours returns an error if the build has no OpenCV support.
func FindContours(m *Mask) ([]Region, error) {
	return nil, ErrGoCVUnavailable
}
