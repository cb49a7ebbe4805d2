//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// GoCVAvailable reports whether the binary was built with OpenCV support.
const GoCVAvailable = true

// FindContours extracts external contours from m with OpenCV and returns their
// bounding boxes in contour order. Area holds the rounded contour area.
func FindContours(m *Mask) ([]Region, error) {
	if m.Width == 0 || m.Height == 0 {
		return nil, nil
	}

	mat, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8UC1, m.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to build mask matrix: %w", err)
	}
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	regions := make([]Region, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		rect := gocv.BoundingRect(contour)
		region := FromRect(rect)
		region.Area = int(math.Round(gocv.ContourArea(contour)))
		regions = append(regions, region)
	}

	return regions, nil
}
