// Package features reduces a cropped reagent pad to the color feature vector
// consumed by the pH model.
package features

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"

	"github.com/menta2k/ph-analyzer/pkg/colorspace"
	"github.com/menta2k/ph-analyzer/pkg/vision"
)

// DefaultSize is the side of the square sample grid the model was trained on.
const DefaultSize = 50

// Vector is the ordered feature vector (meanR, meanG, meanB, meanH, meanS, meanV).
// It encodes to JSON as a plain array.
type Vector [6]float64

// Slice returns the features as a slice.
func (v Vector) Slice() []float64 {
	return v[:]
}

// MeanRGB returns the RGB half of the vector.
func (v Vector) MeanRGB() colorspace.RGB {
	return colorspace.RGB{R: v[0], G: v[1], B: v[2]}
}

// MeanHSV returns the HSV half of the vector.
func (v Vector) MeanHSV() colorspace.HSV {
	return colorspace.HSV{H: v[3], S: v[4], V: v[5]}
}

// Extractor computes feature vectors
type Extractor struct {
	size int
}

// New creates an Extractor that samples on the default 50×50 grid
func New() *Extractor {
	return &Extractor{size: DefaultSize}
}

// NewWithSize creates an Extractor with a custom sample grid.
func NewWithSize(size int) (*Extractor, error) {
	if size <= 0 {
		return nil, fmt.Errorf("feature sample size must be positive, got %d", size)
	}
	return &Extractor{size: size}, nil
}

// Size returns the side of the sample grid.
func (e *Extractor) Size() int {
	return e.size
}

// Extract resizes img to the sample grid with bilinear interpolation and
// averages RGB and HSV over every sample.
func (e *Extractor) Extract(img image.Image) (Vector, error) {
	if err := vision.FromRect(img.Bounds()).Validate(); err != nil {
		return Vector{}, fmt.Errorf("cannot extract features: %w", err)
	}

	sample := imaging.Resize(img, e.size, e.size, imaging.Linear)

	n := e.size * e.size
	channels := make([][]float64, 6)
	for i := range channels {
		channels[i] = make([]float64, 0, n)
	}

	for i := 0; i+3 < len(sample.Pix); i += 4 {
		r, g, b := sample.Pix[i], sample.Pix[i+1], sample.Pix[i+2]
		h, s, v := colorspace.ToHSV(r, g, b)
		channels[0] = append(channels[0], float64(r))
		channels[1] = append(channels[1], float64(g))
		channels[2] = append(channels[2], float64(b))
		channels[3] = append(channels[3], float64(h))
		channels[4] = append(channels[4], float64(s))
		channels[5] = append(channels[5], float64(v))
	}

	var vec Vector
	for i, c := range channels {
		vec[i] = stat.Mean(c, nil)
	}
	return vec, nil
}
