// Package segmenter finds where the reagent pad begins below the reference
// marker, using a yellow band adapted to the marker's measured color.
package segmenter

import (
	"fmt"
	"image"

	"github.com/menta2k/ph-analyzer/pkg/colorspace"
	"github.com/menta2k/ph-analyzer/pkg/marker"
	"github.com/menta2k/ph-analyzer/pkg/vision"
)

// Tolerance is the per-channel half width of the adaptive band.
type Tolerance struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// Config holds the calibration parameters of the segmenter
type Config struct {
	StripHeight int
	Tolerance   Tolerance
	YellowRatio float64
}

// DefaultConfig returns the calibration the prediction model was trained with.
func DefaultConfig() Config {
	return Config{
		StripHeight: 200,
		Tolerance:   Tolerance{H: 6, S: 60, V: 60},
		YellowRatio: 0.9,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.StripHeight <= 0 {
		return fmt.Errorf("strip height must be positive, got %d", c.StripHeight)
	}
	if c.Tolerance.H < 0 || c.Tolerance.S < 0 || c.Tolerance.V < 0 {
		return fmt.Errorf("tolerances must not be negative: %+v", c.Tolerance)
	}
	if c.YellowRatio <= 0 || c.YellowRatio > 1 {
		return fmt.Errorf("yellow ratio must be in (0,1], got %f", c.YellowRatio)
	}
	return nil
}

// Segment is the outcome of scanning the strip below the marker.
type Segment struct {
	// Window is the strip window in image coordinates.
	Window vision.Region `json:"window"`
	// Band is the adaptive yellow band derived from the marker.
	Band colorspace.Band `json:"band"`
	// Boundary is the first non-yellow row, relative to Window.
	Boundary int `json:"boundary"`
	// AllYellow is set when every row passed the ratio and Boundary fell back to 0.
	AllYellow bool `json:"all_yellow"`
}

// BoundaryY returns the boundary row in image coordinates.
func (s Segment) BoundaryY() int {
	return s.Window.Y + s.Boundary
}

// Segmenter derives the strip boundary for a located marker
type Segmenter struct {
	config Config
}

// New creates a Segmenter with the default configuration
func New() *Segmenter {
	return &Segmenter{config: DefaultConfig()}
}

// NewWithConfig creates a Segmenter with custom configuration
func NewWithConfig(config Config) (*Segmenter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Segmenter{config: config}, nil
}

// AdaptiveBand returns mean±tol per channel, clamped to the legal HSV range.
func AdaptiveBand(mean colorspace.HSV, tol Tolerance) colorspace.Band {
	return colorspace.Around(mean, tol.H, tol.S, tol.V)
}

// StripWindow returns the region of the given height directly below the marker
// box, sharing its x-range, clipped to bounds.
func StripWindow(bounds image.Rectangle, m vision.Region, height int) (vision.Region, error) {
	window := vision.Region{X: m.X, Y: m.Bottom(), Width: m.Width, Height: height}
	window = window.Clip(bounds.Dx(), bounds.Dy())
	if err := window.Validate(); err != nil {
		return window, fmt.Errorf("strip window below marker %s: %w", m, err)
	}
	return window, nil
}

// BoundaryRow returns the first row whose masked fraction is below ratio. When
// every row passes, it returns 0 and false.
func BoundaryRow(mask *vision.Mask, ratio float64) (int, bool) {
	for y := 0; y < mask.Height; y++ {
		if mask.RowCoverage(y) < ratio {
			return y, true
		}
	}
	return 0, false
}

// Segment scans the strip below the located marker.
func (s *Segmenter) Segment(img *image.NRGBA, m *marker.Result) (*Segment, error) {
	window, err := StripWindow(img.Bounds(), m.Region, s.config.StripHeight)
	if err != nil {
		return nil, err
	}

	band := AdaptiveBand(m.MeanHSV, s.config.Tolerance)
	mask := vision.InRange(img, window, band)
	boundary, found := BoundaryRow(mask, s.config.YellowRatio)

	return &Segment{
		Window:    window,
		Band:      band,
		Boundary:  boundary,
		AllYellow: !found,
	}, nil
}
