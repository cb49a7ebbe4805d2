// Package pad isolates the reagent pad inside the strip window.
package pad

import (
	"errors"
	"fmt"
	"image"

	"github.com/menta2k/ph-analyzer/pkg/colorspace"
	"github.com/menta2k/ph-analyzer/pkg/segmenter"
	"github.com/menta2k/ph-analyzer/pkg/vision"
)

// ErrNoColorRegion is returned when no pixel of the pad window is saturated enough.
var ErrNoColorRegion = errors.New("no colored region found in pad window")

// Config holds configuration for the pad localizer
type Config struct {
	WindowHeight int
	Band         colorspace.Band
}

// DefaultConfig returns the pad window and color band used for calibration.
func DefaultConfig() Config {
	return Config{
		WindowHeight: 100,
		Band:         colorspace.NewBand(0, 40, 40, 179, 255, 255),
	}
}

// Result holds the localized pad.
type Result struct {
	// Window is the searched pad window in image coordinates.
	Window vision.Region
	// Region is the pad bounding box in image coordinates.
	Region vision.Region
	// Image is the cropped pad.
	Image *image.NRGBA
	// Pixels is the number of colored pixels found in Window.
	Pixels int
}

// Localizer crops the reagent pad out of a segmented strip
type Localizer struct {
	config Config
}

// New creates a Localizer with the default configuration
func New() *Localizer {
	return &Localizer{config: DefaultConfig()}
}

// NewWithConfig creates a Localizer with custom configuration
func NewWithConfig(config Config) (*Localizer, error) {
	if config.WindowHeight <= 0 {
		return nil, fmt.Errorf("pad window height must be positive, got %d", config.WindowHeight)
	}
	if !config.Band.Valid() {
		return nil, fmt.Errorf("invalid pad band %+v", config.Band)
	}
	return &Localizer{config: config}, nil
}

// Window returns the pad window for seg: the configured height starting at the
// boundary row, clamped to the strip window.
func (l *Localizer) Window(seg *segmenter.Segment) (vision.Region, error) {
	strip := seg.Window.Rect()
	rect := image.Rect(strip.Min.X, seg.BoundaryY(), strip.Max.X, seg.BoundaryY()+l.config.WindowHeight)

	window := vision.FromRect(rect.Intersect(strip))
	if err := window.Validate(); err != nil {
		return window, fmt.Errorf("pad window: %w", err)
	}
	return window, nil
}

// Localize finds the bounding box of the colored pixels in the pad window and
// crops the pad from img.
func (l *Localizer) Localize(img *image.NRGBA, seg *segmenter.Segment) (*Result, error) {
	window, err := l.Window(seg)
	if err != nil {
		return nil, err
	}

	mask := vision.InRange(img, window, l.config.Band)
	box, ok := mask.BoundingBox()
	if !ok {
		return &Result{Window: window}, ErrNoColorRegion
	}

	region := box.Offset(window.X, window.Y)
	crop, err := vision.Crop(img, region)
	if err != nil {
		return nil, fmt.Errorf("failed to crop pad: %w", err)
	}

	return &Result{
		Window: window,
		Region: region,
		Image:  crop,
		Pixels: mask.Count(),
	}, nil
}
