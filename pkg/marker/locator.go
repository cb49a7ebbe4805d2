// Package marker locates the yellow reference marker printed on a test strip.
package marker

import (
	"errors"
	"fmt"
	"image"

	"github.com/menta2k/ph-analyzer/pkg/colorspace"
	"github.com/menta2k/ph-analyzer/pkg/vision"
)

// ErrNoMarkerFound is returned when no pixel of the image falls in the marker band.
var ErrNoMarkerFound = errors.New("no yellow marker found")

// Backend names accepted by Config.Backend.
const (
	BackendNative = "native"
	BackendGoCV   = "gocv"
)

// Config holds configuration for the marker locator
type Config struct {
	Band    colorspace.Band
	Backend string
}

// DefaultConfig returns the marker band the calibration was derived with.
func DefaultConfig() Config {
	return Config{
		Band:    colorspace.NewBand(20, 80, 80, 23, 255, 255),
		Backend: BackendNative,
	}
}

// Result describes the located marker.
type Result struct {
	Region  vision.Region  `json:"region"`
	MeanHSV colorspace.HSV `json:"mean_hsv"`
}

// Locator finds the marker in full strip images
type Locator struct {
	config   Config
	contours func(*vision.Mask) ([]vision.Region, error)
}

// New creates a Locator with the default configuration
func New() *Locator {
	l, _ := NewWithConfig(DefaultConfig())
	return l
}

// NewWithConfig creates a Locator with custom configuration. Selecting the gocv
// backend fails unless the binary was built with the gocv tag.
func NewWithConfig(config Config) (*Locator, error) {
	if !config.Band.Valid() {
		return nil, fmt.Errorf("invalid marker band %+v", config.Band)
	}

	l := &Locator{config: config}
	switch config.Backend {
	case "", BackendNative:
		l.contours = func(m *vision.Mask) ([]vision.Region, error) {
			return vision.FindComponents(m), nil
		}
	case BackendGoCV:
		if !vision.GoCVAvailable {
			return nil, fmt.Errorf("marker backend %q: %w", config.Backend, vision.ErrGoCVUnavailable)
		}
		l.contours = vision.FindContours
	default:
		return nil, fmt.Errorf("unknown marker backend %q", config.Backend)
	}
	return l, nil
}

// Config returns the locator configuration.
func (l *Locator) Config() Config {
	return l.config
}

// Locate finds the largest marker-colored region of img and measures its mean
// HSV over the full bounding box.
func (l *Locator) Locate(img *image.NRGBA) (*Result, error) {
	mask := vision.InRange(img, vision.Full(img), l.config.Band)

	regions, err := l.contours(mask)
	if err != nil {
		return nil, fmt.Errorf("failed to extract marker regions: %w", err)
	}

	largest, ok := vision.Largest(regions)
	if !ok {
		return nil, ErrNoMarkerFound
	}
	if err := largest.Validate(); err != nil {
		return nil, err
	}

	return &Result{
		Region:  largest,
		MeanHSV: vision.MeanHSV(img, largest),
	}, nil
}
