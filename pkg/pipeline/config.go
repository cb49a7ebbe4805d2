package pipeline

import (
	"fmt"

	"github.com/menta2k/ph-analyzer/pkg/features"
	"github.com/menta2k/ph-analyzer/pkg/marker"
	"github.com/menta2k/ph-analyzer/pkg/pad"
	"github.com/menta2k/ph-analyzer/pkg/segmenter"
)

// Config holds the calibration parameters of every stage
type Config struct {
	Marker      marker.Config
	Segmenter   segmenter.Config
	Pad         pad.Config
	FeatureSize int
}

// DefaultConfig returns the calibration the bundled model was trained with.
func DefaultConfig() Config {
	return Config{
		Marker:      marker.DefaultConfig(),
		Segmenter:   segmenter.DefaultConfig(),
		Pad:         pad.DefaultConfig(),
		FeatureSize: features.DefaultSize,
	}
}

// Validate checks every stage configuration.
func (c Config) Validate() error {
	if _, err := marker.NewWithConfig(c.Marker); err != nil {
		return fmt.Errorf("marker: %w", err)
	}
	if err := c.Segmenter.Validate(); err != nil {
		return fmt.Errorf("segmenter: %w", err)
	}
	if _, err := pad.NewWithConfig(c.Pad); err != nil {
		return fmt.Errorf("pad: %w", err)
	}
	if c.FeatureSize <= 0 {
		return fmt.Errorf("feature size must be positive, got %d", c.FeatureSize)
	}
	return nil
}
