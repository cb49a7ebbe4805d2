// Package predictor is the boundary between the strip pipeline and the pH
// regression model.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/menta2k/ph-analyzer/pkg/features"
)

// Physical pH limits.
const (
	MinPH = 0.0
	MaxPH = 14.0
)

// ErrNonFinite is returned when a model produces NaN or ±Inf.
var ErrNonFinite = errors.New("prediction is not finite")

// Predictor maps a feature vector to a raw pH estimate. Implementations must be
// safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, vec features.Vector) (float64, error)
}

// Func adapts a plain function to the Predictor interface.
type Func func(vec features.Vector) float64

// Predict calls f.
func (f Func) Predict(_ context.Context, vec features.Vector) (float64, error) {
	return f(vec), nil
}

// Constant always predicts the same value.
type Constant float64

// Predict returns c.
func (c Constant) Predict(_ context.Context, _ features.Vector) (float64, error) {
	return float64(c), nil
}

// Finalize rounds a raw prediction to two decimals (half away from zero) and
// clamps it to [0,14].
func Finalize(raw float64) (float64, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNonFinite, raw)
	}
	rounded := math.Round(raw*100) / 100
	return math.Max(MinPH, math.Min(MaxPH, rounded)), nil
}
