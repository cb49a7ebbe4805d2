package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/menta2k/ph-analyzer/pkg/features"
)

// LinearModel is the persisted form of a standard-scaled linear regression.
// Features are scaled as (x-mean)/scale before the dot product with Coef.
type LinearModel struct {
	Mean      []float64 `json:"mean"`
	Scale     []float64 `json:"scale"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// Validate checks the dimensions of the model.
func (m LinearModel) Validate() error {
	n := len(features.Vector{})
	if len(m.Coef) != n {
		return fmt.Errorf("model expects %d coefficients, got %d", n, len(m.Coef))
	}
	if m.Mean != nil && len(m.Mean) != n {
		return fmt.Errorf("scaler expects %d means, got %d", n, len(m.Mean))
	}
	if m.Scale != nil && len(m.Scale) != n {
		return fmt.Errorf("scaler expects %d scales, got %d", n, len(m.Scale))
	}
	for i, s := range m.Scale {
		if s == 0 {
			return fmt.Errorf("scale %d is zero", i)
		}
	}
	return nil
}

// Linear evaluates a LinearModel. It is read-only after construction.
type Linear struct {
	mean      *mat.VecDense
	scale     *mat.VecDense
	coef      *mat.VecDense
	intercept float64
}

// NewLinear builds a Linear predictor. Nil Mean or Scale disables that step of
// the scaler.
func NewLinear(m LinearModel) (*Linear, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	l := &Linear{
		coef:      mat.NewVecDense(len(m.Coef), append([]float64(nil), m.Coef...)),
		intercept: m.Intercept,
	}
	if m.Mean != nil {
		l.mean = mat.NewVecDense(len(m.Mean), append([]float64(nil), m.Mean...))
	}
	if m.Scale != nil {
		l.scale = mat.NewVecDense(len(m.Scale), append([]float64(nil), m.Scale...))
	}
	return l, nil
}

// LoadLinear reads a LinearModel from a JSON file.
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}

	return NewLinear(m)
}

// Predict scales vec and returns coef·x + intercept.
func (l *Linear) Predict(_ context.Context, vec features.Vector) (float64, error) {
	x := mat.NewVecDense(len(vec), vec.Slice())
	if l.mean != nil {
		x.SubVec(x, l.mean)
	}
	if l.scale != nil {
		x.DivElemVec(x, l.scale)
	}
	return mat.Dot(l.coef, x) + l.intercept, nil
}
