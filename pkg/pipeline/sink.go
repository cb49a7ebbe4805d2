package pipeline

import "image"

// Diagnostic crop labels.
const (
	LabelMarker = "marker"
	LabelPad    = "pad"
)

// Sink persists intermediate crops and returns an opaque handle to them.
type Sink interface {
	Save(img image.Image, label string) (string, error)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(img image.Image, label string) (string, error)

// Save calls f.
func (f SinkFunc) Save(img image.Image, label string) (string, error) {
	return f(img, label)
}
