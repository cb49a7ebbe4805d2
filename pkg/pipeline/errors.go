package pipeline

import (
	"errors"
	"fmt"

	"github.com/menta2k/ph-analyzer/pkg/marker"
	"github.com/menta2k/ph-analyzer/pkg/pad"
	"github.com/menta2k/ph-analyzer/pkg/predictor"
	"github.com/menta2k/ph-analyzer/pkg/vision"
)

// Kind classifies pipeline failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindDecodeFailure
	KindNoMarkerFound
	KindNoColorRegionFound
	KindDegenerateRegion
	KindPredictorFailure
)

var kindNames = map[Kind]string{
	KindUnknown:            "Unknown",
	KindDecodeFailure:      "DecodeFailure",
	KindNoMarkerFound:      "NoMarkerFound",
	KindNoColorRegionFound: "NoColorRegionFound",
	KindDegenerateRegion:   "DegenerateRegion",
	KindPredictorFailure:   "PredictorFailure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrDecodeFailure      = &Error{Kind: KindDecodeFailure}
	ErrNoMarkerFound      = &Error{Kind: KindNoMarkerFound}
	ErrNoColorRegionFound = &Error{Kind: KindNoColorRegionFound}
	ErrDegenerateRegion   = &Error{Kind: KindDegenerateRegion}
	ErrPredictorFailure   = &Error{Kind: KindPredictorFailure}
)

// Error is a tagged pipeline failure.
type Error struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	if e.Stage == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s after %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// DecodeError tags a transport decoding failure.
func DecodeError(err error) *Error {
	return &Error{Kind: KindDecodeFailure, Stage: StageStart, Err: err}
}

// classify maps stage sentinel errors to kinds.
func classify(stage Stage, err error) *Error {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged
	}

	kind := KindUnknown
	switch {
	case errors.Is(err, marker.ErrNoMarkerFound):
		kind = KindNoMarkerFound
	case errors.Is(err, pad.ErrNoColorRegion):
		kind = KindNoColorRegionFound
	case errors.Is(err, vision.ErrDegenerateRegion):
		kind = KindDegenerateRegion
	case errors.Is(err, predictor.ErrNonFinite):
		kind = KindPredictorFailure
	}
	return &Error{Kind: kind, Stage: stage, Err: err}
}
