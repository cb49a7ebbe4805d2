package pipeline

import (
	"image"

	"github.com/menta2k/ph-analyzer/pkg/colorspace"
	"github.com/menta2k/ph-analyzer/pkg/features"
	"github.com/menta2k/ph-analyzer/pkg/marker"
	"github.com/menta2k/ph-analyzer/pkg/segmenter"
	"github.com/menta2k/ph-analyzer/pkg/types"
	"github.com/menta2k/ph-analyzer/pkg/vision"
)

// Stage is a state of the analysis state machine.
type Stage string

const (
	StageStart             Stage = "start"
	StageMarkerLocated     Stage = "marker_located"
	StageBoundaryFound     Stage = "boundary_found"
	StagePadLocalized      Stage = "pad_localized"
	StageFeaturesExtracted Stage = "features_extracted"
	StagePredicted         Stage = "predicted"
	StageDone              Stage = "done"
	StageFailed            Stage = "failed"
)

// Outcome tags a returned Result.
type Outcome string

const (
	// OutcomeSuccess carries a pH estimate.
	OutcomeSuccess Outcome = "success"
	// OutcomePartial carries marker diagnostics but no pad or estimate.
	OutcomePartial Outcome = "partial"
)

// Result is the outcome of a successful or partially successful analysis.
type Result struct {
	Outcome Outcome
	Stage   Stage
	// Reason is set for OutcomePartial.
	Reason error

	// PH is the finalized estimate in [0,14]; Raw is the model output.
	PH  float64
	Raw float64
	// Features is nil unless the pad was localized.
	Features *features.Vector

	Marker    marker.Result
	Strip     segmenter.Segment
	PadWindow vision.Region
	// Pad is nil unless the pad was localized.
	Pad *vision.Region
	// PadImage is the cropped pad, when available.
	PadImage *image.NRGBA

	MarkerHandle string
	PadHandle    string
}

// Success reports whether the result carries an estimate.
func (r *Result) Success() bool {
	return r.Outcome == OutcomeSuccess
}

// Err returns nil for a success and the tagged reason for a partial result.
func (r *Result) Err() error {
	if r.Outcome == OutcomeSuccess {
		return nil
	}
	if r.Reason == nil {
		return &Error{Kind: KindUnknown, Stage: r.Stage}
	}
	return r.Reason
}

// Report converts the result to its JSON view. Mean marker HSV is rounded to
// two decimals.
func (r *Result) Report() *types.Report {
	rep := &types.Report{
		Stage: string(r.Stage),
		Marker: &types.MarkerInfo{
			Box:     toBox(r.Marker.Region),
			MeanHSV: toHSV(r.Marker.MeanHSV.Round(2)),
			Image:   r.MarkerHandle,
		},
		Strip: &types.StripInfo{
			Window: toBox(r.Strip.Window),
			Band: types.Band{
				Lower: toHSV(r.Strip.Band.Lower.Round(2)),
				Upper: toHSV(r.Strip.Band.Upper.Round(2)),
			},
			Boundary:  r.Strip.Boundary,
			AllYellow: r.Strip.AllYellow,
		},
		Pad: &types.PadInfo{
			Window: toBox(r.PadWindow),
			Image:  r.PadHandle,
		},
	}

	if r.Pad != nil {
		box := toBox(*r.Pad)
		rep.Pad.Box = &box
	}
	if r.Features != nil {
		rep.Features = append([]float64(nil), r.Features.Slice()...)
	}

	switch r.Outcome {
	case OutcomeSuccess:
		rep.Status = "success"
		rep.Message = "analysis completed"
		ph, raw := r.PH, r.Raw
		rep.Prediction = &ph
		rep.Raw = &raw
	default:
		rep.Status = "warning"
		rep.Message = "not enough color to crop the reagent pad"
		rep.Reason = KindOf(r.Err()).String()
	}

	return rep
}

func toBox(r vision.Region) types.Box {
	return types.Box{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func toHSV(c colorspace.HSV) types.HSV {
	return types.HSV{H: c.H, S: c.S, V: c.V}
}
