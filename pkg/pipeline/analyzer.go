// Package pipeline chains marker location, strip segmentation, pad
// localization, feature extraction and prediction into one analysis.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/ph-analyzer/pkg/features"
	"github.com/menta2k/ph-analyzer/pkg/marker"
	"github.com/menta2k/ph-analyzer/pkg/pad"
	"github.com/menta2k/ph-analyzer/pkg/predictor"
	"github.com/menta2k/ph-analyzer/pkg/segmenter"
	"github.com/menta2k/ph-analyzer/pkg/vision"
)

// Analyzer estimates pH from strip images. It holds no per-call state and is
// safe for concurrent use when its predictor and sink are.
type Analyzer struct {
	config    Config
	locator   *marker.Locator
	segmenter *segmenter.Segmenter
	localizer *pad.Localizer
	extractor *features.Extractor
	predictor predictor.Predictor
	sink      Sink
	logger    *logrus.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithSink persists marker and pad crops through s.
func WithSink(s Sink) Option {
	return func(a *Analyzer) {
		a.sink = s
	}
}

// WithLogger sets the logger used for stage transitions and sink failures.
func WithLogger(l *logrus.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New builds an Analyzer from cfg around the injected predictor.
func New(cfg Config, p predictor.Predictor, opts ...Option) (*Analyzer, error) {
	if p == nil {
		return nil, fmt.Errorf("predictor is required")
	}

	locator, err := marker.NewWithConfig(cfg.Marker)
	if err != nil {
		return nil, fmt.Errorf("marker: %w", err)
	}
	seg, err := segmenter.NewWithConfig(cfg.Segmenter)
	if err != nil {
		return nil, fmt.Errorf("segmenter: %w", err)
	}
	localizer, err := pad.NewWithConfig(cfg.Pad)
	if err != nil {
		return nil, fmt.Errorf("pad: %w", err)
	}
	extractor, err := features.NewWithSize(cfg.FeatureSize)
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}

	a := &Analyzer{
		config:    cfg,
		locator:   locator,
		segmenter: seg,
		localizer: localizer,
		extractor: extractor,
		predictor: p,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() Config {
	return a.config
}

// Analyze runs the full pipeline on img. A pad window without colored pixels
// yields an OutcomePartial result and a nil error; every other failure is
// returned as an *Error.
func (a *Analyzer) Analyze(ctx context.Context, img image.Image) (*Result, error) {
	if img == nil {
		return nil, DecodeError(errors.New("image is nil"))
	}
	if err := vision.FromRect(img.Bounds()).Validate(); err != nil {
		return nil, a.fail(StageStart, err)
	}

	src := vision.ToNRGBA(img)
	res := &Result{Stage: StageStart}

	m, err := a.locator.Locate(src)
	if err != nil {
		return nil, a.fail(StageStart, err)
	}
	res.Marker = *m
	res.Stage = StageMarkerLocated
	res.MarkerHandle = a.save(src, m.Region, LabelMarker)
	a.logger.WithFields(logrus.Fields{
		"stage":    res.Stage,
		"marker":   m.Region.String(),
		"mean_hsv": m.MeanHSV.Round(2),
	}).Debug("marker located")

	seg, err := a.segmenter.Segment(src, m)
	if err != nil {
		return nil, a.fail(res.Stage, err)
	}
	res.Strip = *seg
	res.Stage = StageBoundaryFound
	a.logger.WithFields(logrus.Fields{
		"stage":      res.Stage,
		"window":     seg.Window.String(),
		"boundary":   seg.Boundary,
		"all_yellow": seg.AllYellow,
	}).Debug("strip boundary found")

	p, err := a.localizer.Localize(src, seg)
	if errors.Is(err, pad.ErrNoColorRegion) {
		res.Outcome = OutcomePartial
		res.PadWindow = p.Window
		res.Reason = classify(res.Stage, err)
		a.logger.WithFields(logrus.Fields{
			"stage":  res.Stage,
			"window": p.Window.String(),
		}).Debug("no colored pixels in pad window")
		return res, nil
	}
	if err != nil {
		return nil, a.fail(res.Stage, err)
	}
	res.PadWindow = p.Window
	res.Pad = &p.Region
	res.PadImage = p.Image
	res.Stage = StagePadLocalized
	res.PadHandle = a.saveImage(p.Image, LabelPad)
	a.logger.WithFields(logrus.Fields{
		"stage":  res.Stage,
		"pad":    p.Region.String(),
		"pixels": p.Pixels,
	}).Debug("pad localized")

	vec, err := a.extractor.Extract(p.Image)
	if err != nil {
		return nil, a.fail(res.Stage, err)
	}
	res.Features = &vec
	res.Stage = StageFeaturesExtracted

	raw, err := a.predict(ctx, vec)
	if err != nil {
		return nil, a.fail(res.Stage, &Error{Kind: KindPredictorFailure, Stage: res.Stage, Err: err})
	}
	ph, err := predictor.Finalize(raw)
	if err != nil {
		return nil, a.fail(res.Stage, &Error{Kind: KindPredictorFailure, Stage: res.Stage, Err: err})
	}
	res.Raw = raw
	res.PH = ph
	res.Stage = StagePredicted
	a.logger.WithFields(logrus.Fields{
		"stage":    res.Stage,
		"features": vec,
		"raw":      raw,
		"ph":       ph,
	}).Debug("prediction finalized")

	res.Outcome = OutcomeSuccess
	res.Stage = StageDone
	return res, nil
}

// predict calls the injected predictor, converting panics into errors.
func (a *Analyzer) predict(ctx context.Context, vec features.Vector) (raw float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predictor panicked: %v", r)
		}
	}()
	return a.predictor.Predict(ctx, vec)
}

func (a *Analyzer) fail(stage Stage, err error) error {
	tagged := classify(stage, err)
	a.logger.WithFields(logrus.Fields{
		"stage": StageFailed,
		"after": tagged.Stage,
		"kind":  tagged.Kind.String(),
		"error": err.Error(),
	}).Debug("analysis failed")
	return tagged
}

func (a *Analyzer) save(src *image.NRGBA, r vision.Region, label string) string {
	if a.sink == nil {
		return ""
	}
	crop, err := vision.Crop(src, r)
	if err != nil {
		a.logger.WithFields(logrus.Fields{"label": label, "error": err.Error()}).Warn("failed to crop diagnostic image")
		return ""
	}
	return a.saveImage(crop, label)
}

func (a *Analyzer) saveImage(img image.Image, label string) string {
	if a.sink == nil {
		return ""
	}
	handle, err := a.sink.Save(img, label)
	if err != nil {
		a.logger.WithFields(logrus.Fields{"label": label, "error": err.Error()}).Warn("failed to save diagnostic image")
		return ""
	}
	return handle
}
