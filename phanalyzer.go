// Package phanalyzer estimates the pH of a liquid from a photograph of a
// colorimetric test strip.
//
// A strip carries a fixed yellow reference marker followed by a reagent pad
// whose color depends on pH. The analysis locates the marker, derives an
// illumination-adjusted yellow band from it, scans down the strip for the pad,
// reduces the pad to a six-element color feature vector and hands it to a
// regression model.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		"github.com/menta2k/ph-analyzer"
//		"github.com/menta2k/ph-analyzer/pkg/predictor"
//	)
//
//	func main() {
//		model, err := predictor.LoadLinear("models/ph_model.json")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		analyzer, err := phanalyzer.New(model)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		result, err := analyzer.AnalyzeFile(context.Background(), "strip.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//		if !result.Success() {
//			log.Fatalf("no estimate: %v", result.Err())
//		}
//		fmt.Printf("pH %.2f\n", result.PH)
//	}
//
// The package consists of these main components:
//
//  1. Marker (pkg/marker): finds the yellow reference marker
//  2. Segmenter (pkg/segmenter): finds where the pad begins below the marker
//  3. Pad (pkg/pad): isolates the reagent pad
//  4. Features (pkg/features): reduces the pad to mean RGB and HSV
//  5. Predictor (pkg/predictor): model boundary, rounding and clamping
//  6. Pipeline (pkg/pipeline): runs the stages and tags failures
//
// Decoding, diagnostic sinks and the HTTP server live outside the pipeline and
// are never required by it.
package phanalyzer

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/menta2k/ph-analyzer/internal/utils"
	"github.com/menta2k/ph-analyzer/pkg/pipeline"
	"github.com/menta2k/ph-analyzer/pkg/predictor"
	"github.com/menta2k/ph-analyzer/pkg/processing"
	"github.com/menta2k/ph-analyzer/pkg/types"
)

// Version of the pH analyzer library
const Version = "1.0.0"

// ImageAnalyzer provides a high-level interface for strip analysis
type ImageAnalyzer struct {
	processor *processing.Processor
	pipeline  *pipeline.Analyzer
}

// New creates a new ImageAnalyzer with the default calibration
func New(p predictor.Predictor, opts ...pipeline.Option) (*ImageAnalyzer, error) {
	return NewWithConfig(pipeline.DefaultConfig(), p, opts...)
}

// NewWithConfig creates a new ImageAnalyzer with custom calibration
func NewWithConfig(cfg pipeline.Config, p predictor.Predictor, opts ...pipeline.Option) (*ImageAnalyzer, error) {
	analyzer, err := pipeline.New(cfg, p, opts...)
	if err != nil {
		return nil, err
	}
	return &ImageAnalyzer{
		processor: processing.NewProcessor(),
		pipeline:  analyzer,
	}, nil
}

// Config returns the calibration in use.
func (ia *ImageAnalyzer) Config() pipeline.Config {
	return ia.pipeline.Config()
}

// LoadImage loads an image from a file path or URL. Failures are tagged as
// DecodeFailure.
func (ia *ImageAnalyzer) LoadImage(source string) (image.Image, error) {
	img, err := ia.processor.LoadImageSmart(source)
	if err != nil {
		return nil, pipeline.DecodeError(err)
	}
	return img, nil
}

// LoadImageFromReader loads an image from an io.Reader
func (ia *ImageAnalyzer) LoadImageFromReader(reader io.Reader) (image.Image, error) {
	img, err := ia.processor.LoadImageFromReader(reader)
	if err != nil {
		return nil, pipeline.DecodeError(err)
	}
	return img, nil
}

// DecodeBase64 decodes a base64 or data URL payload
func (ia *ImageAnalyzer) DecodeBase64(payload string) (image.Image, error) {
	img, err := ia.processor.DecodeBase64(payload)
	if err != nil {
		return nil, pipeline.DecodeError(err)
	}
	return img, nil
}

// Analyze runs the strip pipeline on img
func (ia *ImageAnalyzer) Analyze(ctx context.Context, img image.Image) (*pipeline.Result, error) {
	return ia.pipeline.Analyze(ctx, img)
}

// AnalyzeFile loads and analyzes a single image
func (ia *ImageAnalyzer) AnalyzeFile(ctx context.Context, source string) (*pipeline.Result, error) {
	img, err := ia.LoadImage(source)
	if err != nil {
		return nil, err
	}
	return ia.Analyze(ctx, img)
}

// ProcessImageFile is a convenience function that loads and analyzes an image
// and, when requested, writes a debug overlay into opts.OutputDir. Analysis
// failures are reported in the returned FileReport; the error is reserved for
// failures writing the overlay.
func (ia *ImageAnalyzer) ProcessImageFile(ctx context.Context, inputPath string, opts types.ProcessingOptions) (*types.FileReport, error) {
	report := &types.FileReport{File: inputPath}

	img, err := ia.LoadImage(inputPath)
	if err != nil {
		report.Error = err.Error()
		report.Kind = pipeline.KindOf(err).String()
		return report, nil
	}

	result, err := ia.Analyze(ctx, img)
	if err != nil {
		report.Error = err.Error()
		report.Kind = pipeline.KindOf(err).String()
		return report, nil
	}
	report.Report = result.Report()

	if opts.DebugOverlay && opts.OutputDir != "" {
		if err := ia.writeOverlay(img, result, inputPath, opts); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (ia *ImageAnalyzer) writeOverlay(img image.Image, result *pipeline.Result, inputPath string, opts types.ProcessingOptions) error {
	if err := utils.EnsureDir(opts.OutputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	overlay := processing.Overlay{
		Marker:    result.Marker.Region,
		Strip:     result.Strip.Window,
		Boundary:  result.Strip.Boundary,
		PadWindow: result.PadWindow,
	}
	if result.Pad != nil {
		overlay.Pad = *result.Pad
	}

	format := opts.Format
	if format == "" {
		format = processing.FormatJPEG
	}
	quality := opts.Quality
	if quality <= 0 {
		quality = 95
	}

	outputPath := utils.GenerateOutputFilename(inputPath, opts.OutputDir, "", "_overlay", format)
	debug := ia.processor.CreateDebugOverlay(img, overlay)
	if err := ia.processor.SaveImage(debug, outputPath, format, quality, false); err != nil {
		return fmt.Errorf("failed to save overlay: %w", err)
	}
	return nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
