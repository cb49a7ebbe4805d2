package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	phanalyzer "github.com/menta2k/ph-analyzer"
	"github.com/menta2k/ph-analyzer/internal/config"
	"github.com/menta2k/ph-analyzer/internal/log"
	"github.com/menta2k/ph-analyzer/internal/utils"
	"github.com/menta2k/ph-analyzer/pkg/pipeline"
	"github.com/menta2k/ph-analyzer/pkg/processing"
	"github.com/menta2k/ph-analyzer/pkg/sink"
	"github.com/menta2k/ph-analyzer/pkg/types"
)

// analyzeOptions holds the flags of the analyze command
type analyzeOptions struct {
	JSON         bool
	OutputDir    string
	Format       string
	Debug        bool
	ModelPath    string
	PredictorURL string
	Workers      int
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files|dirs...]",
	Short: "Estimate pH for one or more strip images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context(), cmd.OutOrStdout(), args, analyzeOpts)
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeOpts.JSON, "json", false, "print reports as JSON")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.OutputDir, "out", "o", "", "directory for diagnostic crops and overlays")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.Format, "format", "f", processing.FormatJPEG, "image format for diagnostics: jpg|png|webp")
	analyzeCmd.Flags().BoolVarP(&analyzeOpts.Debug, "debug", "d", false, "write debug overlays into --out")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.ModelPath, "model", "m", "", "linear model JSON file (overrides config)")
	analyzeCmd.Flags().StringVar(&analyzeOpts.PredictorURL, "predictor-url", "", "remote predictor URL (overrides config)")
	analyzeCmd.Flags().IntVarP(&analyzeOpts.Workers, "workers", "w", 1, "number of images analyzed in parallel")

	rootCmd.AddCommand(analyzeCmd)
}

// applyPredictorFlags lets --model and --predictor-url override the config.
func applyPredictorFlags(c *config.Config, modelPath, predictorURL string) {
	switch {
	case predictorURL != "":
		c.Predictor.Kind = config.PredictorRemote
		c.Predictor.URL = predictorURL
	case modelPath != "":
		c.Predictor.Kind = config.PredictorLinear
		c.Predictor.ModelPath = modelPath
	}
}

// buildAnalyzer wires the predictor and sink selected by c.
func buildAnalyzer(c *config.Config, diagnostics pipeline.Sink) (*phanalyzer.ImageAnalyzer, error) {
	p, err := c.BuildPredictor()
	if err != nil {
		return nil, fmt.Errorf("failed to create predictor: %w", err)
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if diagnostics == nil {
		diagnostics, err = c.BuildSink()
		if err != nil {
			return nil, fmt.Errorf("failed to create sink: %w", err)
		}
	}
	if diagnostics != nil {
		opts = append(opts, pipeline.WithSink(diagnostics))
	}

	return phanalyzer.NewWithConfig(c.ToPipeline(), p, opts...)
}

func runAnalyze(ctx context.Context, out io.Writer, args []string, opts analyzeOptions) error {
	if !processing.ValidFormat(opts.Format) {
		return fmt.Errorf("unsupported format %q (use jpg, png or webp)", opts.Format)
	}
	if opts.Debug && opts.OutputDir == "" {
		return fmt.Errorf("--debug requires --out")
	}

	files, err := utils.CollectImageFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no image files found")
	}

	applyPredictorFlags(cfg, opts.ModelPath, opts.PredictorURL)
	if err := cfg.Validate(); err != nil {
		return err
	}

	var diagnostics pipeline.Sink
	if opts.OutputDir != "" {
		fileSink, err := sink.NewFile(filepath.Join(opts.OutputDir, "crops"), sink.Options{
			Format:  opts.Format,
			Quality: cfg.Sink.Quality,
		})
		if err != nil {
			return err
		}
		diagnostics = fileSink
	}

	analyzer, err := buildAnalyzer(cfg, diagnostics)
	if err != nil {
		return err
	}

	procOpts := types.ProcessingOptions{
		OutputDir:    opts.OutputDir,
		Format:       opts.Format,
		Quality:      cfg.Sink.Quality,
		DebugOverlay: opts.Debug,
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Analyzing strips"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	reports := analyzeFiles(ctx, analyzer, files, procOpts, opts.Workers, func() {
		bar.Add(1)
	})
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	if err := ctx.Err(); err != nil {
		return err
	}

	if opts.JSON {
		return writeJSON(out, reports)
	}
	return writeTable(out, reports)
}

// analyzeFiles runs up to workers analyses in parallel and returns the reports
// in input order.
func analyzeFiles(ctx context.Context, analyzer *phanalyzer.ImageAnalyzer, files []string, opts types.ProcessingOptions, workers int, progress func()) []*types.FileReport {
	if workers < 1 {
		workers = 1
	}

	reports := make([]*types.FileReport, len(files))
	tasks := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				report, err := analyzer.ProcessImageFile(ctx, files[i], opts)
				if err != nil {
					logger.WithFields(log.Fields{"file": files[i], "error": err.Error()}).Warn("failed to write overlay")
				}
				reports[i] = report

				mu.Lock()
				progress()
				mu.Unlock()
			}
		}()
	}

	for i := range files {
		select {
		case tasks <- i:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(tasks)
	wg.Wait()

	done := reports[:0]
	for _, r := range reports {
		if r != nil {
			done = append(done, r)
		}
	}
	return done
}

func writeJSON(out io.Writer, reports []*types.FileReport) error {
	js, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(js))
	return err
}

func writeTable(out io.Writer, reports []*types.FileReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSTATUS\tPH\tDETAIL")

	for _, r := range reports {
		switch {
		case r.Error != "":
			fmt.Fprintf(w, "%s\terror\t-\t%s\n", r.File, r.Kind)
		case r.Report.Prediction != nil:
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", r.File, r.Report.Status, *r.Report.Prediction, r.Report.Message)
		default:
			fmt.Fprintf(w, "%s\t%s\t-\t%s\n", r.File, r.Report.Status, r.Report.Message)
		}
	}

	return w.Flush()
}
