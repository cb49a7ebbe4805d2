package config

import (
	"fmt"
	"os"

	"github.com/menta2k/ph-analyzer/pkg/pipeline"
	"github.com/menta2k/ph-analyzer/pkg/predictor"
	"github.com/menta2k/ph-analyzer/pkg/sink"
)

// BuildPredictor constructs the predictor selected by the predictor section.
func (c *Config) BuildPredictor() (predictor.Predictor, error) {
	switch c.Predictor.Kind {
	case PredictorLinear:
		return predictor.LoadLinear(c.Predictor.ModelPath)
	case PredictorRemote:
		return predictor.NewRemote(c.Predictor.URL, c.Predictor.Timeout.Std())
	case PredictorConstant:
		return predictor.Constant(c.Predictor.Constant), nil
	default:
		return nil, fmt.Errorf("unknown predictor kind %q", c.Predictor.Kind)
	}
}

// BuildSink constructs the diagnostic sink. A nil sink with a nil error means
// crops are not persisted.
func (c *Config) BuildSink() (pipeline.Sink, error) {
	opts := sink.Options{Format: c.Sink.Format, Quality: c.Sink.Quality}

	switch c.Sink.Kind {
	case "", SinkNone:
		return nil, nil
	case SinkFile:
		return sink.NewFile(c.Sink.Dir, opts)
	case SinkS3:
		return sink.NewS3(sink.S3Config{
			Bucket:          c.Sink.Bucket,
			Region:          c.Sink.Region,
			Prefix:          c.Sink.Prefix,
			Endpoint:        c.Sink.Endpoint,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		}, opts)
	default:
		return nil, fmt.Errorf("unknown sink kind %q", c.Sink.Kind)
	}
}
