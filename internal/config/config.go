package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/menta2k/ph-analyzer/internal/log"
	"github.com/menta2k/ph-analyzer/pkg/colorspace"
	"github.com/menta2k/ph-analyzer/pkg/marker"
	"github.com/menta2k/ph-analyzer/pkg/pad"
	"github.com/menta2k/ph-analyzer/pkg/pipeline"
	"github.com/menta2k/ph-analyzer/pkg/processing"
	"github.com/menta2k/ph-analyzer/pkg/segmenter"
)

// Predictor kinds.
const (
	PredictorLinear   = "linear"
	PredictorRemote   = "remote"
	PredictorConstant = "constant"
)

// Sink kinds.
const (
	SinkNone = "none"
	SinkFile = "file"
	SinkS3   = "s3"
)

// Config holds the application configuration
type Config struct {
	Pipeline  PipelineConfig  `json:"pipeline"`
	Predictor PredictorConfig `json:"predictor"`
	Sink      SinkConfig      `json:"sink"`
	Server    ServerConfig    `json:"server"`
	Log       log.Config      `json:"log"`
}

// PipelineConfig holds the calibration constants of the strip pipeline
type PipelineConfig struct {
	MarkerBand    colorspace.Band     `json:"marker_band"`
	MarkerBackend string              `json:"marker_backend"`
	StripHeight   int                 `json:"strip_height"`
	Tolerance     segmenter.Tolerance `json:"tolerance"`
	YellowRatio   float64             `json:"yellow_ratio"`
	PadHeight     int                 `json:"pad_height"`
	ColorBand     colorspace.Band     `json:"color_band"`
	FeatureSize   int                 `json:"feature_size"`
}

// PredictorConfig selects and configures the pH model
type PredictorConfig struct {
	Kind      string   `json:"kind"`
	ModelPath string   `json:"model_path"`
	URL       string   `json:"url"`
	Timeout   Duration `json:"timeout"`
	Constant  float64  `json:"constant"`
}

// SinkConfig configures where diagnostic crops go
type SinkConfig struct {
	Kind     string `json:"kind"`
	Dir      string `json:"dir"`
	Format   string `json:"format"`
	Quality  int    `json:"quality"`
	Bucket   string `json:"bucket"`
	Region   string `json:"region"`
	Prefix   string `json:"prefix"`
	Endpoint string `json:"endpoint"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr           string   `json:"addr"`
	BodyLimitMB    int      `json:"body_limit_mb"`
	RateLimit      float64  `json:"rate_limit"`
	RateBurst      int      `json:"rate_burst"`
	RequestTimeout Duration `json:"request_timeout"`
	CropQuality    int      `json:"crop_quality"`
}

// Duration is a time.Duration encoded as a string such as "10s".
type Duration time.Duration

// MarshalJSON encodes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts "10s" style strings or integer nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(n)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns a configuration with default values
func Default() *Config {
	p := pipeline.DefaultConfig()
	return &Config{
		Pipeline: PipelineConfig{
			MarkerBand:    p.Marker.Band,
			MarkerBackend: p.Marker.Backend,
			StripHeight:   p.Segmenter.StripHeight,
			Tolerance:     p.Segmenter.Tolerance,
			YellowRatio:   p.Segmenter.YellowRatio,
			PadHeight:     p.Pad.WindowHeight,
			ColorBand:     p.Pad.Band,
			FeatureSize:   p.FeatureSize,
		},
		Predictor: PredictorConfig{
			Kind:      PredictorLinear,
			ModelPath: "./models/ph_model.json",
			Timeout:   Duration(10 * time.Second),
		},
		Sink: SinkConfig{
			Kind:    SinkNone,
			Dir:     "./outputs",
			Format:  processing.FormatJPEG,
			Quality: 95,
			Prefix:  "ph-analyzer",
		},
		Server: ServerConfig{
			Addr:           ":5000",
			BodyLimitMB:    20,
			RateLimit:      5,
			RateBurst:      10,
			RequestTimeout: Duration(30 * time.Second),
			CropQuality:    90,
		},
		Log: log.DefaultConfig(),
	}
}

// LoadFromFile loads configuration from a JSON file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load reads filename when it exists, else starts from the defaults, then
// applies .env and PH_* environment overrides.
func Load(filename string) (*Config, error) {
	config := Default()
	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			loaded, err := LoadFromFile(filename)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads a .env file from the working directory when present and
// overrides fields from PH_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []string
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = n
		}
	}
	setFloat := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = f
		}
	}
	setDuration := func(key string, dst *Duration) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = Duration(d)
		}
	}

	setString("PH_MARKER_BACKEND", &c.Pipeline.MarkerBackend)
	setInt("PH_STRIP_HEIGHT", &c.Pipeline.StripHeight)
	setFloat("PH_YELLOW_RATIO", &c.Pipeline.YellowRatio)
	setInt("PH_PAD_HEIGHT", &c.Pipeline.PadHeight)

	setString("PH_PREDICTOR", &c.Predictor.Kind)
	setString("PH_MODEL_PATH", &c.Predictor.ModelPath)
	setString("PH_PREDICTOR_URL", &c.Predictor.URL)
	setDuration("PH_PREDICTOR_TIMEOUT", &c.Predictor.Timeout)

	setString("PH_SINK", &c.Sink.Kind)
	setString("PH_SINK_DIR", &c.Sink.Dir)
	setString("PH_SINK_FORMAT", &c.Sink.Format)
	setString("PH_S3_BUCKET", &c.Sink.Bucket)
	setString("PH_S3_PREFIX", &c.Sink.Prefix)
	setString("PH_S3_ENDPOINT", &c.Sink.Endpoint)
	setString("AWS_REGION", &c.Sink.Region)

	setString("PH_ADDR", &c.Server.Addr)
	setFloat("PH_RATE_LIMIT", &c.Server.RateLimit)
	setInt("PH_RATE_BURST", &c.Server.RateBurst)
	setDuration("PH_REQUEST_TIMEOUT", &c.Server.RequestTimeout)

	setString("PH_LOG_LEVEL", &c.Log.Level)
	setString("PH_LOG_FILE", &c.Log.File)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.ToPipeline().Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	switch c.Predictor.Kind {
	case PredictorLinear:
		if c.Predictor.ModelPath == "" {
			return fmt.Errorf("predictor.model_path is required for the linear predictor")
		}
	case PredictorRemote:
		if c.Predictor.URL == "" {
			return fmt.Errorf("predictor.url is required for the remote predictor")
		}
	case PredictorConstant:
	default:
		return fmt.Errorf("predictor.kind must be one of linear, remote, constant")
	}

	switch c.Sink.Kind {
	case "", SinkNone:
	case SinkFile:
		if c.Sink.Dir == "" {
			return fmt.Errorf("sink.dir is required for the file sink")
		}
	case SinkS3:
		if c.Sink.Bucket == "" {
			return fmt.Errorf("sink.bucket is required for the s3 sink")
		}
	default:
		return fmt.Errorf("sink.kind must be one of none, file, s3")
	}

	if c.Sink.Format != "" && !processing.ValidFormat(c.Sink.Format) {
		return fmt.Errorf("sink.format must be jpg, png or webp")
	}
	if c.Sink.Quality < 1 || c.Sink.Quality > 100 {
		return fmt.Errorf("sink.quality must be between 1 and 100")
	}

	if c.Server.BodyLimitMB < 1 {
		return fmt.Errorf("server.body_limit_mb must be positive")
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst < 1 {
		return fmt.Errorf("server.rate_limit and server.rate_burst must be positive")
	}

	return nil
}

// ToPipeline maps the pipeline section to pipeline.Config.
func (c *Config) ToPipeline() pipeline.Config {
	return pipeline.Config{
		Marker: marker.Config{
			Band:    c.Pipeline.MarkerBand,
			Backend: c.Pipeline.MarkerBackend,
		},
		Segmenter: segmenter.Config{
			StripHeight: c.Pipeline.StripHeight,
			Tolerance:   c.Pipeline.Tolerance,
			YellowRatio: c.Pipeline.YellowRatio,
		},
		Pad: pad.Config{
			WindowHeight: c.Pipeline.PadHeight,
			Band:         c.Pipeline.ColorBand,
		},
		FeatureSize: c.Pipeline.FeatureSize,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "ph-analyzer", "config.json")
}
