package sink

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/menta2k/ph-analyzer/pkg/processing"
)

// S3Config configures the S3 sink.
type S3Config struct {
	Bucket          string
	Region          string
	Prefix          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Timeout         time.Duration
}

// Uploader is the subset of s3manager.Uploader used by the sink.
type Uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3 uploads crops to a bucket and returns their object locations.
type S3 struct {
	config    S3Config
	options   Options
	uploader  Uploader
	processor *processing.Processor
}

// NewS3 creates an S3 sink with a session built from cfg. Empty credentials
// fall back to the default AWS credential chain.
func NewS3(cfg S3Config, options Options) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return NewS3WithUploader(cfg, options, s3manager.NewUploader(sess)), nil
}

// NewS3WithUploader creates an S3 sink around an existing uploader.
func NewS3WithUploader(cfg S3Config, options Options, uploader Uploader) *S3 {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &S3{
		config:    cfg,
		options:   options.withDefaults(),
		uploader:  uploader,
		processor: processing.NewProcessor(),
	}
}

// Save encodes img and uploads it under the configured prefix.
func (s *S3) Save(img image.Image, label string) (string, error) {
	var buf bytes.Buffer
	if err := s.processor.EncodeImage(&buf, img, s.options.Format, s.options.Quality, s.options.Lossless); err != nil {
		return "", fmt.Errorf("failed to encode %s crop: %w", label, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	key := path.Join(s.config.Prefix, objectName(label, s.options))
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(processing.MimeType(s.options.Format)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s crop: %w", label, err)
	}

	return out.Location, nil
}
