package sink

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/menta2k/ph-analyzer/internal/utils"
	"github.com/menta2k/ph-analyzer/pkg/pipeline"
	"github.com/menta2k/ph-analyzer/pkg/processing"
)

// compile-time checks
var (
	_ pipeline.Sink = (*File)(nil)
	_ pipeline.Sink = (*Memory)(nil)
	_ pipeline.Sink = (*S3)(nil)
)

func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 40, 90, 200, 255
	}
	return img
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "diagnostics")

	for _, format := range []string{"jpg", "png", "webp"} {
		t.Run(format, func(t *testing.T) {
			s, err := NewFile(dir, Options{Format: format, Quality: 90})
			if err != nil {
				t.Fatalf("NewFile failed: %v", err)
			}

			handle, err := s.Save(createTestImage(20, 10), pipeline.LabelPad)
			if err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if !strings.HasPrefix(filepath.Base(handle), "pad_") || !strings.HasSuffix(handle, "."+format) {
				t.Errorf("Unexpected handle %q", handle)
			}
			if !utils.FileExists(handle) {
				t.Fatalf("Expected %s to exist", handle)
			}

			img, err := processing.NewProcessor().LoadImage(handle)
			if err != nil {
				t.Fatalf("Failed to reload crop: %v", err)
			}
			if img.Bounds().Dx() != 20 {
				t.Errorf("Unexpected bounds %v", img.Bounds())
			}
		})
	}
}

func TestFileSinkUniqueNames(t *testing.T) {
	s, err := NewFile(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	a, _ := s.Save(createTestImage(4, 4), pipeline.LabelMarker)
	b, _ := s.Save(createTestImage(4, 4), pipeline.LabelMarker)
	if a == b {
		t.Errorf("Expected unique handles, got %q twice", a)
	}
}

func TestNewFileRequiresDir(t *testing.T) {
	if _, err := NewFile("", DefaultOptions()); err == nil {
		t.Error("Expected error for empty directory")
	}
}

func TestMemorySink(t *testing.T) {
	m := NewMemory(Options{Format: "png"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Save(createTestImage(5, 5), pipeline.LabelMarker); err != nil {
				t.Errorf("Save failed: %v", err)
			}
		}()
	}
	wg.Wait()

	items := m.Items()
	if len(items) != 10 {
		t.Fatalf("Expected 10 items, got %d", len(items))
	}

	item, ok := m.Get(items[3].Handle)
	if !ok || item.Label != pipeline.LabelMarker {
		t.Fatalf("Get returned %+v, %v", item, ok)
	}
	decoded, err := png.Decode(bytes.NewReader(item.Data))
	if err != nil {
		t.Fatalf("Stored data is not PNG: %v", err)
	}
	if c := color.NRGBAModel.Convert(decoded.At(0, 0)).(color.NRGBA); c.B != 200 {
		t.Errorf("Unexpected stored pixel %v", c)
	}

	m.Reset()
	if len(m.Items()) != 0 {
		t.Error("Expected no items after Reset")
	}
}

type fakeUploader struct {
	inputs []*s3manager.UploadInput
	bodies [][]byte
	err    error
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, input *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(input.Body)
	f.inputs = append(f.inputs, input)
	f.bodies = append(f.bodies, body)
	return &s3manager.UploadOutput{Location: "https://bucket.s3.amazonaws.com/" + aws.StringValue(input.Key)}, nil
}

func TestS3Sink(t *testing.T) {
	up := &fakeUploader{}
	s := NewS3WithUploader(S3Config{Bucket: "strips", Prefix: "diagnostics"}, DefaultOptions(), up)

	location, err := s.Save(createTestImage(8, 8), pipeline.LabelPad)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(up.inputs) != 1 {
		t.Fatalf("Expected one upload, got %d", len(up.inputs))
	}

	in := up.inputs[0]
	if aws.StringValue(in.Bucket) != "strips" {
		t.Errorf("Unexpected bucket %q", aws.StringValue(in.Bucket))
	}
	if key := aws.StringValue(in.Key); !strings.HasPrefix(key, "diagnostics/pad_") || !strings.HasSuffix(key, ".jpg") {
		t.Errorf("Unexpected key %q", key)
	}
	if aws.StringValue(in.ContentType) != "image/jpeg" {
		t.Errorf("Unexpected content type %q", aws.StringValue(in.ContentType))
	}
	if len(up.bodies[0]) == 0 {
		t.Error("Expected a non-empty body")
	}
	if !strings.HasSuffix(location, aws.StringValue(in.Key)) {
		t.Errorf("Unexpected location %q", location)
	}
}

func TestS3SinkUploadError(t *testing.T) {
	up := &fakeUploader{err: errors.New("access denied")}
	s := NewS3WithUploader(S3Config{Bucket: "strips"}, DefaultOptions(), up)

	if _, err := s.Save(createTestImage(4, 4), pipeline.LabelMarker); err == nil {
		t.Error("Expected upload error")
	}
}

func TestNewS3RequiresBucket(t *testing.T) {
	if _, err := NewS3(S3Config{Region: "us-east-1"}, DefaultOptions()); err == nil {
		t.Error("Expected error for missing bucket")
	}
}
