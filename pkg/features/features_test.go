package features

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/menta2k/ph-analyzer/pkg/colorspace"
	"github.com/menta2k/ph-analyzer/pkg/vision"
)

func createUniformImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func createGradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 255 / width), uint8(y * 255 / height), 120, 255})
		}
	}
	return img
}

func TestExtractUniform(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		c      color.NRGBA
	}{
		{"downscale blue", 137, 83, color.NRGBA{40, 90, 200, 255}},
		{"upscale green", 12, 7, color.NRGBA{30, 180, 60, 255}},
		{"exact size", 50, 50, color.NRGBA{200, 60, 90, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, err := New().Extract(createUniformImage(tt.width, tt.height, tt.c))
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}

			h, s, v := colorspace.ToHSV(tt.c.R, tt.c.G, tt.c.B)
			expected := Vector{
				float64(tt.c.R), float64(tt.c.G), float64(tt.c.B),
				float64(h), float64(s), float64(v),
			}
			for i := range expected {
				if math.Abs(vec[i]-expected[i]) > 0.5 {
					t.Errorf("feature %d = %f, expected %f", i, vec[i], expected[i])
				}
			}
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	img := createGradientImage(211, 97)
	e := New()

	first, err := e.Extract(img)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.Extract(img)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if again != first {
			t.Fatalf("Extract is not deterministic: %v != %v", again, first)
		}
	}
}

func TestExtractSubImage(t *testing.T) {
	// a crop whose bounds do not start at the origin
	img := createUniformImage(100, 100, color.NRGBA{40, 90, 200, 255})
	sub := img.SubImage(image.Rect(30, 40, 70, 60))

	vec, err := New().Extract(sub)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if math.Abs(vec[2]-200) > 0.5 {
		t.Errorf("Unexpected blue mean %f", vec[2])
	}
}

func TestExtractDegenerate(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 0, 10))

	_, err := New().Extract(img)
	if !errors.Is(err, vision.ErrDegenerateRegion) {
		t.Errorf("Expected ErrDegenerateRegion, got %v", err)
	}
}

func TestVectorAccessors(t *testing.T) {
	vec := Vector{1, 2, 3, 4, 5, 6}

	if rgb := vec.MeanRGB(); rgb != (colorspace.RGB{R: 1, G: 2, B: 3}) {
		t.Errorf("Unexpected RGB %+v", rgb)
	}
	if hsv := vec.MeanHSV(); hsv != (colorspace.HSV{H: 4, S: 5, V: 6}) {
		t.Errorf("Unexpected HSV %+v", hsv)
	}
	if len(vec.Slice()) != 6 {
		t.Errorf("Expected 6 features, got %d", len(vec.Slice()))
	}

	data, err := json.Marshal(vec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "[1,2,3,4,5,6]" {
		t.Errorf("Expected JSON array, got %s", data)
	}
}

func TestNewWithSize(t *testing.T) {
	if _, err := NewWithSize(0); err == nil {
		t.Error("Expected error for zero size")
	}
	e, err := NewWithSize(10)
	if err != nil || e.Size() != 10 {
		t.Errorf("Unexpected extractor %v, %v", e, err)
	}
}

func BenchmarkExtract(b *testing.B) {
	img := createGradientImage(320, 120)
	e := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Extract(img); err != nil {
			b.Fatal(err)
		}
	}
}
