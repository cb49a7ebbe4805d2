package segmenter

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/ph-analyzer/pkg/colorspace"
	"github.com/menta2k/ph-analyzer/pkg/marker"
	"github.com/menta2k/ph-analyzer/pkg/vision"
)

var (
	markerYellow = color.NRGBA{255, 180, 0, 255}
	padBlue      = color.NRGBA{40, 90, 200, 255}
)

type band struct {
	rect image.Rectangle
	c    color.NRGBA
}

func createTestImage(width, height int, bands ...band) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{128, 128, 128, 255})
			for _, b := range bands {
				if (image.Point{X: x, Y: y}).In(b.rect) {
					img.SetNRGBA(x, y, b.c)
				}
			}
		}
	}
	return img
}

func TestAdaptiveBand(t *testing.T) {
	got := AdaptiveBand(colorspace.HSV{H: 21, S: 150, V: 200}, DefaultConfig().Tolerance)

	expected := colorspace.NewBand(15, 90, 140, 27, 210, 255)
	if got != expected {
		t.Errorf("Expected band %+v, got %+v", expected, got)
	}
}

func TestStripWindow(t *testing.T) {
	bounds := image.Rect(0, 0, 200, 400)

	tests := []struct {
		name     string
		marker   vision.Region
		expected vision.Region
		wantErr  bool
	}{
		{"full height", vision.Region{X: 50, Y: 20, Width: 60, Height: 30}, vision.Region{X: 50, Y: 50, Width: 60, Height: 200}, false},
		{"clipped at bottom", vision.Region{X: 50, Y: 300, Width: 60, Height: 30}, vision.Region{X: 50, Y: 330, Width: 60, Height: 70}, false},
		{"marker at bottom edge", vision.Region{X: 50, Y: 370, Width: 60, Height: 30}, vision.Region{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StripWindow(bounds, tt.marker, 200)
			if tt.wantErr {
				if !errors.Is(err, vision.ErrDegenerateRegion) {
					t.Errorf("Expected ErrDegenerateRegion, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("StripWindow failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected window %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestBoundaryRow(t *testing.T) {
	mask := vision.NewMask(20, 200)
	for y := 0; y < 50; y++ {
		for x := 0; x < 20; x++ {
			mask.Set(x, y, true)
		}
	}

	row, found := BoundaryRow(mask, 0.9)
	if !found || row != 50 {
		t.Errorf("Expected boundary 50, got %d (found=%v)", row, found)
	}
}

func TestBoundaryRowAllYellow(t *testing.T) {
	mask := vision.NewMask(20, 200)
	for y := 0; y < 200; y++ {
		for x := 0; x < 20; x++ {
			mask.Set(x, y, true)
		}
	}

	row, found := BoundaryRow(mask, 0.9)
	if found || row != 0 {
		t.Errorf("Expected fallback row 0, got %d (found=%v)", row, found)
	}
}

func TestBoundaryRowRatio(t *testing.T) {
	mask := vision.NewMask(10, 5)
	// row 0: 10/10, row 1: 9/10, row 2: 8/10
	for x := 0; x < 10; x++ {
		mask.Set(x, 0, true)
	}
	for x := 0; x < 9; x++ {
		mask.Set(x, 1, true)
	}
	for x := 0; x < 8; x++ {
		mask.Set(x, 2, true)
	}

	row, found := BoundaryRow(mask, 0.9)
	if !found || row != 2 {
		t.Errorf("Expected boundary 2 (0.9 is not below the ratio), got %d", row)
	}
}

func TestSegment(t *testing.T) {
	img := createTestImage(200, 400,
		band{image.Rect(50, 20, 110, 100), markerYellow},
		band{image.Rect(50, 100, 110, 150), padBlue},
	)
	// the locator only sees the top 30 rows as the marker
	m := &marker.Result{
		Region:  vision.Region{X: 50, Y: 20, Width: 60, Height: 30},
		MeanHSV: colorspace.HSV{H: 21, S: 255, V: 255},
	}

	seg, err := New().Segment(img, m)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	if seg.Window != (vision.Region{X: 50, Y: 50, Width: 60, Height: 200}) {
		t.Errorf("Unexpected window %+v", seg.Window)
	}
	if seg.Boundary != 50 || seg.AllYellow {
		t.Errorf("Expected boundary 50, got %d (all yellow=%v)", seg.Boundary, seg.AllYellow)
	}
	if seg.BoundaryY() != 100 {
		t.Errorf("Expected image boundary row 100, got %d", seg.BoundaryY())
	}
}

func TestSegmentAllYellow(t *testing.T) {
	img := createTestImage(100, 300, band{image.Rect(10, 10, 60, 300), markerYellow})
	m := &marker.Result{
		Region:  vision.Region{X: 10, Y: 10, Width: 50, Height: 20},
		MeanHSV: colorspace.HSV{H: 21, S: 255, V: 255},
	}

	seg, err := New().Segment(img, m)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if seg.Boundary != 0 || !seg.AllYellow {
		t.Errorf("Expected all-yellow fallback, got %+v", seg)
	}
}

func TestNewWithConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero height", func(c *Config) { c.StripHeight = 0 }},
		{"negative tolerance", func(c *Config) { c.Tolerance.S = -1 }},
		{"ratio above one", func(c *Config) { c.YellowRatio = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if _, err := NewWithConfig(cfg); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
