package vision

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/menta2k/ph-analyzer/pkg/colorspace"
)

// createTestImage creates a gray image with a colored rectangle
func createTestImage(width, height int, rect image.Rectangle, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (image.Point{X: x, Y: y}).In(rect) {
				img.SetNRGBA(x, y, c)
			} else {
				img.SetNRGBA(x, y, color.NRGBA{128, 128, 128, 255})
			}
		}
	}
	return img
}

var yellowBand = colorspace.NewBand(20, 80, 80, 23, 255, 255)

func TestRegionCenter(t *testing.T) {
	region := Region{X: 10, Y: 20, Width: 100, Height: 80}

	centerX, centerY := region.Center()
	if centerX != 60 || centerY != 60 {
		t.Errorf("Expected center (60,60), got (%d,%d)", centerX, centerY)
	}
}

func TestRegionClip(t *testing.T) {
	tests := []struct {
		name     string
		region   Region
		expected Region
	}{
		{"inside", Region{X: 10, Y: 10, Width: 20, Height: 20}, Region{X: 10, Y: 10, Width: 20, Height: 20}},
		{"past bottom", Region{X: 10, Y: 90, Width: 20, Height: 50}, Region{X: 10, Y: 90, Width: 20, Height: 10}},
		{"past right", Region{X: 90, Y: 0, Width: 50, Height: 5}, Region{X: 90, Y: 0, Width: 10, Height: 5}},
		{"outside", Region{X: 10, Y: 120, Width: 20, Height: 50}, Region{X: 10, Y: 120}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.region.Clip(100, 100)
			if got != tt.expected {
				t.Errorf("Clip() = %+v, expected %+v", got, tt.expected)
			}
		})
	}
}

func TestRegionValidate(t *testing.T) {
	if err := (Region{Width: 1, Height: 1}).Validate(); err != nil {
		t.Errorf("Expected 1x1 region to be valid: %v", err)
	}

	err := (Region{Width: 0, Height: 10}).Validate()
	if !errors.Is(err, ErrDegenerateRegion) {
		t.Errorf("Expected ErrDegenerateRegion, got %v", err)
	}
}

func TestInRange(t *testing.T) {
	rect := image.Rect(20, 30, 60, 50)
	img := createTestImage(100, 100, rect, color.NRGBA{255, 180, 0, 255})

	mask := InRange(img, Full(img), yellowBand)
	if mask.Width != 100 || mask.Height != 100 {
		t.Fatalf("Expected 100x100 mask, got %dx%d", mask.Width, mask.Height)
	}

	if got := mask.Count(); got != 40*20 {
		t.Errorf("Expected %d masked pixels, got %d", 40*20, got)
	}

	if !mask.At(20, 30) || mask.At(19, 30) || mask.At(60, 30) {
		t.Error("Mask edges do not match the rectangle")
	}
}

func TestInRangeSubRegion(t *testing.T) {
	rect := image.Rect(0, 0, 100, 50)
	img := createTestImage(100, 100, rect, color.NRGBA{255, 180, 0, 255})

	mask := InRange(img, Region{X: 10, Y: 40, Width: 20, Height: 20}, yellowBand)
	if mask.Width != 20 || mask.Height != 20 {
		t.Fatalf("Expected 20x20 mask, got %dx%d", mask.Width, mask.Height)
	}
	if got := mask.RowCoverage(9); got != 1 {
		t.Errorf("Expected row 9 fully covered, got %f", got)
	}
	if got := mask.RowCoverage(10); got != 0 {
		t.Errorf("Expected row 10 empty, got %f", got)
	}
}

func TestMaskBoundingBox(t *testing.T) {
	mask := NewMask(50, 50)
	if _, ok := mask.BoundingBox(); ok {
		t.Error("Empty mask should have no bounding box")
	}

	mask.Set(5, 7, true)
	mask.Set(30, 12, true)
	mask.Set(10, 40, true)

	box, ok := mask.BoundingBox()
	if !ok {
		t.Fatal("Expected a bounding box")
	}
	expected := Region{X: 5, Y: 7, Width: 26, Height: 34}
	if box != expected {
		t.Errorf("Expected %+v, got %+v", expected, box)
	}
}

func TestFindComponents(t *testing.T) {
	mask := NewMask(20, 20)
	// 3x3 block
	for y := 2; y < 5; y++ {
		for x := 2; x < 5; x++ {
			mask.Set(x, y, true)
		}
	}
	// diagonal chain, 8-connected
	mask.Set(10, 10, true)
	mask.Set(11, 11, true)
	mask.Set(12, 12, true)
	// isolated pixel
	mask.Set(18, 1, true)

	regions := FindComponents(mask)
	if len(regions) != 3 {
		t.Fatalf("Expected 3 components, got %d: %+v", len(regions), regions)
	}

	// raster discovery order: block (row 2) comes after the isolated pixel (row 1)
	if regions[0].Area != 1 || regions[0].X != 18 {
		t.Errorf("Unexpected first component %+v", regions[0])
	}
	if regions[1] != (Region{X: 2, Y: 2, Width: 3, Height: 3, Area: 9}) {
		t.Errorf("Unexpected block component %+v", regions[1])
	}
	if regions[2] != (Region{X: 10, Y: 10, Width: 3, Height: 3, Area: 3}) {
		t.Errorf("Unexpected diagonal component %+v", regions[2])
	}

	largest, ok := Largest(regions)
	if !ok || largest.Area != 9 {
		t.Errorf("Expected largest component with area 9, got %+v", largest)
	}
}

func TestLargestTieKeepsFirst(t *testing.T) {
	regions := []Region{
		{X: 1, Area: 4},
		{X: 2, Area: 9},
		{X: 3, Area: 9},
	}

	largest, ok := Largest(regions)
	if !ok || largest.X != 2 {
		t.Errorf("Expected first of the tied regions, got %+v", largest)
	}

	if _, ok := Largest(nil); ok {
		t.Error("Expected no region for empty input")
	}
}

func TestMeanRGBAndHSV(t *testing.T) {
	rect := image.Rect(10, 10, 30, 30)
	img := createTestImage(40, 40, rect, color.NRGBA{255, 180, 0, 255})
	region := FromRect(rect)

	rgb := MeanRGB(img, region)
	if rgb.R != 255 || rgb.G != 180 || rgb.B != 0 {
		t.Errorf("Unexpected mean RGB %+v", rgb)
	}

	hsv := MeanHSV(img, region)
	if hsv.H != 21 || hsv.S != 255 || hsv.V != 255 {
		t.Errorf("Unexpected mean HSV %+v", hsv)
	}

	// half yellow, half gray
	mixed := MeanHSV(img, Region{X: 0, Y: 10, Width: 20, Height: 20})
	if math.Abs(mixed.H-10.5) > 1e-9 || math.Abs(mixed.S-127.5) > 1e-9 {
		t.Errorf("Unexpected mixed mean HSV %+v", mixed)
	}
}

func TestCrop(t *testing.T) {
	rect := image.Rect(10, 10, 30, 20)
	img := createTestImage(40, 40, rect, color.NRGBA{0, 0, 255, 255})

	cropped, err := Crop(img, FromRect(rect))
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	b := cropped.Bounds()
	if b.Min != (image.Point{}) || b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("Unexpected crop bounds %v", b)
	}
	if c := cropped.NRGBAAt(0, 0); c != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("Unexpected crop pixel %v", c)
	}

	rejected := []Region{
		{X: 50, Y: 50, Width: 10, Height: 10},
		{X: 35, Y: 10, Width: 10, Height: 10},
		{X: -1, Y: 0, Width: 5, Height: 5},
		{X: 10, Y: 10, Width: 0, Height: 5},
	}
	for _, r := range rejected {
		if _, err := Crop(img, r); !errors.Is(err, ErrDegenerateRegion) {
			t.Errorf("Expected ErrDegenerateRegion for crop %s, got %v", r, err)
		}
	}
}

func TestToNRGBA(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	if ToNRGBA(nrgba) != nrgba {
		t.Error("Expected NRGBA input to be returned as is")
	}

	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	rgba.Set(1, 1, color.RGBA{10, 20, 30, 255})
	converted := ToNRGBA(rgba)
	if c := converted.NRGBAAt(1, 1); c != (color.NRGBA{10, 20, 30, 255}) {
		t.Errorf("Unexpected converted pixel %v", c)
	}
}

func BenchmarkFindComponents(b *testing.B) {
	img := createTestImage(640, 480, image.Rect(200, 100, 300, 180), color.NRGBA{255, 180, 0, 255})
	mask := InRange(img, Full(img), yellowBand)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FindComponents(mask)
	}
}
