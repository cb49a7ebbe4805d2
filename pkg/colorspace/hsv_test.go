package colorspace

import (
	"math"
	"testing"
)

func TestToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		h, s, v uint8
	}{
		{"black", 0, 0, 0, 0, 0, 0},
		{"white", 255, 255, 255, 0, 0, 255},
		{"gray", 128, 128, 128, 0, 0, 128},
		{"red", 255, 0, 0, 0, 255, 255},
		{"green", 0, 255, 0, 60, 255, 255},
		{"blue", 0, 0, 255, 120, 255, 255},
		{"yellow", 255, 255, 0, 30, 255, 255},
		{"marker yellow", 255, 180, 0, 21, 255, 255},
		{"wrapping red", 255, 0, 10, 179, 255, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := ToHSV(tt.r, tt.g, tt.b)
			if h != tt.h || s != tt.s || v != tt.v {
				t.Errorf("ToHSV(%d,%d,%d) = (%d,%d,%d), expected (%d,%d,%d)",
					tt.r, tt.g, tt.b, h, s, v, tt.h, tt.s, tt.v)
			}
		})
	}
}

func TestToHSVRange(t *testing.T) {
	for r := 0; r < 256; r += 5 {
		for g := 0; g < 256; g += 5 {
			for b := 0; b < 256; b += 5 {
				h, _, _ := ToHSV(uint8(r), uint8(g), uint8(b))
				if h > MaxHue {
					t.Fatalf("hue %d out of range for (%d,%d,%d)", h, r, g, b)
				}
			}
		}
	}
}

func TestAround(t *testing.T) {
	band := Around(HSV{H: 21, S: 150, V: 200}, 6, 60, 60)

	expected := NewBand(15, 90, 140, 27, 210, 255)
	if band != expected {
		t.Errorf("Expected band %+v, got %+v", expected, band)
	}
}

func TestAroundClampsLowerBounds(t *testing.T) {
	band := Around(HSV{H: 2, S: 30, V: 10}, 6, 60, 60)

	if band.Lower.H != 0 || band.Lower.S != 0 || band.Lower.V != 0 {
		t.Errorf("Expected lower bounds clamped to zero, got %+v", band.Lower)
	}
	if band.Upper.H != 8 || band.Upper.S != 90 || band.Upper.V != 70 {
		t.Errorf("Unexpected upper bounds %+v", band.Upper)
	}
}

func TestBandContains(t *testing.T) {
	band := NewBand(20, 80, 80, 23, 255, 255)

	if !band.Contains(20, 80, 80) {
		t.Error("Lower corner should be inside the band")
	}
	if !band.Contains(23, 255, 255) {
		t.Error("Upper corner should be inside the band")
	}
	if band.Contains(19, 200, 200) {
		t.Error("Hue 19 should be outside the band")
	}
	if band.Contains(21, 79, 200) {
		t.Error("Saturation 79 should be outside the band")
	}
}

func TestBandContainsFractionalBounds(t *testing.T) {
	tests := []struct {
		name   string
		center HSV
		h      uint8
		want   bool
	}{
		{"lower 15.4 rounds down", HSV{H: 21.4, S: 150, V: 200}, 15, true},
		{"lower 15.6 rounds up", HSV{H: 21.6, S: 150, V: 200}, 15, false},
		{"upper 27.6 rounds up", HSV{H: 21.6, S: 150, V: 200}, 28, true},
		{"upper 27.4 rounds down", HSV{H: 21.4, S: 150, V: 200}, 28, false},
		{"lower 14.5 rounds to even", HSV{H: 20.5, S: 150, V: 200}, 14, true},
		{"upper 26.5 rounds to even", HSV{H: 20.5, S: 150, V: 200}, 27, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			band := Around(tt.center, 6, 60, 60)
			if got := band.Contains(tt.h, 150, 200); got != tt.want {
				t.Errorf("Around(%+v).Contains(%d) = %v, want %v", tt.center, tt.h, got, tt.want)
			}
		})
	}

	band := NewBand(0, 89.5, 140.5, 179, 210.5, 255)
	if !band.Contains(10, 90, 140) || band.Contains(10, 89, 200) {
		t.Error("Unexpected saturation/value rounding")
	}
	if !band.Contains(10, 210, 200) || band.Contains(10, 211, 200) {
		t.Error("Unexpected upper saturation rounding")
	}
}

func TestBandValid(t *testing.T) {
	if !NewBand(0, 40, 40, 179, 255, 255).Valid() {
		t.Error("Expected band to be valid")
	}
	if NewBand(30, 0, 0, 20, 255, 255).Valid() {
		t.Error("Expected inverted band to be invalid")
	}
}

func TestHSVRound(t *testing.T) {
	c := HSV{H: 21.456, S: 150.004, V: 199.996}.Round(2)
	if math.Abs(c.H-21.46) > 1e-9 || math.Abs(c.S-150.0) > 1e-9 || math.Abs(c.V-200.0) > 1e-9 {
		t.Errorf("Unexpected rounding result %+v", c)
	}
}

func BenchmarkToHSV(b *testing.B) {
	for i := 0; i < b.N; i++ {
		ToHSV(uint8(i), uint8(i>>3), uint8(i>>5))
	}
}
