// Package colorspace converts RGB samples to the 8-bit HSV convention used for
// strip thresholding (hue in [0,179], saturation and value in [0,255]).
package colorspace

import "math"

// Legal 8-bit HSV channel limits.
const (
	MaxHue        = 179
	MaxSaturation = 255
	MaxValue      = 255
)

const hsvShift = 12

var (
	sdivTable [256]int
	hdivTable [256]int
)

func init() {
	for i := 1; i < 256; i++ {
		sdivTable[i] = int(math.Round(float64(255<<hsvShift) / float64(i)))
		hdivTable[i] = int(math.Round(float64(180<<hsvShift) / (6.0 * float64(i))))
	}
}

// ToHSV converts one RGB pixel to 8-bit HSV using fixed-point arithmetic, so the
// results match the OpenCV BGR2HSV conversion the prediction model was trained on.
func ToHSV(r, g, b uint8) (h, s, v uint8) {
	ri, gi, bi := int(r), int(g), int(b)

	vmax := max(ri, gi, bi)
	vmin := min(ri, gi, bi)
	diff := vmax - vmin

	sat := (diff*sdivTable[vmax] + (1 << (hsvShift - 1))) >> hsvShift

	var hue int
	switch vmax {
	case ri:
		hue = gi - bi
	case gi:
		hue = bi - ri + 2*diff
	default:
		hue = ri - gi + 4*diff
	}
	hue = (hue*hdivTable[diff] + (1 << (hsvShift - 1))) >> hsvShift
	if hue < 0 {
		hue += 180
	}

	return uint8(hue), uint8(sat), uint8(vmax)
}

// HSV is a (possibly averaged) color sample in 8-bit HSV units.
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// RGB is a (possibly averaged) color sample in 8-bit RGB units.
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Round returns the sample rounded to the given number of decimals.
func (c HSV) Round(decimals int) HSV {
	return HSV{H: roundTo(c.H, decimals), S: roundTo(c.S, decimals), V: roundTo(c.V, decimals)}
}

// Clamp limits the sample to the legal 8-bit HSV ranges.
func (c HSV) Clamp() HSV {
	return HSV{
		H: clamp(c.H, 0, MaxHue),
		S: clamp(c.S, 0, MaxSaturation),
		V: clamp(c.V, 0, MaxValue),
	}
}

// Band is an inclusive HSV threshold range.
type Band struct {
	Lower HSV `json:"lower"`
	Upper HSV `json:"upper"`
}

// NewBand builds a band from integer bounds.
func NewBand(hLo, sLo, vLo, hHi, sHi, vHi float64) Band {
	return Band{
		Lower: HSV{H: hLo, S: sLo, V: vLo},
		Upper: HSV{H: hHi, S: sHi, V: vHi},
	}
}

// Around returns the band center±tolerance per channel, clamped to the legal range.
func Around(center HSV, dh, ds, dv float64) Band {
	return Band{
		Lower: HSV{H: center.H - dh, S: center.S - ds, V: center.V - dv},
		Upper: HSV{H: center.H + dh, S: center.S + ds, V: center.V + dv},
	}.Clamp()
}

// Clamp limits both bounds to the legal 8-bit HSV ranges.
func (b Band) Clamp() Band {
	return Band{Lower: b.Lower.Clamp(), Upper: b.Upper.Clamp()}
}

// Contains reports whether an 8-bit HSV pixel lies inside the band. Bounds are
// rounded half to even before comparing, as cv2.inRange does with float scalars.
func (b Band) Contains(h, s, v uint8) bool {
	lo, hi := b.Lower.roundEven(), b.Upper.roundEven()
	fh, fs, fv := float64(h), float64(s), float64(v)
	return fh >= lo.H && fh <= hi.H &&
		fs >= lo.S && fs <= hi.S &&
		fv >= lo.V && fv <= hi.V
}

// Valid reports whether every lower bound is not above its upper bound.
func (b Band) Valid() bool {
	return b.Lower.H <= b.Upper.H && b.Lower.S <= b.Upper.S && b.Lower.V <= b.Upper.V
}

func (c HSV) roundEven() HSV {
	return HSV{H: math.RoundToEven(c.H), S: math.RoundToEven(c.S), V: math.RoundToEven(c.V)}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
