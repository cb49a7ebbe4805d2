package vision

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/ph-analyzer/pkg/colorspace"
)

// ToNRGBA returns img as a non-premultiplied RGBA image, copying only when img
// has a different pixel layout.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	return imaging.Clone(img)
}

// Crop copies region r of img into a new image whose origin is (0,0). Regions
// that are empty or reach outside img are rejected, never clipped.
func Crop(img *image.NRGBA, r Region) (*image.NRGBA, error) {
	b := img.Bounds()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if !r.Within(b.Dx(), b.Dy()) {
		return nil, fmt.Errorf("%w: %s outside %dx%d image", ErrDegenerateRegion, r, b.Dx(), b.Dy())
	}
	return imaging.Crop(img, r.Rect().Add(b.Min)), nil
}

// MeanRGB averages each channel over region r of img.
func MeanRGB(img *image.NRGBA, r Region) colorspace.RGB {
	var sr, sg, sb float64
	n := 0
	eachPixel(img, r, func(red, green, blue uint8) {
		sr += float64(red)
		sg += float64(green)
		sb += float64(blue)
		n++
	})
	if n == 0 {
		return colorspace.RGB{}
	}
	fn := float64(n)
	return colorspace.RGB{R: sr / fn, G: sg / fn, B: sb / fn}
}

// MeanHSV converts every pixel of region r to HSV and averages each channel.
// Hue is averaged linearly, matching how the calibration was derived.
func MeanHSV(img *image.NRGBA, r Region) colorspace.HSV {
	var sh, ss, sv float64
	n := 0
	eachPixel(img, r, func(red, green, blue uint8) {
		h, s, v := colorspace.ToHSV(red, green, blue)
		sh += float64(h)
		ss += float64(s)
		sv += float64(v)
		n++
	})
	if n == 0 {
		return colorspace.HSV{}
	}
	fn := float64(n)
	return colorspace.HSV{H: sh / fn, S: ss / fn, V: sv / fn}
}

func eachPixel(img *image.NRGBA, r Region, fn func(r, g, b uint8)) {
	b := img.Bounds()
	r = r.Clip(b.Dx(), b.Dy())
	for y := 0; y < r.Height; y++ {
		i := img.PixOffset(b.Min.X+r.X, b.Min.Y+r.Y+y)
		for x := 0; x < r.Width; x++ {
			fn(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
			i += 4
		}
	}
}
