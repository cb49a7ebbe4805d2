package vision

import (
	"image"

	"github.com/menta2k/ph-analyzer/pkg/colorspace"
)

// Mask is a boolean grid marking pixels that passed a threshold predicate.
type Mask struct {
	Width  int
	Height int
	bits   []bool
}

// NewMask creates an empty width×height mask.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{Width: width, Height: height, bits: make([]bool, width*height)}
}

// At reports whether (x, y) is set. Out-of-range coordinates are unset.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.bits[y*m.Width+x]
}

// Set marks (x, y).
func (m *Mask) Set(x, y int, on bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.bits[y*m.Width+x] = on
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// RowCoverage returns the fraction of set pixels in row y.
func (m *Mask) RowCoverage(y int) float64 {
	if m.Width == 0 || y < 0 || y >= m.Height {
		return 0
	}
	n := 0
	row := m.bits[y*m.Width : (y+1)*m.Width]
	for _, b := range row {
		if b {
			n++
		}
	}
	return float64(n) / float64(m.Width)
}

// BoundingBox returns the tightest region containing every set pixel, and false
// when the mask is empty.
func (m *Mask) BoundingBox() (Region, bool) {
	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1
	for y := 0; y < m.Height; y++ {
		row := m.bits[y*m.Width : (y+1)*m.Width]
		for x, b := range row {
			if !b {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			maxY = y
		}
	}
	if maxX < 0 {
		return Region{}, false
	}
	return Region{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}, true
}

// Bytes returns the mask as one byte per pixel (0 or 255), row-major.
func (m *Mask) Bytes() []byte {
	out := make([]byte, len(m.bits))
	for i, b := range m.bits {
		if b {
			out[i] = 255
		}
	}
	return out
}

// InRange builds a mask over region r of img, marking pixels whose HSV value lies
// inside band. The mask has r's extent; r is clipped to the image first.
func InRange(img *image.NRGBA, r Region, band colorspace.Band) *Mask {
	b := img.Bounds()
	r = r.Clip(b.Dx(), b.Dy())
	m := NewMask(r.Width, r.Height)
	for y := 0; y < r.Height; y++ {
		i := img.PixOffset(b.Min.X+r.X, b.Min.Y+r.Y+y)
		for x := 0; x < r.Width; x++ {
			h, s, v := colorspace.ToHSV(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
			m.bits[y*r.Width+x] = band.Contains(h, s, v)
			i += 4
		}
	}
	return m
}

// Full returns the region covering the whole image.
func Full(img image.Image) Region {
	b := img.Bounds()
	return Region{Width: b.Dx(), Height: b.Dy()}
}
