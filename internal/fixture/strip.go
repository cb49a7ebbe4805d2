// Package fixture draws synthetic test-strip photographs.
package fixture

import (
	"image"
	"image/color"
)

// Colors used by the default strip.
var (
	Background   = color.NRGBA{220, 220, 220, 255}
	MarkerYellow = color.NRGBA{255, 180, 0, 255}
	// ResidueYellow falls outside the fixed marker band but inside the adaptive one.
	ResidueYellow = color.NRGBA{255, 212, 0, 255}
	PadBlue       = color.NRGBA{40, 90, 200, 255}
)

// Strip describes a synthetic strip photograph.
type Strip struct {
	Width, Height int
	Marker        image.Rectangle
	// ResidueRows of residue yellow follow the marker across its width.
	ResidueRows int
	Pad         image.Rectangle
	PadColor    color.NRGBA
}

// Default returns a 300×500 strip with a 100×60 marker at (100,40), 30 residue
// rows and a 60×50 pad at (120,140).
func Default() Strip {
	return Strip{
		Width:       300,
		Height:      500,
		Marker:      image.Rect(100, 40, 200, 100),
		ResidueRows: 30,
		Pad:         image.Rect(120, 140, 180, 190),
		PadColor:    PadBlue,
	}
}

// Draw renders the strip.
func (s Strip) Draw() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	fill(img, img.Bounds(), Background)
	fill(img, s.Marker, MarkerYellow)
	if s.ResidueRows > 0 {
		residue := image.Rect(s.Marker.Min.X, s.Marker.Max.Y, s.Marker.Max.X, s.Marker.Max.Y+s.ResidueRows)
		fill(img, residue, ResidueYellow)
	}
	if !s.Pad.Empty() {
		fill(img, s.Pad, s.PadColor)
	}
	return img
}

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}
