// Package vision holds the pixel-level building blocks of the strip pipeline:
// rectangular regions, HSV color masks, connected regions, crops and region
// color statistics.
package vision

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrDegenerateRegion is returned when a region has zero width or height.
	ErrDegenerateRegion = errors.New("degenerate region")
	// ErrGoCVUnavailable is returned by FindContours in builds without the gocv tag.
	ErrGoCVUnavailable = errors.New("gocv build tag is not enabled")
)

// Region represents an axis-aligned rectangle in the coordinates of its parent
// image. Area is the pixel count of the connected region it was derived from, or
// zero for purely geometric regions.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
	Area   int `json:"area,omitempty"`
}

// FromRect converts an image.Rectangle into a Region.
func FromRect(r image.Rectangle) Region {
	r = r.Canon()
	return Region{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Center returns the center point of the region
func (r Region) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Bottom returns the first row below the region.
func (r Region) Bottom() int {
	return r.Y + r.Height
}

// Empty reports whether the region has zero width or height.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Clip returns the part of the region that lies inside a width×height extent.
// The Area field is dropped because the clipped box no longer matches it.
func (r Region) Clip(width, height int) Region {
	clipped := r.Rect().Intersect(image.Rect(0, 0, width, height))
	if clipped.Empty() {
		return Region{X: r.X, Y: r.Y}
	}
	return FromRect(clipped)
}

// Offset translates the region by dx, dy.
func (r Region) Offset(dx, dy int) Region {
	r.X += dx
	r.Y += dy
	return r
}

// Within reports whether the region lies entirely inside a width×height extent.
func (r Region) Within(width, height int) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= width && r.Y+r.Height <= height
}

// Validate returns ErrDegenerateRegion for zero-area regions.
func (r Region) Validate() error {
	if r.Empty() {
		return fmt.Errorf("%w: %dx%d at (%d,%d)", ErrDegenerateRegion, r.Width, r.Height, r.X, r.Y)
	}
	return nil
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d@%d,%d", r.Width, r.Height, r.X, r.Y)
}
