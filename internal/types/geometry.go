package types

import (
	"fmt"
	"math"
)

// Rect represents pixel bounds on screen
type Rect struct {
	X      float64 `json:"x"`      // Left edge (pixels from screen left)
	Y      float64 `json:"y"`      // Top edge (pixels from screen top)
	Width  float64 `json:"width"`  // Width in pixels
	Height float64 `json:"height"` // Height in pixels
}

// Point represents a 2D coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IntSize is a screen size rounded to whole pixels. Layouts are keyed by it.
type IntSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

func (r Rect) MaxX() float64 { return r.X + r.Width }
func (r Rect) MaxY() float64 { return r.Y + r.Height }

func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }
func (r Rect) Size() Size    { return Size{Width: r.Width, Height: r.Height} }

// Center returns the center point of a Rect
func (r Rect) Center() Point {
	return Point{
		X: r.X + r.Width/2,
		Y: r.Y + r.Height/2,
	}
}

// Contains checks if a point is inside the rect
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// ContainsRect reports whether other lies entirely inside r.
func (r Rect) ContainsRect(other Rect) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.MaxX() <= r.MaxX() && other.MaxY() <= r.MaxY()
}

// Overlap returns the area of intersection between two Rects
func (r Rect) Overlap(other Rect) float64 {
	left := max(r.X, other.X)
	right := min(r.X+r.Width, other.X+other.Width)
	top := max(r.Y, other.Y)
	bottom := min(r.Y+r.Height, other.Y+other.Height)

	if left >= right || top >= bottom {
		return 0
	}
	return (right - left) * (bottom - top)
}

// Round snaps origin and size to whole pixels.
func (r Rect) Round() Rect {
	return Rect{
		X:      math.Round(r.X),
		Y:      math.Round(r.Y),
		Width:  math.Round(r.Width),
		Height: math.Round(r.Height),
	}
}

// SameAs compares rects after rounding, so sub-pixel noise from the OS does
// not count as a change.
func (r Rect) SameAs(other Rect) bool {
	return r.Round() == other.Round()
}

// IsZero reports whether every component is zero.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// IntSize rounds the rect size.
func (r Rect) IntSize() IntSize {
	return IntSize{Width: int(math.Round(r.Width)), Height: int(math.Round(r.Height))}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g %gx%g)", r.X, r.Y, r.Width, r.Height)
}

func (s IntSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
