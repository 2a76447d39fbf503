package geom

import "math"

// Vec2 is a 2D point or vector in normalized image space, x,y in [0,1] for
// points (vectors derived from them may fall outside that range).
type Vec2 struct {
	X, Y float64
}

// Sub returns v - w.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Add returns v + w.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Norm returns the Euclidean length of v.
func (v Vec2) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Dist returns the Euclidean distance between v and w.
func (v Vec2) Dist(w Vec2) float64 {
	return v.Sub(w).Norm()
}

// Rect is an axis-aligned bounding box in normalized image space:
// top-left (X0,Y0), bottom-right (X1,Y1), with X0<X1 and Y0<Y1.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// NewRect validates that the box lies fully inside the unit square and is
// non-degenerate, returning ok=false instead of panicking on bad input —
// callers (DetectionFilter) drop the offending detection and continue.
func NewRect(x0, y0, x1, y1 float64) (Rect, bool) {
	r := Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
	if !r.valid() {
		return Rect{}, false
	}
	return r, true
}

func (r Rect) valid() bool {
	if r.X0 < 0 || r.Y0 < 0 || r.X1 > 1 || r.Y1 > 1 {
		return false
	}
	if r.X1 <= r.X0 || r.Y1 <= r.Y0 {
		return false
	}
	return true
}

// Area returns the rectangle's area in normalized units.
func (r Rect) Area() float64 {
	return (r.X1 - r.X0) * (r.Y1 - r.Y0)
}

// Center returns the rectangle's center point.
func (r Rect) Center() Vec2 {
	return Vec2{X: (r.X0 + r.X1) / 2, Y: (r.Y0 + r.Y1) / 2}
}

// IoU returns the intersection-over-union of r and s, in [0,1].
func (r Rect) IoU(s Rect) float64 {
	ix0 := max(r.X0, s.X0)
	iy0 := max(r.Y0, s.Y0)
	ix1 := min(r.X1, s.X1)
	iy1 := min(r.Y1, s.Y1)

	if ix1 <= ix0 || iy1 <= iy0 {
		return 0
	}

	intersection := (ix1 - ix0) * (iy1 - iy0)
	union := r.Area() + s.Area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
