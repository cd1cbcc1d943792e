package geometry

import "math"

// Rect is an axis-aligned rectangle. Min holds the smallest coordinates.
type Rect struct {
	Min Point
	Max Point
}

// NewRect returns the rectangle spanned by two opposite corners in any order.
func NewRect(a, b Point) Rect {
	return Rect{
		Min: Point{math.Min(a.X, b.X), math.Min(a.Y, b.Y)},
		Max: Point{math.Max(a.X, b.X), math.Max(a.Y, b.Y)},
	}
}

// Width of the rectangle
func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

// Height of the rectangle
func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

// Rotate returns the bounding box of r rotated about pivot.
func (r Rect) Rotate(angle float64, pivot Point) Rect {
	if normalize(angle) == 0 {
		return r
	}
	a := r.Min.Rotate(angle, pivot)
	b := r.Max.Rotate(angle, pivot)
	return NewRect(a, b)
}

// Intersects reports whether r and o share interior area. Rectangles that only touch along
// an edge do not intersect. A degenerate (zero-size) rectangle intersects o when it lies
// strictly inside o.
func (r Rect) Intersects(o Rect) bool {
	return overlaps(r.Min.X, r.Max.X, o.Min.X, o.Max.X) &&
		overlaps(r.Min.Y, r.Max.Y, o.Min.Y, o.Max.Y)
}

func overlaps(aMin, aMax, bMin, bMax float64) bool {
	if aMin == aMax && bMin == bMax {
		return aMin == bMin
	}
	return aMin < bMax && bMin < aMax
}
