package builder

import (
	"github.com/ohowland/gridflow/internal/pkg/component"
	"github.com/ohowland/gridflow/internal/pkg/geometry"
	"github.com/ohowland/gridflow/internal/pkg/grid"
)

// ConflictPoint returns where wire w2 meets the new wire w1, and false when the meeting point
// cannot be determined. Diagonal wires are classified as horizontal.
//
//	w1     w2     result
//	point  point  none
//	point  any    AssertOverlappingConflicts(w1, w2)
//	any    point  w2 start
//	H      H      AssertOverlappingConflicts(w1, w2)
//	H      V      (w2.start.X, w1.start.Y)
//	V      H      (w1.start.X, w2.start.Y)
//	V      V      AssertOverlappingConflicts(w1, w2)
func ConflictPoint(w1, w2 *component.Component) (geometry.Point, bool) {
	switch {
	case w1.IsPointWire() && w2.IsPointWire():
		return geometry.Point{}, false
	case w1.IsPointWire():
		return AssertOverlappingConflicts(w1, w2)
	case w2.IsPointWire():
		return w2.Start(), true
	}

	v1, v2 := w1.IsVerticalWire(), w2.IsVerticalWire()
	switch {
	case !v1 && v2:
		return geometry.NewPoint(w2.Start().X, w1.Start().Y), true
	case v1 && !v2:
		return geometry.NewPoint(w1.Start().X, w2.Start().Y), true
	}
	return AssertOverlappingConflicts(w1, w2)
}

// AssertOverlappingConflicts returns the shared endpoint of two collinear wires that meet end
// to end. A T-junction in the middle of either wire is not found.
func AssertOverlappingConflicts(w1, w2 *component.Component) (geometry.Point, bool) {
	if w1.Start().Equals(w2.End()) {
		return w1.Start(), true
	}
	if w1.End().Equals(w2.Start()) {
		return w1.End(), true
	}
	return geometry.Point{}, false
}

// TrueStart returns the endpoint a wire from a to b is anchored at.
func TrueStart(a, b geometry.Point) geometry.Point {
	if a.Y < b.Y || a.X < b.X {
		return a
	}
	return b
}

// TrueEnd returns the endpoint opposite TrueStart.
func TrueEnd(a, b geometry.Point) geometry.Point {
	if a.Y < b.Y || a.X < b.X {
		return b
	}
	return a
}

// overlapping splits the components whose footprint shares interior with r into wires and
// everything else, both in insertion order. Zero-area components never block.
func overlapping(g *grid.Grid, r geometry.Rect) (wires, others []*component.Component) {
	for _, c := range g.Components() {
		if !c.HasArea() || !c.Footprint().Intersects(r) {
			continue
		}
		if c.Kind() == component.Wire {
			wires = append(wires, c)
		} else {
			others = append(others, c)
		}
	}
	return wires, others
}
