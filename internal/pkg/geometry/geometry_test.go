package geometry

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestTranslate(t *testing.T) {
	p := NewPoint(10, 20).Translate(5, -5)
	assert.Equal(t, p, NewPoint(15, 15))
}

func TestRotateQuarterTurns(t *testing.T) {
	pivot := NewPoint(100, 100)
	below := pivot.Translate(0, 3*Unit)

	assert.Equal(t, below.Rotate(0, pivot), below)
	assert.Equal(t, below.Rotate(90, pivot), NewPoint(40, 100))
	assert.Equal(t, below.Rotate(180, pivot), NewPoint(100, 40))
	assert.Equal(t, below.Rotate(270, pivot), NewPoint(160, 100))
	assert.Equal(t, below.Rotate(-90, pivot), below.Rotate(270, pivot))
	assert.Equal(t, below.Rotate(450, pivot), below.Rotate(90, pivot))
}

func TestRotateFullCircleIsExact(t *testing.T) {
	pivot := NewPoint(3, 7)
	p := NewPoint(13.5, -2.25)
	q := p
	for i := 0; i < 4; i++ {
		q = q.Rotate(90, pivot)
	}
	assert.Assert(t, p.Equals(q), "four quarter turns drifted: %v", q)
}

func TestScaleAndMidpoint(t *testing.T) {
	assert.Equal(t, NewPoint(2, -3).Scale(2), NewPoint(4, -6))
	assert.Equal(t, Midpoint(NewPoint(0, 0), NewPoint(40, 20)), NewPoint(20, 10))
}

func TestSnap(t *testing.T) {
	assert.Equal(t, NewPoint(29, 31).Snap(Unit), NewPoint(20, 40))
	assert.Equal(t, NewPoint(29, 31).Snap(0), NewPoint(29, 31))
}

func TestDifference(t *testing.T) {
	a := NewPoint(0, 50)
	b := NewPoint(30, 10)
	assert.Equal(t, a.DifferenceX(b), 30.0)
	assert.Equal(t, a.DifferenceY(b), 40.0)
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint(NewPoint(-12.5, 40).String())
	assert.NilError(t, err)
	assert.Equal(t, p, NewPoint(-12.5, 40))

	_, err = ParsePoint("12")
	assert.Error(t, err, `malformed point "12"`)

	_, err = ParsePoint("a,1")
	assert.ErrorContains(t, err, "malformed point")
}

func TestRectIntersects(t *testing.T) {
	a := NewRect(NewPoint(0, 0), NewPoint(10, 10))
	b := NewRect(NewPoint(5, 5), NewPoint(15, 15))
	touching := NewRect(NewPoint(10, 0), NewPoint(20, 10))

	assert.Assert(t, a.Intersects(b))
	assert.Assert(t, b.Intersects(a))
	assert.Assert(t, !a.Intersects(touching), "edge contact is not an overlap")
}

func TestDegenerateRectIntersects(t *testing.T) {
	box := NewRect(NewPoint(0, 0), NewPoint(10, 10))
	inside := NewRect(NewPoint(5, 5), NewPoint(5, 5))
	onEdge := NewRect(NewPoint(10, 5), NewPoint(10, 5))

	assert.Assert(t, inside.Intersects(box))
	assert.Assert(t, !onEdge.Intersects(box))
	assert.Assert(t, inside.Intersects(inside))
}

func TestRectRotate(t *testing.T) {
	pivot := NewPoint(0, 0)
	r := NewRect(NewPoint(-10, 20), NewPoint(10, 60))
	rotated := r.Rotate(90, pivot)
	assert.Equal(t, rotated, NewRect(NewPoint(-60, -10), NewPoint(-20, 10)))
	assert.Equal(t, rotated.Width(), 40.0)
	assert.Equal(t, rotated.Height(), 20.0)
}
