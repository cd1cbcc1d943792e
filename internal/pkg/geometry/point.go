/*
point.go Immutable 2D points. Every diagram coordinate in gridflow is a Point; equality is exact,
so callers snap user input to the unit grid before handing it to the builder.
*/

package geometry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit is the width of one diagram grid cell in pixels.
const Unit = 20.0

// Point is an immutable position on the diagram canvas.
type Point struct {
	X float64 `json:"x" yaml:"x" bson:"x"`
	Y float64 `json:"y" yaml:"y" bson:"y"`
}

// NewPoint returns the point (x, y)
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Translate returns p shifted by (dx, dy)
func (p Point) Translate(dx, dy float64) Point {
	return Point{p.X + dx, p.Y + dy}
}

// Rotate returns p rotated clockwise (screen coordinates) by angle degrees about pivot.
// Quarter turns are computed exactly.
func (p Point) Rotate(angle float64, pivot Point) Point {
	dx := p.X - pivot.X
	dy := p.Y - pivot.Y

	switch normalize(angle) {
	case 0:
		return p
	case 90:
		return Point{pivot.X - dy, pivot.Y + dx}
	case 180:
		return Point{pivot.X - dx, pivot.Y - dy}
	case 270:
		return Point{pivot.X + dy, pivot.Y - dx}
	}

	rad := angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Point{
		pivot.X + dx*cos - dy*sin,
		pivot.Y + dx*sin + dy*cos,
	}
}

// Scale returns p with both coordinates multiplied by f
func (p Point) Scale(f float64) Point {
	return Point{p.X * f, p.Y * f}
}

// Midpoint returns the point halfway between a and b
func Midpoint(a, b Point) Point {
	return Point{(a.X + b.X) / 2, (a.Y + b.Y) / 2}
}

// Snap rounds p to the nearest multiple of step on both axes.
func (p Point) Snap(step float64) Point {
	if step <= 0 {
		return p
	}
	return Point{
		math.Round(p.X/step) * step,
		math.Round(p.Y/step) * step,
	}
}

// DifferenceX is the absolute horizontal distance between p and o
func (p Point) DifferenceX(o Point) float64 {
	return math.Abs(p.X - o.X)
}

// DifferenceY is the absolute vertical distance between p and o
func (p Point) DifferenceY(o Point) float64 {
	return math.Abs(p.Y - o.Y)
}

// Equals reports exact equality.
func (p Point) Equals(o Point) bool {
	return p.X == o.X && p.Y == o.Y
}

// String renders the point in the "x,y" form used by component records
func (p Point) String() string {
	return strconv.FormatFloat(p.X, 'f', -1, 64) + "," + strconv.FormatFloat(p.Y, 'f', -1, 64)
}

// ParsePoint reads a point written by String
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		err := fmt.Sprintf("malformed point %q", s)
		return Point{}, errors.New(err)
	}

	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("malformed point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("malformed point %q: %w", s, err)
	}
	return Point{x, y}, nil
}

// normalize maps an angle in degrees into [0, 360)
func normalize(angle float64) float64 {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	return a
}
