package component

import (
	"github.com/ohowland/gridflow/internal/pkg/geometry"
)

// Kind tags the concrete component variant
type Kind string

// Component kinds
const (
	Wire              Kind = "WIRE"
	PowerSource       Kind = "POWER_SOURCE"
	Generator         Kind = "GENERATOR"
	Turbine           Kind = "TURBINE"
	ATS               Kind = "ATS"
	Switch            Kind = "SWITCH"
	Breaker12KV       Kind = "BREAKER_12KV"
	Breaker70KV       Kind = "BREAKER_70KV"
	Cutout            Kind = "CUTOUT"
	Jumper            Kind = "JUMPER"
	Pole              Kind = "POLE"
	Transformer       Kind = "TRANSFORMER"
	ConnectedLoadText Kind = "CONNECTED_LOAD_TEXT"
)

// Kinds lists every placeable kind in palette order.
var Kinds = []Kind{
	PowerSource, Generator, Turbine, ATS,
	Switch, Breaker12KV, Breaker70KV, Cutout, Jumper,
	Pole, Transformer, ConnectedLoadText, Wire,
}

// Behavior groups kinds by how they conduct
type Behavior int

// Behaviors
const (
	WireBehavior Behavior = iota
	SourceBehavior
	CloseableBehavior
	PassiveBehavior
)

func (b Behavior) String() string {
	switch b {
	case WireBehavior:
		return "wire"
	case SourceBehavior:
		return "source"
	case CloseableBehavior:
		return "closeable"
	case PassiveBehavior:
		return "passive"
	}
	return "unknown"
}

// Behavior returns the conduction behavior of the kind
func (k Kind) Behavior() Behavior {
	switch k {
	case Wire:
		return WireBehavior
	case PowerSource, Generator, Turbine, ATS:
		return SourceBehavior
	case Switch, Breaker12KV, Breaker70KV, Cutout, Jumper:
		return CloseableBehavior
	}
	return PassiveBehavior
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsBreaker reports whether k is one of the breaker kinds
func (k Kind) IsBreaker() bool {
	return k == Breaker12KV || k == Breaker70KV
}

// IsDevice reports whether k is placed with an in and an out terminal
func (k Kind) IsDevice() bool {
	b := k.Behavior()
	return k != Wire && (b == CloseableBehavior || b == PassiveBehavior)
}

// Voltage class of a breaker
type Voltage string

// Breaker voltages
const (
	KV12 Voltage = "KV12"
	KV70 Voltage = "KV70"
)

// footprint describes the fitting rectangle of a kind in grid units at angle 0. Insets are
// applied to the width x height box; negative insets shrink it.
type footprint struct {
	width, height            float64
	top, bottom, left, right float64
	offsetX                  float64
	upward                   bool
}

var footprints = map[Kind]footprint{
	Switch:            {width: 2, height: 3, top: -1, bottom: -1, left: -0.5, right: -0.5},
	Breaker70KV:       {width: 2, height: 3, top: -1, bottom: -1, left: -0.5, right: -0.5},
	Breaker12KV:       {width: 2, height: 4, top: -0.75, bottom: -0.75, left: -0.5, right: -0.5},
	Cutout:            {width: 2, height: 3, top: -1, bottom: -0.25, left: -0.75, right: -0.25},
	Jumper:            {width: 2, height: 3, top: -1, bottom: -0.75, left: -1, right: 0},
	Transformer:       {width: 3, height: 3, top: -0.75, bottom: -0.75, left: -0.5, right: -0.5},
	Pole:              {},
	ConnectedLoadText: {},
	PowerSource:       {width: 2, height: 3, bottom: -1, upward: true},
	Generator:         {width: 2, height: 3, bottom: -1, upward: true},
	Turbine:           {width: 3, height: 4, top: -1, bottom: -1, left: -0.5, right: -0.5},
	ATS:               {width: 5, height: 3, top: -0.25, bottom: -0.25, left: -1, right: -0.25, offsetX: 1},
}

// wirePadding is added around a wire's span when testing overlap, in grid units.
const wirePadding = 0.25

// Height returns the terminal-to-terminal height of a kind in pixels at angle 0.
func Height(k Kind) float64 {
	return footprints[k].height * geometry.Unit
}

// CutoutOffset is where an ATS places its periphery cutout, relative to the ATS position
// at angle 0.
var CutoutOffset = geometry.NewPoint(0, -3*geometry.Unit)

func (f footprint) rect(position geometry.Point, angle float64) geometry.Rect {
	u := geometry.Unit
	cx := position.X + f.offsetX*u

	minX := cx - (f.width/2+f.left)*u
	maxX := cx + (f.width/2+f.right)*u

	var minY, maxY float64
	if f.upward {
		minY = position.Y - (f.height+f.top)*u
		maxY = position.Y + f.bottom*u
	} else {
		minY = position.Y - f.top*u
		maxY = position.Y + (f.height+f.bottom)*u
	}

	r := geometry.NewRect(geometry.NewPoint(minX, minY), geometry.NewPoint(maxX, maxY))
	return r.Rotate(angle, position)
}
