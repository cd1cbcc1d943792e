/*
component.go The circuit component model. A Component is a tagged variant: the Kind selects
which of the wire, source and device fields are meaningful, and the behavior functions in
behavior.go dispatch on it. Components refer to each other only by id; the owning grid
resolves ids at traversal time.
*/

package component

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/geometry"
)

// ErrInvalidAngle is returned when an angle is not a multiple of 90 degrees
var ErrInvalidAngle = errors.New("angle must be a multiple of 90")

// ErrUnknownKind is returned when constructing an unsupported kind
var ErrUnknownKind = errors.New("unknown component kind")

// Component is a single element of the one-line diagram.
type Component struct {
	id        uuid.UUID
	kind      Kind
	name      string
	nameRight bool
	position  geometry.Point
	angle     float64

	// derived by the energization engine
	energized    bool
	inEnergized  bool
	outEnergized bool

	// wire
	start        geometry.Point
	end          geometry.Point
	connections  []uuid.UUID
	bridgePoints []geometry.Point

	// source
	on         bool
	outputs    []uuid.UUID
	maxOutputs int

	// closeable and passive devices
	closed          bool
	closedByDefault bool
	locked          bool
	inWire          uuid.UUID
	outWire         uuid.UUID

	// breaker
	tandemID uuid.UUID

	// ats
	mainLineNode uuid.UUID
	cutoutID     uuid.UUID
	transfer     *transferSwitch

	// connected load text
	buildings       string
	transformerSize string
	warnings        string
}

func newComponent(kind Kind, name string, position geometry.Point) (*Component, error) {
	pid, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	return &Component{
		id:        pid,
		kind:      kind,
		name:      name,
		nameRight: true,
		position:  position,
	}, nil
}

// New constructs a component of any non-wire kind at position. defaultState is the initial
// closed state of closeable devices; sources start on.
func New(kind Kind, name string, position geometry.Point, defaultState bool) (*Component, error) {
	switch kind.Behavior() {
	case SourceBehavior:
		return NewSource(kind, name, position, true)
	case CloseableBehavior:
		return NewCloseable(kind, name, position, defaultState)
	case PassiveBehavior:
		return NewPassive(kind, name, position)
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
}

// NewWire returns a wire from start to end positioned at their midpoint.
func NewWire(start, end geometry.Point) (*Component, error) {
	c, err := newComponent(Wire, "", geometry.Midpoint(start, end))
	if err != nil {
		return nil, err
	}
	c.start = start
	c.end = end
	c.connections = make([]uuid.UUID, 0)
	return c, nil
}

// NewPointWire returns a zero-length wire at p, used as a device terminal stub.
func NewPointWire(p geometry.Point) (*Component, error) {
	return NewWire(p, p)
}

// NewSource returns a power source, generator, turbine or ATS.
func NewSource(kind Kind, name string, position geometry.Point, on bool) (*Component, error) {
	if kind.Behavior() != SourceBehavior {
		return nil, fmt.Errorf("%w: %v is not a source", ErrUnknownKind, kind)
	}
	c, err := newComponent(kind, name, position)
	if err != nil {
		return nil, err
	}
	c.on = on
	c.outputs = make([]uuid.UUID, 0, 2)
	c.maxOutputs = 1
	switch kind {
	case Turbine:
		c.maxOutputs = 2
	case ATS:
		c.on = true
		c.transfer = newTransferSwitch(TransferUnset)
	}
	return c, nil
}

// NewCloseable returns a switch, breaker, cutout or jumper.
func NewCloseable(kind Kind, name string, position geometry.Point, closedByDefault bool) (*Component, error) {
	if kind.Behavior() != CloseableBehavior {
		return nil, fmt.Errorf("%w: %v is not closeable", ErrUnknownKind, kind)
	}
	c, err := newComponent(kind, name, position)
	if err != nil {
		return nil, err
	}
	c.closedByDefault = closedByDefault
	c.closed = closedByDefault
	return c, nil
}

// NewPassive returns a pole, transformer or connected load text.
func NewPassive(kind Kind, name string, position geometry.Point) (*Component, error) {
	if kind.Behavior() != PassiveBehavior || kind == Wire || !kind.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
	c, err := newComponent(kind, name, position)
	if err != nil {
		return nil, err
	}
	if kind == ConnectedLoadText {
		c.buildings = "Bldg(s)"
		c.transformerSize = "Transformer Size"
		c.warnings = "No Warnings"
	}
	return c, nil
}

// ID is the stable identity of the component
func (c *Component) ID() uuid.UUID {
	return c.id
}

// Kind returns the variant tag
func (c *Component) Kind() Kind {
	return c.kind
}

// Behavior returns the conduction behavior of the component
func (c *Component) Behavior() Behavior {
	return c.kind.Behavior()
}

// Name returns the display name
func (c *Component) Name() string {
	return c.name
}

// SetName renames the component
func (c *Component) SetName(name string) {
	c.name = name
}

// NameRight reports whether the label is drawn right of the icon
func (c *Component) NameRight() bool {
	return c.nameRight
}

// SetNameRight moves the label
func (c *Component) SetNameRight(right bool) {
	c.nameRight = right
}

// Position returns the anchor point
func (c *Component) Position() geometry.Point {
	return c.position
}

// Angle returns the rotation in degrees
func (c *Component) Angle() float64 {
	return c.angle
}

// SetAngle rotates the component. Only quarter turns are accepted.
func (c *Component) SetAngle(angle float64) error {
	normalized, err := NormalizeAngle(angle)
	if err != nil {
		return err
	}
	c.angle = normalized
	return nil
}

// NormalizeAngle maps a quarter-turn angle into {0, 90, 180, 270}.
func NormalizeAngle(angle float64) (float64, error) {
	if math.Mod(angle, 90) != 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAngle, angle)
	}
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	return a, nil
}

// Energized reports whether the last energization pass reached the component.
func (c *Component) Energized() bool {
	return c.energized
}

// SetEnergized is called by the energization engine.
func (c *Component) SetEnergized(e bool) {
	c.energized = e
}

// SetTerminalEnergy records the energy state of a device's in and out wires.
func (c *Component) SetTerminalEnergy(in, out bool) {
	c.inEnergized = in
	c.outEnergized = out
}

// Start of a wire
func (c *Component) Start() geometry.Point {
	return c.start
}

// End of a wire
func (c *Component) End() geometry.Point {
	return c.end
}

// IsPointWire reports a zero-length wire
func (c *Component) IsPointWire() bool {
	return c.kind == Wire && c.start.Equals(c.end)
}

// IsVerticalWire reports a wire whose endpoints share an X coordinate
func (c *Component) IsVerticalWire() bool {
	return c.kind == Wire && c.start.X == c.end.X && c.start.Y != c.end.Y
}

// BridgePoints returns the crossings drawn as gaps on this wire
func (c *Component) BridgePoints() []geometry.Point {
	out := make([]geometry.Point, len(c.bridgePoints))
	copy(out, c.bridgePoints)
	return out
}

// AddBridgePoint marks a crossing that must not join this wire
func (c *Component) AddBridgePoint(p geometry.Point) {
	c.bridgePoints = append(c.bridgePoints, p)
}

// Connect links a wire to another component. Duplicate links are ignored.
func (c *Component) Connect(id uuid.UUID) {
	if c.kind != Wire || id == c.id {
		return
	}
	for _, existing := range c.connections {
		if existing == id {
			return
		}
	}
	c.connections = append(c.connections, id)
}

// On reports whether a source is emitting
func (c *Component) On() bool {
	return c.on
}

// Outputs returns a source's output wires
func (c *Component) Outputs() []uuid.UUID {
	return cloneIDs(c.outputs)
}

// MaxOutputs is the number of output wires a source accepts
func (c *Component) MaxOutputs() int {
	return c.maxOutputs
}

// AddOutput attaches an output wire to a source. It reports false once the source is full.
func (c *Component) AddOutput(wire uuid.UUID) bool {
	if c.Behavior() != SourceBehavior || len(c.outputs) >= c.maxOutputs {
		return false
	}
	c.outputs = append(c.outputs, wire)
	return true
}

// Closed reports whether a closeable device conducts
func (c *Component) Closed() bool {
	return c.closed
}

// ClosedByDefault is the normal state of a closeable device
func (c *Component) ClosedByDefault() bool {
	return c.closedByDefault
}

// SetClosedByDefault changes the normal state of a closeable device. The present state is not
// touched.
func (c *Component) SetClosedByDefault(closed bool) {
	if c.Behavior() != CloseableBehavior {
		return
	}
	c.closedByDefault = closed
}

// Locked reports whether state toggling is blocked
func (c *Component) Locked() bool {
	return c.locked
}

// InWire returns a device's in-side wire, or uuid.Nil
func (c *Component) InWire() uuid.UUID {
	return c.inWire
}

// OutWire returns a device's out-side wire, or uuid.Nil
func (c *Component) OutWire() uuid.UUID {
	return c.outWire
}

// ConnectInWire sets a device's in-side wire
func (c *Component) ConnectInWire(wire uuid.UUID) {
	c.inWire = wire
}

// ConnectOutWire sets a device's out-side wire
func (c *Component) ConnectOutWire(wire uuid.UUID) {
	c.outWire = wire
}

// Voltage returns the voltage class of a breaker
func (c *Component) Voltage() Voltage {
	switch c.kind {
	case Breaker12KV:
		return KV12
	case Breaker70KV:
		return KV70
	}
	return ""
}

// TandemID returns the interlocked partner breaker, or uuid.Nil
func (c *Component) TandemID() uuid.UUID {
	return c.tandemID
}

// HasTandem reports whether the breaker is interlocked with another
func (c *Component) HasTandem() bool {
	return c.kind.IsBreaker() && c.tandemID != uuid.Nil
}

// SetTandem interlocks the breaker with partner. uuid.Nil clears the link.
func (c *Component) SetTandem(partner uuid.UUID) {
	c.tandemID = partner
}

// MainLineNode returns the utility wire sensed by an ATS
func (c *Component) MainLineNode() uuid.UUID {
	return c.mainLineNode
}

// SetMainLineNode sets the utility wire sensed by an ATS
func (c *Component) SetMainLineNode(wire uuid.UUID) {
	c.mainLineNode = wire
}

// CutoutID returns the periphery cutout placed with an ATS
func (c *Component) CutoutID() uuid.UUID {
	return c.cutoutID
}

// SetCutoutID records the periphery cutout placed with an ATS
func (c *Component) SetCutoutID(id uuid.UUID) {
	c.cutoutID = id
}

// LoadText returns the three text lines of a connected load text
func (c *Component) LoadText() (buildings, transformerSize, warnings string) {
	return c.buildings, c.transformerSize, c.warnings
}

// SetLoadText replaces the text lines of a connected load text
func (c *Component) SetLoadText(buildings, transformerSize, warnings string) {
	if c.kind != ConnectedLoadText {
		return
	}
	c.buildings = buildings
	c.transformerSize = transformerSize
	c.warnings = warnings
}

// Footprint is the fitting rectangle used for placement conflicts.
func (c *Component) Footprint() geometry.Rect {
	if c.kind == Wire {
		return WireFootprint(c.start, c.end)
	}
	return footprints[c.kind].rect(c.position, c.angle)
}

// WireFootprint is the fitting rectangle of a wire from start to end. A point wire's
// footprint doubles as the probe for terminal attachment.
func WireFootprint(start, end geometry.Point) geometry.Rect {
	pad := wirePadding * geometry.Unit
	r := geometry.NewRect(start, end)
	return geometry.NewRect(r.Min.Translate(-pad, -pad), r.Max.Translate(pad, pad))
}

// HasArea reports whether the footprint can block other placements. Poles and connected load
// texts are zero-size junction markers sitting on their own wire.
func (c *Component) HasArea() bool {
	if c.kind == Wire {
		return true
	}
	f := footprints[c.kind]
	return f.width > 0 && f.height > 0
}

// TerminalPoints returns where the component's wires attach, in role order: devices
// [in, out], single-output sources [out], turbines [top, bottom], ATS [out, main line].
func (c *Component) TerminalPoints() []geometry.Point {
	p := c.position
	h := Height(c.kind)
	bottom := p.Translate(0, h).Rotate(c.angle, p)

	switch c.kind {
	case Wire:
		return []geometry.Point{c.start, c.end}
	case PowerSource, Generator:
		return []geometry.Point{p}
	case Turbine:
		return []geometry.Point{p, bottom}
	case ATS:
		return []geometry.Point{bottom, p}
	}
	return []geometry.Point{p, bottom}
}

func cloneIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out
}
