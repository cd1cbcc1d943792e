/*
builder.go The Builder turns placement requests into grid mutations. Every operation is all or
nothing: the grid is snapshotted first and restored if any step is rejected, and a committed
mutation is followed by a full energization pass.
*/

package builder

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/component"
	"github.com/ohowland/gridflow/internal/pkg/geometry"
	"github.com/ohowland/gridflow/internal/pkg/grid"
	"go.uber.org/zap"
)

// ErrPlacementConflict is returned when a footprint overlaps a component it may not overlap.
var ErrPlacementConflict = errors.New("placement conflict")

// ErrAmbiguousWireGeometry is returned when a new wire overlaps another wire in a way that is
// neither an end-to-end connection nor a crossing.
var ErrAmbiguousWireGeometry = errors.New("ambiguous wire geometry")

// ErrNotBreaker is returned when a tandem is requested for a non-breaker
var ErrNotBreaker = errors.New("component is not a breaker")

// ErrNotFound is returned when an id does not resolve in the grid
var ErrNotFound = errors.New("component not found")

// ErrEmptyClipboard is returned by Paste before anything was copied
var ErrEmptyClipboard = errors.New("clipboard is empty")

// Result describes a placement. PreMutation is the grid state before the change and is the
// entry pushed onto the undo stack.
type Result struct {
	Committed   bool
	PreMutation *grid.GridMemento
	Placed      uuid.UUID
	Periphery   []uuid.UUID
	Bridges     []geometry.Point
}

// Builder places and edits components on a grid.
type Builder struct {
	log *zap.SugaredLogger
}

// New returns a Builder logging to log. A nil logger discards output.
func New(log *zap.SugaredLogger) *Builder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Builder{log: log}
}

// mutate runs fn against g as one mutation. A failing fn leaves g as it was.
func (b *Builder) mutate(g *grid.Grid, fn func(*Result) error) (Result, error) {
	pre := g.MakeSnapshot()
	result := Result{}
	if err := fn(&result); err != nil {
		if rerr := g.Restore(pre); rerr != nil {
			return Result{}, fmt.Errorf("%v: restore failed: %w", err, rerr)
		}
		return Result{}, err
	}
	if err := g.Energize(); err != nil {
		return Result{}, err
	}
	result.Committed = true
	result.PreMutation = &pre
	return result, nil
}

// PlaceComponent places a new component of kind at position. data, when not nil, is a record
// stamped onto the new component, as copy, paste and drag do.
func (b *Builder) PlaceComponent(g *grid.Grid, s *Session, position geometry.Point, kind component.Kind, data component.Record) (Result, error) {
	result, err := b.mutate(g, func(r *Result) error {
		switch {
		case kind == component.ATS:
			return b.placeGroup(g, s, position, data, r)
		case kind.Behavior() == component.SourceBehavior:
			return b.placeSource(g, s, position, kind, data, r)
		case kind.IsDevice():
			return b.placeDevice(g, s, position, kind, data, r)
		}
		return fmt.Errorf("%w: cannot place %q", component.ErrUnknownKind, kind)
	})
	if err != nil {
		b.log.Debugf("rejected %v at %v: %v", kind, position, err)
		return result, err
	}
	b.log.Debugf("placed %v %v at %v", kind, result.Placed, position)
	return result, nil
}

func (b *Builder) placeDevice(g *grid.Grid, s *Session, position geometry.Point, kind component.Kind, data component.Record, r *Result) error {
	device, err := component.New(kind, "", position, s.DefaultState())
	if err != nil {
		return err
	}
	if err := b.prepare(device, s.Rotation(), data); err != nil {
		return err
	}
	wires, err := b.attach(g, device)
	if err != nil {
		return err
	}
	r.Placed = device.ID()
	r.Periphery = append(r.Periphery, wires...)
	return nil
}

func (b *Builder) placeSource(g *grid.Grid, s *Session, position geometry.Point, kind component.Kind, data component.Record, r *Result) error {
	source, err := component.NewSource(kind, "", position, true)
	if err != nil {
		return err
	}
	if err := b.prepare(source, s.Rotation(), data); err != nil {
		return err
	}
	wires, err := b.attach(g, source)
	if err != nil {
		return err
	}
	r.Placed = source.ID()
	r.Periphery = append(r.Periphery, wires...)
	return nil
}

// placeGroup places an ATS together with its periphery cutout. The cutout's out terminal lands
// on the ATS position, so its out wire becomes the ATS main line node.
func (b *Builder) placeGroup(g *grid.Grid, s *Session, position geometry.Point, data component.Record, r *Result) error {
	ats, err := component.NewSource(component.ATS, "", position, true)
	if err != nil {
		return err
	}
	if err := b.prepare(ats, s.Rotation(), data); err != nil {
		return err
	}

	cutoutAt := position.Translate(component.CutoutOffset.X, component.CutoutOffset.Y).Rotate(ats.Angle(), position)
	cutout, err := component.NewCloseable(component.Cutout, "", cutoutAt, s.DefaultState())
	if err != nil {
		return err
	}
	if err := cutout.SetAngle(ats.Angle()); err != nil {
		return err
	}
	cutoutWires, err := b.attach(g, cutout)
	if err != nil {
		return err
	}
	ats.SetCutoutID(cutout.ID())

	atsWires, err := b.attach(g, ats)
	if err != nil {
		return err
	}

	r.Placed = ats.ID()
	r.Periphery = append(r.Periphery, cutout.ID())
	r.Periphery = append(r.Periphery, cutoutWires...)
	r.Periphery = append(r.Periphery, atsWires...)
	return nil
}

func (b *Builder) prepare(c *component.Component, rotation float64, data component.Record) error {
	if err := c.SetAngle(rotation); err != nil {
		return err
	}
	return c.ApplyRecord(data)
}

// attach verifies c against the grid, resolves a wire for each terminal and adds c. It returns
// the ids of the stub wires it had to create.
func (b *Builder) attach(g *grid.Grid, c *component.Component) ([]uuid.UUID, error) {
	points := c.TerminalPoints()
	terminals := make([]*component.Component, len(points))
	attached := make(map[uuid.UUID]bool)

	for i, p := range points {
		if i > 0 && p.Equals(points[0]) {
			terminals[i] = terminals[0]
			continue
		}
		wire, err := terminalWire(g, p)
		if err != nil {
			return nil, err
		}
		if wire != nil && attached[wire.ID()] {
			return nil, fmt.Errorf("%w: %v terminals short through wire %v", ErrPlacementConflict, c.Kind(), wire.ID())
		}
		if wire != nil {
			attached[wire.ID()] = true
		}
		terminals[i] = wire
	}

	if err := verifyPlacement(g, c, attached); err != nil {
		return nil, err
	}

	created := make([]uuid.UUID, 0, len(points))
	for i, p := range points {
		if terminals[i] != nil {
			continue
		}
		stub, err := component.NewPointWire(p)
		if err != nil {
			return nil, err
		}
		if err := g.AddComponent(stub); err != nil {
			return nil, err
		}
		created = append(created, stub.ID())
		for j := i; j < len(points); j++ {
			if terminals[j] == nil && points[j].Equals(p) {
				terminals[j] = stub
			}
		}
	}

	connectTerminals(c, terminals)
	if err := g.AddComponent(c); err != nil {
		return nil, err
	}
	return created, nil
}

// terminalWire probes the grid at a terminal point. It returns the earliest inserted wire
// under the probe, nil when the point is free, or ErrPlacementConflict when a device or source
// occupies it.
func terminalWire(g *grid.Grid, p geometry.Point) (*component.Component, error) {
	wires, others := overlapping(g, component.WireFootprint(p, p))
	if len(others) > 0 {
		return nil, fmt.Errorf("%w: terminal %v overlaps %v %v", ErrPlacementConflict, p, others[0].Kind(), others[0].ID())
	}
	if len(wires) == 0 {
		return nil, nil
	}
	return wires[0], nil
}

// verifyPlacement rejects a body that overlaps any device or source, or a wire that is not
// attached at one of its terminals.
func verifyPlacement(g *grid.Grid, c *component.Component, attached map[uuid.UUID]bool) error {
	wires, others := overlapping(g, c.Footprint())
	if len(others) > 0 {
		return fmt.Errorf("%w: %v overlaps %v %v", ErrPlacementConflict, c.Kind(), others[0].Kind(), others[0].ID())
	}
	for _, w := range wires {
		if !attached[w.ID()] {
			return fmt.Errorf("%w: %v overlaps wire %v", ErrPlacementConflict, c.Kind(), w.ID())
		}
	}
	return nil
}

// connectTerminals links c and its terminal wires in role order.
func connectTerminals(c *component.Component, terminals []*component.Component) {
	switch c.Kind() {
	case component.ATS:
		c.AddOutput(terminals[0].ID())
		terminals[0].Connect(c.ID())
		c.SetMainLineNode(terminals[1].ID())
		return
	case component.PowerSource, component.Generator, component.Turbine:
		for _, w := range terminals {
			c.AddOutput(w.ID())
			w.Connect(c.ID())
		}
		return
	}

	c.ConnectInWire(terminals[0].ID())
	c.ConnectOutWire(terminals[1].ID())
	for _, w := range terminals {
		w.Connect(c.ID())
	}
}

// PlaceWire draws a wire between two points. With shouldConnect the wire joins every wire it
// overlaps; otherwise it joins wires that meet it at an endpoint and bridges over the rest.
func (b *Builder) PlaceWire(g *grid.Grid, start, end geometry.Point, shouldConnect bool) (Result, error) {
	result, err := b.mutate(g, func(r *Result) error {
		wire, err := component.NewWire(TrueStart(start, end), TrueEnd(start, end))
		if err != nil {
			return err
		}

		conflicts, others := overlapping(g, wire.Footprint())
		if len(others) > 0 {
			return fmt.Errorf("%w: wire overlaps %v %v", ErrPlacementConflict, others[0].Kind(), others[0].ID())
		}

		joins := make([]*component.Component, 0, len(conflicts))
		if shouldConnect {
			joins = conflicts
		} else {
			for _, other := range conflicts {
				p, ok := ConflictPoint(wire, other)
				switch {
				case !ok:
					return fmt.Errorf("%w: wire %v to %v overlaps wire %v", ErrAmbiguousWireGeometry, wire.Start(), wire.End(), other.ID())
				case p.Equals(wire.Start()) || p.Equals(wire.End()):
					joins = append(joins, other)
				default:
					wire.AddBridgePoint(p)
					r.Bridges = append(r.Bridges, p)
				}
			}
		}

		for _, other := range joins {
			wire.Connect(other.ID())
			other.Connect(wire.ID())
		}
		r.Placed = wire.ID()
		return g.AddComponent(wire)
	})
	if err != nil {
		b.log.Debugf("rejected wire %v to %v: %v", start, end, err)
	}
	return result, err
}

// PlaceAssociation adds a label box spanning start and end.
func (b *Builder) PlaceAssociation(g *grid.Grid, start, end geometry.Point) (Result, error) {
	return b.mutate(g, func(r *Result) error {
		g.AddAssociation(grid.Association{
			Ordinal:  g.CountAssociations(),
			Position: geometry.NewPoint(minFloat(start.X, end.X), minFloat(start.Y, end.Y)),
			Width:    start.DifferenceX(end),
			Height:   start.DifferenceY(end),
		})
		return nil
	})
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
