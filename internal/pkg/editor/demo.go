package editor

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/component"
	"github.com/ohowland/gridflow/internal/pkg/geometry"
)

// demoStep places one named component of the sample depot. Coordinates are in grid units.
type demoStep struct {
	name string
	kind component.Kind
	x, y float64
}

// demoFeeder runs from source A down through the depot main onto the 12KV bus.
var demoFeeder = []demoStep{
	{"A", component.PowerSource, 0, 0},
	{"DD-103", component.Switch, 0, 0},
	{"DD-1", component.Breaker70KV, 0, 3},
	{"DD-101", component.Switch, 0, 6},
	{"Transformer DD1", component.Transformer, 0, 9},
	{"DD1 Main", component.Breaker12KV, 0, 12},
}

// demoBusY is the row of the 12KV bus, just below DD1 Main.
const demoBusY = 16

// demoOutgoing are the feeder breakers hung off the bus.
var demoOutgoing = []demoStep{
	{"DD9", component.Breaker12KV, -6, demoBusY},
	{"DD8", component.Breaker12KV, -3, demoBusY},
	{"DD5", component.Breaker12KV, 3, demoBusY},
	{"DD3", component.Breaker12KV, 6, demoBusY},
}

// BuildDemo lays out a sample drop depot in an empty editor: a source feeding a transformer
// and a 12KV bus with four feeders, a tandem pair, a load annotation, a generator backed
// transfer switch and an association box. The build is not undoable.
func BuildDemo(e *Editor) error {
	at := func(x, y float64) geometry.Point {
		return geometry.NewPoint(x*geometry.Unit, y*geometry.Unit)
	}
	place := func(s demoStep) (uuid.UUID, error) {
		r, err := e.Place(s.kind, at(s.x, s.y))
		if err != nil {
			return uuid.Nil, fmt.Errorf("demo %v: %w", s.name, err)
		}
		if _, err := e.Rename(r.Changed[0], s.name); err != nil {
			return uuid.Nil, err
		}
		return r.Changed[0], nil
	}

	for _, s := range demoFeeder {
		if _, err := place(s); err != nil {
			return err
		}
	}
	if _, err := e.PlaceWire(at(-6, demoBusY), at(6, demoBusY), true); err != nil {
		return fmt.Errorf("demo bus: %w", err)
	}

	ids := make(map[string]uuid.UUID)
	for _, s := range demoOutgoing {
		id, err := place(s)
		if err != nil {
			return err
		}
		ids[s.name] = id
	}
	if _, err := e.SetTandem(ids["DD3"], ids["DD5"]); err != nil {
		return err
	}

	load, err := place(demoStep{"DD9 Load", component.ConnectedLoadText, -6, demoBusY + 4})
	if err != nil {
		return err
	}
	if _, err := e.SetLoadText(load, "Bldg 4, 5", "500 kVA", "No Warnings"); err != nil {
		return err
	}

	if _, err := place(demoStep{"Gen B", component.Generator, 15, -3}); err != nil {
		return err
	}
	if _, err := place(demoStep{"ATS B", component.ATS, 15, 0}); err != nil {
		return err
	}

	r, err := e.PlaceAssociation(at(-8, -4), at(8, demoBusY+6))
	if err != nil {
		return err
	}
	if r.Committed {
		if _, err := e.LabelAssociation(0, "Drop Depot", "Depot Feeders", "DD"); err != nil {
			return err
		}
	}

	e.mux.Lock()
	e.history.Clear()
	e.mux.Unlock()
	return nil
}
