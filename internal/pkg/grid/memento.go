package grid

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/component"
	"github.com/tiendc/go-deepcopy"
)

// GridMemento is a complete, self-contained snapshot of a grid.
type GridMemento struct {
	Components   []component.Memento `json:"components" yaml:"components" bson:"components"`
	Associations []Association       `json:"associations" yaml:"associations" bson:"associations"`
}

// DanglingReferenceError is returned when a memento references an id that is not part of it.
type DanglingReferenceError struct {
	Component string
	Missing   string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("component %s references missing component %s", e.Component, e.Missing)
}

// MakeSnapshot captures every component and association.
func (g *Grid) MakeSnapshot() GridMemento {
	m := GridMemento{
		Components:   make([]component.Memento, 0, len(g.order)),
		Associations: g.Associations(),
	}
	for _, id := range g.order {
		m.Components = append(m.Components, g.components[id].MakeSnapshot())
	}
	return m
}

// Clone deep copies the memento.
func (m GridMemento) Clone() GridMemento {
	out := GridMemento{
		Components:   make([]component.Memento, len(m.Components)),
		Associations: make([]Association, 0, len(m.Associations)),
	}
	for i, c := range m.Components {
		out.Components[i] = c.Clone()
	}
	if err := deepcopy.Copy(&out.Associations, &m.Associations); err != nil {
		out.Associations = append(out.Associations[:0], m.Associations...)
	}
	return out
}

// Rebuild constructs and energizes a new grid from m. Every component is built first, then
// every referenced id is resolved against the built set.
func Rebuild(m GridMemento) (*Grid, error) {
	g, err := NewGrid()
	if err != nil {
		return nil, err
	}

	for _, cm := range m.Components {
		c, err := cm.Build()
		if err != nil {
			return nil, err
		}
		if err := g.AddComponent(c); err != nil {
			return nil, err
		}
	}

	for _, cm := range m.Components {
		for _, ref := range cm.ConnectionIDs() {
			id, err := uuid.Parse(ref)
			if err != nil {
				return nil, fmt.Errorf("component %s: %w", cm.ID, err)
			}
			if _, ok := g.components[id]; !ok {
				return nil, &DanglingReferenceError{Component: cm.ID, Missing: ref}
			}
		}
	}

	for _, a := range m.Associations {
		g.AddAssociation(a)
	}

	if err := g.Energize(); err != nil {
		return nil, err
	}
	return g, nil
}

// Restore replaces the grid's contents with m. On error the grid is left untouched.
func (g *Grid) Restore(m GridMemento) error {
	rebuilt, err := Rebuild(m)
	if err != nil {
		return err
	}
	g.components = rebuilt.components
	g.order = rebuilt.order
	g.associations = rebuilt.associations
	return nil
}
