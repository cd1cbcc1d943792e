/*
grid.go The Grid owns every component of a diagram, keyed by id, plus the free-standing
association boxes. Components reference each other by id only; the grid is the arena that
resolves those ids.
*/

package grid

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/component"
	"github.com/ohowland/gridflow/internal/pkg/geometry"
)

// ErrDuplicateID is returned when a component id is already present in the grid
var ErrDuplicateID = errors.New("component id already exists in grid")

// Association is a labelled rectangle drawn over part of the diagram. It is not part of the
// circuit graph.
type Association struct {
	Ordinal  int            `json:"ordinal" yaml:"ordinal" bson:"ordinal"`
	Position geometry.Point `json:"position" yaml:"position" bson:"position"`
	Width    float64        `json:"width" yaml:"width" bson:"width"`
	Height   float64        `json:"height" yaml:"height" bson:"height"`
	Label    string         `json:"label" yaml:"label" bson:"label"`
	SubLabel string         `json:"subLabel" yaml:"subLabel" bson:"subLabel"`
	Acronym  string         `json:"acronym" yaml:"acronym" bson:"acronym"`
}

// Grid is the component arena of one diagram.
type Grid struct {
	pid          uuid.UUID
	components   map[uuid.UUID]*component.Component
	order        []uuid.UUID
	associations []Association
}

// NewGrid returns an empty grid
func NewGrid() (*Grid, error) {
	pid, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}
	return &Grid{
		pid:          pid,
		components:   make(map[uuid.UUID]*component.Component),
		order:        make([]uuid.UUID, 0),
		associations: make([]Association, 0),
	}, nil
}

// PID identifies the grid instance
func (g *Grid) PID() uuid.UUID {
	return g.pid
}

// AddComponent inserts c. An id collision leaves the grid unchanged.
func (g *Grid) AddComponent(c *component.Component) error {
	if _, exists := g.components[c.ID()]; exists {
		return fmt.Errorf("%w: %v", ErrDuplicateID, c.ID())
	}
	g.components[c.ID()] = c
	g.order = append(g.order, c.ID())
	return nil
}

// AddComponents inserts c and its related wires. Either all are inserted or none.
func (g *Grid) AddComponents(c *component.Component, related ...*component.Component) error {
	all := append([]*component.Component{c}, related...)
	seen := make(map[uuid.UUID]bool, len(all))
	for _, each := range all {
		if _, exists := g.components[each.ID()]; exists || seen[each.ID()] {
			return fmt.Errorf("%w: %v", ErrDuplicateID, each.ID())
		}
		seen[each.ID()] = true
	}
	for _, each := range all {
		g.components[each.ID()] = each
		g.order = append(g.order, each.ID())
	}
	return nil
}

// Component looks up a component by id
func (g *Grid) Component(id uuid.UUID) (*component.Component, bool) {
	c, ok := g.components[id]
	return c, ok
}

// Components returns all components in insertion order
func (g *Grid) Components() []*component.Component {
	out := make([]*component.Component, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.components[id])
	}
	return out
}

// Len is the number of components
func (g *Grid) Len() int {
	return len(g.order)
}

// DeleteSelectedItem removes the component with id and severs every reference to it held by
// the remaining components. It returns the number of components removed, 0 or 1.
func (g *Grid) DeleteSelectedItem(id uuid.UUID) int {
	if _, exists := g.components[id]; !exists {
		return 0
	}
	delete(g.components, id)
	for i, each := range g.order {
		if each == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	for _, c := range g.components {
		c.Disconnect(id)
	}
	return 1
}

// AddAssociation appends a label box
func (g *Grid) AddAssociation(a Association) {
	g.associations = append(g.associations, a)
}

// Associations returns the label boxes in creation order
func (g *Grid) Associations() []Association {
	out := make([]Association, len(g.associations))
	copy(out, g.associations)
	return out
}

// SetAssociationLabels replaces the texts of the association with ordinal. It reports whether
// one was found.
func (g *Grid) SetAssociationLabels(ordinal int, label, subLabel, acronym string) bool {
	for i := range g.associations {
		if g.associations[i].Ordinal == ordinal {
			g.associations[i].Label = label
			g.associations[i].SubLabel = subLabel
			g.associations[i].Acronym = acronym
			return true
		}
	}
	return false
}

// CountAssociations is used to number new associations. It is informational only.
func (g *Grid) CountAssociations() int {
	return len(g.associations)
}
