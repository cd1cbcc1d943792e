package grid

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/component"
)

// Energize recomputes the energized flag of every component from scratch. Each source that is
// on floods its reachable set breadth first; a component reached from any source is energized.
// Device terminal flags and ATS transfer states are derived after the traversal. The result
// depends only on the component states, never on the previous pass.
func (g *Grid) Energize() error {
	for _, c := range g.components {
		c.SetEnergized(false)
		c.SetTerminalEnergy(false, false)
	}

	for _, id := range g.order {
		c := g.components[id]
		if c.Behavior() == component.SourceBehavior && c.On() {
			g.flood(c)
		}
	}

	for _, id := range g.order {
		c := g.components[id]
		if c.Kind().IsDevice() {
			c.SetTerminalEnergy(g.isEnergized(c.InWire()), g.isEnergized(c.OutWire()))
		}
	}

	for _, id := range g.order {
		c := g.components[id]
		if c.Kind() != component.ATS {
			continue
		}
		if err := c.UpdateTransfer(g.isEnergized(c.MainLineNode())); err != nil {
			return fmt.Errorf("ats %v transfer: %w", c.ID(), err)
		}
	}
	return nil
}

func (g *Grid) flood(source *component.Component) {
	visited := map[uuid.UUID]bool{source.ID(): true}
	queue := []*component.Component{source}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		curr.SetEnergized(true)

		for _, next := range curr.AccessibleConnections() {
			if visited[next] {
				continue
			}
			visited[next] = true
			if c, ok := g.components[next]; ok {
				queue = append(queue, c)
			}
		}
	}
}

func (g *Grid) isEnergized(id uuid.UUID) bool {
	if c, ok := g.components[id]; ok {
		return c.Energized()
	}
	return false
}

// EnergizedIDs returns the ids of every energized component in insertion order.
func (g *Grid) EnergizedIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0)
	for _, id := range g.order {
		if g.components[id].Energized() {
			out = append(out, id)
		}
	}
	return out
}
