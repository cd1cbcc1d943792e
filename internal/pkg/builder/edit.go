package builder

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/component"
	"github.com/ohowland/gridflow/internal/pkg/geometry"
	"github.com/ohowland/gridflow/internal/pkg/grid"
)

// ErrSelfTandem is returned when a breaker is paired with itself
var ErrSelfTandem = errors.New("breaker cannot be its own tandem")

// ToggleComponent flips a closeable device or a source and re-energizes the grid. Locked and
// non-toggleable components are left alone. It reports whether the component changed.
func (b *Builder) ToggleComponent(g *grid.Grid, id uuid.UUID) bool {
	changed := b.toggle(g, id)
	if changed {
		b.energize(g)
	}
	return changed
}

// LockComponent flips the lock of a lockable component, opening it first if it is closed or
// on. A locked component is therefore never active.
func (b *Builder) LockComponent(g *grid.Grid, id uuid.UUID) bool {
	changed := b.lock(g, id)
	if changed {
		b.energize(g)
	}
	return changed
}

func (b *Builder) toggle(g *grid.Grid, id uuid.UUID) bool {
	c, ok := g.Component(id)
	if !ok || c.Locked() || !c.Toggleable() {
		return false
	}

	// a closing breaker locks its tandem open; an opening one releases it
	if c.HasTandem() {
		if tandem, ok := g.Component(c.TandemID()); ok && tandem.Kind().IsBreaker() {
			closing := !c.Closed()
			if closing && !tandem.Locked() {
				b.lock(g, tandem.ID())
			} else if !closing && tandem.Locked() {
				b.lock(g, tandem.ID())
			}
		}
	}
	return c.Toggle()
}

func (b *Builder) lock(g *grid.Grid, id uuid.UUID) bool {
	c, ok := g.Component(id)
	if !ok {
		return false
	}
	if !c.Lockable() {
		b.log.Debugf("%v %v is not lockable", c.Kind(), id)
		return false
	}
	if c.Active() {
		b.toggle(g, id)
	}
	return c.ToggleLock()
}

func (b *Builder) energize(g *grid.Grid) {
	if err := g.Energize(); err != nil {
		b.log.Errorf("energize: %v", err)
	}
}

// SetTandem interlocks two breakers. Previous partners of either breaker are released. When
// both are closed the second is opened and locked.
func (b *Builder) SetTandem(g *grid.Grid, first, second uuid.UUID) (Result, error) {
	return b.mutate(g, func(r *Result) error {
		if first == second {
			return ErrSelfTandem
		}
		a, err := breaker(g, first)
		if err != nil {
			return err
		}
		c, err := breaker(g, second)
		if err != nil {
			return err
		}
		for _, each := range []*component.Component{a, c} {
			if each.HasTandem() {
				b.release(g, each)
			}
		}
		a.SetTandem(c.ID())
		c.SetTandem(a.ID())
		b.interlock(g, a, c)
		r.Placed = a.ID()
		r.Periphery = []uuid.UUID{c.ID()}
		return nil
	})
}

// ClearTandem removes the interlock of a breaker from both sides. A breaker without a partner
// is left alone and the result is not committed.
func (b *Builder) ClearTandem(g *grid.Grid, id uuid.UUID) (Result, error) {
	c, err := breaker(g, id)
	if err != nil {
		return Result{}, err
	}
	if !c.HasTandem() {
		return Result{}, nil
	}
	partner := c.TandemID()
	return b.mutate(g, func(r *Result) error {
		b.release(g, c)
		r.Placed = id
		if _, ok := g.Component(partner); ok {
			r.Periphery = []uuid.UUID{partner}
		}
		return nil
	})
}

// release unlinks c and its partner. The one held open by the other's interlock is unlocked.
func (b *Builder) release(g *grid.Grid, c *component.Component) {
	partner, ok := g.Component(c.TandemID())
	c.SetTandem(uuid.Nil)
	if !ok {
		return
	}
	partner.SetTandem(uuid.Nil)
	switch {
	case c.Closed() && partner.Locked():
		partner.ToggleLock()
	case partner.Closed() && c.Locked():
		c.ToggleLock()
	}
}

// interlock locks the partner of a closed breaker open.
func (b *Builder) interlock(g *grid.Grid, a, c *component.Component) {
	switch {
	case a.Closed() && !c.Locked():
		b.lock(g, c.ID())
	case c.Closed() && !a.Locked():
		b.lock(g, a.ID())
	}
}

func breaker(g *grid.Grid, id uuid.UUID) (*component.Component, error) {
	c, ok := g.Component(id)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	if !c.Kind().IsBreaker() {
		return nil, fmt.Errorf("%w: %v is %v", ErrNotBreaker, id, c.Kind())
	}
	return c, nil
}

// Delete removes the given components. The result is committed only when something was
// removed.
func (b *Builder) Delete(g *grid.Grid, ids ...uuid.UUID) Result {
	pre := g.MakeSnapshot()
	removed := 0
	for _, id := range ids {
		if c, ok := g.Component(id); ok && c.HasTandem() {
			b.release(g, c)
		}
		removed += g.DeleteSelectedItem(id)
	}
	if removed == 0 {
		return Result{}
	}
	b.energize(g)
	return Result{Committed: true, PreMutation: &pre, Periphery: ids}
}

// Drag moves a component by deleting it and placing the same kind with the same settings at
// to. An ATS takes its periphery cutout along and a breaker keeps its tandem partner. The new
// component has a new id.
func (b *Builder) Drag(g *grid.Grid, s *Session, id uuid.UUID, to geometry.Point) (Result, error) {
	c, ok := g.Component(id)
	if !ok {
		return Result{}, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	if c.Kind() == component.Wire {
		return Result{}, fmt.Errorf("%w: wires cannot be dragged", ErrPlacementConflict)
	}
	kind := c.Kind()
	data := c.ObjectData()
	partner := uuid.Nil
	if c.HasTandem() {
		partner = c.TandemID()
	}

	result, err := b.mutate(g, func(r *Result) error {
		if kind == component.ATS {
			g.DeleteSelectedItem(c.CutoutID())
		}
		g.DeleteSelectedItem(id)

		var err error
		switch {
		case kind == component.ATS:
			err = b.placeGroup(g, s, to, data, r)
		case kind.Behavior() == component.SourceBehavior:
			err = b.placeSource(g, s, to, kind, data, r)
		default:
			err = b.placeDevice(g, s, to, kind, data, r)
		}
		if err != nil {
			return err
		}

		// the moved breaker takes over the interlock
		if other, ok := g.Component(partner); ok {
			if moved, ok := g.Component(r.Placed); ok {
				moved.SetTandem(other.ID())
				other.SetTandem(moved.ID())
				b.interlock(g, moved, other)
				r.Periphery = append(r.Periphery, other.ID())
			}
		}
		return nil
	})
	if err != nil {
		b.log.Debugf("rejected drag of %v to %v: %v", id, to, err)
	}
	return result, err
}

// Copy puts the record of a component on the session clipboard.
func (b *Builder) Copy(g *grid.Grid, s *Session, id uuid.UUID) error {
	c, ok := g.Component(id)
	if !ok {
		return fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	if c.Kind() == component.Wire {
		return fmt.Errorf("%w: wires cannot be copied", component.ErrUnknownKind)
	}
	s.Clipboard = c.ObjectData()
	return nil
}

// Paste places a copy of the clipboard component at position.
func (b *Builder) Paste(g *grid.Grid, s *Session, position geometry.Point) (Result, error) {
	if s.Clipboard == nil {
		return Result{}, ErrEmptyClipboard
	}
	return b.PlaceComponent(g, s, position, s.Clipboard.Kind(), s.Clipboard)
}
