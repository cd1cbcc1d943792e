package component

import (
	"github.com/google/uuid"
)

// Connections returns every component this one references, in role order. Soft references
// (tandem partner, ATS cutout) are not included; see References.
func (c *Component) Connections() []uuid.UUID {
	switch c.Behavior() {
	case WireBehavior:
		return cloneIDs(c.connections)
	case SourceBehavior:
		ids := cloneIDs(c.outputs)
		if c.mainLineNode != uuid.Nil {
			ids = append(ids, c.mainLineNode)
		}
		return ids
	}

	ids := make([]uuid.UUID, 0, 2)
	if c.inWire != uuid.Nil {
		ids = append(ids, c.inWire)
	}
	if c.outWire != uuid.Nil && c.outWire != c.inWire {
		ids = append(ids, c.outWire)
	}
	return ids
}

// References returns Connections plus the soft references a memento must be able to resolve.
func (c *Component) References() []uuid.UUID {
	ids := c.Connections()
	if c.tandemID != uuid.Nil {
		ids = append(ids, c.tandemID)
	}
	if c.cutoutID != uuid.Nil {
		ids = append(ids, c.cutoutID)
	}
	return ids
}

// AccessibleConnections returns the components energy can flow to from this one. A wire
// passes energy to everything it touches, a source only while on, a closeable device only
// to its out side while closed and a passive device always to its out side.
func (c *Component) AccessibleConnections() []uuid.UUID {
	switch c.Behavior() {
	case WireBehavior:
		return cloneIDs(c.connections)
	case SourceBehavior:
		if c.on {
			return cloneIDs(c.outputs)
		}
		return nil
	case CloseableBehavior:
		if c.closed && c.outWire != uuid.Nil {
			return []uuid.UUID{c.outWire}
		}
		return nil
	}

	if c.outWire != uuid.Nil {
		return []uuid.UUID{c.outWire}
	}
	return nil
}

// Disconnect severs every reference this component holds to id.
func (c *Component) Disconnect(id uuid.UUID) {
	c.connections = without(c.connections, id)
	c.outputs = without(c.outputs, id)
	if c.inWire == id {
		c.inWire = uuid.Nil
	}
	if c.outWire == id {
		c.outWire = uuid.Nil
	}
	if c.mainLineNode == id {
		c.mainLineNode = uuid.Nil
	}
	if c.tandemID == id {
		c.tandemID = uuid.Nil
	}
	if c.cutoutID == id {
		c.cutoutID = uuid.Nil
	}
}

// Toggleable reports whether Toggle can change the component
func (c *Component) Toggleable() bool {
	switch c.Behavior() {
	case CloseableBehavior:
		return true
	case SourceBehavior:
		return c.kind != ATS
	}
	return false
}

// Lockable reports whether ToggleLock can change the component
func (c *Component) Lockable() bool {
	return c.Toggleable()
}

// Active reports whether a toggleable component is closed or on.
func (c *Component) Active() bool {
	if c.Behavior() == SourceBehavior {
		return c.on
	}
	return c.closed
}

// Toggle flips closed or on. Locked and non-toggleable components are left unchanged;
// the return value reports whether the state changed.
func (c *Component) Toggle() bool {
	if c.locked || !c.Toggleable() {
		return false
	}
	if c.Behavior() == SourceBehavior {
		c.on = !c.on
	} else {
		c.closed = !c.closed
	}
	return true
}

// ToggleLock flips the lock flag of a lockable component.
func (c *Component) ToggleLock() bool {
	if !c.Lockable() {
		return false
	}
	c.locked = !c.locked
	return true
}

func without(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return ids
	}
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
