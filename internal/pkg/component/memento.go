package component

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/geometry"
	"github.com/tiendc/go-deepcopy"
)

// Memento is an immutable snapshot of one component. It holds only primitive state and
// the ids of referenced components, never live objects.
type Memento struct {
	Kind      Kind           `json:"type" yaml:"type" bson:"type"`
	ID        string         `json:"id" yaml:"id" bson:"id"`
	Name      string         `json:"name" yaml:"name" bson:"name"`
	NameRight bool           `json:"namepos" yaml:"namepos" bson:"namepos"`
	Position  geometry.Point `json:"pos" yaml:"pos" bson:"pos"`
	Angle     float64        `json:"angle" yaml:"angle" bson:"angle"`

	Start       geometry.Point   `json:"start,omitempty" yaml:"start,omitempty" bson:"start,omitempty"`
	End         geometry.Point   `json:"end,omitempty" yaml:"end,omitempty" bson:"end,omitempty"`
	Bridges     []geometry.Point `json:"bridges,omitempty" yaml:"bridges,omitempty" bson:"bridges,omitempty"`
	Connections []string         `json:"connections,omitempty" yaml:"connections,omitempty" bson:"connections,omitempty"`

	On      bool     `json:"on,omitempty" yaml:"on,omitempty" bson:"on,omitempty"`
	Outputs []string `json:"outputs,omitempty" yaml:"outputs,omitempty" bson:"outputs,omitempty"`

	Closed          bool   `json:"closed,omitempty" yaml:"closed,omitempty" bson:"closed,omitempty"`
	ClosedByDefault bool   `json:"closedByDefault,omitempty" yaml:"closedByDefault,omitempty" bson:"closedByDefault,omitempty"`
	Locked          bool   `json:"locked,omitempty" yaml:"locked,omitempty" bson:"locked,omitempty"`
	InWire          string `json:"inWire,omitempty" yaml:"inWire,omitempty" bson:"inWire,omitempty"`
	OutWire         string `json:"outWire,omitempty" yaml:"outWire,omitempty" bson:"outWire,omitempty"`

	Voltage  Voltage `json:"voltage,omitempty" yaml:"voltage,omitempty" bson:"voltage,omitempty"`
	TandemID string  `json:"tandemId,omitempty" yaml:"tandemId,omitempty" bson:"tandemId,omitempty"`

	MainLineNode string        `json:"mainLineNode,omitempty" yaml:"mainLineNode,omitempty" bson:"mainLineNode,omitempty"`
	CutoutID     string        `json:"atsCutOutID,omitempty" yaml:"atsCutOutID,omitempty" bson:"atsCutOutID,omitempty"`
	State        TransferState `json:"STATE,omitempty" yaml:"STATE,omitempty" bson:"STATE,omitempty"`

	Buildings       string `json:"buildings,omitempty" yaml:"buildings,omitempty" bson:"buildings,omitempty"`
	TransformerSize string `json:"transformerSize,omitempty" yaml:"transformerSize,omitempty" bson:"transformerSize,omitempty"`
	Warnings        string `json:"warnings,omitempty" yaml:"warnings,omitempty" bson:"warnings,omitempty"`
}

// MakeSnapshot captures the component's state.
func (c *Component) MakeSnapshot() Memento {
	m := Memento{
		Kind:      c.kind,
		ID:        c.id.String(),
		Name:      c.name,
		NameRight: c.nameRight,
		Position:  c.position,
		Angle:     c.angle,
	}

	switch c.Behavior() {
	case WireBehavior:
		m.Start = c.start
		m.End = c.end
		m.Connections = idStrings(c.connections)
		if len(c.bridgePoints) > 0 {
			_ = deepcopy.Copy(&m.Bridges, &c.bridgePoints)
		}
	case SourceBehavior:
		m.On = c.on
		m.Locked = c.locked
		m.Outputs = idStrings(c.outputs)
		m.MainLineNode = idString(c.mainLineNode)
		m.CutoutID = idString(c.cutoutID)
		m.State = c.TransferState()
	default:
		m.Closed = c.closed
		m.ClosedByDefault = c.closedByDefault
		m.Locked = c.locked
		m.InWire = idString(c.inWire)
		m.OutWire = idString(c.outWire)
		m.Voltage = c.Voltage()
		m.TandemID = idString(c.tandemID)
		m.Buildings = c.buildings
		m.TransformerSize = c.transformerSize
		m.Warnings = c.warnings
	}
	return m
}

// Clone returns a deep copy of the memento.
func (m Memento) Clone() Memento {
	var out Memento
	if err := deepcopy.Copy(&out, &m); err != nil {
		out = m
		out.Bridges = append([]geometry.Point(nil), m.Bridges...)
		out.Connections = append([]string(nil), m.Connections...)
		out.Outputs = append([]string(nil), m.Outputs...)
	}
	return out
}

// ConnectionIDs returns every id the memento references, connections first and soft
// references last.
func (m Memento) ConnectionIDs() []string {
	ids := make([]string, 0, len(m.Connections)+len(m.Outputs)+5)
	ids = append(ids, m.Connections...)
	ids = append(ids, m.Outputs...)
	for _, id := range []string{m.InWire, m.OutWire, m.MainLineNode, m.TandemID, m.CutoutID} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Build reconstructs a standalone component from the memento. Referenced ids are restored
// as values; resolving them against other components is the caller's job.
func (m Memento) Build() (*Component, error) {
	if !m.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("component id %q: %w", m.ID, err)
	}
	angle, err := NormalizeAngle(m.Angle)
	if err != nil {
		return nil, fmt.Errorf("component %v: %w", id, err)
	}

	c := &Component{
		id:        id,
		kind:      m.Kind,
		name:      m.Name,
		nameRight: m.NameRight,
		position:  m.Position,
		angle:     angle,
	}

	switch m.Kind.Behavior() {
	case WireBehavior:
		c.start = m.Start
		c.end = m.End
		if len(m.Bridges) > 0 {
			c.bridgePoints = append([]geometry.Point(nil), m.Bridges...)
		}
		if c.connections, err = parseIDs(m.Connections); err != nil {
			return nil, fmt.Errorf("wire %v: %w", id, err)
		}
	case SourceBehavior:
		c.on = m.On
		c.locked = m.Locked
		c.maxOutputs = 1
		if m.Kind == Turbine {
			c.maxOutputs = 2
		}
		if c.outputs, err = parseIDs(m.Outputs); err != nil {
			return nil, fmt.Errorf("source %v: %w", id, err)
		}
		if len(c.outputs) > c.maxOutputs {
			return nil, fmt.Errorf("source %v: %d outputs exceed limit of %d", id, len(c.outputs), c.maxOutputs)
		}
		if c.mainLineNode, err = parseOptionalID(m.MainLineNode); err != nil {
			return nil, fmt.Errorf("ats %v: %w", id, err)
		}
		if c.cutoutID, err = parseOptionalID(m.CutoutID); err != nil {
			return nil, fmt.Errorf("ats %v: %w", id, err)
		}
		if m.Kind == ATS {
			c.transfer = newTransferSwitch(m.State)
		}
	default:
		c.closed = m.Closed
		c.closedByDefault = m.ClosedByDefault
		c.locked = m.Locked
		c.buildings = m.Buildings
		c.transformerSize = m.TransformerSize
		c.warnings = m.Warnings
		if c.inWire, err = parseOptionalID(m.InWire); err != nil {
			return nil, fmt.Errorf("device %v: %w", id, err)
		}
		if c.outWire, err = parseOptionalID(m.OutWire); err != nil {
			return nil, fmt.Errorf("device %v: %w", id, err)
		}
		if c.tandemID, err = parseOptionalID(m.TandemID); err != nil {
			return nil, fmt.Errorf("breaker %v: %w", id, err)
		}
	}
	return c, nil
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func idStrings(ids []uuid.UUID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseOptionalID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}

func parseIDs(ss []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("connection id %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}
