package component

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/ohowland/gridflow/internal/pkg/geometry"
)

// Record is the flat key/value form of a component (ObjectData). Positions are "x,y"
// strings and references are id strings, so a Record survives any JSON, YAML or BSON
// round trip.
type Record map[string]interface{}

// Record keys
const (
	keyID              = "id"
	keyName            = "name"
	keyNamePos         = "namepos"
	keyType            = "type"
	keyPos             = "pos"
	keyAngle           = "angle"
	keyStart           = "start"
	keyEnd             = "end"
	keyBridges         = "bridges"
	keyConnections     = "connections"
	keyOn              = "on"
	keyOutputs         = "outputs"
	keyClosed          = "closed"
	keyClosedByDefault = "closedByDefault"
	keyLocked          = "locked"
	keyInWire          = "inWire"
	keyOutWire         = "outWire"
	keyVoltage         = "voltage"
	keyTandemID        = "tandemId"
	keyMainLineNode    = "mainLineNode"
	keyCutoutID        = "atsCutOutID"
	keyState           = "STATE"
	keyBuildings       = "buildings"
	keyTransformerSize = "transformerSize"
	keyWarnings        = "warnings"
)

// ObjectData serializes the component into a Record.
func (c *Component) ObjectData() Record {
	return c.MakeSnapshot().Record()
}

// Record flattens a memento.
func (m Memento) Record() Record {
	r := Record{
		keyID:      m.ID,
		keyName:    m.Name,
		keyNamePos: m.NameRight,
		keyType:    string(m.Kind),
		keyPos:     m.Position.String(),
		keyAngle:   m.Angle,
	}

	switch m.Kind.Behavior() {
	case WireBehavior:
		r[keyStart] = m.Start.String()
		r[keyEnd] = m.End.String()
		r[keyConnections] = nonNil(m.Connections)
		bridges := make([]string, len(m.Bridges))
		for i, p := range m.Bridges {
			bridges[i] = p.String()
		}
		r[keyBridges] = bridges
	case SourceBehavior:
		r[keyOn] = m.On
		r[keyLocked] = m.Locked
		r[keyOutputs] = nonNil(m.Outputs)
		if m.Kind == ATS {
			r[keyMainLineNode] = m.MainLineNode
			r[keyCutoutID] = m.CutoutID
			r[keyState] = int(m.State)
		}
	default:
		r[keyInWire] = m.InWire
		r[keyOutWire] = m.OutWire
		if m.Kind.Behavior() == CloseableBehavior {
			r[keyClosed] = m.Closed
			r[keyClosedByDefault] = m.ClosedByDefault
			r[keyLocked] = m.Locked
		}
		if m.Kind.IsBreaker() {
			r[keyVoltage] = string(m.Voltage)
			r[keyTandemID] = m.TandemID
		}
		if m.Kind == ConnectedLoadText {
			r[keyBuildings] = m.Buildings
			r[keyTransformerSize] = m.TransformerSize
			r[keyWarnings] = m.Warnings
		}
	}
	return r
}

// Kind returns the component kind stored in the record
func (r Record) Kind() Kind {
	return Kind(r.String(keyType))
}

// Memento rebuilds the memento a record was flattened from.
func (r Record) Memento() (Memento, error) {
	m := Memento{
		Kind:            r.Kind(),
		ID:              r.String(keyID),
		Name:            r.String(keyName),
		NameRight:       r.Bool(keyNamePos),
		Angle:           r.Float(keyAngle),
		Connections:     r.Strings(keyConnections),
		On:              r.Bool(keyOn),
		Outputs:         r.Strings(keyOutputs),
		Closed:          r.Bool(keyClosed),
		ClosedByDefault: r.Bool(keyClosedByDefault),
		Locked:          r.Bool(keyLocked),
		InWire:          r.String(keyInWire),
		OutWire:         r.String(keyOutWire),
		Voltage:         Voltage(r.String(keyVoltage)),
		TandemID:        r.String(keyTandemID),
		MainLineNode:    r.String(keyMainLineNode),
		CutoutID:        r.String(keyCutoutID),
		State:           TransferState(r.Float(keyState)),
		Buildings:       r.String(keyBuildings),
		TransformerSize: r.String(keyTransformerSize),
		Warnings:        r.String(keyWarnings),
	}
	if !m.Kind.Valid() {
		return Memento{}, fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}

	var err error
	if m.Position, err = geometry.ParsePoint(r.String(keyPos)); err != nil {
		return Memento{}, err
	}
	if m.Kind == Wire {
		if m.Start, err = geometry.ParsePoint(r.String(keyStart)); err != nil {
			return Memento{}, err
		}
		if m.End, err = geometry.ParsePoint(r.String(keyEnd)); err != nil {
			return Memento{}, err
		}
		for _, s := range r.Strings(keyBridges) {
			p, err := geometry.ParsePoint(s)
			if err != nil {
				return Memento{}, err
			}
			m.Bridges = append(m.Bridges, p)
		}
	}
	if len(m.Connections) == 0 {
		m.Connections = nil
	}
	if len(m.Outputs) == 0 {
		m.Outputs = nil
	}
	return m, nil
}

// FromRecord constructs a component from a record. References are restored as ids.
func FromRecord(r Record) (*Component, error) {
	m, err := r.Memento()
	if err != nil {
		return nil, err
	}
	return m.Build()
}

// ApplyRecord stamps the copyable state of r onto c: name, label side, angle and the
// kind-specific settings. Identity, position, connections, interlocks and locks are kept.
func (c *Component) ApplyRecord(r Record) error {
	if r == nil {
		return nil
	}
	if kind := r.Kind(); kind != c.kind {
		return fmt.Errorf("cannot apply %v data to %v", kind, c.kind)
	}

	if err := c.SetAngle(r.Float(keyAngle)); err != nil {
		return err
	}
	c.name = r.String(keyName)
	c.nameRight = r.Bool(keyNamePos)

	switch c.Behavior() {
	case SourceBehavior:
		if c.kind != ATS {
			c.on = r.Bool(keyOn)
		}
	case CloseableBehavior:
		c.closedByDefault = r.Bool(keyClosedByDefault)
		c.closed = r.Bool(keyClosed)
	case PassiveBehavior:
		if c.kind == ConnectedLoadText {
			c.SetLoadText(r.String(keyBuildings), r.String(keyTransformerSize), r.String(keyWarnings))
		}
	}
	return nil
}

// String returns the string at key, or "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return ""
}

// Bool returns the boolean at key, or false.
func (r Record) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// Float returns the number at key, or 0. Integer encodings from BSON or YAML are accepted.
func (r Record) Float(key string) float64 {
	v := reflect.ValueOf(r[key])
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.String:
		f, _ := strconv.ParseFloat(v.String(), 64)
		return f
	}
	return 0
}

// Strings returns the string list at key. Any slice type whose elements are strings is
// accepted, which covers []interface{} from JSON and YAML and primitive.A from BSON.
func (r Record) Strings(key string) []string {
	v := reflect.ValueOf(r[key])
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil
	}
	out := make([]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		if s, ok := v.Index(i).Interface().(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
