package builder

import (
	"github.com/ohowland/gridflow/internal/pkg/component"
)

// Session holds the build-menu state of one editor: the selected tool, the placement
// rotation, the default closed state for new devices and the copy clipboard.
type Session struct {
	rotation     float64
	defaultState bool
	tool         component.Kind

	// Clipboard holds the record of the last copied component, or nil.
	Clipboard component.Record
}

// NewSession returns a session with the switch tool selected, no rotation and devices
// placed closed.
func NewSession() *Session {
	return &Session{
		defaultState: true,
		tool:         component.Switch,
	}
}

// Rotation is the angle applied to newly placed components
func (s *Session) Rotation() float64 {
	return s.rotation
}

// SetRotation sets the placement angle. Only quarter turns are accepted.
func (s *Session) SetRotation(angle float64) error {
	normalized, err := component.NormalizeAngle(angle)
	if err != nil {
		return err
	}
	s.rotation = normalized
	return nil
}

// Rotate advances the placement angle a quarter turn clockwise.
func (s *Session) Rotate() float64 {
	s.rotation, _ = component.NormalizeAngle(s.rotation + 90)
	return s.rotation
}

// DefaultState is the initial closed state of newly placed closeable devices
func (s *Session) DefaultState() bool {
	return s.defaultState
}

// SetDefaultState changes the initial closed state of new devices
func (s *Session) SetDefaultState(closed bool) {
	s.defaultState = closed
}

// Tool is the kind placed by the next click
func (s *Session) Tool() component.Kind {
	return s.tool
}

// SetTool selects the kind to place and resets the default state to closed.
func (s *Session) SetTool(kind component.Kind) error {
	if !kind.Valid() {
		return component.ErrUnknownKind
	}
	s.tool = kind
	s.defaultState = true
	return nil
}
