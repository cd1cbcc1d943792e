package component

import (
	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/geometry"
)

// IconState is everything a renderer needs to draw a component after a core mutation.
type IconState struct {
	ID              uuid.UUID        `json:"id"`
	Kind            Kind             `json:"kind"`
	Name            string           `json:"name"`
	NameRight       bool             `json:"nameRight"`
	Position        geometry.Point   `json:"position"`
	Angle           float64          `json:"angle"`
	Energized       bool             `json:"energized"`
	InEnergized     bool             `json:"inEnergized"`
	OutEnergized    bool             `json:"outEnergized"`
	Closed          bool             `json:"closed"`
	ClosedByDefault bool             `json:"closedByDefault"`
	Locked          bool             `json:"locked"`
	Tandem          uuid.UUID        `json:"tandem"`
	On              bool             `json:"on"`
	Transfer        string           `json:"transfer,omitempty"`
	Start           geometry.Point   `json:"start"`
	End             geometry.Point   `json:"end"`
	Bridges         []geometry.Point `json:"bridges,omitempty"`
}

// Icon returns the presentation state of the component. It reads only the component's own
// flags, so it is safe to call after any energization pass.
func (c *Component) Icon() IconState {
	icon := IconState{
		ID:        c.id,
		Kind:      c.kind,
		Name:      c.name,
		NameRight: c.nameRight,
		Position:  c.position,
		Angle:     c.angle,
		Energized: c.energized,
	}

	switch c.Behavior() {
	case WireBehavior:
		icon.Start = c.start
		icon.End = c.end
		icon.Bridges = c.BridgePoints()
	case SourceBehavior:
		icon.On = c.on
		icon.Locked = c.locked
		icon.OutEnergized = c.energized && c.on
		if c.kind == ATS {
			icon.Transfer = c.TransferState().String()
		}
	case CloseableBehavior:
		icon.Closed = c.closed
		icon.ClosedByDefault = c.closedByDefault
		icon.Locked = c.locked
		icon.InEnergized = c.inEnergized
		icon.OutEnergized = c.outEnergized
		icon.Tandem = c.tandemID
	default:
		icon.InEnergized = c.inEnergized
		icon.OutEnergized = c.outEnergized
	}
	return icon
}
