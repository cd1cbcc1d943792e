package component

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// TransferState is the feed an automatic transfer switch reports.
type TransferState int

// ATS transfer states. The numeric values are the STATE field of ATS records.
const (
	TransferUnset TransferState = iota
	TransferPoweredByMain
	TransferPoweredByGenerator
)

func (s TransferState) String() string {
	switch s {
	case TransferPoweredByMain:
		return "POWERED_BY_MAIN"
	case TransferPoweredByGenerator:
		return "POWERED_BY_GENERATOR"
	}
	return "UNSET"
}

func parseTransferState(s string) TransferState {
	switch s {
	case TransferPoweredByMain.String():
		return TransferPoweredByMain
	case TransferPoweredByGenerator.String():
		return TransferPoweredByGenerator
	}
	return TransferUnset
}

const (
	eventMainRestored = "main_restored"
	eventMainLost     = "main_lost"
)

// transferSwitch tracks which feed an ATS is on. It only moves in response to the
// energized state of the main line node.
type transferSwitch struct {
	fsm *fsm.FSM
}

func newTransferSwitch(initial TransferState) *transferSwitch {
	unset := TransferUnset.String()
	main := TransferPoweredByMain.String()
	generator := TransferPoweredByGenerator.String()

	return &transferSwitch{
		fsm: fsm.NewFSM(
			initial.String(),
			fsm.Events{
				{Name: eventMainRestored, Src: []string{unset, generator}, Dst: main},
				{Name: eventMainLost, Src: []string{unset, main}, Dst: generator},
			},
			fsm.Callbacks{},
		),
	}
}

func (t *transferSwitch) state() TransferState {
	return parseTransferState(t.fsm.Current())
}

func (t *transferSwitch) update(mainEnergized bool) error {
	event := eventMainLost
	if mainEnergized {
		event = eventMainRestored
	}
	if !t.fsm.Can(event) {
		return nil
	}

	err := t.fsm.Event(context.Background(), event)
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return err
}

// TransferState returns the feed an ATS is on. Other kinds report TransferUnset.
func (c *Component) TransferState() TransferState {
	if c.transfer == nil {
		return TransferUnset
	}
	return c.transfer.state()
}

// UpdateTransfer advances the ATS state machine from the main line's energized state.
func (c *Component) UpdateTransfer(mainEnergized bool) error {
	if c.kind != ATS {
		return nil
	}
	if c.transfer == nil {
		c.transfer = newTransferSwitch(TransferUnset)
	}
	return c.transfer.update(mainEnergized)
}
