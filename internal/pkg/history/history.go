/*
history.go Linear undo/redo over grid mementos. Every committed mutation saves the grid state
captured before it; undoing swaps that state back in and keeps the replaced state for redo.
*/

package history

import (
	"time"

	"github.com/ohowland/gridflow/internal/pkg/grid"
)

// SaveStateEvent is the grid state captured before a mutation.
type SaveStateEvent struct {
	Action  string
	At      time.Time
	Memento grid.GridMemento
}

// NewSaveStateEvent wraps the pre-mutation snapshot of action.
func NewSaveStateEvent(action string, m grid.GridMemento) SaveStateEvent {
	return SaveStateEvent{Action: action, At: time.Now(), Memento: m}
}

// Historian keeps the undo and redo stacks of one grid.
type Historian struct {
	undo  []SaveStateEvent
	redo  []SaveStateEvent
	limit int
}

// NewHistorian returns an empty historian keeping at most limit undo entries. A limit of 0
// keeps everything.
func NewHistorian(limit int) *Historian {
	if limit < 0 {
		limit = 0
	}
	return &Historian{
		undo:  make([]SaveStateEvent, 0),
		redo:  make([]SaveStateEvent, 0),
		limit: limit,
	}
}

// Save records a new action. Any redo history is discarded.
func (h *Historian) Save(e SaveStateEvent) {
	h.undo = push(h.undo, e, h.limit)
	h.redo = h.redo[:0]
}

// Undo restores the state saved before the last action. It reports false when there is
// nothing to undo. If the saved state cannot be rebuilt both stacks are left unchanged.
func (h *Historian) Undo(g *grid.Grid) (bool, error) {
	if len(h.undo) == 0 {
		return false, nil
	}
	last := h.undo[len(h.undo)-1]
	current := NewSaveStateEvent(last.Action, g.MakeSnapshot())
	if err := g.Restore(last.Memento); err != nil {
		return false, err
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = push(h.redo, current, h.limit)
	return true, nil
}

// Redo reapplies the last undone action.
func (h *Historian) Redo(g *grid.Grid) (bool, error) {
	if len(h.redo) == 0 {
		return false, nil
	}
	last := h.redo[len(h.redo)-1]
	current := NewSaveStateEvent(last.Action, g.MakeSnapshot())
	if err := g.Restore(last.Memento); err != nil {
		return false, err
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = push(h.undo, current, h.limit)
	return true, nil
}

// CanUndo reports whether Undo has an entry
func (h *Historian) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo reports whether Redo has an entry
func (h *Historian) CanRedo() bool {
	return len(h.redo) > 0
}

// Depth returns the sizes of the undo and redo stacks
func (h *Historian) Depth() (undo int, redo int) {
	return len(h.undo), len(h.redo)
}

// NextUndo names the action Undo would revert, or "".
func (h *Historian) NextUndo() string {
	if len(h.undo) == 0 {
		return ""
	}
	return h.undo[len(h.undo)-1].Action
}

// Clear drops all history, as after loading a new document.
func (h *Historian) Clear() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}

func push(stack []SaveStateEvent, e SaveStateEvent, limit int) []SaveStateEvent {
	stack = append(stack, e)
	if limit > 0 && len(stack) > limit {
		stack = append(stack[:0], stack[len(stack)-limit:]...)
	}
	return stack
}
