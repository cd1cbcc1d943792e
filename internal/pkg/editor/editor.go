/*
editor.go The Editor is the single entry point to a diagram. It owns the grid, the build
session, the builder and the historian, serializes every intent behind a mutex and pushes an
undo entry for each committed mutation. Committed results and fresh status are broadcast on
the editor's publisher for the datastreams, stores and HMI.
*/

package editor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/builder"
	"github.com/ohowland/gridflow/internal/pkg/component"
	"github.com/ohowland/gridflow/internal/pkg/geometry"
	"github.com/ohowland/gridflow/internal/pkg/grid"
	"github.com/ohowland/gridflow/internal/pkg/history"
	"github.com/ohowland/gridflow/internal/pkg/msg"
	"go.uber.org/zap"
)

// ErrNotFound is returned when an intent names an id that is not in the grid
var ErrNotFound = builder.ErrNotFound

// ErrWrongKind is returned when an intent does not apply to the component's kind
var ErrWrongKind = errors.New("operation not supported by component kind")

// Action names a committed intent. It labels undo entries.
type Action string

// Actions
const (
	ActionPlace            Action = "place"
	ActionPlaceWire        Action = "place wire"
	ActionPlaceAssociation Action = "place association"
	ActionLabelAssociation Action = "label association"
	ActionToggle           Action = "toggle"
	ActionLock             Action = "lock"
	ActionDelete           Action = "delete"
	ActionDrag             Action = "drag"
	ActionPaste            Action = "paste"
	ActionRename           Action = "rename"
	ActionTandem           Action = "tandem"
	ActionClearTandem      Action = "clear tandem"
	ActionLabelSide        Action = "label side"
	ActionDefaultState     Action = "default state"
	ActionLoadText         Action = "load text"
	ActionUndo             Action = "undo"
	ActionRedo             Action = "redo"
	ActionLoad             Action = "load"
)

// Result reports the outcome of an intent
type Result struct {
	Committed bool             `json:"committed"`
	Action    Action           `json:"action"`
	Changed   []uuid.UUID      `json:"changed,omitempty"`
	Bridges   []geometry.Point `json:"bridges,omitempty"`
}

// Status is the full presentation state of the editor
type Status struct {
	PID          uuid.UUID             `json:"pid"`
	Components   []component.IconState `json:"components"`
	Associations []grid.Association    `json:"associations"`
	Energized    int                   `json:"energized"`
	Undo         int                   `json:"undo"`
	Redo         int                   `json:"redo"`
	NextUndo     string                `json:"nextUndo,omitempty"`
	Tool         component.Kind        `json:"tool"`
	Rotation     float64               `json:"rotation"`
	DefaultState bool                  `json:"defaultState"`
}

// Config holds the editor settings
type Config struct {
	HistoryLimit int `json:"HistoryLimit" yaml:"historyLimit"`
}

// Editor serializes intents against one diagram.
type Editor struct {
	mux       *sync.Mutex
	pid       uuid.UUID
	grid      *grid.Grid
	session   *builder.Session
	builder   *builder.Builder
	history   *history.Historian
	publisher *msg.PubSub
	log       *zap.SugaredLogger
	config    Config
}

// New returns an editor with an empty grid. A nil logger discards output.
func New(config Config, log *zap.SugaredLogger) (*Editor, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	pid, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}
	g, err := grid.NewGrid()
	if err != nil {
		return nil, err
	}
	return &Editor{
		mux:       &sync.Mutex{},
		pid:       pid,
		grid:      g,
		session:   builder.NewSession(),
		builder:   builder.New(log.Named("Builder")),
		history:   history.NewHistorian(config.HistoryLimit),
		publisher: msg.NewPublisher(pid),
		log:       log,
		config:    config,
	}, nil
}

// PID identifies the editor as a message sender
func (e *Editor) PID() uuid.UUID {
	return e.pid
}

// Subscribe returns a channel on which the specified topic is broadcast
func (e *Editor) Subscribe(pid uuid.UUID, topic msg.Topic) (<-chan msg.Msg, error) {
	return e.publisher.Subscribe(pid, topic)
}

// Unsubscribe pid from all topic broadcasts
func (e *Editor) Unsubscribe(pid uuid.UUID) {
	e.publisher.Unsubscribe(pid)
}

// Place places a component of kind at p using the session rotation and default state.
func (e *Editor) Place(kind component.Kind, p geometry.Point) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	r, err := e.builder.PlaceComponent(e.grid, e.session, p, kind, nil)
	if err != nil {
		return Result{Action: ActionPlace}, err
	}
	return e.commit(ActionPlace, r), nil
}

// PlaceWire draws a wire from start to end. With connect set, the wire joins every wire it
// overlaps instead of bridging crossings.
func (e *Editor) PlaceWire(start, end geometry.Point, connect bool) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	r, err := e.builder.PlaceWire(e.grid, start, end, connect)
	if err != nil {
		return Result{Action: ActionPlaceWire}, err
	}
	return e.commit(ActionPlaceWire, r), nil
}

// PlaceAssociation draws an association box spanning start and end.
func (e *Editor) PlaceAssociation(start, end geometry.Point) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	r, err := e.builder.PlaceAssociation(e.grid, start, end)
	if err != nil {
		return Result{Action: ActionPlaceAssociation}, err
	}
	return e.commit(ActionPlaceAssociation, r), nil
}

// LabelAssociation sets the label, sub label and acronym of the association with ordinal.
func (e *Editor) LabelAssociation(ordinal int, label, subLabel, acronym string) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	pre := e.grid.MakeSnapshot()
	if !e.grid.SetAssociationLabels(ordinal, label, subLabel, acronym) {
		return Result{Action: ActionLabelAssociation}, fmt.Errorf("%w: association %d", ErrNotFound, ordinal)
	}
	return e.commitSnapshot(ActionLabelAssociation, pre, nil, nil), nil
}

// Toggle opens or closes a device, or switches a source on or off. Locked and non-toggleable
// components are left alone and the result is not committed.
func (e *Editor) Toggle(id uuid.UUID) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	if _, ok := e.grid.Component(id); !ok {
		return Result{Action: ActionToggle}, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	pre := e.grid.MakeSnapshot()
	if !e.builder.ToggleComponent(e.grid, id) {
		return Result{Action: ActionToggle}, nil
	}
	return e.commitSnapshot(ActionToggle, pre, []uuid.UUID{id}, nil), nil
}

// Lock flips the lock of a lockable component, opening it first if needed.
func (e *Editor) Lock(id uuid.UUID) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	if _, ok := e.grid.Component(id); !ok {
		return Result{Action: ActionLock}, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	pre := e.grid.MakeSnapshot()
	if !e.builder.LockComponent(e.grid, id) {
		return Result{Action: ActionLock}, nil
	}
	return e.commitSnapshot(ActionLock, pre, []uuid.UUID{id}, nil), nil
}

// SetState drives a toggleable component to the given closed (or on) state. It is the entry
// point for field telemetry: nothing is committed when the component is already there or is
// locked.
func (e *Editor) SetState(id uuid.UUID, active bool) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	c, ok := e.grid.Component(id)
	if !ok {
		return Result{Action: ActionToggle}, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	if !c.Toggleable() || c.Active() == active {
		return Result{Action: ActionToggle}, nil
	}
	pre := e.grid.MakeSnapshot()
	if !e.builder.ToggleComponent(e.grid, id) {
		return Result{Action: ActionToggle}, nil
	}
	return e.commitSnapshot(ActionToggle, pre, []uuid.UUID{id}, nil), nil
}

// Delete removes the given components.
func (e *Editor) Delete(ids ...uuid.UUID) Result {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.commit(ActionDelete, e.builder.Delete(e.grid, ids...))
}

// Undo reverts the last committed intent.
func (e *Editor) Undo() (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	ok, err := e.history.Undo(e.grid)
	if err != nil {
		e.log.Errorf("undo failed: %v", err)
		return Result{Action: ActionUndo}, err
	}
	return e.commitHistory(ActionUndo, ok), nil
}

// Redo reapplies the last undone intent.
func (e *Editor) Redo() (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	ok, err := e.history.Redo(e.grid)
	if err != nil {
		e.log.Errorf("redo failed: %v", err)
		return Result{Action: ActionRedo}, err
	}
	return e.commitHistory(ActionRedo, ok), nil
}

// SetRotation sets the placement angle. It must be a multiple of 90.
func (e *Editor) SetRotation(angle float64) error {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.session.SetRotation(angle)
}

// Rotate advances the placement angle by 90 degrees and returns it.
func (e *Editor) Rotate() float64 {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.session.Rotate()
}

// SetDefaultState chooses whether new devices are placed closed.
func (e *Editor) SetDefaultState(closed bool) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.session.SetDefaultState(closed)
}

// SetTool selects the component kind to place.
func (e *Editor) SetTool(kind component.Kind) error {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.session.SetTool(kind)
}

// Tool returns the selected component kind
func (e *Editor) Tool() component.Kind {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.session.Tool()
}

// Copy puts a component on the clipboard
func (e *Editor) Copy(id uuid.UUID) error {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.builder.Copy(e.grid, e.session, id)
}

// Paste places the clipboard component at p.
func (e *Editor) Paste(p geometry.Point) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	r, err := e.builder.Paste(e.grid, e.session, p)
	if err != nil {
		return Result{Action: ActionPaste}, err
	}
	return e.commit(ActionPaste, r), nil
}

// Drag moves a component to p. The moved component gets a new id.
func (e *Editor) Drag(id uuid.UUID, p geometry.Point) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	r, err := e.builder.Drag(e.grid, e.session, id, p)
	if err != nil {
		return Result{Action: ActionDrag}, err
	}
	return e.commit(ActionDrag, r), nil
}

// Rename sets the display name of a component.
func (e *Editor) Rename(id uuid.UUID, name string) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	c, ok := e.grid.Component(id)
	if !ok {
		return Result{Action: ActionRename}, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	if c.Name() == name {
		return Result{Action: ActionRename}, nil
	}
	pre := e.grid.MakeSnapshot()
	c.SetName(name)
	return e.commitSnapshot(ActionRename, pre, []uuid.UUID{id}, nil), nil
}

// SetTandem links two breakers so that closing one locks the other.
func (e *Editor) SetTandem(first, second uuid.UUID) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	r, err := e.builder.SetTandem(e.grid, first, second)
	if err != nil {
		return Result{Action: ActionTandem}, err
	}
	return e.commit(ActionTandem, r), nil
}

// SetLoadText sets the texts of a connected load annotation.
func (e *Editor) SetLoadText(id uuid.UUID, buildings, transformerSize, warnings string) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	c, ok := e.grid.Component(id)
	if !ok {
		return Result{Action: ActionLoadText}, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	if c.Kind() != component.ConnectedLoadText {
		return Result{Action: ActionLoadText}, fmt.Errorf("%w: %v has no load text", ErrWrongKind, c.Kind())
	}
	pre := e.grid.MakeSnapshot()
	c.SetLoadText(buildings, transformerSize, warnings)
	return e.commitSnapshot(ActionLoadText, pre, []uuid.UUID{id}, nil), nil
}

// ClearTandem unlinks a breaker from its tandem partner. A partner held open by the interlock
// is unlocked.
func (e *Editor) ClearTandem(id uuid.UUID) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	r, err := e.builder.ClearTandem(e.grid, id)
	if err != nil {
		return Result{Action: ActionClearTandem}, err
	}
	return e.commit(ActionClearTandem, r), nil
}

// SetNameRight puts the label of a component right (true) or left of its icon.
func (e *Editor) SetNameRight(id uuid.UUID, right bool) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	c, ok := e.grid.Component(id)
	if !ok {
		return Result{Action: ActionLabelSide}, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	if c.NameRight() == right {
		return Result{Action: ActionLabelSide}, nil
	}
	pre := e.grid.MakeSnapshot()
	c.SetNameRight(right)
	return e.commitSnapshot(ActionLabelSide, pre, []uuid.UUID{id}, nil), nil
}

// SetClosedByDefault changes the normal state of a placed closeable device and moves the
// device to it. A locked device keeps its present state.
func (e *Editor) SetClosedByDefault(id uuid.UUID, closed bool) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	c, ok := e.grid.Component(id)
	if !ok {
		return Result{Action: ActionDefaultState}, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	if c.Behavior() != component.CloseableBehavior {
		return Result{Action: ActionDefaultState}, fmt.Errorf("%w: %v has no default state", ErrWrongKind, c.Kind())
	}

	pre := e.grid.MakeSnapshot()
	changed := c.ClosedByDefault() != closed
	c.SetClosedByDefault(closed)
	if c.Closed() != closed && e.builder.ToggleComponent(e.grid, id) {
		changed = true
	}
	if !changed {
		return Result{Action: ActionDefaultState}, nil
	}
	return e.commitSnapshot(ActionDefaultState, pre, []uuid.UUID{id}, nil), nil
}

// Snapshot returns the current document
func (e *Editor) Snapshot() grid.GridMemento {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.grid.MakeSnapshot()
}

// Save broadcasts the current document on the Saved topic and returns it.
func (e *Editor) Save() grid.GridMemento {
	e.mux.Lock()
	defer e.mux.Unlock()
	m := e.grid.MakeSnapshot()
	e.publisher.Publish(msg.Saved, m)
	e.log.Infof("document saved with %d components", len(m.Components))
	return m
}

// Load replaces the document with m and drops all history. On error the current document is
// kept.
func (e *Editor) Load(m grid.GridMemento) (Result, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	if err := e.grid.Restore(m); err != nil {
		return Result{Action: ActionLoad}, err
	}
	e.history.Clear()
	result := Result{Committed: true, Action: ActionLoad}
	e.publish(result)
	e.log.Infof("document loaded with %d components", e.grid.Len())
	return result, nil
}

// Status returns the presentation state of every component and of the session.
func (e *Editor) Status() Status {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.status()
}

// Component returns the presentation state of one component.
func (e *Editor) Component(id uuid.UUID) (component.IconState, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	c, ok := e.grid.Component(id)
	if !ok {
		return component.IconState{}, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	return c.Icon(), nil
}

// Lookup returns the ids of every component named name, in insertion order.
func (e *Editor) Lookup(name string) []uuid.UUID {
	e.mux.Lock()
	defer e.mux.Unlock()
	ids := make([]uuid.UUID, 0)
	for _, c := range e.grid.Components() {
		if c.Name() == name {
			ids = append(ids, c.ID())
		}
	}
	return ids
}

func (e *Editor) status() Status {
	undo, redo := e.history.Depth()
	components := make([]component.IconState, 0, e.grid.Len())
	energized := 0
	for _, c := range e.grid.Components() {
		components = append(components, c.Icon())
		if c.Energized() {
			energized++
		}
	}
	return Status{
		PID:          e.grid.PID(),
		Components:   components,
		Associations: e.grid.Associations(),
		Energized:    energized,
		Undo:         undo,
		Redo:         redo,
		NextUndo:     e.history.NextUndo(),
		Tool:         e.session.Tool(),
		Rotation:     e.session.Rotation(),
		DefaultState: e.session.DefaultState(),
	}
}

func (e *Editor) commit(action Action, r builder.Result) Result {
	if !r.Committed {
		return Result{Action: action}
	}
	changed := make([]uuid.UUID, 0, 1+len(r.Periphery))
	if r.Placed != uuid.Nil {
		changed = append(changed, r.Placed)
	}
	changed = append(changed, r.Periphery...)
	return e.commitSnapshot(action, *r.PreMutation, changed, r.Bridges)
}

func (e *Editor) commitSnapshot(action Action, pre grid.GridMemento, changed []uuid.UUID, bridges []geometry.Point) Result {
	e.history.Save(history.NewSaveStateEvent(string(action), pre))
	result := Result{Committed: true, Action: action, Changed: changed, Bridges: bridges}
	e.publish(result)
	e.log.Debugw("intent committed", "action", action, "changed", len(changed))
	return result
}

func (e *Editor) commitHistory(action Action, ok bool) Result {
	result := Result{Committed: ok, Action: action}
	if ok {
		e.publish(result)
	}
	return result
}

func (e *Editor) publish(r Result) {
	e.publisher.Publish(msg.Changed, r)
	e.publisher.Publish(msg.Status, e.status())
}
