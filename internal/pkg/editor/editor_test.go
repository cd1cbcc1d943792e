package editor

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/builder"
	"github.com/ohowland/gridflow/internal/pkg/component"
	"github.com/ohowland/gridflow/internal/pkg/geometry"
	"github.com/ohowland/gridflow/internal/pkg/msg"
	"gotest.tools/v3/assert"
)

func pt(x, y float64) geometry.Point {
	return geometry.NewPoint(x, y)
}

func newTestEditor(t *testing.T) *Editor {
	e, err := New(Config{}, nil)
	assert.NilError(t, err)
	return e
}

func mustPlace(t *testing.T, e *Editor, kind component.Kind, p geometry.Point) uuid.UUID {
	r, err := e.Place(kind, p)
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	assert.Equal(t, r.Action, ActionPlace)
	return r.Changed[0]
}

func mustIcon(t *testing.T, e *Editor, id uuid.UUID) component.IconState {
	icon, err := e.Component(id)
	assert.NilError(t, err)
	return icon
}

func TestPlaceIsUndoable(t *testing.T) {
	e := newTestEditor(t)
	mustPlace(t, e, component.PowerSource, pt(0, 0))

	status := e.Status()
	assert.Equal(t, len(status.Components), 2)
	assert.Equal(t, status.Undo, 1)
	assert.Equal(t, status.NextUndo, string(ActionPlace))

	r, err := e.Undo()
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	assert.Equal(t, len(e.Status().Components), 0)

	r, err = e.Redo()
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	assert.Equal(t, len(e.Status().Components), 2)
}

func TestUndoWithNoHistory(t *testing.T) {
	e := newTestEditor(t)
	r, err := e.Undo()
	assert.NilError(t, err)
	assert.Assert(t, !r.Committed)
	assert.Equal(t, r.Action, ActionUndo)
}

func TestRejectedPlacementIsNotSaved(t *testing.T) {
	e := newTestEditor(t)
	mustPlace(t, e, component.Switch, pt(0, 0))

	r, err := e.Place(component.Switch, pt(0, 0))
	assert.Assert(t, errors.Is(err, builder.ErrPlacementConflict))
	assert.Assert(t, !r.Committed)
	assert.Equal(t, e.Status().Undo, 1)
}

func TestSwitchScenario(t *testing.T) {
	e := newTestEditor(t)
	e.SetDefaultState(false)
	mustPlace(t, e, component.PowerSource, pt(0, 0))
	sw := mustPlace(t, e, component.Switch, pt(0, 0))

	icon := mustIcon(t, e, sw)
	assert.Assert(t, icon.InEnergized)
	assert.Assert(t, !icon.OutEnergized)

	r, err := e.Toggle(sw)
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	assert.DeepEqual(t, r.Changed, []uuid.UUID{sw})
	assert.Assert(t, mustIcon(t, e, sw).OutEnergized)

	_, err = e.Undo()
	assert.NilError(t, err)
	assert.Assert(t, !mustIcon(t, e, sw).OutEnergized)
}

func TestToggleNoOpIsNotSaved(t *testing.T) {
	e := newTestEditor(t)
	mustPlace(t, e, component.Pole, pt(0, 0))
	pole := e.Status().Components[1].ID

	r, err := e.Toggle(pole)
	assert.NilError(t, err)
	assert.Assert(t, !r.Committed)
	assert.Equal(t, e.Status().Undo, 1)

	_, err = e.Toggle(uuid.New())
	assert.Assert(t, errors.Is(err, ErrNotFound))
}

func TestLockOpensAndSaves(t *testing.T) {
	e := newTestEditor(t)
	mustPlace(t, e, component.PowerSource, pt(0, 0))
	sw := mustPlace(t, e, component.Switch, pt(0, 0))

	r, err := e.Lock(sw)
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	icon := mustIcon(t, e, sw)
	assert.Assert(t, icon.Locked)
	assert.Assert(t, !icon.Closed)

	r, err = e.Toggle(sw)
	assert.NilError(t, err)
	assert.Assert(t, !r.Committed)

	_, err = e.Undo()
	assert.NilError(t, err)
	icon = mustIcon(t, e, sw)
	assert.Assert(t, !icon.Locked)
	assert.Assert(t, icon.Closed)
}

func TestSetState(t *testing.T) {
	e := newTestEditor(t)
	mustPlace(t, e, component.PowerSource, pt(0, 0))
	sw := mustPlace(t, e, component.Switch, pt(0, 0))

	r, err := e.SetState(sw, true)
	assert.NilError(t, err)
	assert.Assert(t, !r.Committed)

	r, err = e.SetState(sw, false)
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	assert.Assert(t, !mustIcon(t, e, sw).Closed)
}

func TestDeleteAndWireIntents(t *testing.T) {
	e := newTestEditor(t)
	r, err := e.PlaceWire(pt(0, 0), pt(100, 0), false)
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	assert.Equal(t, r.Action, ActionPlaceWire)

	r, err = e.PlaceWire(pt(50, -50), pt(50, 50), false)
	assert.NilError(t, err)
	assert.DeepEqual(t, r.Bridges, []geometry.Point{pt(50, 0)})

	r = e.Delete(r.Changed[0])
	assert.Assert(t, r.Committed)
	assert.Equal(t, len(e.Status().Components), 1)

	r = e.Delete(uuid.New())
	assert.Assert(t, !r.Committed)
	assert.Equal(t, e.Status().Undo, 3)
}

func TestRenameAndLoadText(t *testing.T) {
	e := newTestEditor(t)
	sw := mustPlace(t, e, component.Switch, pt(0, 0))

	r, err := e.Rename(sw, "DD-101")
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	assert.Equal(t, mustIcon(t, e, sw).Name, "DD-101")
	assert.DeepEqual(t, e.Lookup("DD-101"), []uuid.UUID{sw})

	r, err = e.Rename(sw, "DD-101")
	assert.NilError(t, err)
	assert.Assert(t, !r.Committed)

	_, err = e.SetLoadText(sw, "Bldg 1", "75 kVA", "")
	assert.Assert(t, errors.Is(err, ErrWrongKind))

	clt := mustPlace(t, e, component.ConnectedLoadText, pt(200, 0))
	r, err = e.SetLoadText(clt, "Bldg 1", "75 kVA", "No Warnings")
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
}

func TestCopyPasteDrag(t *testing.T) {
	e := newTestEditor(t)
	assert.NilError(t, e.SetTool(component.Breaker70KV))
	assert.Equal(t, e.Tool(), component.Breaker70KV)
	assert.Equal(t, e.Rotate(), 90.0)
	assert.Assert(t, errors.Is(e.SetRotation(45), component.ErrInvalidAngle))

	b := mustPlace(t, e, component.Breaker70KV, pt(0, 0))
	_, err := e.Rename(b, "DD-1")
	assert.NilError(t, err)
	assert.NilError(t, e.Copy(b))

	r, err := e.Paste(pt(200, 0))
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	assert.Equal(t, mustIcon(t, e, r.Changed[0]).Name, "DD-1")

	r, err = e.Drag(b, pt(400, 0))
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	moved := mustIcon(t, e, r.Changed[0])
	assert.Equal(t, moved.Position, pt(400, 0))
	assert.Equal(t, moved.Angle, 90.0)

	_, err = e.Component(b)
	assert.Assert(t, errors.Is(err, ErrNotFound))
}

func TestTandemIntents(t *testing.T) {
	e := newTestEditor(t)
	first := mustPlace(t, e, component.Breaker12KV, pt(0, 0))
	second := mustPlace(t, e, component.Breaker12KV, pt(100, 0))

	r, err := e.SetTandem(first, second)
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	assert.DeepEqual(t, r.Changed, []uuid.UUID{first, second})
	assert.Assert(t, mustIcon(t, e, second).Locked)

	r, err = e.ClearTandem(first)
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	assert.Equal(t, r.Action, ActionClearTandem)
	icon := mustIcon(t, e, second)
	assert.Assert(t, !icon.Locked)
	assert.Equal(t, icon.Tandem, uuid.Nil)
	assert.Equal(t, mustIcon(t, e, first).Tandem, uuid.Nil)

	r, err = e.ClearTandem(first)
	assert.NilError(t, err)
	assert.Assert(t, !r.Committed)
	assert.Equal(t, e.Status().Undo, 4)

	_, err = e.Undo()
	assert.NilError(t, err)
	icon = mustIcon(t, e, second)
	assert.Assert(t, icon.Locked)
	assert.Equal(t, icon.Tandem, first)

	_, err = e.ClearTandem(uuid.New())
	assert.Assert(t, errors.Is(err, ErrNotFound))
}

func TestDragKeepsTandem(t *testing.T) {
	e := newTestEditor(t)
	first := mustPlace(t, e, component.Breaker12KV, pt(0, 0))
	second := mustPlace(t, e, component.Breaker12KV, pt(100, 0))
	_, err := e.SetTandem(first, second)
	assert.NilError(t, err)

	r, err := e.Drag(first, pt(0, 400))
	assert.NilError(t, err)
	moved := r.Changed[0]
	assert.Equal(t, mustIcon(t, e, moved).Tandem, second)
	icon := mustIcon(t, e, second)
	assert.Equal(t, icon.Tandem, moved)
	assert.Assert(t, icon.Locked)
}

func TestSetNameRight(t *testing.T) {
	e := newTestEditor(t)
	sw := mustPlace(t, e, component.Switch, pt(0, 0))
	right := mustIcon(t, e, sw).NameRight

	r, err := e.SetNameRight(sw, right)
	assert.NilError(t, err)
	assert.Assert(t, !r.Committed)

	r, err = e.SetNameRight(sw, !right)
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	assert.Equal(t, r.Action, ActionLabelSide)
	assert.Equal(t, mustIcon(t, e, sw).NameRight, !right)

	_, err = e.Undo()
	assert.NilError(t, err)
	assert.Equal(t, mustIcon(t, e, sw).NameRight, right)

	_, err = e.SetNameRight(uuid.New(), true)
	assert.Assert(t, errors.Is(err, ErrNotFound))
}

func TestSetClosedByDefault(t *testing.T) {
	e := newTestEditor(t)
	mustPlace(t, e, component.PowerSource, pt(0, 0))
	sw := mustPlace(t, e, component.Switch, pt(0, 0))

	r, err := e.SetClosedByDefault(sw, true)
	assert.NilError(t, err)
	assert.Assert(t, !r.Committed)

	r, err = e.SetClosedByDefault(sw, false)
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	assert.Equal(t, r.Action, ActionDefaultState)
	icon := mustIcon(t, e, sw)
	assert.Assert(t, !icon.ClosedByDefault)
	assert.Assert(t, !icon.Closed)
	assert.Assert(t, !icon.OutEnergized)

	_, err = e.Undo()
	assert.NilError(t, err)
	icon = mustIcon(t, e, sw)
	assert.Assert(t, icon.ClosedByDefault)
	assert.Assert(t, icon.Closed)

	// a locked device only takes the new normal state
	_, err = e.Lock(sw)
	assert.NilError(t, err)
	r, err = e.SetClosedByDefault(sw, true)
	assert.NilError(t, err)
	assert.Assert(t, !r.Committed)
	r, err = e.SetClosedByDefault(sw, false)
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	icon = mustIcon(t, e, sw)
	assert.Assert(t, !icon.ClosedByDefault)
	assert.Assert(t, icon.Locked)

	gen := mustPlace(t, e, component.Generator, pt(300, 0))
	_, err = e.SetClosedByDefault(gen, false)
	assert.Assert(t, errors.Is(err, ErrWrongKind))
}

func TestLabelAssociation(t *testing.T) {
	e := newTestEditor(t)
	r, err := e.PlaceAssociation(pt(0, 0), pt(200, 100))
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)

	r, err = e.LabelAssociation(0, "North Yard", "Bldg 12", "NY")
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	a := e.Status().Associations[0]
	assert.Equal(t, a.Label, "North Yard")
	assert.Equal(t, a.SubLabel, "Bldg 12")
	assert.Equal(t, a.Acronym, "NY")

	_, err = e.LabelAssociation(5, "x", "", "")
	assert.Assert(t, errors.Is(err, ErrNotFound))
}

func TestLoadClearsHistory(t *testing.T) {
	e := newTestEditor(t)
	mustPlace(t, e, component.PowerSource, pt(0, 0))
	doc := e.Snapshot()
	mustPlace(t, e, component.Generator, pt(200, 0))

	r, err := e.Load(doc)
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	status := e.Status()
	assert.Equal(t, len(status.Components), 2)
	assert.Equal(t, status.Undo, 0)
	assert.Equal(t, status.Redo, 0)
}

func TestLoadRejectsDanglingReference(t *testing.T) {
	e := newTestEditor(t)
	mustPlace(t, e, component.PowerSource, pt(0, 0))
	doc := e.Snapshot()
	corrupt := doc.Clone()
	corrupt.Components[0].Outputs = []string{uuid.New().String()}

	_, err := e.Load(corrupt)
	assert.Assert(t, err != nil)
	assert.DeepEqual(t, e.Snapshot(), doc)
	assert.Equal(t, e.Status().Undo, 1)
}

func TestPublishesCommittedIntents(t *testing.T) {
	e := newTestEditor(t)
	changed, err := e.Subscribe(uuid.New(), msg.Changed)
	assert.NilError(t, err)
	status, err := e.Subscribe(uuid.New(), msg.Status)
	assert.NilError(t, err)

	id := mustPlace(t, e, component.PowerSource, pt(0, 0))

	select {
	case m := <-changed:
		r, ok := m.Payload().(Result)
		assert.Assert(t, ok)
		assert.Equal(t, r.Changed[0], id)
		assert.Equal(t, m.PID(), e.PID())
	case <-time.After(time.Second):
		t.Fatal("no change published")
	}
	select {
	case m := <-status:
		s, ok := m.Payload().(Status)
		assert.Assert(t, ok)
		assert.Equal(t, len(s.Components), 2)
	case <-time.After(time.Second):
		t.Fatal("no status published")
	}

	// rejected intents are silent
	_, err = e.Toggle(uuid.New())
	assert.Assert(t, err != nil)
	assert.Equal(t, len(changed), 0)
}

func TestSavePublishesDocument(t *testing.T) {
	e := newTestEditor(t)
	saved, err := e.Subscribe(uuid.New(), msg.Saved)
	assert.NilError(t, err)
	mustPlace(t, e, component.PowerSource, pt(0, 0))

	doc := e.Save()
	m := <-saved
	assert.DeepEqual(t, m.Payload(), doc)
}
