package editor

import (
	"testing"

	"github.com/google/uuid"
	"gotest.tools/v3/assert"
)

func lookupOne(t *testing.T, e *Editor, name string) uuid.UUID {
	ids := e.Lookup(name)
	assert.Equal(t, len(ids), 1, "expected one %q", name)
	return ids[0]
}

func TestBuildDemo(t *testing.T) {
	e := newTestEditor(t)
	assert.NilError(t, BuildDemo(e))

	status := e.Status()
	assert.Equal(t, status.Undo, 0)
	assert.Equal(t, len(status.Associations), 1)
	assert.Equal(t, status.Associations[0].Label, "Drop Depot")
	assert.Equal(t, status.Associations[0].Acronym, "DD")

	load := lookupOne(t, e, "DD9 Load")
	assert.Assert(t, mustIcon(t, e, load).Energized)
	for _, name := range []string{"DD9", "DD8", "DD3"} {
		assert.Assert(t, mustIcon(t, e, lookupOne(t, e, name)).OutEnergized, name)
	}
	// DD5 is held open by its tandem
	dd5 := mustIcon(t, e, lookupOne(t, e, "DD5"))
	assert.Assert(t, dd5.InEnergized)
	assert.Assert(t, !dd5.OutEnergized)
	assert.Equal(t, mustIcon(t, e, lookupOne(t, e, "ATS B")).Transfer, "POWERED_BY_MAIN")

	// opening the depot main drops the whole bus
	r, err := e.Toggle(lookupOne(t, e, "DD1 Main"))
	assert.NilError(t, err)
	assert.Assert(t, r.Committed)
	assert.Assert(t, !mustIcon(t, e, load).Energized)
	assert.Assert(t, mustIcon(t, e, lookupOne(t, e, "Transformer DD1")).InEnergized)
}

func TestDemoTandem(t *testing.T) {
	e := newTestEditor(t)
	assert.NilError(t, BuildDemo(e))

	dd3 := lookupOne(t, e, "DD3")
	dd5 := lookupOne(t, e, "DD5")

	icon := mustIcon(t, e, dd5)
	assert.Assert(t, icon.Locked)
	assert.Equal(t, icon.Tandem, dd3)

	// opening DD3 releases DD5, which stays open
	_, err := e.Toggle(dd3)
	assert.NilError(t, err)
	icon = mustIcon(t, e, dd5)
	assert.Assert(t, !icon.Locked)
	assert.Assert(t, !icon.Closed)

	// closing it again locks DD5 open
	_, err = e.Toggle(dd3)
	assert.NilError(t, err)
	icon = mustIcon(t, e, dd5)
	assert.Assert(t, icon.Locked)
	assert.Assert(t, !icon.Closed)
	assert.Assert(t, mustIcon(t, e, dd3).Closed)
}
