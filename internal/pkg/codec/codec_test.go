package codec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ohowland/gridflow/internal/pkg/editor"
	"github.com/ohowland/gridflow/internal/pkg/grid"
	"gotest.tools/v3/assert"
)

func demoDocument(t *testing.T) grid.GridMemento {
	e, err := editor.New(editor.Config{}, nil)
	assert.NilError(t, err)
	assert.NilError(t, editor.BuildDemo(e))
	return e.Snapshot()
}

func TestRoundTrip(t *testing.T) {
	doc := demoDocument(t)
	want, err := grid.Rebuild(doc)
	assert.NilError(t, err)

	for _, f := range []Format{JSON, YAML, BSON} {
		data, err := Encode(f, doc)
		assert.NilError(t, err, f)

		decoded, err := Decode(f, data)
		assert.NilError(t, err, f)
		assert.DeepEqual(t, decoded, doc)

		g, err := grid.Rebuild(decoded)
		assert.NilError(t, err, f)
		assert.Equal(t, len(g.EnergizedIDs()), len(want.EnergizedIDs()), f)
	}
}

func TestFiles(t *testing.T) {
	doc := demoDocument(t)
	dir := t.TempDir()
	for _, name := range []string{"depot.json", "depot.yaml", "depot.yml", "depot.bson"} {
		path := filepath.Join(dir, name)
		assert.NilError(t, WriteFile(path, doc))
		read, err := ReadFile(path)
		assert.NilError(t, err, name)
		assert.DeepEqual(t, read, doc)
	}
}

func TestUnknownFormat(t *testing.T) {
	_, err := FormatOf("depot.xml")
	assert.Assert(t, errors.Is(err, ErrUnknownFormat))

	_, err = Encode("csv", grid.GridMemento{})
	assert.Assert(t, errors.Is(err, ErrUnknownFormat))

	_, err = Decode("csv", nil)
	assert.Assert(t, errors.Is(err, ErrUnknownFormat))
}

func TestReadFileBadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	assert.NilError(t, os.WriteFile(path, []byte("{\"components\": 3}"), 0644))
	_, err := ReadFile(path)
	assert.ErrorContains(t, err, "decode")
}
