package web

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ohowland/gridflow/internal/pkg/database"
	"github.com/ohowland/gridflow/internal/pkg/grid"
	"gotest.tools/v3/assert"
)

func newHook(t *testing.T) (*httptest.Server, *[]byte) {
	var stored []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, r.Header.Get("Content-Type"), contentType)
			body, err := ioutil.ReadAll(r.Body)
			assert.NilError(t, err)
			stored = body
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			if stored == nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", contentType)
			_, _ = w.Write(stored)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &stored
}

func TestSaveAndLoad(t *testing.T) {
	srv, stored := newHook(t)
	c := New(Config{URL: srv.URL, Timeout: 1000})
	ctx := context.Background()

	_, err := c.Load(ctx)
	assert.Assert(t, errors.Is(err, database.ErrNoDocument))

	doc := grid.GridMemento{Associations: []grid.Association{{Ordinal: 0, Width: 20, Label: "Depot"}}}
	assert.NilError(t, c.Save(ctx, doc))
	assert.Assert(t, len(*stored) > 0)

	loaded, err := c.Load(ctx)
	assert.NilError(t, err)
	assert.DeepEqual(t, loaded.Associations, doc.Associations)
	assert.NilError(t, c.Close(ctx))
}

func TestSaveReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New(Config{URL: srv.URL}).Save(context.Background(), grid.GridMemento{})
	assert.ErrorContains(t, err, "500")

	var _ database.Store = &Client{}
}
