package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/grid"
	"github.com/ohowland/gridflow/internal/pkg/logger"
	"github.com/ohowland/gridflow/internal/pkg/msg"
	"gotest.tools/v3/assert"
)

type memoryStore struct {
	saved  chan grid.GridMemento
	closed chan bool
}

func (s *memoryStore) Save(ctx context.Context, m grid.GridMemento) error {
	s.saved <- m
	return nil
}

func (s *memoryStore) Load(ctx context.Context) (grid.GridMemento, error) {
	return grid.GridMemento{}, ErrNoDocument
}

func (s *memoryStore) Close(ctx context.Context) error {
	s.closed <- true
	return nil
}

func TestHandlerSavesBroadcastDocuments(t *testing.T) {
	system := msg.NewPublisher(uuid.New())
	store := &memoryStore{saved: make(chan grid.GridMemento, 1), closed: make(chan bool, 1)}
	h, err := NewHandler(logger.SQL, store, system)
	assert.NilError(t, err)
	go h.Process()

	system.Publish(msg.Saved, "not a document")
	doc := grid.GridMemento{Associations: []grid.Association{{Label: "Depot"}}}
	system.Publish(msg.Saved, doc)

	select {
	case got := <-store.saved:
		assert.DeepEqual(t, got, doc)
	case <-time.After(time.Second):
		t.Fatal("document was not saved")
	}

	h.Stop()
	select {
	case <-store.closed:
	case <-time.After(time.Second):
		t.Fatal("store was not closed")
	}
	assert.Equal(t, system.Subscribers(msg.Saved), 0)
}

func TestHandlerSavesBeforeStopping(t *testing.T) {
	// the handler picks between its inbox and stop at random, run it often enough to see both
	for i := 0; i < 20; i++ {
		system := msg.NewPublisher(uuid.New())
		store := &memoryStore{saved: make(chan grid.GridMemento, 2), closed: make(chan bool, 1)}
		h, err := NewHandler(logger.SQL, store, system)
		assert.NilError(t, err)

		doc := grid.GridMemento{Associations: []grid.Association{{Label: "Depot"}}}
		system.Publish(msg.Saved, doc)
		h.Stop()
		h.Process()

		assert.Equal(t, len(store.saved), 1)
		assert.DeepEqual(t, <-store.saved, doc)
		assert.Equal(t, len(store.closed), 1)
	}
}
