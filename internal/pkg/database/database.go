/*
database.go Document persistence. A Store keeps one named grid document; the Handler saves
every document the editor broadcasts on the Saved topic.
*/

package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/grid"
	"github.com/ohowland/gridflow/internal/pkg/logger"
	"github.com/ohowland/gridflow/internal/pkg/msg"
	"go.uber.org/zap"
)

// ErrNoDocument is returned by Load when nothing has been saved under the document name
var ErrNoDocument = errors.New("no saved document")

// Store persists a grid document
type Store interface {
	Save(ctx context.Context, m grid.GridMemento) error
	Load(ctx context.Context) (grid.GridMemento, error)
	Close(ctx context.Context) error
}

const saveTimeout = 5 * time.Second

// Handler writes saved documents to a store
type Handler struct {
	inbox  <-chan msg.Msg
	pid    uuid.UUID
	store  Store
	stop   chan bool
	system msg.Publisher
	log    *zap.SugaredLogger
}

// NewHandler subscribes store to the Saved broadcasts of system. name labels the log.
func NewHandler(name string, store Store, system msg.Publisher) (*Handler, error) {
	pid, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}
	inbox, err := system.Subscribe(pid, msg.Saved)
	if err != nil {
		return nil, err
	}
	return &Handler{
		inbox:  inbox,
		pid:    pid,
		store:  store,
		stop:   make(chan bool, 1),
		system: system,
		log:    logger.For(name),
	}, nil
}

// PID of the handler
func (h *Handler) PID() uuid.UUID {
	return h.pid
}

// Stop ends Process. Documents published before Stop are still saved.
func (h *Handler) Stop() {
	h.system.Unsubscribe(h.pid)
	h.stop <- true
}

// Process saves every broadcast document until Stop is called. The store is closed on exit.
func (h *Handler) Process() {
	h.log.Info("Process Started")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := h.store.Close(ctx); err != nil {
			h.log.Warnf("close: %v", err)
		}
	}()

loop:
	for {
		select {
		case m, ok := <-h.inbox:
			if !ok {
				break loop
			}
			h.handle(m)
		case <-h.stop:
			// Stop closes the inbox first, so anything still buffered is saved
			for m := range h.inbox {
				h.handle(m)
			}
			break loop
		}
	}
	h.log.Info("Process Shutdown")
}

func (h *Handler) handle(m msg.Msg) {
	doc, ok := m.Payload().(grid.GridMemento)
	if !ok {
		h.log.Warnf("ignoring %T on %v", m.Payload(), m.Topic())
		return
	}
	h.save(doc)
}

func (h *Handler) save(doc grid.GridMemento) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := h.store.Save(ctx, doc); err != nil {
		h.log.Errorf("save failed: %v", err)
		return
	}
	h.log.Infof("saved document with %d components", len(doc.Components))
}
