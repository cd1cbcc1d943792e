package natshandler

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/msg"
	"gotest.tools/v3/assert"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mux    sync.Mutex
	out    chan published
	closed bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.out <- published{subject, data}
	return nil
}

func (c *fakeConn) Close() {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.closed = true
}

func newTestHandler(t *testing.T) (*Handler, *msg.PubSub, *fakeConn) {
	system := msg.NewPublisher(uuid.New())
	h, err := New(Config{Subject: "gridflow.status"}, system)
	assert.NilError(t, err)
	conn := &fakeConn{out: make(chan published, 10)}
	h.connect = func(string) (Conn, error) { return conn, nil }
	return h, system, conn
}

func TestSubjects(t *testing.T) {
	h, _, _ := newTestHandler(t)
	assert.Equal(t, h.Subject(msg.Status), "gridflow.status")
	assert.Equal(t, h.Subject(msg.Changed), "gridflow.status.changed")
	assert.Equal(t, h.config.URL, "nats://127.0.0.1:4222")
}

func TestProcessPublishes(t *testing.T) {
	h, system, conn := newTestHandler(t)
	assert.Equal(t, system.Subscribers(msg.Status), 1)
	assert.Equal(t, system.Subscribers(msg.Changed), 1)

	done := make(chan struct{})
	go func() {
		h.Process()
		close(done)
	}()

	system.Publish(msg.Status, map[string]int{"energized": 3})

	select {
	case p := <-conn.out:
		assert.Equal(t, p.subject, "gridflow.status")
		payload := map[string]int{}
		assert.NilError(t, json.Unmarshal(p.data, &payload))
		assert.Equal(t, payload["energized"], 3)
	case <-time.After(time.Second):
		t.Fatal("nothing published")
	}

	h.Stop()
	<-done
	assert.Assert(t, conn.closed)
	assert.Equal(t, system.Subscribers(msg.Status), 0)
}

func TestProcessReturnsWhenConnectFails(t *testing.T) {
	h, _, _ := newTestHandler(t)
	h.connect = func(string) (Conn, error) { return nil, errors.New("no server") }

	done := make(chan struct{})
	go func() {
		h.Process()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Process did not return")
	}
	h.Stop()
}
