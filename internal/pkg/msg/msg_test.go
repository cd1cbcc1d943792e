package msg

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"gotest.tools/v3/assert"
)

func TestSubscribe(t *testing.T) {
	pidPub, err := uuid.NewUUID()
	assert.NilError(t, err)

	pidSub1, err := uuid.NewUUID()
	assert.NilError(t, err)

	pidSub2, err := uuid.NewUUID()
	assert.NilError(t, err)

	pubsub := NewPublisher(pidPub)
	ch1, err := pubsub.Subscribe(pidSub1, Status)
	assert.NilError(t, err)
	ch2, err := pubsub.Subscribe(pidSub2, Status)
	assert.NilError(t, err)

	randValue := rand.Float64()
	pubsub.Publish(Status, randValue)

	for _, ch := range []<-chan Msg{ch1, ch2} {
		select {
		case incoming := <-ch:
			assert.Equal(t, incoming.Payload(), randValue, "subscriber did not receive the published value")
			assert.Equal(t, incoming.PID(), pidPub)
			assert.Equal(t, incoming.Topic(), Status)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
}

func TestSubscribeTwice(t *testing.T) {
	pubsub := NewPublisher(uuid.New())
	pid := uuid.New()
	_, err := pubsub.Subscribe(pid, Changed)
	assert.NilError(t, err)
	_, err = pubsub.Subscribe(pid, Changed)
	assert.Assert(t, err != nil)

	_, err = pubsub.Subscribe(pid, Saved)
	assert.NilError(t, err)
}

func TestTopicsAreSeparate(t *testing.T) {
	pubsub := NewPublisher(uuid.New())
	ch, err := pubsub.Subscribe(uuid.New(), Saved)
	assert.NilError(t, err)

	pubsub.Publish(Status, "ignored")
	pubsub.Publish(Saved, "doc")

	incoming := <-ch
	assert.Equal(t, incoming.Payload(), "doc")
	assert.Equal(t, len(ch), 0)
}

func TestUnsubscribe(t *testing.T) {
	pubsub := NewPublisher(uuid.New())
	pid := uuid.New()
	ch, err := pubsub.Subscribe(pid, Status)
	assert.NilError(t, err)
	assert.Equal(t, pubsub.Subscribers(Status), 1)

	pubsub.Unsubscribe(pid)
	assert.Equal(t, pubsub.Subscribers(Status), 0)
	_, ok := <-ch
	assert.Assert(t, !ok)
}

func TestPublishDoesNotBlock(t *testing.T) {
	pubsub := NewPublisher(uuid.New())
	ch, err := pubsub.Subscribe(uuid.New(), Status)
	assert.NilError(t, err)

	for i := 0; i < inboxSize*2; i++ {
		pubsub.Publish(Status, i)
	}
	assert.Equal(t, len(ch), inboxSize)
}

func TestForwardKeepsSender(t *testing.T) {
	pubsub := NewPublisher(uuid.New())
	ch, err := pubsub.Subscribe(uuid.New(), Changed)
	assert.NilError(t, err)

	origin := uuid.New()
	pubsub.Forward(New(origin, Changed, 1))
	assert.Equal(t, (<-ch).PID(), origin)
}

func TestRedirectMsg(t *testing.T) {
	in := make(chan Msg, 1)
	out := make(chan Msg, 1)
	go RedirectMsg(in, out)

	in <- New(uuid.New(), Status, "x")
	close(in)
	assert.Equal(t, (<-out).Payload(), "x")
}
