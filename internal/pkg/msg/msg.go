/*
msg.go In-process message envelope and topic fan-out. The editor publishes its status and
document events here; the datastream handlers, stores and the HMI subscribe.
*/

package msg

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Topic selects a broadcast stream
type Topic int

// Topics
const (
	Status  Topic = iota // editor.Status after every committed intent
	Changed              // editor.Result of a committed intent
	Saved                // grid.GridMemento when a document is saved
)

func (t Topic) String() string {
	switch t {
	case Status:
		return "status"
	case Changed:
		return "changed"
	case Saved:
		return "saved"
	}
	return "unknown"
}

// Publisher is an interface for objects that allow subscription to their events
type Publisher interface {
	Subscribe(uuid.UUID, Topic) (<-chan Msg, error)
	Unsubscribe(uuid.UUID)
}

// Msg is the envelope passed between processes
type Msg struct {
	sender  uuid.UUID
	topic   Topic
	payload interface{}
}

// New is the Msg factory function
func New(sender uuid.UUID, topic Topic, payload interface{}) Msg {
	return Msg{sender, topic, payload}
}

// PID returns the sender's PID
func (v Msg) PID() uuid.UUID {
	return v.sender
}

// Topic returns the stream the message was published on
func (v Msg) Topic() Topic {
	return v.topic
}

// Payload returns the message data
func (v Msg) Payload() interface{} {
	return v.payload
}

const inboxSize = 50

// PubSub fans published messages out to every subscriber of the topic. Publishing never
// blocks: a subscriber whose inbox is full misses the message.
type PubSub struct {
	mux         *sync.Mutex
	pid         uuid.UUID
	subscribers map[Topic]map[uuid.UUID]chan Msg
}

// NewPublisher returns a PubSub sending as pid
func NewPublisher(pid uuid.UUID) *PubSub {
	return &PubSub{
		mux:         &sync.Mutex{},
		pid:         pid,
		subscribers: make(map[Topic]map[uuid.UUID]chan Msg),
	}
}

// PID of the publisher
func (p *PubSub) PID() uuid.UUID {
	return p.pid
}

// Subscribe returns a channel on which the specified topic is broadcast
func (p *PubSub) Subscribe(pid uuid.UUID, topic Topic) (<-chan Msg, error) {
	p.mux.Lock()
	defer p.mux.Unlock()

	subs, ok := p.subscribers[topic]
	if !ok {
		subs = make(map[uuid.UUID]chan Msg)
		p.subscribers[topic] = subs
	}
	if _, exists := subs[pid]; exists {
		return nil, errors.New(fmt.Sprintf("%v already subscribed to %v", pid, topic))
	}
	ch := make(chan Msg, inboxSize)
	subs[pid] = ch
	return ch, nil
}

// Unsubscribe pid from all topic broadcasts. Its channels are closed.
func (p *PubSub) Unsubscribe(pid uuid.UUID) {
	p.mux.Lock()
	defer p.mux.Unlock()

	for _, subs := range p.subscribers {
		if ch, ok := subs[pid]; ok {
			close(ch)
			delete(subs, pid)
		}
	}
}

// Publish sends payload to every subscriber of topic
func (p *PubSub) Publish(topic Topic, payload interface{}) {
	p.Forward(New(p.pid, topic, payload))
}

// Forward re-broadcasts a message keeping its original sender
func (p *PubSub) Forward(m Msg) {
	p.mux.Lock()
	defer p.mux.Unlock()

	for _, ch := range p.subscribers[m.topic] {
		select {
		case ch <- m:
		default:
		}
	}
}

// Subscribers counts the subscribers of topic
func (p *PubSub) Subscribers(topic Topic) int {
	p.mux.Lock()
	defer p.mux.Unlock()
	return len(p.subscribers[topic])
}

// RedirectMsg copies every message from chIn to chOut until chIn closes.
func RedirectMsg(chIn <-chan Msg, chOut chan<- Msg) {
	for m := range chIn {
		chOut <- m
	}
}
