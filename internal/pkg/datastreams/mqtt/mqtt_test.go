package mqtt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/msg"
	"gotest.tools/v3/assert"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct{}

func (doneToken) Wait() bool { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

type publication struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	out          chan publication
	disconnected chan uint
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.out <- publication{topic, qos, retained, payload.([]byte)}
	return doneToken{}
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.disconnected <- quiesce
}

func TestProcessPublishes(t *testing.T) {
	system := msg.NewPublisher(uuid.New())
	h, err := New(Config{Topic: "gridflow", QoS: 1}, system)
	assert.NilError(t, err)
	assert.Assert(t, h.config.ClientID != "")

	client := &fakeClient{out: make(chan publication, 10), disconnected: make(chan uint, 1)}
	h.connect = func(Config) (Client, error) { return client, nil }
	go h.Process()

	system.Publish(msg.Status, "status")
	p := <-client.out
	assert.Equal(t, p.topic, "gridflow/status")
	assert.Equal(t, p.qos, byte(1))
	assert.Assert(t, p.retained)
	assert.Equal(t, string(p.payload), `"status"`)

	system.Publish(msg.Changed, 7)
	p = <-client.out
	assert.Equal(t, p.topic, "gridflow/changed")
	assert.Assert(t, !p.retained)

	h.Stop()
	select {
	case <-client.disconnected:
	case <-time.After(time.Second):
		t.Fatal("client was not disconnected")
	}
}
