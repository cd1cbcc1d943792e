/*
natshandler.go Publishes editor status and committed intents to a NATS server as JSON.
*/

package natshandler

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/logger"
	"github.com/ohowland/gridflow/internal/pkg/msg"
	"go.uber.org/zap"

	nats "github.com/nats-io/nats.go"
)

// Config of the NATS publisher
type Config struct {
	Enabled bool   `json:"Enabled" yaml:"enabled"`
	URL     string `json:"URL" yaml:"url"`
	Subject string `json:"Subject" yaml:"subject"`
}

// Conn is the part of a NATS connection the handler uses
type Conn interface {
	Publish(subject string, data []byte) error
	Close()
}

// Handler forwards editor messages to NATS
type Handler struct {
	mux     *sync.Mutex
	inbox   <-chan msg.Msg
	pid     uuid.UUID
	config  Config
	stop    chan bool
	system  msg.Publisher
	connect func(url string) (Conn, error)
	log     *zap.SugaredLogger
}

// PID of the handler
func (h *Handler) PID() uuid.UUID {
	return h.pid
}

func dial(url string) (Conn, error) {
	return nats.Connect(url, nats.Name("gridflow"))
}

// New subscribes a handler to the status and change broadcasts of system.
func New(cfg Config, system msg.Publisher) (*Handler, error) {
	pid, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}

	inbox := make(chan msg.Msg, 50)
	for _, topic := range []msg.Topic{msg.Status, msg.Changed} {
		ch, err := system.Subscribe(pid, topic)
		if err != nil {
			system.Unsubscribe(pid)
			return nil, err
		}
		go msg.RedirectMsg(ch, inbox)
	}

	return &Handler{
		mux:     &sync.Mutex{},
		inbox:   inbox,
		pid:     pid,
		config:  cfg,
		stop:    make(chan bool, 1),
		system:  system,
		connect: dial,
		log:     logger.For(logger.NATS),
	}, nil
}

// Stop ends Process and drops the subscriptions
func (h *Handler) Stop() {
	h.system.Unsubscribe(h.pid)
	h.stop <- true
}

// Subject returns the NATS subject a topic is published on
func (h *Handler) Subject(topic msg.Topic) string {
	if topic == msg.Status {
		return h.config.Subject
	}
	return h.config.Subject + "." + topic.String()
}

// Process publishes every inbox message until Stop is called.
func (h *Handler) Process() {
	h.log.Info("Process Started")
	nc, err := h.connect(h.config.URL)
	if err != nil {
		h.log.Errorf("unable to connect to %v: %v", h.config.URL, err)
		return
	}
	defer nc.Close()

loop:
	for {
		select {
		case m := <-h.inbox:
			data, err := json.Marshal(m.Payload())
			if err != nil {
				h.log.Warnf("unable to encode %v message: %v", m.Topic(), err)
				continue
			}
			if err := nc.Publish(h.Subject(m.Topic()), data); err != nil {
				h.log.Warnf("unable to publish to nats server: %v", err)
			}
		case <-h.stop:
			break loop
		}
	}
	h.log.Info("Process Shutdown")
}
