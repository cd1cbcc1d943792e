/*
mqtt.go Publishes editor status and committed intents to an MQTT broker. Status is retained so
late subscribers see the current diagram state.
*/

package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/logger"
	"github.com/ohowland/gridflow/internal/pkg/msg"
	"go.uber.org/zap"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Config of the MQTT publisher
type Config struct {
	Enabled  bool   `json:"Enabled" yaml:"enabled"`
	Broker   string `json:"Broker" yaml:"broker"`
	ClientID string `json:"ClientID" yaml:"clientID"`
	Topic    string `json:"Topic" yaml:"topic"`
	QoS      byte   `json:"QoS" yaml:"qos"`
}

// Client is the part of a paho client the handler uses
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

const publishTimeout = 2 * time.Second

// Handler forwards editor messages to an MQTT broker
type Handler struct {
	inbox   <-chan msg.Msg
	pid     uuid.UUID
	config  Config
	stop    chan bool
	system  msg.Publisher
	connect func(Config) (Client, error)
	log     *zap.SugaredLogger
}

// PID of the handler
func (h *Handler) PID() uuid.UUID {
	return h.pid
}

func dial(cfg Config) (Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true)
	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("connect to %v timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	return client, nil
}

// New subscribes a handler to the status and change broadcasts of system.
func New(cfg Config, system msg.Publisher) (*Handler, error) {
	pid, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "gridflow-" + pid.String()[:8]
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
		inbox:   inbox,
		pid:     pid,
		config:  cfg,
		stop:    make(chan bool, 1),
		system:  system,
		connect: dial,
		log:     logger.For(logger.MQTT),
	}, nil
}

// Stop ends Process and drops the subscriptions
func (h *Handler) Stop() {
	h.system.Unsubscribe(h.pid)
	h.stop <- true
}

// Topic returns the MQTT topic a message topic is published on
func (h *Handler) Topic(topic msg.Topic) string {
	return h.config.Topic + "/" + topic.String()
}

// Process publishes every inbox message until Stop is called.
func (h *Handler) Process() {
	h.log.Info("Process Started")
	client, err := h.connect(h.config)
	if err != nil {
		h.log.Errorf("unable to connect to %v: %v", h.config.Broker, err)
		return
	}
	defer client.Disconnect(250)

loop:
	for {
		select {
		case m := <-h.inbox:
			data, err := json.Marshal(m.Payload())
			if err != nil {
				h.log.Warnf("unable to encode %v message: %v", m.Topic(), err)
				continue
			}
			retained := m.Topic() == msg.Status
			token := client.Publish(h.Topic(m.Topic()), h.config.QoS, retained, data)
			if token.WaitTimeout(publishTimeout) && token.Error() != nil {
				h.log.Warnf("unable to publish to broker: %v", token.Error())
			}
		case <-h.stop:
			break loop
		}
	}
	h.log.Info("Process Shutdown")
}
