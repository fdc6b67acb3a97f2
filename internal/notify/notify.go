// Package notify publishes an event for every file a capture run writes,
// so that downstream tools can pick views up as they appear.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cjeanneret/v2scan/internal/debug"
)

// Event describes one written view.
type Event struct {
	RunID string    `json:"run_id"`
	Kind  string    `json:"kind"`
	Index int       `json:"index"`
	Count int       `json:"count"`
	Angle int       `json:"angle"`
	File  string    `json:"file"`
	Time  time.Time `json:"time"`
}

// Notifier publishes capture events.
type Notifier interface {
	Publish(ev Event) error
	Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(Event) error { return nil }
func (Nop) Close()              {}

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("mqtt publish timed out")

// client is the part of mqtt.Client used for publishing.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes events as JSON on a single topic with QoS 1.
type MQTT struct {
	client  client
	topic   string
	timeout time.Duration
}

// DialMQTT connects to broker and returns a publisher for topic.
func DialMQTT(broker, topic, clientID string, timeout time.Duration) (*MQTT, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(time.Second)
	opts.SetConnectTimeout(timeout)

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("connect %s: %w", broker, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", broker, err)
	}
	debug.Info("Publishing shots to %s on %s", topic, broker)
	return newMQTT(c, topic, timeout), nil
}

func newMQTT(c client, topic string, timeout time.Duration) *MQTT {
	return &MQTT{client: c, topic: topic, timeout: timeout}
}

// Publish sends ev and waits for the broker's acknowledgement.
func (m *MQTT) Publish(ev Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	debug.Trace("MQTT %s <- %s", m.topic, msg)
	token := m.client.Publish(m.topic, 1, false, msg)
	if !token.WaitTimeout(m.timeout) {
		return ErrTimeout
	}
	return token.Error()
}

// Close disconnects, leaving 250ms for in-flight messages.
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
