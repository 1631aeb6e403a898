// Package mqtttest provides an in-memory MQTT client for tests.
package mqtttest

import (
	"strings"
	"sync"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

type PublishCall struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  interface{}
}

type SubscribeCall struct {
	Topic   string
	QoS     byte
	Handler MQTT.MessageHandler
}

// Client records publishes and subscriptions. PublishErr, when set, is
// returned by every publish token.
type Client struct {
	mu         sync.RWMutex
	connected  bool
	publishes  []PublishCall
	subscribes []SubscribeCall

	PublishErr error
}

func NewClient() *Client {
	return &Client{connected: true}
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) IsConnectionOpen() bool { return c.IsConnected() }

func (c *Client) Connect() MQTT.Token {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	return &Token{}
}

func (c *Client) Disconnect(quiesce uint) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

func (c *Client) Publish(topic string, qos byte, retained bool, payload interface{}) MQTT.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishes = append(c.publishes, PublishCall{Topic: topic, QoS: qos, Retained: retained, Payload: payload})
	return &Token{err: c.PublishErr}
}

func (c *Client) Subscribe(topic string, qos byte, callback MQTT.MessageHandler) MQTT.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribes = append(c.subscribes, SubscribeCall{Topic: topic, QoS: qos, Handler: callback})
	return &Token{}
}

func (c *Client) SubscribeMultiple(filters map[string]byte, callback MQTT.MessageHandler) MQTT.Token {
	for topic, qos := range filters {
		c.Subscribe(topic, qos, callback)
	}
	return &Token{}
}

func (c *Client) Unsubscribe(topics ...string) MQTT.Token             { return &Token{} }
func (c *Client) AddRoute(topic string, callback MQTT.MessageHandler) {}
func (c *Client) OptionsReader() MQTT.ClientOptionsReader             { return MQTT.ClientOptionsReader{} }

// Publishes returns the publish calls so far.
func (c *Client) Publishes() []PublishCall {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]PublishCall(nil), c.publishes...)
}

// Last returns the most recent publish to topic.
func (c *Client) Last(topic string) (PublishCall, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.publishes) - 1; i >= 0; i-- {
		if c.publishes[i].Topic == topic {
			return c.publishes[i], true
		}
	}
	return PublishCall{}, false
}

func (c *Client) Subscriptions() []SubscribeCall {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]SubscribeCall(nil), c.subscribes...)
}

// Deliver hands a message to every subscription whose filter matches topic.
func (c *Client) Deliver(topic string, payload []byte) {
	for _, s := range c.Subscriptions() {
		if matches(s.Topic, topic) {
			s.Handler(c, &Message{topic: topic, payload: payload})
		}
	}
}

func matches(filter, topic string) bool {
	f := strings.Split(filter, "/")
	t := strings.Split(topic, "/")
	for i, part := range f {
		if part == "#" {
			return true
		}
		if i >= len(t) || (part != "+" && part != t[i]) {
			return false
		}
	}
	return len(f) == len(t)
}

type Token struct {
	err error
}

func (t *Token) Wait() bool                     { return true }
func (t *Token) WaitTimeout(time.Duration) bool { return true }
func (t *Token) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *Token) Error() error { return t.err }

type Message struct {
	topic   string
	payload []byte
}

func NewMessage(topic string, payload []byte) *Message {
	return &Message{topic: topic, payload: payload}
}

func (m *Message) Duplicate() bool   { return false }
func (m *Message) Qos() byte         { return 0 }
func (m *Message) Retained() bool    { return false }
func (m *Message) Topic() string     { return m.topic }
func (m *Message) MessageID() uint16 { return 0 }
func (m *Message) Payload() []byte   { return m.payload }
func (m *Message) Ack()              {}
