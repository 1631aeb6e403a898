package homeassistant

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"hs-as-ct/internal/domain/model"
	"hs-as-ct/internal/ports"
)

// ErrAuthInvalid is returned when Home Assistant rejects the access token.
var ErrAuthInvalid = errors.New("home assistant rejected the access token")

// EventStreamConfig contains configuration for event stream reconnection.
type EventStreamConfig struct {
	MinBackoff time.Duration // Minimum backoff between reconnects
	MaxBackoff time.Duration // Maximum backoff between reconnects
	Multiplier float64       // Backoff multiplier
	// Watch filters entities before they reach the handler. Nil passes all.
	Watch func(entityID string) bool
}

func DefaultEventStreamConfig() EventStreamConfig {
	return EventStreamConfig{
		MinBackoff: 1 * time.Second,
		MaxBackoff: 2 * time.Minute,
		Multiplier: 2.0,
	}
}

// EventStream follows state_changed events over the websocket API.
type EventStream struct {
	client *Client
	dialer *websocket.Dialer
	config EventStreamConfig
}

func NewEventStream(client *Client, config EventStreamConfig) *EventStream {
	return &EventStream{
		client: client,
		dialer: websocket.DefaultDialer,
		config: config,
	}
}

var _ ports.StateChangeSource = (*EventStream)(nil)

type wsMessage struct {
	ID          int      `json:"id,omitempty"`
	Type        string   `json:"type"`
	AccessToken string   `json:"access_token,omitempty"`
	EventType   string   `json:"event_type,omitempty"`
	Success     *bool    `json:"success,omitempty"`
	Error       *wsError `json:"error,omitempty"`
	Event       *wsEvent `json:"event,omitempty"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wsEvent struct {
	EventType string `json:"event_type"`
	Data      struct {
		EntityID string             `json:"entity_id"`
		NewState *model.EntityState `json:"new_state"`
	} `json:"data"`
}

const subscriptionID = 1

// Run listens until ctx is done, reconnecting with exponential backoff.
// onConnect runs after every successful subscription.
func (e *EventStream) Run(ctx context.Context, handler ports.StateChangeHandler, onConnect func()) error {
	retryCount := 0
	currentBackoff := e.config.MinBackoff

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		subscribed, err := e.connect(ctx, handler, onConnect)
		if ctx.Err() != nil {
			return nil
		}
		if subscribed {
			retryCount = 0
			currentBackoff = e.config.MinBackoff
		}

		retryCount++
		log.Warn().
			Err(err).
			Dur("backoff", currentBackoff).
			Int("retry", retryCount).
			Msg("Event stream disconnected, reconnecting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(currentBackoff):
		}

		nextBackoff := time.Duration(float64(currentBackoff) * e.config.Multiplier)
		if nextBackoff > e.config.MaxBackoff {
			nextBackoff = e.config.MaxBackoff
		}
		currentBackoff = nextBackoff
	}
}

// connect runs one websocket session. subscribed reports whether the
// session got as far as receiving events.
func (e *EventStream) connect(ctx context.Context, handler ports.StateChangeHandler, onConnect func()) (subscribed bool, err error) {
	base, token, err := e.client.endpoint()
	if err != nil {
		return false, err
	}
	wsURL, err := websocketURL(base)
	if err != nil {
		return false, err
	}

	conn, _, err := e.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	// Unblock ReadJSON on shutdown
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := authenticate(conn, token); err != nil {
		return false, err
	}

	if err := conn.WriteJSON(wsMessage{
		ID:        subscriptionID,
		Type:      "subscribe_events",
		EventType: "state_changed",
	}); err != nil {
		return false, err
	}

	log.Info().Str("url", wsURL).Msg("Connected to Home Assistant event stream")

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return subscribed, err
		}

		switch msg.Type {
		case "result":
			if msg.ID != subscriptionID {
				continue
			}
			if msg.Success == nil || !*msg.Success {
				if msg.Error != nil {
					return false, fmt.Errorf("subscribe_events failed: %s", msg.Error.Message)
				}
				return false, errors.New("subscribe_events failed")
			}
			subscribed = true
			if onConnect != nil {
				onConnect()
			}

		case "event":
			if msg.Event == nil || msg.Event.EventType != "state_changed" {
				continue
			}
			entityID := msg.Event.Data.EntityID
			if e.config.Watch != nil && !e.config.Watch(entityID) {
				continue
			}
			log.Trace().Str("entity_id", entityID).Msg("State changed")
			handler(entityID, msg.Event.Data.NewState)
		}
	}
}

func authenticate(conn *websocket.Conn, token string) error {
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return err
	}
	if msg.Type != "auth_required" {
		return fmt.Errorf("unexpected greeting %q", msg.Type)
	}

	if err := conn.WriteJSON(wsMessage{Type: "auth", AccessToken: token}); err != nil {
		return err
	}

	if err := conn.ReadJSON(&msg); err != nil {
		return err
	}
	switch msg.Type {
	case "auth_ok":
		return nil
	case "auth_invalid":
		return ErrAuthInvalid
	default:
		return fmt.Errorf("unexpected auth reply %q", msg.Type)
	}
}

// websocketURL maps http(s)://host to ws(s)://host/api/websocket.
func websocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/websocket"
	return u.String(), nil
}
