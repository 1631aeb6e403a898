package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"hs-as-ct/internal/domain/model"
	"hs-as-ct/internal/domain/translator"
	"hs-as-ct/internal/ports"
)

// Light drives one virtual light. Entry points are serialised; the mirrored
// attributes are only written by Sync.
type Light struct {
	mu        sync.Mutex
	light     *model.VirtualLight
	haPort    ports.HomeAssistantPort
	publisher ports.StatePublisher

	// In-flight turn_on dispatches. Add only under mu while !closed.
	pending sync.WaitGroup
	closed  bool
}

func NewLight(cfg *model.LightConfig, haPort ports.HomeAssistantPort, publisher ports.StatePublisher) *Light {
	return &Light{
		light:     model.NewVirtualLight(cfg),
		haPort:    haPort,
		publisher: publisher,
	}
}

// Snapshot returns a copy of the virtual light.
func (l *Light) Snapshot() *model.VirtualLight {
	l.mu.Lock()
	defer l.mu.Unlock()
	snapshot := *l.light
	return &snapshot
}

// EntityID is the real light behind this virtual light.
func (l *Light) EntityID() string {
	return l.light.EntityID
}

// TurnOn forwards the request to the real light without waiting for it.
// Dispatch failures are logged, never retried. Requests arriving after Close
// are dropped.
func (l *Light) TurnOn(ctx context.Context, request map[string]interface{}) {
	cmd := translator.TurnOn(l.light.EntityID, request)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		log.Warn().Str("light", l.light.ID).Msg("Light closed, dropping turn_on")
		return
	}
	l.pending.Add(1)
	l.mu.Unlock()

	log.Debug().
		Str("light", l.light.ID).
		Interface("data", cmd.Data).
		Msg("Processed turn_on command")

	go func() {
		defer l.pending.Done()
		if err := l.haPort.CallService(context.WithoutCancel(ctx), cmd); err != nil {
			log.Warn().
				Err(err).
				Str("light", l.light.ID).
				Str("entity_id", l.light.EntityID).
				Msg("Forwarding turn_on failed")
		}
	}()
}

// TurnOff forwards the request and returns once the real light has been
// switched off.
func (l *Light) TurnOff(ctx context.Context, request map[string]interface{}) error {
	cmd := translator.TurnOff(l.light.EntityID, request)

	log.Debug().
		Str("light", l.light.ID).
		Interface("data", cmd.Data).
		Msg("Processed turn_off command")

	if err := l.haPort.CallService(ctx, cmd); err != nil {
		return fmt.Errorf("turn off %s: %w", l.light.EntityID, err)
	}
	return nil
}

// Sync mirrors the real light's state (nil if it is gone) and publishes
// the result.
func (l *Light) Sync(ctx context.Context, state *model.EntityState) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.light.Attributes = translator.Mirror(l.light.Attributes, state)
	snapshot := *l.light

	log.Trace().
		Str("light", l.light.ID).
		Str("state", snapshot.State()).
		Msg("Mirrored real light state")

	if err := l.publisher.Publish(ctx, &snapshot); err != nil {
		return fmt.Errorf("publish %s: %w", snapshot.PublishedEntityID(), err)
	}
	return nil
}

// Refresh reads the real light from the state store and syncs.
func (l *Light) Refresh(ctx context.Context) error {
	state, err := l.haPort.GetState(ctx, l.light.EntityID)
	if err != nil {
		return fmt.Errorf("get state of %s: %w", l.light.EntityID, err)
	}
	return l.Sync(ctx, state)
}

// Close stops accepting turn_on requests and blocks until the in-flight
// dispatches have returned.
func (l *Light) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.pending.Wait()
}
