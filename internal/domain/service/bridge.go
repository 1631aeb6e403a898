package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"hs-as-ct/internal/domain/model"
	"hs-as-ct/internal/ports"
)

var (
	ErrLightNotFound = ports.ErrLightNotFound
	ErrNotConfigured = ports.ErrNotConfigured
)

type BridgeService struct {
	haPort     ports.HomeAssistantPort
	configRepo ports.ConfigRepository
	publisher  ports.StatePublisher

	mu       sync.RWMutex
	lights   []*Light
	byID     map[string]*Light
	byEntity map[string][]*Light
}

func NewBridgeService(haPort ports.HomeAssistantPort, configRepo ports.ConfigRepository, publisher ports.StatePublisher) *BridgeService {
	return &BridgeService{
		haPort:     haPort,
		configRepo: configRepo,
		publisher:  publisher,
		byID:       make(map[string]*Light),
		byEntity:   make(map[string][]*Light),
	}
}

// Load builds the virtual lights from the stored configuration, announces
// them and mirrors the current state of their real lights.
func (s *BridgeService) Load(ctx context.Context) error {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Normalize()
	s.apply(ctx, cfg)
	return s.Resync(ctx)
}

// apply replaces the virtual lights with the ones cfg defines.
func (s *BridgeService) apply(ctx context.Context, cfg *model.Config) {
	lights := make([]*Light, 0, len(cfg.Lights))
	byID := make(map[string]*Light, len(cfg.Lights))
	byEntity := make(map[string][]*Light)
	objects := make(map[string]bool, len(cfg.Lights))
	for _, lc := range cfg.Lights {
		if _, dup := byID[lc.ID]; dup {
			log.Warn().Str("light", lc.ID).Msg("Duplicate light id, skipping")
			continue
		}
		if objects[lc.ObjectID] {
			log.Warn().Str("light", lc.ID).Str("object_id", lc.ObjectID).Msg("Duplicate object id, skipping")
			continue
		}
		objects[lc.ObjectID] = true
		l := NewLight(lc, s.haPort, s.publisher)
		lights = append(lights, l)
		byID[lc.ID] = l
		byEntity[lc.EntityID] = append(byEntity[lc.EntityID], l)
	}

	s.mu.Lock()
	old := s.lights
	s.lights = lights
	s.byID = byID
	s.byEntity = byEntity
	s.mu.Unlock()

	s.withdraw(ctx, old, byID)

	for _, l := range lights {
		if err := s.publisher.Announce(ctx, l.Snapshot()); err != nil {
			log.Warn().Err(err).Str("light", l.light.ID).Msg("Failed to announce light")
		}
	}

	log.Info().Int("lights", len(lights)).Msg("Virtual lights loaded")
}

// withdraw removes lights that did not survive a reload.
func (s *BridgeService) withdraw(ctx context.Context, old []*Light, current map[string]*Light) {
	for _, l := range old {
		l.Close()
		snapshot := l.Snapshot()
		if kept, ok := current[snapshot.ID]; ok && kept.Snapshot().ObjectID == snapshot.ObjectID {
			continue
		}
		if err := s.publisher.Withdraw(ctx, snapshot); err != nil {
			log.Warn().Err(err).Str("light", snapshot.ID).Msg("Failed to withdraw light")
		}
	}
}

// Resync mirrors the current state of every real light. It is run on load
// and whenever the event stream reconnects, since changes may have been
// missed in between.
func (s *BridgeService) Resync(ctx context.Context) error {
	if !s.haPort.IsConfigured() {
		return ErrNotConfigured
	}

	s.mu.RLock()
	lights := append([]*Light(nil), s.lights...)
	s.mu.RUnlock()

	var errs []error
	for _, l := range lights {
		if err := l.Refresh(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HandleStateChanged routes a state change of a real light to every virtual
// light backed by it.
func (s *BridgeService) HandleStateChanged(ctx context.Context, entityID string, state *model.EntityState) {
	s.mu.RLock()
	lights := s.byEntity[entityID]
	s.mu.RUnlock()

	for _, l := range lights {
		if err := l.Sync(ctx, state); err != nil {
			log.Warn().Err(err).Str("entity_id", entityID).Msg("Failed to publish mirrored state")
		}
	}
}

// StateChangeHandler adapts HandleStateChanged to an event source.
func (s *BridgeService) StateChangeHandler(ctx context.Context) ports.StateChangeHandler {
	return func(entityID string, state *model.EntityState) {
		s.HandleStateChanged(ctx, entityID, state)
	}
}

// Watches reports whether any virtual light is backed by entityID.
func (s *BridgeService) Watches(entityID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEntity[entityID]) > 0
}

func (s *BridgeService) GetLights(ctx context.Context) ([]*model.VirtualLight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lights := make([]*model.VirtualLight, 0, len(s.lights))
	for _, l := range s.lights {
		lights = append(lights, l.Snapshot())
	}
	return lights, nil
}

func (s *BridgeService) GetLight(ctx context.Context, id string) (*model.VirtualLight, error) {
	l, err := s.light(id)
	if err != nil {
		return nil, err
	}
	return l.Snapshot(), nil
}

func (s *BridgeService) TurnOn(ctx context.Context, id string, request map[string]interface{}) error {
	l, err := s.light(id)
	if err != nil {
		return err
	}
	l.TurnOn(ctx, request)
	return nil
}

func (s *BridgeService) TurnOff(ctx context.Context, id string, request map[string]interface{}) error {
	l, err := s.light(id)
	if err != nil {
		return err
	}
	return l.TurnOff(ctx, request)
}

func (s *BridgeService) light(id string) (*Light, error) {
	s.mu.RLock()
	l, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("light %s: %w", id, ErrLightNotFound)
	}
	return l, nil
}

func (s *BridgeService) GetConfig(ctx context.Context) (*model.Config, error) {
	return s.configRepo.Get(ctx)
}

// UpdateConfig stores a new configuration, reconfigures the Home Assistant
// connection and rebuilds the lights. A failed resync is only logged: the
// event stream catches up once Home Assistant is reachable.
func (s *BridgeService) UpdateConfig(ctx context.Context, cfg *model.Config) error {
	cfg.Normalize()
	if err := s.configRepo.Save(ctx, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	s.haPort.Configure(cfg.HassURL, cfg.HassToken)
	s.apply(ctx, cfg)

	if err := s.Resync(ctx); err != nil {
		log.Warn().Err(err).Msg("Resync after config update failed")
	}
	return nil
}

func (s *BridgeService) GetAllEntities(ctx context.Context) ([]ports.HomeAssistantEntity, error) {
	if !s.haPort.IsConfigured() {
		return []ports.HomeAssistantEntity{}, nil
	}
	return s.haPort.GetAllEntities(ctx)
}

// Close stops every light from accepting turn_on requests and waits for the
// in-flight dispatches, up to ctx.
func (s *BridgeService) Close(ctx context.Context) {
	s.mu.RLock()
	lights := append([]*Light(nil), s.lights...)
	s.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		for _, l := range lights {
			l.Close()
		}
		close(done)
	}()

	select {
	case <-done:
		log.Debug().Msg("Pending commands flushed")
	case <-ctx.Done():
		log.Warn().Msg("Shutdown timed out, some commands may not have been sent")
	}
}
