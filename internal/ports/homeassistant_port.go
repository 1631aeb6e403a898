package ports

import (
	"context"
	"hs-as-ct/internal/domain/model"
)

type HomeAssistantEntity struct {
	EntityID     string `json:"entity_id"`
	FriendlyName string `json:"friendly_name"`
}

// HomeAssistantPort reads the state store and dispatches service calls.
type HomeAssistantPort interface {
	// GetState returns nil without error when the entity does not exist.
	GetState(ctx context.Context, entityID string) (*model.EntityState, error)
	GetAllEntities(ctx context.Context) ([]HomeAssistantEntity, error)
	// CallService returns once Home Assistant has handled the call.
	CallService(ctx context.Context, cmd model.Command) error
	Configure(url, token string)
	IsConfigured() bool
}

// StateChangeHandler receives the new state of an entity, nil if it was removed.
type StateChangeHandler func(entityID string, state *model.EntityState)

// StateChangeSource delivers state_changed notifications until ctx is done.
// onConnect runs every time the stream is (re)established.
type StateChangeSource interface {
	Run(ctx context.Context, handler StateChangeHandler, onConnect func()) error
}
