package ports

import (
	"context"
	"errors"
	"hs-as-ct/internal/domain/model"
)

var (
	// ErrLightNotFound is returned for ids that name no virtual light.
	ErrLightNotFound = errors.New("light not found")
	// ErrNotConfigured is returned while no Home Assistant URL or token is set.
	ErrNotConfigured = errors.New("home assistant is not configured")
)

// BridgePort is what input adapters (Hue API, MQTT commands) drive.
type BridgePort interface {
	GetLights(ctx context.Context) ([]*model.VirtualLight, error)
	GetLight(ctx context.Context, id string) (*model.VirtualLight, error)
	TurnOn(ctx context.Context, id string, request map[string]interface{}) error
	TurnOff(ctx context.Context, id string, request map[string]interface{}) error

	// Config management
	GetConfig(ctx context.Context) (*model.Config, error)
	UpdateConfig(ctx context.Context, cfg *model.Config) error
	GetAllEntities(ctx context.Context) ([]HomeAssistantEntity, error)
}
