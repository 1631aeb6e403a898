package ports

import (
	"context"
	"hs-as-ct/internal/domain/model"
)

// StatePublisher makes a virtual light's state visible to Home Assistant.
type StatePublisher interface {
	// Announce registers the light, e.g. through MQTT discovery.
	Announce(ctx context.Context, light *model.VirtualLight) error
	Publish(ctx context.Context, light *model.VirtualLight) error
	// Withdraw removes a light that is no longer configured.
	Withdraw(ctx context.Context, light *model.VirtualLight) error
}
