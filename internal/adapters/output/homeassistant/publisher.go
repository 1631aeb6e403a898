package homeassistant

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"hs-as-ct/internal/domain/model"
)

// StatePublisher writes virtual lights straight into the Home Assistant
// state machine. Entities created this way are not backed by an
// integration and cannot be controlled from Home Assistant itself; use the
// MQTT publisher for that.
type StatePublisher struct {
	client *Client
}

func NewStatePublisher(client *Client) *StatePublisher {
	return &StatePublisher{client: client}
}

func (p *StatePublisher) Announce(ctx context.Context, light *model.VirtualLight) error {
	return p.Publish(ctx, light)
}

func (p *StatePublisher) Publish(ctx context.Context, light *model.VirtualLight) error {
	payload := map[string]interface{}{
		"state":      light.State(),
		"attributes": light.HAAttributes(),
	}

	resp, err := p.client.do(ctx, http.MethodPost, "/api/states/"+light.PublishedEntityID(), payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HA API error: %d", resp.StatusCode)
	}

	log.Trace().
		Str("entity_id", light.PublishedEntityID()).
		Str("state", light.State()).
		Msg("State written")
	return nil
}

func (p *StatePublisher) Withdraw(ctx context.Context, light *model.VirtualLight) error {
	resp, err := p.client.do(ctx, http.MethodDelete, "/api/states/"+light.PublishedEntityID(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("HA API error: %d", resp.StatusCode)
	}
	return nil
}
