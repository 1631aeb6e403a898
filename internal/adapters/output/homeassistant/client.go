package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hs-as-ct/internal/domain/model"
	"hs-as-ct/internal/ports"
)

var ErrNotConfigured = ports.ErrNotConfigured

// statesCacheTTL bounds how often the full state list is fetched.
const statesCacheTTL = 2 * time.Second

// Client talks to the Home Assistant REST API.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
	mu         sync.RWMutex

	cacheStates []model.EntityState
	cacheTime   time.Time
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configure(url, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.url = strings.TrimSuffix(url, "/")
	c.token = token
	c.cacheStates = nil
	c.cacheTime = time.Time{}
}

func (c *Client) IsConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.url != "" && c.token != ""
}

// endpoint returns the base URL and token, or ErrNotConfigured.
func (c *Client) endpoint() (string, string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.url == "" || c.token == "" {
		return "", "", ErrNotConfigured
	}
	return c.url, c.token, nil
}

// GetState reads one entity. A missing entity is reported as nil, nil.
func (c *Client) GetState(ctx context.Context, entityID string) (*model.EntityState, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/states/"+entityID, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HA API error: %d", resp.StatusCode)
	}

	var state model.EntityState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode state of %s: %w", entityID, err)
	}
	return &state, nil
}

// GetAllEntities lists the lights known to Home Assistant.
func (c *Client) GetAllEntities(ctx context.Context) ([]ports.HomeAssistantEntity, error) {
	states, err := c.GetStates(ctx)
	if err != nil {
		return nil, err
	}

	entities := make([]ports.HomeAssistantEntity, 0, len(states))
	for _, s := range states {
		if !isSupported(s.EntityID) {
			continue
		}

		name, _ := s.Attributes[model.AttrFriendlyName].(string)
		if name == "" {
			name = s.EntityID
		}

		entities = append(entities, ports.HomeAssistantEntity{
			EntityID:     s.EntityID,
			FriendlyName: name,
		})
	}

	return entities, nil
}

// GetStates returns every state object, cached for a short while.
func (c *Client) GetStates(ctx context.Context) ([]model.EntityState, error) {
	c.mu.RLock()
	if c.cacheStates != nil && time.Since(c.cacheTime) < statesCacheTTL {
		res := c.cacheStates
		c.mu.RUnlock()
		return res, nil
	}
	c.mu.RUnlock()

	resp, err := c.do(ctx, http.MethodGet, "/api/states", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HA API error: %d", resp.StatusCode)
	}

	var states []model.EntityState
	if err := json.NewDecoder(resp.Body).Decode(&states); err != nil {
		return nil, err
	}

	// Strip large attributes to save RAM
	for _, s := range states {
		delete(s.Attributes, "entity_picture")
		delete(s.Attributes, "entity_picture_local")
		delete(s.Attributes, "source_list")
		delete(s.Attributes, "sound_mode_list")
	}

	c.mu.Lock()
	c.cacheStates = states
	c.cacheTime = time.Now()
	c.mu.Unlock()

	return states, nil
}

// CallService posts a service call. Home Assistant answers once the call
// has been handled, so blocking and non-blocking commands share this path.
func (c *Client) CallService(ctx context.Context, cmd model.Command) error {
	path := fmt.Sprintf("/api/services/%s/%s", cmd.Domain, cmd.Service)
	resp, err := c.do(ctx, http.MethodPost, path, cmd.Data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HA API error: %d", resp.StatusCode)
	}

	log.Debug().
		Str("service", cmd.Domain+"."+cmd.Service).
		Str("entity_id", cmd.Target()).
		Msg("Service call dispatched")

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*http.Response, error) {
	base, token, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func isSupported(entityID string) bool {
	return strings.HasPrefix(entityID, model.DomainLight+".")
}
