package homeassistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hs-as-ct/internal/domain/model"
	"hs-as-ct/internal/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(5 * time.Second)
	c.Configure(srv.URL+"/", "secret")
	return c
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(time.Second)
	assert.False(t, c.IsConfigured())

	_, err := c.GetState(context.Background(), "light.desk")
	assert.ErrorIs(t, err, ErrNotConfigured)

	err = c.CallService(context.Background(), model.Command{Domain: "light", Service: "turn_on"})
	assert.ErrorIs(t, err, ports.ErrNotConfigured)
	assert.EqualError(t, err, "home assistant is not configured")
}

func TestClient_GetState(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/states/light.desk_rgb":
			_, _ = w.Write([]byte(`{"entity_id":"light.desk_rgb","state":"on","attributes":{"brightness":180,"hs_color":[38.6,53.3]}}`))
		case "/api/states/light.broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	state, err := c.GetState(context.Background(), "light.desk_rgb")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "on", state.State)
	assert.Equal(t, 180.0, state.Attributes["brightness"])

	state, err = c.GetState(context.Background(), "light.gone")
	assert.NoError(t, err)
	assert.Nil(t, state)

	_, err = c.GetState(context.Background(), "light.broken")
	assert.EqualError(t, err, "HA API error: 500")
}

func TestClient_CallService(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`[]`))
	})

	err := c.CallService(context.Background(), model.Command{
		Domain:  "light",
		Service: "turn_on",
		Data: map[string]interface{}{
			"entity_id":  "light.desk_rgb",
			"hs_color":   []float64{42.551, 26.061},
			"brightness": 100,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/services/light/turn_on", gotPath)
	assert.Equal(t, "light.desk_rgb", gotBody["entity_id"])
	assert.Equal(t, []interface{}{42.551, 26.061}, gotBody["hs_color"])
	assert.Equal(t, 100.0, gotBody["brightness"])
}

func TestClient_CallServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	err := c.CallService(context.Background(), model.Command{Domain: "light", Service: "turn_off"})
	assert.EqualError(t, err, "HA API error: 400")
}

func TestClient_GetAllEntities(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/api/states", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"entity_id":"light.desk_rgb","state":"on","attributes":{"friendly_name":"Desk","entity_picture":"/x.png"}},
			{"entity_id":"light.unnamed","state":"off","attributes":{}},
			{"entity_id":"sensor.temperature","state":"21","attributes":{"friendly_name":"Temperature"}}
		]`))
	})

	entities, err := c.GetAllEntities(context.Background())
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "Desk", entities[0].FriendlyName)
	assert.Equal(t, "light.unnamed", entities[1].FriendlyName)

	// Served from cache
	_, err = c.GetAllEntities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	states, err := c.GetStates(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, states[0].Attributes, "entity_picture")
}

func TestStatePublisher(t *testing.T) {
	var method, path string
	var body map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body = nil
		if r.Method == http.MethodPost {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	p := NewStatePublisher(c)

	on := true
	kelvin := 4000
	light := &model.VirtualLight{
		ID:       "1",
		Name:     "Desk",
		ObjectID: "desk",
		EntityID: "light.desk_rgb",
		Attributes: model.LightAttributes{
			IsOn:            &on,
			Available:       true,
			ColorTempKelvin: &kelvin,
		},
	}

	require.NoError(t, p.Announce(context.Background(), light))
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/api/states/light.desk", path)
	assert.Equal(t, "on", body["state"])
	attrs, _ := body["attributes"].(map[string]interface{})
	assert.Equal(t, 4000.0, attrs["color_temp_kelvin"])
	assert.Equal(t, "color_temp", attrs["color_mode"])

	// Missing state is fine when withdrawing
	require.NoError(t, p.Withdraw(context.Background(), light))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/api/states/light.desk", path)
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://ha.local:8123", "ws://ha.local:8123/api/websocket"},
		{"https://ha.example.com", "wss://ha.example.com/api/websocket"},
		{"http://proxy/ha/", "ws://proxy/ha/api/websocket"},
	}
	for _, tt := range tests {
		got, err := websocketURL(tt.base)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
