package mqtt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mqttout "hs-as-ct/internal/adapters/output/mqtt"
	"hs-as-ct/internal/adapters/output/mqtt/mqtttest"
	"hs-as-ct/internal/domain/model"
	"hs-as-ct/internal/ports"
)

type MockBridge struct {
	mock.Mock
}

func (m *MockBridge) GetLights(ctx context.Context) ([]*model.VirtualLight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*model.VirtualLight), args.Error(1)
}

func (m *MockBridge) GetLight(ctx context.Context, id string) (*model.VirtualLight, error) {
	args := m.Called(ctx, id)
	light, _ := args.Get(0).(*model.VirtualLight)
	return light, args.Error(1)
}

func (m *MockBridge) TurnOn(ctx context.Context, id string, request map[string]interface{}) error {
	args := m.Called(ctx, id, request)
	return args.Error(0)
}

func (m *MockBridge) TurnOff(ctx context.Context, id string, request map[string]interface{}) error {
	args := m.Called(ctx, id, request)
	return args.Error(0)
}

func (m *MockBridge) GetConfig(ctx context.Context) (*model.Config, error) {
	args := m.Called(ctx)
	cfg, _ := args.Get(0).(*model.Config)
	return cfg, args.Error(1)
}

func (m *MockBridge) UpdateConfig(ctx context.Context, cfg *model.Config) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockBridge) GetAllEntities(ctx context.Context) ([]ports.HomeAssistantEntity, error) {
	args := m.Called(ctx)
	return args.Get(0).([]ports.HomeAssistantEntity), args.Error(1)
}

var testTopics = mqttout.Topics{DiscoveryPrefix: "homeassistant", Prefix: "hsasct"}

func newHandler(t *testing.T) (*CommandHandler, *MockBridge, *mqtttest.Client) {
	t.Helper()
	bridge := new(MockBridge)
	bridge.On("GetLights", mock.Anything).Return([]*model.VirtualLight{
		{ID: "1", ObjectID: "desk"},
		{ID: "2", ObjectID: "shelf"},
	}, nil)

	client := mqtttest.NewClient()
	h := NewCommandHandler(bridge, testTopics)
	h.Subscribe(client)
	return h, bridge, client
}

// called returns a channel closed once the expectation has run.
func called(call *mock.Call) <-chan struct{} {
	done := make(chan struct{})
	call.Run(func(mock.Arguments) { close(done) })
	return done
}

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("command was not dispatched")
	}
}

func TestCommandHandler_Subscribe(t *testing.T) {
	_, _, client := newHandler(t)

	subs := client.Subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, "hsasct/+/set", subs[0].Topic)
}

func TestCommandHandler_TurnOn(t *testing.T) {
	_, bridge, client := newHandler(t)
	done := called(bridge.On("TurnOn", mock.Anything, "2", map[string]interface{}{
		"brightness":        128,
		"color_temp_kelvin": 4000.0,
		"transition":        2.0,
		"flash":             "short",
	}).Return(nil).Once())

	client.Deliver("hsasct/shelf/set", []byte(`{"state":"ON","brightness":128,"color_temp":4000,"transition":2,"flash":"short"}`))

	waitFor(t, done)
	bridge.AssertExpectations(t)
}

func TestCommandHandler_TurnOff(t *testing.T) {
	_, bridge, client := newHandler(t)
	done := called(bridge.On("TurnOff", mock.Anything, "1", map[string]interface{}{"transition": 5.0}).Return(nil).Once())

	client.Deliver("hsasct/desk/set", []byte(`{"state":"OFF","transition":5,"brightness":10}`))

	waitFor(t, done)
	bridge.AssertExpectations(t)
	bridge.AssertNotCalled(t, "TurnOn", mock.Anything, mock.Anything, mock.Anything)
}

func TestCommandHandler_SlowTurnOffDoesNotBlockOthers(t *testing.T) {
	_, bridge, client := newHandler(t)
	release := make(chan struct{})
	defer close(release)

	bridge.On("TurnOff", mock.Anything, "1", mock.Anything).Run(func(mock.Arguments) { <-release }).Return(nil).Once()
	done := called(bridge.On("TurnOn", mock.Anything, "2", mock.Anything).Return(nil).Once())

	delivered := make(chan struct{})
	go func() {
		client.Deliver("hsasct/desk/set", []byte(`{"state":"OFF"}`))
		client.Deliver("hsasct/shelf/set", []byte(`{"state":"ON"}`))
		close(delivered)
	}()

	waitFor(t, delivered)
	waitFor(t, done)
}

func TestCommandHandler_Ignored(t *testing.T) {
	_, bridge, client := newHandler(t)

	client.Deliver("hsasct/desk/set", []byte(`not json`))
	client.Deliver("hsasct/unknown/set", []byte(`{"state":"ON"}`))
	client.Deliver("hsasct/desk/state", []byte(`{"state":"ON"}`))

	bridge.AssertNotCalled(t, "TurnOn", mock.Anything, mock.Anything, mock.Anything)
	bridge.AssertNotCalled(t, "TurnOff", mock.Anything, mock.Anything, mock.Anything)
}

func TestCommandHandler_UnknownLight(t *testing.T) {
	h, _, _ := newHandler(t)

	err := h.execute(context.Background(), "garage", commandPayload{State: "ON"})
	assert.ErrorIs(t, err, errUnknownObject)
}
