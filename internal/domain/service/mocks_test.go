package service

import (
	"context"

	"github.com/stretchr/testify/mock"
	"hs-as-ct/internal/domain/model"
	"hs-as-ct/internal/ports"
)

type MockHAPort struct {
	mock.Mock
}

func (m *MockHAPort) GetState(ctx context.Context, entityID string) (*model.EntityState, error) {
	args := m.Called(ctx, entityID)
	state, _ := args.Get(0).(*model.EntityState)
	return state, args.Error(1)
}

func (m *MockHAPort) GetAllEntities(ctx context.Context) ([]ports.HomeAssistantEntity, error) {
	args := m.Called(ctx)
	return args.Get(0).([]ports.HomeAssistantEntity), args.Error(1)
}

func (m *MockHAPort) CallService(ctx context.Context, cmd model.Command) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

func (m *MockHAPort) Configure(url, token string) {
	m.Called(url, token)
}

func (m *MockHAPort) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Announce(ctx context.Context, light *model.VirtualLight) error {
	args := m.Called(ctx, light)
	return args.Error(0)
}

func (m *MockPublisher) Publish(ctx context.Context, light *model.VirtualLight) error {
	args := m.Called(ctx, light)
	return args.Error(0)
}

func (m *MockPublisher) Withdraw(ctx context.Context, light *model.VirtualLight) error {
	args := m.Called(ctx, light)
	return args.Error(0)
}

type MockConfigRepo struct {
	mock.Mock
}

func (m *MockConfigRepo) Get(ctx context.Context) (*model.Config, error) {
	args := m.Called(ctx)
	cfg, _ := args.Get(0).(*model.Config)
	return cfg, args.Error(1)
}

func (m *MockConfigRepo) Save(ctx context.Context, cfg *model.Config) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}
