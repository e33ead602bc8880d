// Package backendmock has testify mocks of the backend client.
package backendmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/slok/deployboard/internal/backend"
	"github.com/slok/deployboard/internal/model"
)

// MockClient is a mock of backend.Client.
type MockClient struct {
	mock.Mock
}

var _ backend.Client = &MockClient{}

func (m *MockClient) ListStages(ctx context.Context) ([]model.StageDefinition, error) {
	args := m.Called(ctx)
	stages, _ := args.Get(0).([]model.StageDefinition)
	return stages, args.Error(1)
}

func (m *MockClient) GetDefaults(ctx context.Context) (*model.UIDefaults, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).(*model.UIDefaults)
	return d, args.Error(1)
}

func (m *MockClient) ListTasks(ctx context.Context) ([]model.Task, error) {
	args := m.Called(ctx)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockClient) GetTask(ctx context.Context, id string) (*model.Task, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *MockClient) SubmitTask(ctx context.Context, req model.RunRequest) (*model.Task, error) {
	args := m.Called(ctx, req)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *MockClient) AbortTask(ctx context.Context, id, reason string) (*model.Task, error) {
	args := m.Called(ctx, id, reason)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *MockClient) DeleteTask(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
