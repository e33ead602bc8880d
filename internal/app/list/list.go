package list

import (
	"context"
	"fmt"

	"github.com/slok/deployboard/internal/backend"
	"github.com/slok/deployboard/internal/log"
	"github.com/slok/deployboard/internal/model"
	"github.com/slok/deployboard/internal/store"
)

// ServiceConfig is the configuration for the list service.
type ServiceConfig struct {
	Client backend.Client
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.list.Service"})

	return nil
}

// Service lists tasks with optional filtering.
type Service struct {
	client backend.Client
	logger log.Logger
}

// NewService creates a new list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the list request parameters.
type Request struct {
	// StatusFilter only shows tasks with this status, empty or `all` shows every task.
	StatusFilter string
	// Limit is the max number of tasks, the most recently updated are kept. 0 means no limit.
	Limit int
}

// Run lists the backend tasks, most recently updated first.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Task, error) {
	if req.StatusFilter != "" && req.StatusFilter != store.FilterAll && !model.TaskStatus(req.StatusFilter).Valid() {
		return nil, fmt.Errorf("invalid status filter %q: %w", req.StatusFilter, model.ErrNotValid)
	}
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit can't be negative: %w", model.ErrNotValid)
	}

	tasks, err := s.client.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}

	capacity := req.Limit
	if capacity == 0 {
		capacity = max(len(tasks), 1)
	}
	st, err := store.New(store.Config{Capacity: capacity, Logger: s.logger})
	if err != nil {
		return nil, fmt.Errorf("could not create store: %w", err)
	}
	st.Merge(tasks)

	result := st.Filtered(req.StatusFilter)
	s.logger.Debugf("found %d tasks", len(result))

	return result, nil
}
