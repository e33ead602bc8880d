package remove

import (
	"context"
	"fmt"

	"github.com/slok/deployboard/internal/backend"
	"github.com/slok/deployboard/internal/log"
	"github.com/slok/deployboard/internal/model"
)

// ServiceConfig is the configuration for the remove service.
type ServiceConfig struct {
	Client backend.Client
	// AbortReason is used when force removing a running task.
	AbortReason string
	Logger      log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.AbortReason == "" {
		c.AbortReason = "removed by user"
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.remove.Service"})

	return nil
}

// Service removes task records.
type Service struct {
	client      backend.Client
	abortReason string
	logger      log.Logger
}

// NewService creates a new remove service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client:      cfg.Client,
		abortReason: cfg.AbortReason,
		logger:      cfg.Logger,
	}, nil
}

// Request represents the remove request parameters.
type Request struct {
	// TaskRef is the task ID or a unique prefix of it.
	TaskRef string
	// Force indicates whether to abort a running task before removal.
	Force bool
}

// Run removes a task by ID or ID prefix.
// If the task is running and Force is false, it returns an error.
// If Force is true, it requests the abort first then removes it.
func (s *Service) Run(ctx context.Context, req Request) (*model.Task, error) {
	s.logger.Debugf("removing task: %s (force: %v)", req.TaskRef, req.Force)

	task, err := backend.ResolveTask(ctx, s.client, req.TaskRef)
	if err != nil {
		return nil, err
	}
	ctx = s.logger.SetValuesOnCtx(ctx, log.Kv{"task-id": task.ID})
	logger := s.logger.WithCtxValues(ctx)

	if task.Status == model.TaskStatusRunning {
		if !req.Force {
			return nil, fmt.Errorf("cannot remove running task without force: %w", model.ErrNotValid)
		}

		// Best effort, the backend may have finished it already.
		logger.Infof("force removing running task, aborting first")
		_, _ = s.client.AbortTask(ctx, task.ID, s.abortReason)
	}

	if err := s.client.DeleteTask(ctx, task.ID); err != nil {
		return nil, fmt.Errorf("could not delete task: %w", err)
	}

	logger.Infof("removed task")
	return task, nil
}
