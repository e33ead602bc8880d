package stop

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/slok/deployboard/internal/backend"
	"github.com/slok/deployboard/internal/log"
	"github.com/slok/deployboard/internal/model"
)

// DefaultReason is the abort reason sent when none is set.
const DefaultReason = "aborted by user"

// ServiceConfig is the configuration for the stop service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.stop.Service"})

	return nil
}

// Service aborts running tasks.
type Service struct {
	client backend.Client
	logger log.Logger
}

// NewService creates a new stop service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the stop request parameters.
type Request struct {
	// TaskRef is the task ID or a unique prefix of it.
	TaskRef string
	Reason  string
}

// Run requests the abort of a pending or running task. The backend stops the
// task at the next stage boundary.
func (s *Service) Run(ctx context.Context, req Request) (*model.Task, error) {
	task, err := backend.ResolveTask(ctx, s.client, req.TaskRef)
	if err != nil {
		return nil, err
	}

	if task.Status != model.TaskStatusPending && task.Status != model.TaskStatusRunning {
		return nil, fmt.Errorf("task %s already finished with status %s: %w", task.ShortID(), task.Status, model.ErrNotValid)
	}

	ctx = s.logger.SetValuesOnCtx(ctx, log.Kv{"task-id": task.ID})

	reason := req.Reason
	if reason == "" {
		reason = DefaultReason
	}

	updated, err := s.client.AbortTask(ctx, task.ID, reason)
	if err != nil {
		// The task can finish between the get and the abort.
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			return nil, fmt.Errorf("task %s already finished: %w", task.ShortID(), model.ErrNotValid)
		}
		return nil, fmt.Errorf("could not abort task: %w", err)
	}

	if updated == nil {
		task.AbortRequested = true
		task.AbortReason = reason
		updated = task
	}

	s.logger.WithCtxValues(ctx).Infof("Abort requested")
	return updated, nil
}
