package status

import (
	"context"
	"fmt"

	"github.com/slok/deployboard/internal/backend"
	"github.com/slok/deployboard/internal/dashboard"
	"github.com/slok/deployboard/internal/feed"
	"github.com/slok/deployboard/internal/log"
)

// ServiceConfig is the configuration for the status service.
type ServiceConfig struct {
	Client backend.Client
	// FeedConfig is the feed of the task, by default the task preset.
	FeedConfig *feed.Config
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.FeedConfig == nil {
		cfg := feed.TaskPreset()
		c.FeedConfig = &cfg
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.status.Service"})

	return nil
}

// Service gets the detailed status of a task.
type Service struct {
	client  backend.Client
	feedCfg feed.Config
	logger  log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client:  cfg.Client,
		feedCfg: *cfg.FeedConfig,
		logger:  cfg.Logger,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	// TaskRef is the task ID or a unique prefix of it.
	TaskRef string
}

// Run gets a task and derives its timeline, progress and feed. A missing stage
// catalog only degrades the labels and order of the stages.
func (s *Service) Run(ctx context.Context, req Request) (*dashboard.TaskView, error) {
	task, err := backend.ResolveTask(ctx, s.client, req.TaskRef)
	if err != nil {
		return nil, err
	}

	stages, err := s.client.ListStages(ctx)
	if err != nil {
		s.logger.Warningf("Could not load stage catalog: %s", err)
		stages = nil
	}

	v, err := dashboard.DescribeTask(*task, stages, s.feedCfg)
	if err != nil {
		return nil, fmt.Errorf("could not describe task: %w", err)
	}

	return &v, nil
}
