package progress

import (
	"context"
	"fmt"

	"github.com/slok/deployboard/internal/backend"
	"github.com/slok/deployboard/internal/catalog"
	"github.com/slok/deployboard/internal/feed"
	"github.com/slok/deployboard/internal/log"
	"github.com/slok/deployboard/internal/model"
)

// ServiceConfig is the configuration for the progress service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.progress.Service"})

	return nil
}

// Service builds progress feeds of one or all the tasks.
type Service struct {
	client backend.Client
	logger log.Logger
}

// NewService creates a new feed service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the feed request parameters.
type Request struct {
	// TaskRef selects the feed of a single task, empty means all the tasks.
	TaskRef string
	// Limit overrides the preset limit when set.
	Limit int
	// Levels overrides the preset levels when set.
	Levels []model.Level
}

// Run returns the feed of a task with the task preset, or the feed of all the
// tasks with the global preset.
func (s *Service) Run(ctx context.Context, req Request) (*feed.Feed, error) {
	var (
		cfg   feed.Config
		tasks []model.Task
	)

	if req.TaskRef != "" {
		task, err := backend.ResolveTask(ctx, s.client, req.TaskRef)
		if err != nil {
			return nil, err
		}
		cfg = feed.TaskPreset()
		tasks = []model.Task{*task}
	} else {
		all, err := s.client.ListTasks(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not list tasks: %w", err)
		}
		cfg = feed.GlobalPreset()
		tasks = all
	}

	if req.Limit != 0 {
		cfg.Limit = req.Limit
	}
	if len(req.Levels) > 0 {
		cfg.IncludeLevels = req.Levels
	}

	stages, err := s.client.ListStages(ctx)
	if err != nil {
		s.logger.Warningf("Could not load stage catalog: %s", err)
	}
	cfg.StageResolver = catalog.NewIndex(stages).Meta

	agg, err := feed.NewAggregator(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid feed request: %w: %w", model.ErrNotValid, err)
	}

	var f feed.Feed
	if req.TaskRef != "" {
		f = agg.TaskFeed(tasks[0])
	} else {
		f = agg.GlobalFeed(tasks)
	}

	return &f, nil
}
