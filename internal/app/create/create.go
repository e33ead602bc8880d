package create

import (
	"context"
	"fmt"
	"strings"

	"github.com/slok/deployboard/internal/backend"
	"github.com/slok/deployboard/internal/catalog"
	"github.com/slok/deployboard/internal/log"
	"github.com/slok/deployboard/internal/model"
)

// FallbackStage is selected when no stage is requested and the backend has no defaults.
const FallbackStage = "prepare"

// ServiceConfig is the configuration for the create service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.create.Service"})

	return nil
}

// Service submits new deployment tasks.
type Service struct {
	client backend.Client
	logger log.Logger
}

// NewService creates a new create service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the create request parameters.
type Request struct {
	// Stages are the stages to run, the backend defaults are used when empty.
	Stages []string
	// Options not set take the backend default, or false.
	Options model.RunOptions
}

// Run validates the selection against the stage catalog and submits the task.
func (s *Service) Run(ctx context.Context, req Request) (*model.Task, error) {
	stages, err := s.client.ListStages(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCatalogUnavailable, err)
	}
	idx := catalog.NewIndex(stages)

	defaults, err := s.client.GetDefaults(ctx)
	if err != nil {
		s.logger.Warningf("Could not load defaults: %s", err)
		defaults = &model.UIDefaults{}
	}

	selection := req.Stages
	if len(selection) == 0 {
		selection = idx.Filter(defaults.Stages)
		if len(selection) == 0 && idx.Has(FallbackStage) {
			selection = []string{FallbackStage}
		}
	}
	if len(selection) == 0 {
		return nil, model.ErrNoStageSelected
	}

	var unknown []string
	for _, st := range selection {
		if !idx.Has(st) {
			unknown = append(unknown, st)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown stages %s: %w", strings.Join(unknown, ", "), model.ErrNotValid)
	}

	runReq := model.RunRequest{
		Stages: idx.SortNames(dedup(selection)),
		Options: model.RunOptions{
			DryRun:           option(req.Options.DryRun, defaults.RunOptions.DryRun),
			StrictValidation: option(req.Options.StrictValidation, defaults.RunOptions.StrictValidation),
			Debug:            option(req.Options.Debug, defaults.RunOptions.Debug),
		},
	}

	task, err := s.client.SubmitTask(ctx, runReq)
	if err != nil {
		return nil, fmt.Errorf("could not submit task: %w", err)
	}

	s.logger.Infof("Task %s submitted with stages %v", task.ID, runReq.Stages)
	return task, nil
}

func option(requested, def *bool) *bool {
	v := false
	switch {
	case requested != nil:
		v = *requested
	case def != nil:
		v = *def
	}
	return &v
}

func dedup(names []string) []string {
	seen := map[string]struct{}{}
	res := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		res = append(res, n)
	}
	return res
}
