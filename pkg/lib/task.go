package lib

import (
	"context"
	"fmt"

	"github.com/slok/deployboard/internal/app/create"
	"github.com/slok/deployboard/internal/app/list"
	"github.com/slok/deployboard/internal/app/progress"
	"github.com/slok/deployboard/internal/app/remove"
	"github.com/slok/deployboard/internal/app/status"
	"github.com/slok/deployboard/internal/app/stop"
	"github.com/slok/deployboard/internal/catalog"
	"github.com/slok/deployboard/internal/model"
)

// ListTasksOpts are the options for listing tasks.
type ListTasksOpts struct {
	// Status only returns tasks with this status. Empty returns all.
	Status TaskStatus
	// Limit is the max number of tasks, the most recently updated are kept.
	// 0 means no limit.
	Limit int
}

// SubmitTaskOpts are the options for submitting a task.
type SubmitTaskOpts struct {
	// Stages to run, in any order. Empty uses the backend defaults.
	Stages []string
	// Options not set take the backend default.
	Options RunOptions
}

// FeedOpts are the options for reading progress messages.
type FeedOpts struct {
	// TaskRef selects a single task, empty reads the messages of every task.
	TaskRef string
	// Limit is the max number of entries. 0 uses the default.
	Limit  int
	Levels []Level
}

// Stages returns the stage catalog in display order.
func (c *Client) Stages(ctx context.Context) ([]Stage, error) {
	stages, err := c.backend.ListStages(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	return fromInternalStages(catalog.NewIndex(stages).Stages()), nil
}

// Defaults returns the stage selection and run options the backend suggests.
func (c *Client) Defaults(ctx context.Context) (*Defaults, error) {
	d, err := c.backend.GetDefaults(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return &Defaults{
		Stages:  d.Stages,
		Options: fromInternalOptions(d.RunOptions),
	}, nil
}

// ListTasks returns the tasks, most recently updated first.
// Pass nil opts for all the tasks.
func (c *Client) ListTasks(ctx context.Context, opts *ListTasksOpts) ([]Task, error) {
	svc, err := list.NewService(list.ServiceConfig{
		Client: c.backend,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	req := list.Request{}
	if opts != nil {
		req.StatusFilter = string(opts.Status)
		req.Limit = opts.Limit
	}

	tasks, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalTasks(tasks), nil
}

// GetTask returns a task with its stage timeline and recent progress.
func (c *Client) GetTask(ctx context.Context, taskRef string) (*TaskDetail, error) {
	svc, err := status.NewService(status.ServiceConfig{
		Client: c.backend,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	v, err := svc.Run(ctx, status.Request{TaskRef: taskRef})
	if err != nil {
		return nil, mapError(err)
	}

	detail := fromInternalTaskView(*v)
	return &detail, nil
}

// SubmitTask submits a new task. The stages are validated against the catalog
// and sent in catalog order.
func (c *Client) SubmitTask(ctx context.Context, opts SubmitTaskOpts) (*Task, error) {
	svc, err := create.NewService(create.ServiceConfig{
		Client: c.backend,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	t, err := svc.Run(ctx, create.Request{
		Stages:  opts.Stages,
		Options: toInternalOptions(opts.Options),
	})
	if err != nil {
		return nil, mapError(err)
	}

	task := fromInternalTask(*t)
	return &task, nil
}

// AbortTask requests the abort of a pending or running task. An empty reason
// uses the default one.
func (c *Client) AbortTask(ctx context.Context, taskRef, reason string) (*Task, error) {
	svc, err := stop.NewService(stop.ServiceConfig{
		Client: c.backend,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	t, err := svc.Run(ctx, stop.Request{TaskRef: taskRef, Reason: reason})
	if err != nil {
		return nil, mapError(err)
	}

	task := fromInternalTask(*t)
	return &task, nil
}

// RemoveTask deletes a task record. Running tasks are refused unless force is
// set, then they are aborted first.
func (c *Client) RemoveTask(ctx context.Context, taskRef string, force bool) error {
	svc, err := remove.NewService(remove.ServiceConfig{
		Client: c.backend,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	if _, err := svc.Run(ctx, remove.Request{TaskRef: taskRef, Force: force}); err != nil {
		return mapError(err)
	}

	return nil
}

// Feed returns the progress messages, newest first.
// Pass nil opts for the latest messages of every task.
func (c *Client) Feed(ctx context.Context, opts *FeedOpts) ([]FeedEntry, error) {
	svc, err := progress.NewService(progress.ServiceConfig{
		Client: c.backend,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	req := progress.Request{}
	if opts != nil {
		req.TaskRef = opts.TaskRef
		req.Limit = opts.Limit
		for _, l := range opts.Levels {
			req.Levels = append(req.Levels, model.Level(l))
		}
	}

	f, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalFeed(*f), nil
}
