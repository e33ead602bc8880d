// Package backend has the contract of the deployment backend the dashboard talks to.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/slok/deployboard/internal/model"
)

// Client is the deployment backend API.
type Client interface {
	// ListStages returns the stage catalog.
	ListStages(ctx context.Context) ([]model.StageDefinition, error)
	// GetDefaults returns the default selections of the UI.
	GetDefaults(ctx context.Context) (*model.UIDefaults, error)
	// ListTasks returns a snapshot of the backend tasks.
	ListTasks(ctx context.Context) ([]model.Task, error)
	// GetTask returns a single task.
	GetTask(ctx context.Context, id string) (*model.Task, error)
	// SubmitTask creates a new task.
	SubmitTask(ctx context.Context, req model.RunRequest) (*model.Task, error)
	// AbortTask requests the abort of a running task, the returned task can be nil.
	AbortTask(ctx context.Context, id, reason string) (*model.Task, error)
	// DeleteTask deletes a task record.
	DeleteTask(ctx context.Context, id string) error
}

// APIError is an error response of the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Is makes not found responses match model.ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == model.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// TaskList is the response of the tasks listing.
type TaskList struct {
	Items []model.Task `json:"items"`
	Total int          `json:"total"`
}

// AbortRequest is the payload of an abort.
type AbortRequest struct {
	Reason string `json:"reason"`
}

// ErrorResponse is the body of an error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ResolveTask gets a task by its ID or by a unique ID prefix, like the short
// IDs the printers show.
func ResolveTask(ctx context.Context, c Client, ref string) (*model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("missing task id: %w", model.ErrNotValid)
	}

	task, err := c.GetTask(ctx, ref)
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("could not get task: %w", err)
	}

	tasks, err := c.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}

	var matches []model.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("task %s: %w", ref, model.ErrNotFound)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("task id %s matches %d tasks: %w", ref, len(matches), model.ErrNotValid)
	}
}
