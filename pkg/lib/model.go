package lib

import (
	"errors"
	"time"

	"github.com/slok/deployboard/internal/dashboard"
	"github.com/slok/deployboard/internal/feed"
	"github.com/slok/deployboard/internal/model"
	"github.com/slok/deployboard/internal/timeline"
)

var (
	// ErrNotFound is returned when a task can't be found.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a request is not valid, like an ambiguous
	// task reference or an unknown stage.
	ErrNotValid = errors.New("not valid")
	// ErrCatalogUnavailable is returned when the stage catalog can't be loaded.
	ErrCatalogUnavailable = errors.New("stage catalog unavailable")
	// ErrNoStageSelected is returned when a task would be submitted without stages.
	ErrNoStageSelected = errors.New("no stage selected")
)

// TaskStatus represents the lifecycle state of a task.
//
//	pending -> running -> done | failed | aborted
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusRunning TaskStatus = "running"
	TaskStatusDone    TaskStatus = "done"
	TaskStatusFailed  TaskStatus = "failed"
	TaskStatusAborted TaskStatus = "aborted"
)

// StageStatus is the derived status of a stage inside a task.
type StageStatus string

const (
	StageStatusPending StageStatus = "pending"
	StageStatusRunning StageStatus = "running"
	StageStatusDone    StageStatus = "done"
	StageStatusFailed  StageStatus = "failed"
	StageStatusAborted StageStatus = "aborted"
)

// Level is the severity of a progress message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Stage is a stage catalog entry.
type Stage struct {
	Name        string
	Label       string
	Order       int
	Group       string
	Description string
}

// RunOptions are the execution switches of a task. Nil means not set.
type RunOptions struct {
	DryRun           *bool
	StrictValidation *bool
	Debug            *bool
}

// Defaults are the selections the backend suggests for new tasks.
type Defaults struct {
	Stages  []string
	Options RunOptions
}

// Task is a snapshot of a task at the time of the API call.
type Task struct {
	ID     string
	Status TaskStatus
	// CreatedAt and UpdatedAt are zero when the backend didn't report them.
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Stages          []string
	CompletedStages []string
	CurrentStage    string
	Error           string
	AbortRequested  bool
	AbortReason     string
}

// StageProgress is the timeline row of a stage inside a task.
type StageProgress struct {
	Name  string
	Label string
	// Order is 0 for stages that are not in the catalog.
	Order     int
	Status    StageStatus
	StartedAt *time.Time
	EndedAt   *time.Time
	// Duration is nil until the stage starts, running stages measure until now.
	Duration *time.Duration
}

// FeedEntry is a progress message.
type FeedEntry struct {
	At         time.Time
	Message    string
	Level      Level
	Stage      string
	StageLabel string
	TaskID     string
}

// TaskDetail is a task with its timeline, progress digest and recent feed.
type TaskDetail struct {
	Task      Task
	Label     string
	Completed int
	Total     int
	Percent   int
	Headline  string
	Stages    []StageProgress
	Feed      []FeedEntry
	// Warnings and Errors are counted from the summary of finished tasks.
	Warnings         int
	Errors           int
	UnreachableHosts []string
}

func fromInternalStages(ss []model.StageDefinition) []Stage {
	res := make([]Stage, 0, len(ss))
	for _, s := range ss {
		res = append(res, Stage{
			Name:        s.Name,
			Label:       s.Label,
			Order:       s.Order,
			Group:       s.Group,
			Description: s.Description,
		})
	}
	return res
}

func fromInternalOptions(o model.RunOptions) RunOptions {
	return RunOptions{DryRun: o.DryRun, StrictValidation: o.StrictValidation, Debug: o.Debug}
}

func toInternalOptions(o RunOptions) model.RunOptions {
	return model.RunOptions{DryRun: o.DryRun, StrictValidation: o.StrictValidation, Debug: o.Debug}
}

func fromInternalTask(t model.Task) Task {
	created, _ := model.ParseTime(t.CreatedAt)
	updated, _ := model.ParseTime(t.UpdatedAt)

	return Task{
		ID:              t.ID,
		Status:          TaskStatus(t.Status),
		CreatedAt:       created,
		UpdatedAt:       updated,
		Stages:          t.Stages,
		CompletedStages: t.CompletedStages,
		CurrentStage:    t.CurrentStage,
		Error:           t.Error,
		AbortRequested:  t.AbortRequested,
		AbortReason:     t.AbortReason,
	}
}

func fromInternalTasks(ts []model.Task) []Task {
	res := make([]Task, 0, len(ts))
	for _, t := range ts {
		res = append(res, fromInternalTask(t))
	}
	return res
}

func fromInternalStageRow(r timeline.StageRow) StageProgress {
	sp := StageProgress{
		Name:      r.Name,
		Label:     r.Label,
		Status:    StageStatus(r.Status),
		StartedAt: parseTimePtr(r.StartedAt),
		EndedAt:   parseTimePtr(r.EndedAt),
		Duration:  r.Duration,
	}
	if r.Order != nil {
		sp.Order = *r.Order
	}
	return sp
}

func fromInternalFeed(f feed.Feed) []FeedEntry {
	res := make([]FeedEntry, 0, len(f.Entries))
	for _, e := range f.Entries {
		fe := FeedEntry{
			At:      e.At,
			Message: e.Message,
			Level:   Level(e.Level),
			TaskID:  e.TaskID,
		}
		if e.Stage != nil {
			fe.Stage = e.Stage.Name
			fe.StageLabel = e.Stage.Label
		}
		res = append(res, fe)
	}
	return res
}

func fromInternalTaskView(v dashboard.TaskView) TaskDetail {
	stages := make([]StageProgress, 0, len(v.Stages))
	for _, r := range v.Stages {
		stages = append(stages, fromInternalStageRow(r))
	}

	return TaskDetail{
		Task:             fromInternalTask(v.Task),
		Label:            v.Label,
		Completed:        v.Progress.Completed,
		Total:            v.Progress.Total,
		Percent:          v.Progress.Percent,
		Headline:         v.Headline,
		Stages:           stages,
		Feed:             fromInternalFeed(v.Feed),
		Warnings:         v.Issues.Warnings,
		Errors:           v.Issues.Errors,
		UnreachableHosts: v.UnreachableHosts,
	}
}

func parseTimePtr(raw string) *time.Time {
	t, ok := model.ParseTime(raw)
	if !ok {
		return nil
	}
	return &t
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrCatalogUnavailable):
		return joinErrors(err, ErrCatalogUnavailable)
	case errors.Is(err, model.ErrNoStageSelected):
		return joinErrors(err, ErrNoStageSelected)
	case errors.Is(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
