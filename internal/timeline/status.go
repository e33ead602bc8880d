// Package timeline derives the per stage view of a task from its status and
// its stage event history.
package timeline

import (
	"time"

	"github.com/slok/deployboard/internal/model"
)

// ResolveStatus returns the status of a stage using the task status and the
// stage events. History is authoritative for terminal outcomes, the task status
// only for its current stage.
func ResolveStatus(stage string, task model.Task, events []model.StageEvent) model.StageStatus {
	switch {
	case hasEvent(events, model.EventError):
		return model.StageStatusFailed
	case hasEvent(events, model.EventAborted):
		return model.StageStatusAborted
	case task.IsCompleted(stage):
		return model.StageStatusDone
	}

	isCurrent := stage != "" && task.CurrentStage == stage
	switch {
	case isCurrent && task.Status == model.TaskStatusFailed:
		return model.StageStatusFailed
	case isCurrent && task.Status == model.TaskStatusAborted:
		return model.StageStatusAborted
	case isCurrent && task.Status == model.TaskStatusRunning:
		return model.StageStatusRunning
	case hasEvent(events, model.EventStart):
		// Started but the task moved on without closing it.
		return model.StageStatusRunning
	}

	return model.StageStatusPending
}

func hasEvent(events []model.StageEvent, kind model.EventKind) bool {
	for _, e := range events {
		if e.Event == kind {
			return true
		}
	}
	return false
}

// ComputeDuration returns the time between a start and an end event. It returns
// nil if any of them is missing, their time can't be parsed or the end is before
// the start.
func ComputeDuration(start, end *model.StageEvent) *time.Duration {
	if start == nil || end == nil {
		return nil
	}

	st, ok := model.ParseTime(start.At)
	if !ok {
		return nil
	}
	et, ok := model.ParseTime(end.At)
	if !ok {
		return nil
	}
	if et.Before(st) {
		return nil
	}

	d := et.Sub(st)
	return &d
}
