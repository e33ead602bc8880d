package timeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/deployboard/internal/model"
	"github.com/slok/deployboard/internal/timeline"
)

func TestResolveStatus(t *testing.T) {
	tests := map[string]struct {
		stage     string
		task      model.Task
		events    []model.StageEvent
		expStatus model.StageStatus
	}{
		"An error event should fail the stage even if the task is running elsewhere.": {
			stage: "prepare",
			task:  model.Task{Status: model.TaskStatusRunning, CurrentStage: "build", CompletedStages: []string{"prepare"}},
			events: []model.StageEvent{
				{Stage: "prepare", Event: model.EventStart},
				{Stage: "prepare", Event: model.EventError},
			},
			expStatus: model.StageStatusFailed,
		},
		"An error event should have precedence over an aborted event.": {
			stage: "prepare",
			task:  model.Task{Status: model.TaskStatusAborted},
			events: []model.StageEvent{
				{Stage: "prepare", Event: model.EventAborted},
				{Stage: "prepare", Event: model.EventError},
			},
			expStatus: model.StageStatusFailed,
		},
		"An aborted event should abort the stage even if completed.": {
			stage:     "prepare",
			task:      model.Task{Status: model.TaskStatusDone, CompletedStages: []string{"prepare"}},
			events:    []model.StageEvent{{Stage: "prepare", Event: model.EventAborted}},
			expStatus: model.StageStatusAborted,
		},
		"A completed stage should be done.": {
			stage:     "prepare",
			task:      model.Task{Status: model.TaskStatusRunning, CurrentStage: "prepare", CompletedStages: []string{"prepare"}},
			expStatus: model.StageStatusDone,
		},
		"The current stage of a failed task should be failed.": {
			stage:     "build",
			task:      model.Task{Status: model.TaskStatusFailed, CurrentStage: "build"},
			events:    []model.StageEvent{{Stage: "build", Event: model.EventStart}},
			expStatus: model.StageStatusFailed,
		},
		"The current stage of an aborted task should be aborted.": {
			stage:     "build",
			task:      model.Task{Status: model.TaskStatusAborted, CurrentStage: "build"},
			expStatus: model.StageStatusAborted,
		},
		"The current stage of a running task should be running.": {
			stage:     "build",
			task:      model.Task{Status: model.TaskStatusRunning, CurrentStage: "build"},
			expStatus: model.StageStatusRunning,
		},
		"A started stage that is not current should be running.": {
			stage:     "build",
			task:      model.Task{Status: model.TaskStatusFailed, CurrentStage: "deploy"},
			events:    []model.StageEvent{{Stage: "build", Event: model.EventStart}},
			expStatus: model.StageStatusRunning,
		},
		"A stage without events should be pending.": {
			stage:     "deploy",
			task:      model.Task{Status: model.TaskStatusRunning, CurrentStage: "build"},
			expStatus: model.StageStatusPending,
		},
		"A pending task should have pending stages.": {
			stage:     "prepare",
			task:      model.Task{Status: model.TaskStatusPending, CurrentStage: "prepare"},
			expStatus: model.StageStatusPending,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expStatus, timeline.ResolveStatus(test.stage, test.task, test.events))
		})
	}
}

func TestComputeDuration(t *testing.T) {
	ev := func(at string) *model.StageEvent { return &model.StageEvent{At: at} }

	tests := map[string]struct {
		start  *model.StageEvent
		end    *model.StageEvent
		expDur *time.Duration
	}{
		"Missing start should not have duration.": {
			end: ev("2026-01-30T10:00:00Z"),
		},
		"Missing end should not have duration.": {
			start: ev("2026-01-30T10:00:00Z"),
		},
		"Unparseable start should not have duration.": {
			start: ev("yesterday"),
			end:   ev("2026-01-30T10:00:00Z"),
		},
		"End before start should not have duration.": {
			start: ev("2026-01-30T10:00:05Z"),
			end:   ev("2026-01-30T10:00:00Z"),
		},
		"Same time should have zero duration.": {
			start:  ev("2026-01-30T10:00:00Z"),
			end:    ev("2026-01-30T10:00:00Z"),
			expDur: ptrDur(0),
		},
		"Valid times should have the difference.": {
			start:  ev("2026-01-30T10:00:00"),
			end:    ev("2026-01-30T10:01:30.5"),
			expDur: ptrDur(90*time.Second + 500*time.Millisecond),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := timeline.ComputeDuration(test.start, test.end)
			if test.expDur == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *test.expDur, *got)
		})
	}
}

func ptrDur(d time.Duration) *time.Duration { return &d }
