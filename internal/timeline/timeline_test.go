package timeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/deployboard/internal/catalog"
	"github.com/slok/deployboard/internal/model"
	"github.com/slok/deployboard/internal/timeline"
)

func testIndex() *catalog.Index {
	return catalog.NewIndex([]model.StageDefinition{
		{Name: "deploy", Label: "Deploy", Order: 3},
		{Name: "prepare", Label: "Prepare", Order: 1},
		{Name: "build", Label: "Build", Order: 2},
	})
}

func TestBuildRunningTask(t *testing.T) {
	task := model.Task{
		ID:              "abc123",
		Status:          model.TaskStatusRunning,
		CurrentStage:    "build",
		Stages:          []string{"prepare", "build", "deploy"},
		CompletedStages: []string{"prepare"},
		StageHistory: []model.StageEvent{
			{Stage: "prepare", Event: model.EventStart, At: "2026-01-30T10:00:00Z"},
			{Stage: "prepare", Event: model.EventComplete, At: "2026-01-30T10:00:42Z"},
		},
	}

	rows := timeline.Build(task, testIndex())
	require.Len(t, rows, 3)

	assert.Equal(t, "prepare", rows[0].Name)
	assert.Equal(t, "Prepare", rows[0].Label)
	assert.Equal(t, model.StageStatusDone, rows[0].Status)
	require.NotNil(t, rows[0].Duration)
	assert.Equal(t, 42*time.Second, *rows[0].Duration)
	assert.Equal(t, "2026-01-30T10:00:00Z", rows[0].StartedAt)
	assert.Equal(t, "2026-01-30T10:00:42Z", rows[0].EndedAt)
	assert.False(t, rows[0].Running)

	assert.Equal(t, "build", rows[1].Name)
	assert.Equal(t, model.StageStatusRunning, rows[1].Status)
	assert.Nil(t, rows[1].Duration)
	assert.False(t, rows[1].Running, "without start event it is not shown as in progress")

	assert.Equal(t, "deploy", rows[2].Name)
	assert.Equal(t, model.StageStatusPending, rows[2].Status)
	require.NotNil(t, rows[2].Order)
	assert.Equal(t, 3, *rows[2].Order)
}

func TestBuildFailedEarlierStage(t *testing.T) {
	task := model.Task{
		Status:       model.TaskStatusRunning,
		CurrentStage: "deploy",
		Stages:       []string{"prepare", "build", "deploy"},
		StageHistory: []model.StageEvent{
			{Stage: "build", Event: model.EventStart, At: "2026-01-30T10:00:00Z"},
			{Stage: "build", Event: model.EventError, At: "2026-01-30T10:00:10Z"},
			{Stage: "deploy", Event: model.EventStart, At: "2026-01-30T10:00:11Z"},
		},
	}

	rows := timeline.Build(task, testIndex())
	require.Len(t, rows, 3)
	assert.Equal(t, model.StageStatusPending, rows[0].Status)
	assert.Equal(t, model.StageStatusFailed, rows[1].Status)
	assert.Equal(t, model.StageStatusRunning, rows[2].Status)
	assert.True(t, rows[2].Running)
}

func TestBuildOrderingAndExtras(t *testing.T) {
	task := model.Task{
		Status: model.TaskStatusRunning,
		// Requested in reverse and with a stage missing from the catalog.
		Stages: []string{"custom", "deploy", "prepare"},
		StageHistory: []model.StageEvent{
			{Stage: "cleanup", Event: model.EventComplete, At: "2026-01-30T10:00:09Z"},
			{Stage: "prepare", Event: model.EventStart, At: "2026-01-30T10:00:01Z"},
			{Stage: "", Event: model.EventStart, At: "2026-01-30T10:00:00Z"},
			{Stage: "hotfix", Event: model.EventStart, At: "2026-01-30T10:00:05Z"},
			{Stage: "cleanup", Event: model.EventStart, At: "2026-01-30T10:00:07Z"},
		},
	}

	rows := timeline.Build(task, testIndex())

	names := []string{}
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"prepare", "deploy", "custom", "hotfix", "cleanup"}, names)

	// Catalog order.
	require.NotNil(t, rows[1].Order)
	assert.Equal(t, 3, *rows[1].Order)
	// Index in the requested list when not in catalog.
	require.NotNil(t, rows[2].Order)
	assert.Equal(t, 3, *rows[2].Order)
	assert.Equal(t, "custom", rows[2].Label)
	assert.False(t, rows[2].Extra)

	// Started but not current.
	assert.Equal(t, model.StageStatusRunning, rows[0].Status)
	assert.True(t, rows[0].Running)

	// History only stages.
	assert.True(t, rows[3].Extra)
	assert.Nil(t, rows[3].Order)
	assert.True(t, rows[4].Extra)
	assert.Equal(t, model.StageStatusRunning, rows[4].Status)
	assert.False(t, rows[4].Running)
	require.NotNil(t, rows[4].Duration)
	assert.Equal(t, 2*time.Second, *rows[4].Duration)
}

func TestBuildUsesFirstStartAndLastTerminal(t *testing.T) {
	task := model.Task{
		Status: model.TaskStatusDone,
		Stages: []string{"prepare"},
		StageHistory: []model.StageEvent{
			{Stage: "prepare", Event: model.EventComplete, At: "2026-01-30T10:00:20Z"},
			{Stage: "prepare", Event: model.EventStart, At: "2026-01-30T10:00:10Z"},
			{Stage: "prepare", Event: model.EventStart, At: "2026-01-30T10:00:00Z"},
			{Stage: "prepare", Event: model.EventComplete, At: "2026-01-30T10:00:05Z"},
		},
		CompletedStages: []string{"prepare"},
	}

	rows := timeline.Build(task, testIndex())
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-01-30T10:00:00Z", rows[0].StartedAt)
	assert.Equal(t, "2026-01-30T10:00:20Z", rows[0].EndedAt)
	require.NotNil(t, rows[0].Duration)
	assert.Equal(t, 20*time.Second, *rows[0].Duration)
}

func TestBuildEmptyTask(t *testing.T) {
	assert.Empty(t, timeline.Build(model.Task{}, nil))
}
