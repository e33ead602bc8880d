package printer_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/deployboard/internal/dashboard"
	"github.com/slok/deployboard/internal/feed"
	"github.com/slok/deployboard/internal/model"
	"github.com/slok/deployboard/internal/printer"
)

func stagesFixture() []model.StageDefinition {
	return []model.StageDefinition{
		{Name: "build", Label: "Build", Order: 2},
		{Name: "prepare", Label: "Prepare", Order: 1, Group: "setup"},
	}
}

func taskFixture() model.Task {
	return model.Task{
		ID:              "abcdef1234567890",
		Status:          model.TaskStatusRunning,
		CreatedAt:       "2026-01-30T10:00:00Z",
		UpdatedAt:       "2026-01-30T10:01:10Z",
		Stages:          []string{"prepare", "build"},
		CompletedStages: []string{"prepare"},
		CurrentStage:    "build",
		StageHistory: []model.StageEvent{
			{Stage: "prepare", Event: model.EventStart, At: "2026-01-30T10:00:00Z"},
			{Stage: "prepare", Event: model.EventComplete, At: "2026-01-30T10:01:05Z"},
			{Stage: "build", Event: model.EventStart, At: "2026-01-30T10:01:10Z"},
		},
		ProgressMessages: []model.ProgressMessage{
			{At: "2026-01-30T10:00:10Z", Message: "hello", Level: model.LevelInfo, Stage: "prepare"},
		},
	}
}

func taskViewFixture(t *testing.T) dashboard.TaskView {
	v, err := dashboard.DescribeTask(taskFixture(), stagesFixture(), feed.TaskPreset())
	require.NoError(t, err)
	return v
}

func TestTablePrinterPrintTask(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintTask(taskViewFixture(t))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Task:       task abcdef12")
	assert.Contains(t, out, "Progress:   1/2 (50%)")
	assert.Contains(t, out, "Headline:   Current stage: Build")
	assert.Contains(t, out, "Recent progress")

	lines := strings.Split(out, "\n")
	var prepare, build, entry string
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "01") && strings.Contains(l, "Prepare"):
			prepare = l
		case strings.HasPrefix(l, "02") && strings.Contains(l, "Build"):
			build = l
		case strings.Contains(l, "hello"):
			entry = l
		}
	}

	assert.Contains(t, prepare, "done")
	assert.Contains(t, prepare, "10:00:00")
	assert.Contains(t, prepare, "10:01:05")
	assert.Contains(t, prepare, "00:01:05")
	assert.Contains(t, build, "running")
	assert.Contains(t, build, "--:--:--")
	assert.Contains(t, build, "in progress…")
	assert.Contains(t, entry, "INFO")
	assert.Contains(t, entry, "01 Prepare")
}

func TestTablePrinterPrintFeed(t *testing.T) {
	tests := map[string]struct {
		feed      feed.Feed
		expLines  []string
		notExpect []string
	}{
		"An empty feed should print the placeholder.": {
			feed:     feed.Feed{Title: "Recent progress", ShowHeader: true, EmptyText: "No recent activity."},
			expLines: []string{"Recent progress", "No recent activity."},
		},
		"A hidden header should not be printed.": {
			feed:      feed.Feed{Title: "Recent progress", EmptyText: "No live progress yet."},
			expLines:  []string{"No live progress yet."},
			notExpect: []string{"Recent progress"},
		},
		"Entries with task labels should print the task column.": {
			feed: feed.Feed{Entries: []feed.Entry{
				{Message: "m1", Level: model.LevelWarning, TaskID: "abcdef1234", TaskLabel: "task abcdef12"},
			}},
			expLines: []string{"WARNING", "task abcdef12", "m1"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			var buf bytes.Buffer
			err := printer.NewTablePrinter(&buf).PrintFeed(test.feed)
			require.NoError(err)

			out := buf.String()
			for _, exp := range test.expLines {
				assert.Contains(out, exp)
			}
			for _, nexp := range test.notExpect {
				assert.NotContains(out, nexp)
			}
		})
	}
}

func TestTablePrinterPrintStages(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintStages(stagesFixture())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "01"))
	assert.Contains(t, lines[1], "prepare")
	assert.Contains(t, lines[1], "setup")
	assert.True(t, strings.HasPrefix(lines[2], "02"))
	assert.Contains(t, lines[2], "build")
}

func TestTablePrinterPrintDefaults(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	dryRun := true
	err := p.PrintDefaults(model.UIDefaults{
		Stages:     []string{"prepare", "build"},
		RunOptions: model.RunOptions{DryRun: &dryRun},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Stages:             prepare, build")
	assert.Contains(t, out, "Dry run:            yes")
	assert.Contains(t, out, "Debug:              -")
}

func TestTablePrinterPrintTasks(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintTasks([]model.Task{taskFixture()})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "PROGRESS")
	assert.Contains(t, lines[1], "abcdef12")
	assert.Contains(t, lines[1], "1/2 (50%)")
	assert.Contains(t, lines[1], "build")
}

func TestJSONPrinterPrintTask(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintTask(taskViewFixture(t))
	require.NoError(t, err)

	var out struct {
		ID     string `json:"id"`
		Total  int    `json:"total"`
		Stages []struct {
			Name            string   `json:"name"`
			Status          string   `json:"status"`
			DurationSeconds *float64 `json:"duration_seconds"`
		} `json:"stages"`
		Feed []struct {
			Stage   string `json:"stage"`
			Message string `json:"message"`
		} `json:"feed"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "abcdef1234567890", out.ID)
	assert.Equal(t, 2, out.Total)
	require.Len(t, out.Stages, 2)
	assert.Equal(t, "prepare", out.Stages[0].Name)
	require.NotNil(t, out.Stages[0].DurationSeconds)
	assert.Equal(t, 65.0, *out.Stages[0].DurationSeconds)
	assert.Equal(t, "running", out.Stages[1].Status)
	assert.Nil(t, out.Stages[1].DurationSeconds)
	require.Len(t, out.Feed, 1)
	assert.Equal(t, "prepare", out.Feed[0].Stage)
}

func TestJSONPrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.JSONEq(t, `{"message": "ok"}`, buf.String())
}

func TestTablePrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(buf.String()))
}
