package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/deployboard/internal/dashboard"
	"github.com/slok/deployboard/internal/feed"
	"github.com/slok/deployboard/internal/model"
)

// JSONPrinter prints deployment information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// taskListItem represents a task in the list output (subset of fields).
type taskListItem struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	CurrentStage string `json:"current_stage,omitempty"`
	Completed    int    `json:"completed"`
	Total        int    `json:"total"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// taskOutput represents the full task output.
type taskOutput struct {
	ID               string           `json:"id"`
	Status           string           `json:"status"`
	Headline         string           `json:"headline,omitempty"`
	Completed        int              `json:"completed"`
	Total            int              `json:"total"`
	Percent          int              `json:"percent"`
	AbortRequested   bool             `json:"abort_requested"`
	AbortReason      string           `json:"abort_reason,omitempty"`
	Error            string           `json:"error,omitempty"`
	Stages           []stageOutput    `json:"stages"`
	Feed             []feedItemOutput `json:"feed"`
	Warnings         int              `json:"warnings"`
	Errors           int              `json:"errors"`
	UnreachableHosts []string         `json:"unreachable_hosts,omitempty"`
}

// stageOutput represents a timeline row output.
type stageOutput struct {
	Name            string   `json:"name"`
	Label           string   `json:"label"`
	Order           *int     `json:"order"`
	Extra           bool     `json:"extra,omitempty"`
	Status          string   `json:"status"`
	StartedAt       string   `json:"started_at,omitempty"`
	EndedAt         string   `json:"ended_at,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds"`
}

// feedItemOutput represents a feed entry output.
type feedItemOutput struct {
	At      time.Time `json:"at"`
	Level   string    `json:"level"`
	Stage   string    `json:"stage,omitempty"`
	TaskID  string    `json:"task_id,omitempty"`
	Message string    `json:"message"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintStages prints the stage catalog in JSON format.
func (j *JSONPrinter) PrintStages(stages []model.StageDefinition) error {
	if stages == nil {
		stages = []model.StageDefinition{}
	}
	return j.encode(stages)
}

// PrintDefaults prints the suggested selection and options in JSON format.
func (j *JSONPrinter) PrintDefaults(defaults model.UIDefaults) error {
	return j.encode(defaults)
}

// PrintTasks prints tasks in JSON format with a subset of fields.
func (j *JSONPrinter) PrintTasks(tasks []model.Task) error {
	items := make([]taskListItem, len(tasks))
	for i, t := range tasks {
		items[i] = taskListItem{
			ID:           t.ID,
			Status:       string(t.Status),
			CurrentStage: t.CurrentStage,
			Completed:    len(t.CompletedStages),
			Total:        t.TotalStages,
			CreatedAt:    t.CreatedAt,
			UpdatedAt:    t.UpdatedAt,
		}
	}

	return j.encode(items)
}

// PrintTask prints the detailed task view in JSON format.
func (j *JSONPrinter) PrintTask(v dashboard.TaskView) error {
	output := taskOutput{
		ID:               v.Task.ID,
		Status:           string(v.Task.Status),
		Headline:         v.Headline,
		Completed:        v.Progress.Completed,
		Total:            v.Progress.Total,
		Percent:          v.Progress.Percent,
		AbortRequested:   v.Task.AbortRequested,
		AbortReason:      v.Task.AbortReason,
		Error:            v.Task.Error,
		Stages:           make([]stageOutput, 0, len(v.Stages)),
		Feed:             feedItems(v.Feed),
		Warnings:         v.Issues.Warnings,
		Errors:           v.Issues.Errors,
		UnreachableHosts: v.UnreachableHosts,
	}

	for _, r := range v.Stages {
		so := stageOutput{
			Name:      r.Name,
			Label:     r.Label,
			Order:     r.Order,
			Extra:     r.Extra,
			Status:    string(r.Status),
			StartedAt: r.StartedAt,
			EndedAt:   r.EndedAt,
		}
		if r.Duration != nil {
			secs := r.Duration.Seconds()
			so.DurationSeconds = &secs
		}
		output.Stages = append(output.Stages, so)
	}

	return j.encode(output)
}

// PrintFeed prints the feed entries in JSON format.
func (j *JSONPrinter) PrintFeed(f feed.Feed) error {
	return j.encode(feedItems(f))
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func feedItems(f feed.Feed) []feedItemOutput {
	items := make([]feedItemOutput, 0, len(f.Entries))
	for _, e := range f.Entries {
		item := feedItemOutput{
			At:      e.At.UTC(),
			Level:   string(e.Level),
			TaskID:  e.TaskID,
			Message: e.Message,
		}
		if e.Stage != nil {
			item.Stage = e.Stage.Name
		}
		items = append(items, item)
	}
	return items
}
