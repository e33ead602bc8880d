// Package feed aggregates task progress messages into ranked and capped feeds.
package feed

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/slok/deployboard/internal/catalog"
	"github.com/slok/deployboard/internal/model"
)

// StageResolver returns the display info of a stage, nil if it shouldn't be shown.
type StageResolver func(stage string) *catalog.Meta

// TaskResolver returns the display label of a task, empty if it shouldn't be shown.
type TaskResolver func(taskID string) string

// Config is the feed aggregator configuration.
type Config struct {
	// Limit is the max number of entries kept.
	Limit int
	// IncludeLevels are the message levels kept.
	IncludeLevels []model.Level
	Title         string
	// HideHeader hides the title even if set.
	HideHeader bool
	// EmptyText is shown when the feed has no entries.
	EmptyText     string
	StageResolver StageResolver
	// TaskResolver is optional, when set entries are labeled with their task.
	TaskResolver TaskResolver
	Now          func() time.Time
}

func (c *Config) defaults() error {
	if c.Limit < 0 {
		return fmt.Errorf("limit can't be negative")
	}

	if c.Limit == 0 {
		c.Limit = 10
	}

	if len(c.IncludeLevels) == 0 {
		c.IncludeLevels = []model.Level{model.LevelInfo, model.LevelWarning}
	}

	if c.EmptyText == "" {
		c.EmptyText = "No recent activity."
	}

	if c.StageResolver == nil {
		c.StageResolver = func(stage string) *catalog.Meta {
			if stage == "" {
				return nil
			}
			return &catalog.Meta{Name: stage, Label: stage}
		}
	}

	if c.Now == nil {
		c.Now = time.Now
	}

	return nil
}

// Message is a progress message tagged with the task that emitted it.
type Message struct {
	model.ProgressMessage
	TaskID string
}

// Tag tags all the messages with a task ID.
func Tag(taskID string, msgs []model.ProgressMessage) []Message {
	res := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, Message{ProgressMessage: m, TaskID: taskID})
	}
	return res
}

// Entry is a normalized feed entry.
type Entry struct {
	At      time.Time
	Message string
	Level   model.Level
	// Stage is nil when the message has no stage.
	Stage     *catalog.Meta
	TaskID    string
	TaskLabel string
}

// Feed is the result of aggregating messages, ready to be rendered.
type Feed struct {
	Title      string
	ShowHeader bool
	Entries    []Entry
	EmptyText  string
}

// Empty returns true when the placeholder text must be rendered instead of entries.
func (f Feed) Empty() bool { return len(f.Entries) == 0 }

// Aggregator builds feeds from progress messages.
type Aggregator struct {
	cfg    Config
	levels map[model.Level]struct{}
}

// NewAggregator returns a new feed aggregator.
func NewAggregator(cfg Config) (*Aggregator, error) {
	err := cfg.defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	levels := make(map[model.Level]struct{}, len(cfg.IncludeLevels))
	for _, l := range cfg.IncludeLevels {
		levels[normalizeLevel(l)] = struct{}{}
	}

	return &Aggregator{cfg: cfg, levels: levels}, nil
}

func normalizeLevel(l model.Level) model.Level {
	if l == "" {
		return model.LevelInfo
	}
	return model.Level(strings.ToLower(string(l)))
}

// Normalize filters the messages by level, sorts them newest first and caps
// them to the limit. Messages without a valid time are considered as now.
func (a *Aggregator) Normalize(msgs []Message) []Entry {
	now := a.cfg.Now()

	entries := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		level := normalizeLevel(m.Level)
		if _, ok := a.levels[level]; !ok {
			continue
		}

		at, ok := model.ParseTime(m.At)
		if !ok {
			at = now
		}

		e := Entry{
			At:      at,
			Message: m.Message,
			Level:   level,
			Stage:   a.cfg.StageResolver(m.Stage),
			TaskID:  m.TaskID,
		}
		if a.cfg.TaskResolver != nil {
			e.TaskLabel = a.cfg.TaskResolver(m.TaskID)
		}

		entries = append(entries, e)
	}

	slices.SortStableFunc(entries, func(x, y Entry) int {
		return y.At.Compare(x.At)
	})

	if len(entries) > a.cfg.Limit {
		entries = entries[:a.cfg.Limit]
	}

	return entries
}

// Build returns the feed for the messages.
func (a *Aggregator) Build(msgs []Message) Feed {
	return Feed{
		Title:      a.cfg.Title,
		ShowHeader: a.cfg.Title != "" && !a.cfg.HideHeader,
		Entries:    a.Normalize(msgs),
		EmptyText:  a.cfg.EmptyText,
	}
}

// TaskFeed returns the feed of a single task.
func (a *Aggregator) TaskFeed(task model.Task) Feed {
	return a.Build(Tag(task.ID, task.ProgressMessages))
}

// GlobalFeed returns a single feed with the messages of all the tasks.
func (a *Aggregator) GlobalFeed(tasks []model.Task) Feed {
	msgs := []Message{}
	for _, t := range tasks {
		msgs = append(msgs, Tag(t.ID, t.ProgressMessages)...)
	}
	return a.Build(msgs)
}
