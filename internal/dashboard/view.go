package dashboard

import (
	"fmt"

	"github.com/slok/deployboard/internal/catalog"
	"github.com/slok/deployboard/internal/feed"
	"github.com/slok/deployboard/internal/model"
	"github.com/slok/deployboard/internal/timeline"
	"github.com/slok/deployboard/internal/wizard"
)

// Hint is the inline message shown next to the submit action.
type Hint struct {
	Message string
	Level   model.Level
}

// Notification is a transient message for the user.
type Notification struct {
	Level   model.Level
	Message string
}

// Sink receives the derived views and notifications. It's never called while the
// dashboard state is locked.
type Sink interface {
	Render(v View)
	Notify(n Notification)
}

type noopSink struct{}

func (noopSink) Render(View)         {}
func (noopSink) Notify(Notification) {}

// NoopSink is a sink that ignores everything.
var NoopSink Sink = noopSink{}

// View is the derived state of the dashboard, ready to be rendered.
type View struct {
	// Revision increases with every derived view, sinks drop views older than
	// the last one they rendered.
	Revision uint64
	// Ready is false until the stage catalog is loaded.
	Ready     bool
	Step      wizard.Step
	Filter    string
	Selection []string
	Options   model.RunOptions
	Hint      Hint
	Catalog   []model.StageDefinition
	// Tasks are the tasks matching the filter.
	Tasks []TaskView
	// TaskCount is the number of stored tasks, without filtering.
	TaskCount  int
	GlobalFeed feed.Feed
}

// TaskView is the derived state of a task.
type TaskView struct {
	Task             model.Task
	ShortID          string
	Label            string
	Progress         timeline.Progress
	Headline         string
	Stages           []timeline.StageRow
	Feed             feed.Feed
	Issues           timeline.IssueCounts
	UnreachableHosts []string
	AbortPending     bool
	DeletePending    bool
	CanAbort         bool
	CanDelete        bool
}

func (d *Dashboard) viewLocked() View {
	idx := d.index
	if idx == nil {
		idx = catalog.NewIndex(nil)
	}

	taskAgg := d.aggregator(d.taskFeedCfg, idx)
	globalAgg := d.aggregator(d.globalFeedCfg, idx)

	filtered := d.store.Filtered(d.filter)
	tasks := make([]TaskView, 0, len(filtered))
	for _, t := range filtered {
		tasks = append(tasks, d.taskViewLocked(t, idx, taskAgg))
	}

	all := d.store.All()
	d.revision++
	return View{
		Revision:   d.revision,
		Ready:      d.index != nil,
		Step:       d.wizard.Step(),
		Filter:     d.filter,
		Selection:  append([]string{}, d.selection...),
		Options:    d.options,
		Hint:       d.hint,
		Catalog:    idx.Stages(),
		Tasks:      tasks,
		TaskCount:  len(all),
		GlobalFeed: globalAgg.GlobalFeed(all),
	}
}

func (d *Dashboard) taskViewLocked(t model.Task, idx *catalog.Index, agg *feed.Aggregator) TaskView {
	_, abortPending := d.pending[pendingKey{kind: opAbort, id: t.ID}]
	_, deletePending := d.pending[pendingKey{kind: opDelete, id: t.ID}]

	v := describeTask(t, idx, agg)
	v.AbortPending = abortPending
	v.DeletePending = deletePending
	v.CanAbort = v.CanAbort && !abortPending
	v.CanDelete = v.CanDelete && !deletePending
	return v
}

// DescribeTask derives the view of a single task outside a dashboard, the
// catalog can be nil.
func DescribeTask(t model.Task, stages []model.StageDefinition, feedCfg feed.Config) (TaskView, error) {
	idx := catalog.NewIndex(stages)
	feedCfg.StageResolver = idx.Meta
	agg, err := feed.NewAggregator(feedCfg)
	if err != nil {
		return TaskView{}, fmt.Errorf("invalid feed config: %w", err)
	}

	return describeTask(t, idx, agg), nil
}

func describeTask(t model.Task, idx *catalog.Index, agg *feed.Aggregator) TaskView {
	running := t.Status == model.TaskStatusRunning

	return TaskView{
		Task:             t,
		ShortID:          t.ShortID(),
		Label:            feed.TaskLabel(t.ID),
		Progress:         timeline.ComputeProgress(t),
		Headline:         timeline.Headline(t, idx),
		Stages:           timeline.Build(t, idx),
		Feed:             agg.TaskFeed(t),
		Issues:           timeline.CountIssues(t.Summary),
		UnreachableHosts: timeline.UnreachableHosts(t.Summary),
		CanAbort:         running && !t.AbortRequested,
		CanDelete:        !running,
	}
}

func (d *Dashboard) aggregator(cfg feed.Config, idx *catalog.Index) *feed.Aggregator {
	cfg.StageResolver = idx.Meta
	agg, err := feed.NewAggregator(cfg)
	if err != nil {
		// Configs are validated on construction.
		panic(err)
	}
	return agg
}
