// Package dashboard is the reconciliation context of the deployment dashboard.
// It owns the stage catalog, the task store, the stage selection and the wizard
// step, and derives the views handed to a Sink.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/slok/deployboard/internal/backend"
	"github.com/slok/deployboard/internal/catalog"
	"github.com/slok/deployboard/internal/feed"
	"github.com/slok/deployboard/internal/log"
	"github.com/slok/deployboard/internal/model"
	"github.com/slok/deployboard/internal/poller"
	"github.com/slok/deployboard/internal/store"
	"github.com/slok/deployboard/internal/wizard"
)

// DefaultAbortReason is the reason sent when aborting without one.
const DefaultAbortReason = "aborted by user"

// fallbackSelection is used when the backend doesn't suggest stages.
var fallbackSelection = []string{"prepare"}

var (
	// ErrOperationPending is returned when the same operation is already in flight.
	ErrOperationPending = errors.New("operation already in progress")
	// ErrTaskRunning is returned when deleting a running task.
	ErrTaskRunning = errors.New("task is running")
)

// Config is the dashboard configuration.
type Config struct {
	Client        backend.Client
	Sink          Sink
	Logger        log.Logger
	StoreCapacity int
	PollInterval  time.Duration
	AbortReason   string
	// TaskFeed is the per task feed config, by default feed.TaskPreset.
	TaskFeed *feed.Config
	// GlobalFeed is the all tasks feed config, by default feed.GlobalPreset.
	GlobalFeed *feed.Config
}

func (c *Config) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("backend client is required")
	}

	if c.Sink == nil {
		c.Sink = NoopSink
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "dashboard.Dashboard"})

	if c.AbortReason == "" {
		c.AbortReason = DefaultAbortReason
	}

	if c.TaskFeed == nil {
		cfg := feed.TaskPreset()
		c.TaskFeed = &cfg
	}

	if c.GlobalFeed == nil {
		cfg := feed.GlobalPreset()
		c.GlobalFeed = &cfg
	}

	for _, cfg := range []feed.Config{*c.TaskFeed, *c.GlobalFeed} {
		if _, err := feed.NewAggregator(cfg); err != nil {
			return fmt.Errorf("invalid feed: %w", err)
		}
	}

	return nil
}

type opKind string

const (
	opSubmit opKind = "submit"
	opAbort  opKind = "abort"
	opDelete opKind = "delete"
)

type pendingKey struct {
	kind opKind
	id   string
}

// Dashboard reconciles the backend state with the local one. User actions and
// polling can run concurrently, network calls are never made with the state
// locked.
type Dashboard struct {
	client        backend.Client
	sink          Sink
	logger        log.Logger
	abortReason   string
	taskFeedCfg   feed.Config
	globalFeedCfg feed.Config
	store         *store.Store
	seq           *store.Sequencer
	poller        *poller.Poller

	mu        sync.Mutex
	index     *catalog.Index
	selection []string
	options   model.RunOptions
	filter    string
	hint      Hint
	wizard    *wizard.Controller
	pending   map[pendingKey]struct{}
	revision  uint64
}

// New returns a new dashboard.
func New(cfg Config) (*Dashboard, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	st, err := store.New(store.Config{Capacity: cfg.StoreCapacity, Logger: cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create store: %w", err)
	}

	d := &Dashboard{
		client:        cfg.Client,
		sink:          cfg.Sink,
		logger:        cfg.Logger,
		abortReason:   cfg.AbortReason,
		taskFeedCfg:   *cfg.TaskFeed,
		globalFeedCfg: *cfg.GlobalFeed,
		store:         st,
		seq:           &store.Sequencer{},
		filter:        store.FilterAll,
		wizard:        wizard.NewController(),
		pending:       map[pendingKey]struct{}{},
	}

	p, err := poller.New(poller.Config{
		Interval: cfg.PollInterval,
		Tick:     d.Refresh,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create poller: %w", err)
	}
	d.poller = p

	return d, nil
}

// Bootstrap loads the defaults and the stage catalog and makes the first
// reconciliation. Only a catalog failure is returned.
func (d *Dashboard) Bootstrap(ctx context.Context) error {
	d.update(func() { d.hint = Hint{Message: "Select the stages to run.", Level: model.LevelInfo} })

	defaults, err := d.client.GetDefaults(ctx)
	if err != nil {
		d.logger.Warningf("Could not load UI defaults: %s", err)
		defaults = &model.UIDefaults{}
	}

	stages, err := d.client.ListStages(ctx)
	if err != nil {
		d.update(func() {
			d.hint = Hint{Message: fmt.Sprintf("Could not load stages: %s", err), Level: model.LevelError}
		})
		d.sink.Notify(Notification{Level: model.LevelError, Message: "Could not load the stage list, retry later."})
		return fmt.Errorf("%w: %w", model.ErrCatalogUnavailable, err)
	}

	d.update(func() {
		d.index = catalog.NewIndex(stages)

		selection := defaults.Stages
		if len(selection) == 0 {
			selection = fallbackSelection
		}
		d.selection = d.normalizeSelectionLocked(selection)
		d.options = defaults.RunOptions
		d.wizard.Initial(len(d.selection) > 0)
	})
	d.logger.Infof("Dashboard ready with %d stages", len(stages))

	d.refresh(ctx)

	return nil
}

// Refresh fetches a task snapshot and reconciles the store with it. Snapshots
// older than the applied state are discarded.
func (d *Dashboard) Refresh(ctx context.Context) error {
	ticket := d.seq.Next()

	tasks, err := d.client.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("could not refresh tasks: %w", err)
	}

	d.mu.Lock()
	if !d.seq.Accept(ticket) {
		d.mu.Unlock()
		d.logger.Debugf("Discarding stale task snapshot %d", ticket)
		return nil
	}
	d.store.Merge(tasks)
	d.wizard.ComputeNextStep(len(d.selection) > 0, d.store.Len())
	v := d.viewLocked()
	d.mu.Unlock()

	d.sink.Render(v)
	return nil
}

// Submit creates a task with the current selection and options.
func (d *Dashboard) Submit(ctx context.Context) error {
	d.mu.Lock()
	if len(d.selection) == 0 {
		d.hint = Hint{Message: "Select at least one stage.", Level: model.LevelError}
		v := d.viewLocked()
		d.mu.Unlock()
		d.sink.Render(v)
		return model.ErrNoStageSelected
	}

	key := pendingKey{kind: opSubmit}
	if !d.beginLocked(key) {
		d.mu.Unlock()
		return ErrOperationPending
	}

	req := model.RunRequest{
		Stages:  slices.Clone(d.selection),
		Options: explicitOptions(d.options),
	}
	d.hint = Hint{Message: "Submitting task...", Level: model.LevelInfo}
	v := d.viewLocked()
	d.mu.Unlock()
	d.sink.Render(v)

	task, err := d.client.SubmitTask(ctx, req)
	if err != nil {
		d.update(func() {
			delete(d.pending, key)
			d.hint = Hint{Message: fmt.Sprintf("Submit failed: %s", err), Level: model.LevelError}
			d.wizard.ComputeNextStep(len(d.selection) > 0, d.store.Len())
		})
		d.sink.Notify(Notification{Level: model.LevelError, Message: fmt.Sprintf("Could not submit task: %s", err)})
		return fmt.Errorf("could not submit task: %w", err)
	}

	d.update(func() {
		delete(d.pending, key)
		d.store.UpsertOne(*task)
		d.seq.Barrier()
		d.wizard.Submitted()
		d.hint = Hint{Message: "Task created, follow its progress below.", Level: model.LevelInfo}
	})
	d.logger.Infof("Task %s submitted with stages %v", task.ID, req.Stages)
	d.sink.Notify(Notification{Level: model.LevelInfo, Message: fmt.Sprintf("Task %s created", task.ShortID())})

	d.refresh(ctx)
	return nil
}

// Abort requests the abort of a task. It returns false if an abort of the same
// task is already in flight.
func (d *Dashboard) Abort(ctx context.Context, id, reason string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("missing task id: %w", model.ErrNotValid)
	}
	if reason == "" {
		reason = d.abortReason
	}

	key := pendingKey{kind: opAbort, id: id}
	started := false
	d.update(func() { started = d.beginLocked(key) })
	if !started {
		d.logger.Debugf("Abort of task %s already in progress", id)
		return false, nil
	}

	_, err := d.client.AbortTask(ctx, id, reason)
	d.update(func() { delete(d.pending, key) })
	if err != nil {
		d.sink.Notify(Notification{Level: model.LevelError, Message: fmt.Sprintf("Could not abort task %s: %s", model.ShortID(id), err)})
		return true, fmt.Errorf("could not abort task: %w", err)
	}

	d.logger.Infof("Abort requested for task %s", id)
	d.sink.Notify(Notification{Level: model.LevelInfo, Message: fmt.Sprintf("Abort requested for task %s", model.ShortID(id))})
	d.refresh(ctx)

	return true, nil
}

// Delete deletes a task that is not running. It returns false if a deletion of
// the same task is already in flight.
func (d *Dashboard) Delete(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("missing task id: %w", model.ErrNotValid)
	}

	key := pendingKey{kind: opDelete, id: id}
	started := false
	running := false
	d.update(func() {
		if t, err := d.store.Get(id); err == nil && t.Status == model.TaskStatusRunning {
			running = true
			return
		}
		started = d.beginLocked(key)
	})
	if running {
		return false, fmt.Errorf("could not delete task %s: %w", id, ErrTaskRunning)
	}
	if !started {
		d.logger.Debugf("Delete of task %s already in progress", id)
		return false, nil
	}

	err := d.client.DeleteTask(ctx, id)
	if err != nil {
		d.update(func() { delete(d.pending, key) })
		d.sink.Notify(Notification{Level: model.LevelError, Message: fmt.Sprintf("Could not delete task %s: %s", model.ShortID(id), err)})
		return true, fmt.Errorf("could not delete task: %w", err)
	}

	d.update(func() {
		delete(d.pending, key)
		d.store.Remove(id)
		d.seq.Barrier()
		d.wizard.ComputeNextStep(len(d.selection) > 0, d.store.Len())
	})
	d.logger.Infof("Task %s deleted", id)
	d.sink.Notify(Notification{Level: model.LevelInfo, Message: fmt.Sprintf("Task %s deleted", model.ShortID(id))})
	d.refresh(ctx)

	return true, nil
}

// SetFilter sets the task status filter, `all` shows every task.
func (d *Dashboard) SetFilter(filter string) {
	if filter == "" {
		filter = store.FilterAll
	}
	d.update(func() { d.filter = filter })
}

// SelectStages sets the stages to submit, stages missing from the catalog are ignored.
func (d *Dashboard) SelectStages(names []string) {
	d.update(func() {
		d.selection = d.normalizeSelectionLocked(names)
		d.hint = Hint{}
		d.wizard.SelectionChanged(len(d.selection) > 0)
	})
}

// SetOptions sets the run options to submit.
func (d *Dashboard) SetOptions(opts model.RunOptions) {
	d.update(func() {
		d.options = opts
		d.wizard.OptionsChanged(len(d.selection) > 0)
	})
}

// RequestStep moves the wizard to a step.
func (d *Dashboard) RequestStep(step wizard.Step) error {
	var err error
	d.update(func() { err = d.wizard.Request(step, len(d.selection) > 0, d.store.Len()) })
	if err != nil {
		d.sink.Notify(Notification{Level: model.LevelError, Message: err.Error()})
		return err
	}

	return nil
}

// View returns the current derived view.
func (d *Dashboard) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.viewLocked()
}

// StartPolling starts refreshing the tasks on the poll interval.
func (d *Dashboard) StartPolling(ctx context.Context) {
	d.poller.Start(ctx)
}

// StopPolling stops the polling.
func (d *Dashboard) StopPolling() {
	d.poller.Stop()
}

// Run bootstraps the dashboard and polls until the context is cancelled.
func (d *Dashboard) Run(ctx context.Context) error {
	if err := d.Bootstrap(ctx); err != nil {
		return err
	}

	return d.poller.Run(ctx)
}

// refresh reconciles logging the failures, polling retries them.
func (d *Dashboard) refresh(ctx context.Context) {
	if err := d.Refresh(ctx); err != nil {
		d.logger.Warningf("Could not refresh tasks: %s", err)
	}
}

// update mutates the state with the lock held and renders the result.
func (d *Dashboard) update(f func()) {
	d.mu.Lock()
	f()
	v := d.viewLocked()
	d.mu.Unlock()

	d.sink.Render(v)
}

func (d *Dashboard) beginLocked(key pendingKey) bool {
	if _, ok := d.pending[key]; ok {
		return false
	}
	d.pending[key] = struct{}{}
	return true
}

func (d *Dashboard) normalizeSelectionLocked(names []string) []string {
	if d.index == nil {
		return []string{}
	}

	res := []string{}
	for _, n := range d.index.Filter(names) {
		if !slices.Contains(res, n) {
			res = append(res, n)
		}
	}
	return d.index.SortNames(res)
}

// explicitOptions sets every unset option to false.
func explicitOptions(o model.RunOptions) model.RunOptions {
	val := func(b *bool) *bool {
		v := b != nil && *b
		return &v
	}
	return model.RunOptions{
		DryRun:           val(o.DryRun),
		StrictValidation: val(o.StrictValidation),
		Debug:            val(o.Debug),
	}
}
