// Package store keeps the local set of known tasks reconciled with the backend
// snapshots.
package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/slok/deployboard/internal/log"
	"github.com/slok/deployboard/internal/model"
)

// FilterAll matches every task status.
const FilterAll = "all"

// Config is the configuration for the task store.
type Config struct {
	// Capacity is the max number of tasks retained.
	Capacity int
	Logger   log.Logger
}

func (c *Config) defaults() error {
	if c.Capacity < 0 {
		return fmt.Errorf("capacity can't be negative")
	}

	if c.Capacity == 0 {
		c.Capacity = 16
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "store.Store"})

	return nil
}

// Store is an in-memory store of tasks ordered by most recently updated.
type Store struct {
	tasks    []model.Task
	capacity int
	mu       sync.RWMutex
	logger   log.Logger
}

// New returns a new empty task store.
func New(cfg Config) (*Store, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Store{
		capacity: cfg.Capacity,
		logger:   cfg.Logger,
	}, nil
}

// Merge replaces the store contents with a snapshot. Tasks without ID are dropped
// and repeated IDs keep the last occurrence on the position of the first one.
func (s *Store) Merge(snapshot []model.Task) {
	tasks := make([]model.Task, 0, len(snapshot))
	pos := map[string]int{}
	dropped := 0
	for _, t := range snapshot {
		if t.ID == "" {
			dropped++
			continue
		}

		if i, ok := pos[t.ID]; ok {
			tasks[i] = t
			continue
		}
		pos[t.ID] = len(tasks)
		tasks = append(tasks, t)
	}

	if dropped > 0 {
		s.logger.Debugf("Dropped %d tasks without ID from snapshot", dropped)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = s.arrange(tasks)
}

// UpsertOne adds a task at the front replacing any task with the same ID.
func (s *Store) UpsertOne(task model.Task) {
	if task.ID == "" {
		s.logger.Debugf("Ignoring upsert of task without ID")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]model.Task, 0, len(s.tasks)+1)
	tasks = append(tasks, task)
	for _, t := range s.tasks {
		if t.ID != task.ID {
			tasks = append(tasks, t)
		}
	}
	s.tasks = s.arrange(tasks)
}

// Remove removes a task, missing tasks are ignored.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = slices.DeleteFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
}

// Filtered returns a copy of the tasks with the status, `all` or empty return
// all of them.
func (s *Store) Filtered(status string) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if status == "" || status == FilterAll || string(t.Status) == status {
			res = append(res, t)
		}
	}

	sortByUpdated(res)
	return res
}

// All returns a copy of all the tasks.
func (s *Store) All() []model.Task {
	return s.Filtered(FilterAll)
}

// Get returns a task by ID.
func (s *Store) Get(id string) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tasks {
		if t.ID == id {
			tc := t
			return &tc, nil
		}
	}

	return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tasks)
}

func (s *Store) arrange(tasks []model.Task) []model.Task {
	sortByUpdated(tasks)
	if len(tasks) > s.capacity {
		s.logger.Debugf("Evicting %d tasks over capacity", len(tasks)-s.capacity)
		tasks = tasks[:s.capacity]
	}
	return tasks
}

// sortByUpdated sorts most recently updated first, tasks with an invalid update
// time go last.
func sortByUpdated(tasks []model.Task) {
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		at, aok := model.ParseTime(a.UpdatedAt)
		bt, bok := model.ParseTime(b.UpdatedAt)
		switch {
		case aok && bok:
			return bt.Compare(at)
		case aok:
			return -1
		case bok:
			return 1
		}
		return 0
	})
}
