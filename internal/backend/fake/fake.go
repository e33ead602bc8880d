// Package fake has an in-memory deployment backend that serves the JSON HTTP API.
// Tasks advance one stage event each Step.
package fake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slok/deployboard/internal/backend"
	"github.com/slok/deployboard/internal/catalog"
	"github.com/slok/deployboard/internal/log"
	"github.com/slok/deployboard/internal/model"
)

// DefaultAbortReason is used when an abort has no reason.
const DefaultAbortReason = "aborted by user"

// ServerConfig is the fake backend configuration.
type ServerConfig struct {
	Stages   []model.StageDefinition
	Defaults *model.UIDefaults
	// FailStage makes tasks fail when they reach this stage.
	FailStage string
	Now       func() time.Time
	IDGen     func() string
	Logger    log.Logger
}

func (c *ServerConfig) defaults() error {
	if c.Stages == nil {
		c.Stages = DefaultCatalog()
	}

	if c.Defaults == nil {
		f := false
		c.Defaults = &model.UIDefaults{
			Stages:     []string{"prepare"},
			RunOptions: model.RunOptions{DryRun: &f, StrictValidation: &f, Debug: &f},
		}
	}

	if c.Now == nil {
		c.Now = time.Now
	}

	if c.IDGen == nil {
		c.IDGen = func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "backend.fake.Server"})

	return nil
}

// Server is the fake backend, it implements http.Handler.
type Server struct {
	index     *catalog.Index
	stages    []model.StageDefinition
	defaults  model.UIDefaults
	failStage string
	now       func() time.Time
	idGen     func() string
	logger    log.Logger
	mux       *http.ServeMux

	mu    sync.Mutex
	tasks map[string]*model.Task
	order []string
}

// NewServer returns a new fake backend.
func NewServer(cfg ServerConfig) (*Server, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		index:     catalog.NewIndex(cfg.Stages),
		stages:    cfg.Stages,
		defaults:  *cfg.Defaults,
		failStage: cfg.FailStage,
		now:       cfg.Now,
		idGen:     cfg.IDGen,
		logger:    cfg.Logger,
		tasks:     map[string]*model.Task{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/stages", s.handleStages)
	mux.HandleFunc("GET /api/defaults", s.handleDefaults)
	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("POST /api/run", s.handleRun)
	mux.HandleFunc("POST /api/tasks/{id}/abort", s.handleAbort)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDelete)
	s.mux = mux

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Tasks returns a copy of the tasks in creation order.
func (s *Server) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.list()
}

func (s *Server) list() []model.Task {
	res := make([]model.Task, 0, len(s.order))
	for _, id := range s.order {
		res = append(res, copyTask(*s.tasks[id]))
	}
	return res
}

// Step advances every running task one stage event.
func (s *Server) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		t := s.tasks[id]
		if t.Status != model.TaskStatusRunning {
			continue
		}
		s.advance(t)
	}
}

func (s *Server) advance(t *model.Task) {
	now := s.timestamp()
	t.UpdatedAt = now

	// Start the next stage.
	if t.CurrentStage == "" || t.IsCompleted(t.CurrentStage) {
		next := ""
		for _, st := range t.Stages {
			if !t.IsCompleted(st) {
				next = st
				break
			}
		}
		if next == "" {
			s.finish(t, now)
			return
		}

		t.CurrentStage = next
		t.StageHistory = append(t.StageHistory, model.StageEvent{Stage: next, Event: model.EventStart, At: now})
		s.progress(t, now, next, model.LevelInfo, fmt.Sprintf("Stage %s started", s.index.Label(next)))
		return
	}

	stage := t.CurrentStage
	if stage == s.failStage {
		t.Status = model.TaskStatusFailed
		t.Error = fmt.Sprintf("stage %s failed", stage)
		t.StageHistory = append(t.StageHistory, model.StageEvent{Stage: stage, Event: model.EventError, At: now})
		s.progress(t, now, stage, model.LevelError, fmt.Sprintf("Stage %s failed", s.index.Label(stage)))
		s.logger.Infof("Task %s failed on stage %s", t.ID, stage)
		return
	}

	t.CompletedStages = append(t.CompletedStages, stage)
	t.StageHistory = append(t.StageHistory, model.StageEvent{Stage: stage, Event: model.EventComplete, At: now})
	s.progress(t, now, stage, model.LevelInfo, fmt.Sprintf("Stage %s completed", s.index.Label(stage)))

	if t.TotalStages > 0 && len(t.CompletedStages) >= t.TotalStages {
		s.finish(t, now)
	}
}

func (s *Server) finish(t *model.Task, now string) {
	t.Status = model.TaskStatusDone
	t.CurrentStage = ""
	t.UpdatedAt = now
	t.Summary = map[string]any{
		"warnings": []any{},
		"errors":   []any{},
		"network":  map[string]any{},
	}

	opts := model.RunOptions{}
	if t.RequestedOptions != nil {
		opts = *t.RequestedOptions
	}
	logLevel := "INFO"
	if isTrue(opts.Debug) {
		logLevel = "DEBUG"
	}
	t.EffectiveOptions = map[string]any{
		"dry_run":           isTrue(opts.DryRun),
		"strict_validation": isTrue(opts.StrictValidation),
		"debug":             isTrue(opts.Debug),
		"log_level":         logLevel,
	}
	s.progress(t, now, "", model.LevelInfo, "Deployment finished")
	s.logger.Infof("Task %s finished", t.ID)
}

func (s *Server) progress(t *model.Task, at, stage string, level model.Level, msg string) {
	t.ProgressMessages = append(t.ProgressMessages, model.ProgressMessage{
		At:      at,
		Message: msg,
		Level:   level,
		Stage:   stage,
	})
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stages)
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.defaults)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	tasks := s.list()
	s.mu.Unlock()

	if status := r.URL.Query().Get("status"); status != "" {
		tasks = slices.DeleteFunc(tasks, func(t model.Task) bool { return string(t.Status) != status })
	}

	writeJSON(w, http.StatusOK, backend.TaskList{Items: tasks, Total: len(tasks)})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, copyTask(*t))
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req model.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid request: %s", err))
		return
	}

	if len(req.Stages) == 0 {
		req.Stages = s.defaults.Stages
	}
	for _, st := range req.Stages {
		if !s.index.Has(st) {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown stage %q", st))
			return
		}
	}

	now := s.timestamp()
	opts := req.Options
	t := &model.Task{
		ID:               s.idGen(),
		Status:           model.TaskStatusRunning,
		CreatedAt:        now,
		UpdatedAt:        now,
		Stages:           slices.Clone(req.Stages),
		CompletedStages:  []string{},
		TotalStages:      len(req.Stages),
		StageHistory:     []model.StageEvent{},
		ProgressMessages: []model.ProgressMessage{},
		RequestedOptions: &opts,
	}

	s.mu.Lock()
	s.tasks[t.ID] = t
	s.order = append(s.order, t.ID)
	res := copyTask(*t)
	s.mu.Unlock()

	s.logger.Infof("Task %s submitted with stages %v", t.ID, t.Stages)
	writeJSON(w, http.StatusAccepted, res)
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	var req backend.AbortRequest
	// The body is optional.
	_ = json.NewDecoder(r.Body).Decode(&req)

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = DefaultAbortReason
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if t.Status != model.TaskStatusPending && t.Status != model.TaskStatusRunning {
		writeError(w, http.StatusConflict, "Task already finished")
		return
	}

	now := s.timestamp()
	t.Status = model.TaskStatusAborted
	t.AbortRequested = true
	t.AbortReason = reason
	t.AbortedAt = now
	t.UpdatedAt = now
	t.Error = ""
	t.StageHistory = append(t.StageHistory, model.StageEvent{Stage: t.CurrentStage, Event: model.EventAborted, At: now})
	s.progress(t, now, t.CurrentStage, model.LevelWarning, fmt.Sprintf("Task aborted: %s", reason))
	s.logger.Infof("Task %s aborted: %s", t.ID, reason)

	writeJSON(w, http.StatusOK, copyTask(*t))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	delete(s.tasks, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	s.logger.Infof("Task %s deleted", id)

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, backend.ErrorResponse{Detail: msg})
}

func copyTask(t model.Task) model.Task {
	t.Stages = slices.Clone(t.Stages)
	t.CompletedStages = slices.Clone(t.CompletedStages)
	t.StageHistory = slices.Clone(t.StageHistory)
	t.ProgressMessages = slices.Clone(t.ProgressMessages)
	return t
}

func isTrue(b *bool) bool { return b != nil && *b }
