package model

// TaskStatus represents the state of a deployment task.
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusRunning TaskStatus = "running"
	TaskStatusDone    TaskStatus = "done"
	TaskStatusFailed  TaskStatus = "failed"
	TaskStatusAborted TaskStatus = "aborted"
)

// TaskStatuses are all the known task statuses in display order.
var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusRunning,
	TaskStatusDone,
	TaskStatusFailed,
	TaskStatusAborted,
}

// Valid returns true if the status is one of the known statuses.
func (s TaskStatus) Valid() bool {
	for _, st := range TaskStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// EventKind is the kind of a stage transition event.
type EventKind string

const (
	EventStart    EventKind = "start"
	EventComplete EventKind = "complete"
	EventError    EventKind = "error"
	EventAborted  EventKind = "aborted"
)

// Terminal returns true for events that close a stage.
func (e EventKind) Terminal() bool {
	return e == EventComplete || e == EventError || e == EventAborted
}

// Level is the severity of a progress message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// StageEvent is a timestamped stage transition reported by the backend.
type StageEvent struct {
	Stage string    `json:"stage"`
	Event EventKind `json:"event"`
	At    string    `json:"at,omitempty"`
}

// ProgressMessage is a free text progress note emitted while a task runs.
type ProgressMessage struct {
	At      string         `json:"at,omitempty"`
	Message string         `json:"message"`
	Level   Level          `json:"level,omitempty"`
	Stage   string         `json:"stage,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// RunOptions are the execution switches of a task, every field is optional.
type RunOptions struct {
	DryRun           *bool `json:"dry_run,omitempty"`
	StrictValidation *bool `json:"strict_validation,omitempty"`
	Debug            *bool `json:"debug,omitempty"`
}

// Task is a deployment task as returned by the backend. Timestamps are kept as
// received, use ParseTime to read them.
type Task struct {
	ID               string            `json:"id"`
	Status           TaskStatus        `json:"status"`
	CreatedAt        string            `json:"created_at,omitempty"`
	UpdatedAt        string            `json:"updated_at,omitempty"`
	Stages           []string          `json:"stages"`
	CompletedStages  []string          `json:"completed_stages"`
	CurrentStage     string            `json:"current_stage,omitempty"`
	TotalStages      int               `json:"total_stages,omitempty"`
	Error            string            `json:"error,omitempty"`
	AbortRequested   bool              `json:"abort_requested"`
	AbortReason      string            `json:"abort_reason,omitempty"`
	AbortedAt        string            `json:"aborted_at,omitempty"`
	StageHistory     []StageEvent      `json:"stage_history"`
	ProgressMessages []ProgressMessage `json:"progress_messages"`
	Summary          map[string]any    `json:"summary,omitempty"`
	RequestedOptions *RunOptions       `json:"requested_options,omitempty"`
	EffectiveOptions map[string]any    `json:"effective_options,omitempty"`
}

// IsCompleted returns true if the stage is in the completed stage set.
func (t Task) IsCompleted(stage string) bool {
	for _, s := range t.CompletedStages {
		if s == stage {
			return true
		}
	}
	return false
}

// ShortID returns the first 8 characters of the task ID.
func (t Task) ShortID() string {
	return ShortID(t.ID)
}

// ShortID truncates an ID to 8 characters.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
