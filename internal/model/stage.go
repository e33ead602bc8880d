package model

// StageDefinition is a catalog entry describing a deployment stage.
type StageDefinition struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Order       int    `json:"order"`
	Group       string `json:"group,omitempty"`
	Description string `json:"description,omitempty"`
}

// StageStatus is the derived status of a single stage inside a task.
type StageStatus string

const (
	StageStatusPending StageStatus = "pending"
	StageStatusRunning StageStatus = "running"
	StageStatusDone    StageStatus = "done"
	StageStatusFailed  StageStatus = "failed"
	StageStatusAborted StageStatus = "aborted"
)

// Terminal returns true if the stage can't transition anymore.
func (s StageStatus) Terminal() bool {
	return s == StageStatusDone || s == StageStatusFailed || s == StageStatusAborted
}

// UIDefaults are the default selections the backend suggests.
type UIDefaults struct {
	Stages     []string   `json:"stages,omitempty"`
	RunOptions RunOptions `json:"run_options"`
}

// RunRequest is the payload to submit a new task.
type RunRequest struct {
	Stages  []string   `json:"stages"`
	Options RunOptions `json:"options"`
}
