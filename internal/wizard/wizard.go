// Package wizard has the step state machine of the task submission flow.
package wizard

import "errors"

// Step is a wizard step.
type Step int

const (
	// StepSelect is the stage selection step.
	StepSelect Step = 1
	// StepConfigure is the run options step.
	StepConfigure Step = 2
	// StepReview is the submitted tasks review step.
	StepReview Step = 3
)

func (s Step) String() string {
	switch s {
	case StepSelect:
		return "select stages"
	case StepConfigure:
		return "configure options"
	case StepReview:
		return "review"
	}
	return "unknown"
}

var (
	// ErrSelectionRequired is returned when advancing without selected stages.
	ErrSelectionRequired = errors.New("select the stages to run first")
	// ErrNoTasks is returned when advancing to review without tasks.
	ErrNoTasks = errors.New("submit a task first")
)

func clamp(s Step) Step {
	return min(max(s, StepSelect), StepReview)
}

// Controller tracks the current wizard step. It's not safe for concurrent use.
type Controller struct {
	step Step
}

// NewController returns a controller on the first step.
func NewController() *Controller {
	return &Controller{step: StepSelect}
}

// Step returns the current step.
func (c *Controller) Step() Step { return c.step }

// Initial sets the step when the dashboard starts.
func (c *Controller) Initial(hasSelection bool) Step {
	c.step = StepSelect
	if hasSelection {
		c.step = StepConfigure
	}
	return c.step
}

// Request moves to a step. Going back always succeeds, advancing requires a
// selection to configure and at least one task to review.
func (c *Controller) Request(step Step, hasSelection bool, taskCount int) error {
	step = clamp(step)

	if step > c.step {
		switch {
		case step == StepConfigure && !hasSelection:
			c.step = StepSelect
			return ErrSelectionRequired
		case step == StepReview && taskCount == 0:
			return ErrNoTasks
		}
	}

	c.step = step
	return nil
}

// Submitted moves to review after a task submission.
func (c *Controller) Submitted() Step {
	c.step = StepReview
	return c.step
}

// ComputeNextStep recomputes the step after the tasks change.
func (c *Controller) ComputeNextStep(hasSelection bool, taskCount int) Step {
	switch {
	case taskCount > 0:
		c.step = StepReview
	case c.step == StepSelect:
	case hasSelection:
		c.step = StepConfigure
	default:
		c.step = StepSelect
	}
	return c.step
}

// SelectionChanged follows the stage selection while not reviewing.
func (c *Controller) SelectionChanged(hasSelection bool) Step {
	if c.step < StepReview {
		c.step = StepSelect
		if hasSelection {
			c.step = StepConfigure
		}
	}
	return c.step
}

// OptionsChanged moves to configure while not reviewing and with a selection.
func (c *Controller) OptionsChanged(hasSelection bool) Step {
	if c.step < StepReview && hasSelection {
		c.step = StepConfigure
	}
	return c.step
}
