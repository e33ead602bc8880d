package wizard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/deployboard/internal/wizard"
)

func controllerAt(step wizard.Step) *wizard.Controller {
	c := wizard.NewController()
	_ = c.Request(step, true, 1)
	return c
}

func TestControllerRequest(t *testing.T) {
	tests := map[string]struct {
		current      wizard.Step
		request      wizard.Step
		hasSelection bool
		taskCount    int
		expStep      wizard.Step
		expErr       error
	}{
		"Advancing to configure with selection should succeed.": {
			current: wizard.StepSelect, request: wizard.StepConfigure, hasSelection: true,
			expStep: wizard.StepConfigure,
		},
		"Advancing to configure without selection should fail and go to select.": {
			current: wizard.StepSelect, request: wizard.StepConfigure,
			expStep: wizard.StepSelect,
			expErr:  wizard.ErrSelectionRequired,
		},
		"Advancing to review without tasks should fail without change.": {
			current: wizard.StepConfigure, request: wizard.StepReview, hasSelection: true,
			expStep: wizard.StepConfigure,
			expErr:  wizard.ErrNoTasks,
		},
		"Advancing to review with tasks should succeed.": {
			current: wizard.StepSelect, request: wizard.StepReview, taskCount: 2,
			expStep: wizard.StepReview,
		},
		"Going back should always succeed.": {
			current: wizard.StepReview, request: wizard.StepSelect,
			expStep: wizard.StepSelect,
		},
		"Going back to configure without selection should succeed.": {
			current: wizard.StepReview, request: wizard.StepConfigure,
			expStep: wizard.StepConfigure,
		},
		"Out of range steps should be clamped.": {
			current: wizard.StepConfigure, request: wizard.Step(9), taskCount: 1,
			expStep: wizard.StepReview,
		},
		"Below range steps should be clamped.": {
			current: wizard.StepConfigure, request: wizard.Step(-3),
			expStep: wizard.StepSelect,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := controllerAt(test.current)
			err := c.Request(test.request, test.hasSelection, test.taskCount)

			if test.expErr != nil {
				assert.ErrorIs(t, err, test.expErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, test.expStep, c.Step())
		})
	}
}

func TestControllerComputeNextStep(t *testing.T) {
	tests := map[string]struct {
		current      wizard.Step
		hasSelection bool
		taskCount    int
		expStep      wizard.Step
	}{
		"Tasks should go to review.": {
			current: wizard.StepSelect, taskCount: 1, expStep: wizard.StepReview,
		},
		"Select should stay on select.": {
			current: wizard.StepSelect, hasSelection: true, expStep: wizard.StepSelect,
		},
		"Review without tasks and with selection should go to configure.": {
			current: wizard.StepReview, hasSelection: true, expStep: wizard.StepConfigure,
		},
		"Review without tasks nor selection should go to select.": {
			current: wizard.StepReview, expStep: wizard.StepSelect,
		},
		"Configure without selection should go to select.": {
			current: wizard.StepConfigure, expStep: wizard.StepSelect,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := controllerAt(test.current)
			assert.Equal(t, test.expStep, c.ComputeNextStep(test.hasSelection, test.taskCount))
			assert.Equal(t, test.expStep, c.Step())
		})
	}
}

func TestControllerSelectionAndOptions(t *testing.T) {
	c := wizard.NewController()
	assert.Equal(t, wizard.StepSelect, c.Step())

	assert.Equal(t, wizard.StepConfigure, c.Initial(true))
	assert.Equal(t, wizard.StepSelect, c.SelectionChanged(false))
	assert.Equal(t, wizard.StepSelect, c.OptionsChanged(false))
	assert.Equal(t, wizard.StepConfigure, c.OptionsChanged(true))

	assert.Equal(t, wizard.StepReview, c.Submitted())
	assert.Equal(t, wizard.StepReview, c.SelectionChanged(false))
	assert.Equal(t, wizard.StepReview, c.OptionsChanged(true))

	assert.Equal(t, wizard.StepSelect, c.Initial(false))
}
