package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestState_CloneIsDeep(t *testing.T) {
	step := &StepDescriptor{
		Description: "open menu",
		Status:      StatusRunning,
		Actions:     []Action{{Text: "click", Time: 1}},
		Thoughts:    []Thought{{Text: "menu is top left", Time: 1}},
	}
	orig := TestState{
		Status:         StatusRunning,
		StepsAndChecks: []Item{step, &CheckDescriptor{Description: "menu open", Status: StatusPending}},
		Failure:        &Failure{Message: "x"},
		ModelUsage:     []ModelUsage{{InputTokens: 1}},
	}

	c := orig.Clone()
	step.Status = StatusPassed
	step.Actions = append(step.Actions, Action{Text: "type", Time: 2})
	step.Actions[0].Text = "changed"
	orig.Failure.Message = "y"
	orig.ModelUsage[0].InputTokens = 99

	require.Len(t, c.StepsAndChecks, 2)
	cs := c.StepsAndChecks[0].(*StepDescriptor)
	assert.Equal(t, StatusRunning, cs.Status)
	assert.Equal(t, []Action{{Text: "click", Time: 1}}, cs.Actions)
	assert.Equal(t, "x", c.Failure.Message)
	assert.Equal(t, 1, c.ModelUsage[0].InputTokens)
	assert.Equal(t, VariantCheck, c.StepsAndChecks[1].Variant())
}

func TestTestState_CloneEmpty(t *testing.T) {
	c := TestState{Status: StatusPending}.Clone()
	assert.Nil(t, c.StepsAndChecks)
	assert.Nil(t, c.Failure)
	assert.Nil(t, c.ModelUsage)
}
