package demo

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rickchristie/govner/testdeck/internal/declare"
	"github.com/rickchristie/govner/testdeck/internal/state"
)

// agent is a simulated browser agent. It belongs to one test goroutine and publishes a
// snapshot of its state after every change.
type agent struct {
	engine *Engine
	test   *declare.RegisteredTest
	rng    *rand.Rand
	st     state.TestState

	navigated bool
}

func (a *agent) publish() {
	a.engine.publish(a.test.ID, a.st)
}

func (a *agent) pause(ctx context.Context) error {
	base := a.engine.opts.StepDelay
	if base <= 0 {
		return ctx.Err()
	}
	d := time.Duration(float64(base) * (0.5 + a.rng.Float64()))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (a *agent) addUsage(in, out int) {
	if len(a.st.ModelUsage) == 0 {
		a.st.ModelUsage = []state.ModelUsage{{Model: a.engine.opts.Model}}
	}
	a.st.ModelUsage[0].InputTokens += in
	a.st.ModelUsage[0].OutputTokens += out
}

// Act simulates a step: a thought, then one or more actions.
func (a *agent) Act(ctx context.Context, description string) error {
	step := &state.StepDescriptor{Description: description, Status: state.StatusRunning}
	a.st.StepsAndChecks = append(a.st.StepsAndChecks, step)
	a.publish()

	var thought string
	if !a.navigated && len(a.test.PromptStack) > 0 {
		thought = "Keeping in mind: " + strings.Join(a.test.PromptStack, "; ")
	} else {
		thought = "Working out how to " + description
	}

	events := []func(){
		func() {
			step.Thoughts = append(step.Thoughts, state.Thought{Text: thought, Time: a.engine.elapsedMs()})
		},
	}
	if !a.navigated {
		a.navigated = true
		url := a.test.URL
		events = append(events, func() {
			step.Actions = append(step.Actions, state.Action{Text: "navigate " + url, Time: a.engine.elapsedMs()})
		})
	}
	for i, n := 0, 1+a.rng.IntN(2); i < n; i++ {
		verb := []string{"click", "type", "scroll"}[a.rng.IntN(3)]
		events = append(events, func() {
			step.Actions = append(step.Actions, state.Action{Text: verb + " (" + description + ")", Time: a.engine.elapsedMs()})
		})
	}

	for _, ev := range events {
		if err := a.pause(ctx); err != nil {
			step.Status = state.StatusCancelled
			return err
		}
		ev()
		a.addUsage(900+a.rng.IntN(600), 40+a.rng.IntN(80))
		a.publish()
	}

	step.Status = state.StatusPassed
	a.publish()
	return nil
}

// Check simulates an assertion. Checks listed in Options.Failing fail.
func (a *agent) Check(ctx context.Context, description string) error {
	check := &state.CheckDescriptor{Description: description, Status: state.StatusRunning}
	a.st.StepsAndChecks = append(a.st.StepsAndChecks, check)
	a.publish()

	if err := a.pause(ctx); err != nil {
		check.Status = state.StatusCancelled
		return err
	}
	a.addUsage(700+a.rng.IntN(300), 20+a.rng.IntN(30))

	if a.engine.opts.Failing[description] {
		check.Status = state.StatusFailed
		a.publish()
		return &CheckFailedError{Description: description}
	}
	check.Status = state.StatusPassed
	a.publish()
	return nil
}
