package demo

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rickchristie/govner/testdeck/internal/declare"
	"github.com/rickchristie/govner/testdeck/internal/replay"
	"github.com/rickchristie/govner/testdeck/internal/schedule"
	"github.com/rickchristie/govner/testdeck/internal/state"
)

var defaults = declare.Options{URL: "https://shop.test"}

func TestDeclare(t *testing.T) {
	reg := declare.NewRegistry(defaults)
	require.NoError(t, Declare(reg))

	files := reg.Files()
	require.Len(t, files, 2)
	assert.Equal(t, AuthFile, files[0].Path)
	assert.Len(t, files[0].Tests, 3)
	assert.Len(t, files[1].Tests, 4)
	assert.Len(t, files[0].HookKeys, 1)
	assert.Len(t, files[1].HookKeys, 1)

	urls := map[string]string{}
	for _, test := range reg.Tests() {
		urls[test.Title] = test.URL
	}
	assert.Equal(t, "https://shop.test/login", urls["signs in with the demo account"])
	assert.Equal(t, "https://shop.test/reset", urls["sends a reset email"])
	assert.Equal(t, "https://shop.test/cart", urls["applies a discount code"])
	assert.Equal(t, "https://shop.test", urls["guest checkout"])

	checkout := files[1]
	require.Equal(t, CheckoutFile, checkout.Path)
	assert.Equal(t, []string{"Start every test from an empty cart"}, checkout.Prompts["applies a discount code"])
	assert.Equal(t, "mobile", checkout.Tests[3].Options.Extra["viewport"])
}

func TestDeclare_NeedsURL(t *testing.T) {
	reg := declare.NewRegistry(declare.Options{})

	var cfgErr *declare.ConfigError
	require.ErrorAs(t, Declare(reg), &cfgErr)
	assert.Empty(t, reg.Files())
}

// collector records the latest state per test. It is only touched on the loop.
type collector struct {
	tests  []*declare.RegisteredTest
	states map[string]state.TestState
}

func (c *collector) AddTests(tests ...*declare.RegisteredTest) { c.tests = append(c.tests, tests...) }

func (c *collector) Update(id string, st state.TestState) { c.states[id] = st }

// runOnLoop runs fn while a loop is processing posts and returns once every post made
// by fn has been applied.
func runOnLoop(t *testing.T, fn func(loop *schedule.Loop)) {
	t.Helper()
	loop := schedule.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	fn(loop)

	barrier := make(chan struct{})
	loop.Post(func() { close(barrier) })
	<-barrier
	cancel()
	<-done
}

func TestEngine_RunsSuite(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := declare.NewRegistry(defaults)
	require.NoError(t, Declare(reg))

	c := &collector{states: map[string]state.TestState{}}
	runOnLoop(t, func(loop *schedule.Loop) {
		eng := NewEngine(loop, c, Options{Workers: 2, Model: "gpt-4o", Seed: 7})
		require.NoError(t, eng.Run(context.Background(), reg.Files()))
	})

	require.Len(t, c.tests, 7)
	require.Len(t, c.states, 7)

	var failedTitles []string
	for _, test := range c.tests {
		st := c.states[test.ID]
		require.True(t, st.Status.Done(), test.Title)
		require.NotEmpty(t, st.ModelUsage)
		assert.Equal(t, "gpt-4o", st.ModelUsage[0].Model)
		assert.Positive(t, st.ModelUsage[0].InputTokens)

		first, ok := st.StepsAndChecks[0].(*state.StepDescriptor)
		require.True(t, ok)
		assert.Contains(t, actionTexts(first), "navigate "+test.URL)

		if st.Status == state.StatusFailed {
			failedTitles = append(failedTitles, test.Title)
			assert.Equal(t, "check failed: "+FailingCheck, st.Failure.Message)
			last := st.StepsAndChecks[len(st.StepsAndChecks)-1]
			assert.Equal(t, state.StatusFailed, last.ItemStatus())
		} else {
			assert.Equal(t, state.StatusPassed, st.Status)
		}
	}
	assert.Equal(t, []string{"applies a discount code"}, failedTitles)
}

func actionTexts(step *state.StepDescriptor) []string {
	var out []string
	for _, a := range step.Actions {
		out = append(out, a.Text)
	}
	return out
}

func TestEngine_HookOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	rec := func(name string) declare.HookFunc {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	body := func(name string) declare.TestFunc {
		return func(ctx context.Context, _ declare.Agent) error {
			return rec(name)(ctx)
		}
	}

	f, err := declare.Load("hooks.go", defaults, func(s *declare.Session) error {
		for _, err := range []error{
			s.BeforeAll(rec("fileBeforeAll")),
			s.BeforeEach(rec("fileBeforeEach")),
			s.AfterEach(rec("fileAfterEach")),
			s.AfterAll(rec("fileAfterAll")),
			s.Test("t1", body("t1")),
		} {
			if err != nil {
				return err
			}
		}
		return s.Group("G", func() error {
			for _, err := range []error{
				s.BeforeAll(rec("groupBeforeAll")),
				s.BeforeEach(rec("groupBeforeEach")),
				s.AfterEach(rec("groupAfterEach")),
				s.AfterAll(rec("groupAfterAll")),
			} {
				if err != nil {
					return err
				}
			}
			return s.Test("t2", body("t2"))
		})
	})
	require.NoError(t, err)

	c := &collector{states: map[string]state.TestState{}}
	runOnLoop(t, func(loop *schedule.Loop) {
		require.NoError(t, NewEngine(loop, c, Options{Workers: 1}).Run(context.Background(), []*declare.File{f}))
	})

	assert.Equal(t, []string{
		"fileBeforeAll", "groupBeforeAll",
		"fileBeforeEach", "t1", "fileAfterEach",
		"fileBeforeEach", "groupBeforeEach", "t2", "groupAfterEach", "fileAfterEach",
		"groupAfterAll", "fileAfterAll",
	}, order)
}

func TestEngine_FailingHookFailsTest(t *testing.T) {
	f, err := declare.Load("broken.go", defaults, func(s *declare.Session) error {
		if err := s.BeforeEach(func(context.Context) error { return errors.New("db down") }); err != nil {
			return err
		}
		return s.Test("t", func(context.Context, declare.Agent) error { return nil })
	})
	require.NoError(t, err)

	c := &collector{states: map[string]state.TestState{}}
	runOnLoop(t, func(loop *schedule.Loop) {
		require.NoError(t, NewEngine(loop, c, Options{}).Run(context.Background(), []*declare.File{f}))
	})

	st := c.states[f.Tests[0].ID]
	assert.Equal(t, state.StatusFailed, st.Status)
	assert.Equal(t, "beforeEach hook: db down", st.Failure.Message)
}

func TestEngine_CancelledBeforeStart(t *testing.T) {
	reg := declare.NewRegistry(defaults)
	require.NoError(t, Declare(reg))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &collector{states: map[string]state.TestState{}}
	runOnLoop(t, func(loop *schedule.Loop) {
		err := NewEngine(loop, c, Options{}).Run(ctx, reg.Files())
		assert.ErrorIs(t, err, context.Canceled)
	})

	for _, st := range c.states {
		assert.Equal(t, state.StatusCancelled, st.Status)
	}
	assert.Len(t, c.states, 7)
}

func TestEngine_RecordsToObserver(t *testing.T) {
	reg := declare.NewRegistry(defaults)
	require.NoError(t, Declare(reg))

	var buf bytes.Buffer
	w := replay.NewWriter(&buf, nil)
	c := &collector{states: map[string]state.TestState{}}
	runOnLoop(t, func(loop *schedule.Loop) {
		require.NoError(t, NewEngine(loop, c, Options{Workers: 3, Observer: w}).Run(context.Background(), reg.Files()))
	})
	require.NoError(t, w.Err())

	events, err := replay.Read(strings.NewReader(buf.String()))
	require.NoError(t, err)

	registers := 0
	last := map[string]state.Status{}
	for _, ev := range events {
		switch ev.Action {
		case replay.ActionRegister:
			registers++
		case replay.ActionState:
			last[ev.ID] = ev.State.Status
		}
	}
	assert.Equal(t, 7, registers)
	for id, st := range c.states {
		assert.Equal(t, st.Status, last[id])
	}
}
