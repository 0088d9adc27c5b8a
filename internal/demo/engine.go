package demo

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rickchristie/govner/testdeck/internal/declare"
	"github.com/rickchristie/govner/testdeck/internal/state"
)

// Poster runs funcs on the dashboard's goroutine.
type Poster interface {
	Post(fn func())
}

// Sink receives test registrations and states on the dashboard's goroutine.
type Sink interface {
	AddTests(tests ...*declare.RegisteredTest)
	Update(id string, st state.TestState)
}

// Observer sees every registration and state as it is produced, on the producing
// goroutine.
type Observer interface {
	Register(t *declare.RegisteredTest)
	State(id string, st state.TestState)
}

// Options configures an Engine.
type Options struct {
	Workers   int           // Concurrent tests per file
	Model     string        // Reported in model usage
	StepDelay time.Duration // Mean pause between simulated agent events, 0 for none
	Failing   map[string]bool
	Observer  Observer
	Seed      uint64
}

// CheckFailedError is returned by the simulated agent when a check fails.
type CheckFailedError struct {
	Description string
}

func (e *CheckFailedError) Error() string {
	return "check failed: " + e.Description
}

// Engine runs declared tests against a simulated browser agent. Tests run in their own
// goroutines; every state change is posted to the sink through the poster.
type Engine struct {
	poster Poster
	sink   Sink
	opts   Options
	start  time.Time
}

// NewEngine creates an engine. A nil Failing map fails FailingCheck.
func NewEngine(poster Poster, sink Sink, opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Failing == nil {
		opts.Failing = map[string]bool{FailingCheck: true}
	}
	return &Engine{poster: poster, sink: sink, opts: opts}
}

// Run executes every test of files, file by file. Test failures are reported as state;
// Run only returns the context error when it stops early.
func (e *Engine) Run(ctx context.Context, files []*declare.File) error {
	e.start = time.Now()

	var all []*declare.RegisteredTest
	for _, f := range files {
		all = append(all, f.Tests...)
	}
	if e.opts.Observer != nil {
		for _, t := range all {
			e.opts.Observer.Register(t)
		}
	}
	e.poster.Post(func() { e.sink.AddTests(all...) })
	for _, t := range all {
		e.publish(t.ID, state.TestState{Status: state.StatusPending})
	}

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			e.cancelRemaining(files[i:])
			return err
		}
		e.runFile(ctx, f)
	}
	return ctx.Err()
}

func (e *Engine) runFile(ctx context.Context, f *declare.File) {
	log.Debug().Str("file", f.Path).Int("tests", len(f.Tests)).Msg("running file")

	scopes := append([]*declare.HookSet{f.FileHooks}, groupSets(f)...)
	for _, hs := range scopes {
		if err := runHooks(ctx, hs.Of(declare.BeforeAll)); err != nil {
			for _, t := range f.Tests {
				e.publish(t.ID, failed(state.TestState{}, fmt.Errorf("beforeAll hook: %w", err)))
			}
			return
		}
	}

	g := &errgroup.Group{}
	g.SetLimit(e.opts.Workers)
	for i, t := range f.Tests {
		g.Go(func() error {
			e.runTest(ctx, f, t, uint64(i))
			return nil
		})
	}
	_ = g.Wait()

	for i := len(scopes) - 1; i >= 0; i-- {
		if err := runHooks(ctx, scopes[i].Of(declare.AfterAll)); err != nil {
			log.Error().Err(err).Str("file", f.Path).Msg("afterAll hook failed")
		}
	}
}

func groupSets(f *declare.File) []*declare.HookSet {
	sets := make([]*declare.HookSet, 0, len(f.HookKeys))
	for _, key := range f.HookKeys {
		sets = append(sets, f.GroupHooks[key])
	}
	return sets
}

func runHooks(ctx context.Context, hooks []declare.HookFunc) error {
	for _, h := range hooks {
		if err := h(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runTest(ctx context.Context, f *declare.File, t *declare.RegisteredTest, index uint64) {
	if ctx.Err() != nil {
		e.publish(t.ID, state.TestState{Status: state.StatusCancelled})
		return
	}

	a := &agent{
		engine: e,
		test:   t,
		rng:    rand.New(rand.NewPCG(e.opts.Seed, index)),
		st:     state.TestState{Status: state.StatusRunning},
	}
	a.publish()

	sets := f.HooksFor(t)
	err := func() error {
		for _, hs := range sets {
			if err := runHooks(ctx, hs.Of(declare.BeforeEach)); err != nil {
				return fmt.Errorf("beforeEach hook: %w", err)
			}
		}
		return t.Fn(ctx, a)
	}()
	for i := len(sets) - 1; i >= 0; i-- {
		if hookErr := runHooks(ctx, sets[i].Of(declare.AfterEach)); hookErr != nil && err == nil {
			err = fmt.Errorf("afterEach hook: %w", hookErr)
		}
	}

	switch {
	case err == nil:
		a.st.Status = state.StatusPassed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.st.Status = state.StatusCancelled
	default:
		a.st = failed(a.st, err)
	}
	a.publish()
	log.Debug().Str("test", t.Title).Str("status", string(a.st.Status)).Msg("test finished")
}

func failed(st state.TestState, err error) state.TestState {
	st.Status = state.StatusFailed
	st.Failure = &state.Failure{Message: err.Error()}
	return st
}

func (e *Engine) cancelRemaining(files []*declare.File) {
	for _, f := range files {
		for _, t := range f.Tests {
			e.publish(t.ID, state.TestState{Status: state.StatusCancelled})
		}
	}
}

// publish hands a snapshot of st to the observer and the sink. st must not be shared
// with another goroutine.
func (e *Engine) publish(id string, st state.TestState) {
	snap := st.Clone()
	if e.opts.Observer != nil {
		e.opts.Observer.State(id, snap)
	}
	e.poster.Post(func() { e.sink.Update(id, snap) })
}

func (e *Engine) elapsedMs() int64 {
	return time.Since(e.start).Milliseconds()
}
