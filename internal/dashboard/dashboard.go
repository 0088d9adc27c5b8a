package dashboard

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rickchristie/govner/testdeck/internal/cost"
	"github.com/rickchristie/govner/testdeck/internal/declare"
	"github.com/rickchristie/govner/testdeck/internal/render"
	"github.com/rickchristie/govner/testdeck/internal/schedule"
	"github.com/rickchristie/govner/testdeck/internal/state"
	"github.com/rickchristie/govner/testdeck/internal/terminal"
)

// Options configures a Dashboard.
type Options struct {
	Version  string
	Model    string
	Settings render.Settings
	Costs    cost.Table
	Now      func() time.Time // Defaults to time.Now
}

// Dashboard owns the live view of a run: the registered tests, their latest states,
// elapsed times and the spinner. Every method must be called from the goroutine that
// flushes the queue, normally the schedule.Loop.
type Dashboard struct {
	display terminal.Display
	sched   *schedule.Scheduler
	opts    Options

	tests        []*declare.RegisteredTest
	states       *state.Map
	started      map[string]time.Time
	frozen       map[string]time.Duration
	spinnerFrame int

	finished bool
	closed   bool
	frames   int
}

// New creates a dashboard that defers its redraws onto queue and writes frames to display.
func New(queue *schedule.Queue, display terminal.Display, opts Options) *Dashboard {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	d := &Dashboard{
		display: display,
		opts:    opts,
		states:  state.NewMap(),
		started: make(map[string]time.Time),
		frozen:  make(map[string]time.Duration),
	}
	d.sched = schedule.NewScheduler(queue, d.redraw)
	return d
}

// SetTests replaces the registered test list.
func (d *Dashboard) SetTests(tests []*declare.RegisteredTest) {
	d.tests = tests
	d.schedule()
}

// AddTests appends to the registered test list.
func (d *Dashboard) AddTests(tests ...*declare.RegisteredTest) {
	d.tests = append(d.tests, tests...)
	d.schedule()
}

// Update records the latest state of test id. The test's clock starts at its first
// non-pending state and stops at its first terminal one.
func (d *Dashboard) Update(id string, st state.TestState) {
	now := d.opts.Now()
	if st.Status != state.StatusPending {
		if _, ok := d.started[id]; !ok {
			d.started[id] = now
		}
	}
	if st.Status.Done() {
		if _, ok := d.frozen[id]; !ok {
			d.frozen[id] = now.Sub(d.started[id])
		}
	}
	d.states.Set(id, st)
	d.schedule()
}

// Tick advances the spinner. It requests a frame only while some test is running.
func (d *Dashboard) Tick() {
	d.spinnerFrame++
	running := false
	d.states.Range(func(_ string, st state.TestState) bool {
		running = st.Status == state.StatusRunning
		return !running
	})
	if running {
		d.schedule()
	}
}

// Finish renders the final frame immediately and releases the display. Calling it again
// does nothing.
func (d *Dashboard) Finish() {
	if d.finished {
		return
	}
	d.finished = true
	d.sched.Run()
}

// Redraw renders a frame now, clearing any pending request first.
func (d *Dashboard) Redraw() {
	d.sched.Run()
}

// Finished reports whether Finish has been called.
func (d *Dashboard) Finished() bool {
	return d.finished
}

// Frames returns the number of frames written.
func (d *Dashboard) Frames() int {
	return d.frames
}

// States returns the tracked states. Do not modify it.
func (d *Dashboard) States() *state.Map {
	return d.states
}

// Summary aggregates the current states.
func (d *Dashboard) Summary() render.Summary {
	return render.Summarize(d.input())
}

func (d *Dashboard) schedule() {
	if d.closed {
		return
	}
	d.sched.Schedule()
}

func (d *Dashboard) input() render.Input {
	now := d.opts.Now()
	elapsed := make(map[string]time.Duration, len(d.started))
	for id, start := range d.started {
		if e, ok := d.frozen[id]; ok {
			elapsed[id] = e
			continue
		}
		elapsed[id] = now.Sub(start)
	}
	return render.Input{
		Tests:        d.tests,
		States:       d.states,
		Model:        d.opts.Model,
		Version:      d.opts.Version,
		Settings:     d.opts.Settings,
		Elapsed:      elapsed,
		SpinnerFrame: d.spinnerFrame,
		Costs:        d.opts.Costs,
	}
}

// redraw runs with the scheduler flag already cleared.
func (d *Dashboard) redraw() {
	if d.closed {
		return
	}

	frame := render.Frame(d.input())
	if err := d.display.Replace(frame); err != nil {
		log.Error().Err(err).Msg("failed to write frame")
	}
	d.frames++

	if d.finished {
		d.closed = true
		if err := d.display.Done(); err != nil {
			log.Error().Err(err).Msg("failed to close display")
		}
		log.Debug().Int("frames", d.frames).Msg("dashboard finished")
	}
}
