package replay

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/rickchristie/govner/testdeck/internal/declare"
	"github.com/rickchristie/govner/testdeck/internal/state"
)

// Writer records events as JSON lines, stamping each with the time since the first
// event. It is safe for concurrent use.
type Writer struct {
	mu    sync.Mutex
	enc   *json.Encoder
	now   func() time.Time
	start time.Time
	err   error
}

// NewWriter records to w. now defaults to time.Now.
func NewWriter(w io.Writer, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{enc: json.NewEncoder(w), now: now}
}

// Register records a test registration.
func (w *Writer) Register(t *declare.RegisteredTest) {
	r := Record(t)
	w.write(Event{Action: ActionRegister, Test: &r})
}

// State records a state change.
func (w *Writer) State(id string, st state.TestState) {
	w.write(Event{Action: ActionState, ID: id, State: &st})
}

// Finish records the end of the run.
func (w *Writer) Finish() {
	w.write(Event{Action: ActionFinish})
}

// Err returns the first write error.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Writer) write(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	now := w.now()
	if w.start.IsZero() {
		w.start = now
	}
	ev.At = now.Sub(w.start).Milliseconds()
	w.err = w.enc.Encode(ev)
}
