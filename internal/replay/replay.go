package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rickchristie/govner/testdeck/internal/declare"
	"github.com/rickchristie/govner/testdeck/internal/state"
)

// Action is the kind of a recorded event.
type Action string

const (
	ActionRegister Action = "register"
	ActionState    Action = "state"
	ActionFinish   Action = "finish"
)

// TestRecord is the recorded form of a registered test.
type TestRecord struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	File   string   `json:"file"`
	Groups []string `json:"groups,omitempty"` // Outermost first
	URL    string   `json:"url,omitempty"`
}

// Registered converts the record into a RegisteredTest for display. Group ids are derived
// from the group path since recordings only keep names.
func (r TestRecord) Registered() *declare.RegisteredTest {
	t := &declare.RegisteredTest{ID: r.ID, Title: r.Title, Filepath: r.File, URL: r.URL}
	for i, name := range r.Groups {
		t.Groups = append(t.Groups, declare.Group{ID: fmt.Sprintf("%s#%d", r.File, i), Name: name})
	}
	return t
}

// Record converts a registered test into its recorded form.
func Record(t *declare.RegisteredTest) TestRecord {
	r := TestRecord{ID: t.ID, Title: t.Title, File: t.Filepath, URL: t.URL}
	for _, g := range t.Groups {
		r.Groups = append(r.Groups, g.Name)
	}
	return r
}

// Event is one line of a recording.
type Event struct {
	Action Action           `json:"action"`
	At     int64            `json:"at,omitempty"` // Milliseconds since the recording started
	Test   *TestRecord      `json:"test,omitempty"`
	ID     string           `json:"id,omitempty"`
	State  *state.TestState `json:"state,omitempty"`
}

func (e Event) validate() error {
	switch e.Action {
	case ActionRegister:
		if e.Test == nil || e.Test.ID == "" {
			return fmt.Errorf("register event without test id")
		}
	case ActionState:
		if e.ID == "" || e.State == nil {
			return fmt.Errorf("state event without id or state")
		}
	case ActionFinish:
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
	return nil
}

// Read parses a JSON-lines recording. Lines that do not parse or describe an invalid
// event are logged and skipped.
func Read(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var events []Event
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			log.Warn().Err(err).Int("line", lineNo).Msg("skipping malformed event")
			continue
		}
		if err := ev.validate(); err != nil {
			log.Warn().Err(err).Int("line", lineNo).Msg("skipping invalid event")
			continue
		}
		events = append(events, ev)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading recording: %w", err)
	}
	return events, nil
}

// Poster runs funcs on the dashboard's goroutine.
type Poster interface {
	Post(fn func())
}

// Target receives replayed events.
type Target interface {
	AddTests(tests ...*declare.RegisteredTest)
	Update(id string, st state.TestState)
	Finish()
}

// Play posts events to target through poster, waiting between events according to their
// At offsets divided by speed. A speed <= 0 plays without delays. The run is always
// finished, even when the recording has no finish event. Play returns early with the
// context error when ctx is done.
func Play(ctx context.Context, events []Event, poster Poster, target Target, speed float64) error {
	var last int64
	for _, ev := range events {
		if speed > 0 && ev.At > last {
			wait := time.Duration(float64(ev.At-last) * float64(time.Millisecond) / speed)
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}
		if ev.At > last {
			last = ev.At
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		poster.Post(func() { apply(target, ev) })
	}
	poster.Post(target.Finish)
	return nil
}

func apply(target Target, ev Event) {
	switch ev.Action {
	case ActionRegister:
		target.AddTests(ev.Test.Registered())
	case ActionState:
		target.Update(ev.ID, *ev.State)
	case ActionFinish:
		target.Finish()
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
