package state

// Status is the execution status of a test, step or check.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPassed, StatusFailed, StatusRunning, StatusPending, StatusCancelled}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusPassed, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Done reports whether s is terminal.
func (s Status) Done() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusCancelled
}

// Variant distinguishes steps from checks inside StepsAndChecks.
type Variant string

const (
	VariantStep  Variant = "step"
	VariantCheck Variant = "check"
)

// Item is either a *StepDescriptor or a *CheckDescriptor.
type Item interface {
	Variant() Variant
	ItemDescription() string
	ItemStatus() Status
}

// Action is a single agent action performed while executing a step.
// Time is a monotonic timestamp (milliseconds) supplied by the engine.
type Action struct {
	Text string `json:"text"`
	Time int64  `json:"time"`
}

// Thought is a reasoning note emitted while executing a step.
type Thought struct {
	Text string `json:"text"`
	Time int64  `json:"time"`
}

// StepDescriptor describes one step of a test.
type StepDescriptor struct {
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Actions     []Action  `json:"actions,omitempty"`
	Thoughts    []Thought `json:"thoughts,omitempty"`
}

func (s *StepDescriptor) Variant() Variant        { return VariantStep }
func (s *StepDescriptor) ItemDescription() string { return s.Description }
func (s *StepDescriptor) ItemStatus() Status      { return s.Status }

// CheckDescriptor describes one check (assertion) of a test.
type CheckDescriptor struct {
	Description string `json:"description"`
	Status      Status `json:"status"`
}

func (c *CheckDescriptor) Variant() Variant        { return VariantCheck }
func (c *CheckDescriptor) ItemDescription() string { return c.Description }
func (c *CheckDescriptor) ItemStatus() Status      { return c.Status }

// Failure is a runtime test failure. Failures are data, never errors.
type Failure struct {
	Message string `json:"message"`
}

// ModelUsage is token usage reported for one model.
type ModelUsage struct {
	Model        string `json:"model,omitempty"`
	InputTokens  int    `json:"inputTokens"`
	OutputTokens int    `json:"outputTokens"`
}

// TestState is the execution progress of one test. It is owned by the execution engine;
// the dashboard only reads it.
type TestState struct {
	Status         Status
	StepsAndChecks []Item
	Failure        *Failure
	ModelUsage     []ModelUsage
}

// Clone returns a deep copy of s, so the copy can be handed to another goroutine while
// the owner keeps mutating s.
func (s TestState) Clone() TestState {
	out := TestState{Status: s.Status}
	if s.Failure != nil {
		f := *s.Failure
		out.Failure = &f
	}
	if s.ModelUsage != nil {
		out.ModelUsage = append([]ModelUsage(nil), s.ModelUsage...)
	}
	if s.StepsAndChecks != nil {
		out.StepsAndChecks = make([]Item, 0, len(s.StepsAndChecks))
		for _, item := range s.StepsAndChecks {
			switch it := item.(type) {
			case *StepDescriptor:
				step := *it
				step.Actions = append([]Action(nil), it.Actions...)
				step.Thoughts = append([]Thought(nil), it.Thoughts...)
				out.StepsAndChecks = append(out.StepsAndChecks, &step)
			case *CheckDescriptor:
				check := *it
				out.StepsAndChecks = append(out.StepsAndChecks, &check)
			}
		}
	}
	return out
}
