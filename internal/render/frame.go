package render

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/rickchristie/govner/testdeck/internal/cost"
	"github.com/rickchristie/govner/testdeck/internal/declare"
	"github.com/rickchristie/govner/testdeck/internal/state"
	"github.com/rickchristie/govner/testdeck/internal/tree"
	"github.com/rickchristie/govner/testdeck/internal/util"
)

// Padding is the left margin of every frame line.
const Padding = "  "

// Settings toggles optional frame content.
type Settings struct {
	ShowThoughts bool
	ShowActions  bool
}

// Input is everything a frame is computed from. The renderer only reads it.
type Input struct {
	Tests        []*declare.RegisteredTest
	States       *state.Map
	Model        string
	Version      string
	Settings     Settings
	Elapsed      map[string]time.Duration // By test id
	SpinnerFrame int
	Costs        cost.Table
}

func (in Input) state(id string) (state.TestState, bool) {
	if in.States == nil {
		return state.TestState{}, false
	}
	return in.States.Get(id)
}

func (in Input) hasStates() bool {
	return in.States != nil && in.States.Len() > 0
}

// Frame renders the full dashboard.
func Frame(in Input) string {
	return strings.Join(Lines(in), "\n")
}

// Lines renders the full dashboard as lines: the title, a padding line, then the test
// list and the summary. Both sections are left out until some test has a state.
func Lines(in Input) []string {
	listHeight, summaryHeight := 0, 0
	if in.hasStates() {
		listHeight = TestListHeight(in)
		summaryHeight = SummaryHeight(in)
	}

	lines := make([]string, 0, 2+listHeight+1+summaryHeight)
	lines = append(lines, TitleLine(in), Padding)

	if listHeight > 0 {
		lines = append(lines, TestList(in)...)
	}
	if summaryHeight > 0 {
		if listHeight > 0 {
			lines = append(lines, Padding)
		}
		lines = append(lines, SummaryLines(Summarize(in))...)
	}
	return lines
}

// TitleLine renders the title bar.
func TitleLine(in Input) string {
	return Padding + titleStyle.Render("testdeck v"+in.Version) + "  " + grayStyle.Render(in.Model)
}

// TestList renders every file's tree: a file header, the tree at indent 2 and a padding
// line after each file.
func TestList(in Input) []string {
	var lines []string
	for _, f := range tree.GroupByFile(in.Tests) {
		lines = append(lines, Padding+headerStyle.Render(CharFile+" "+f.Path))
		lines = treeLines(in, f.Root, 2, lines)
		lines = append(lines, Padding)
	}
	return lines
}

// treeLines appends the node's tests that have a state, then each child group as a
// header followed by its contents two columns deeper.
func treeLines(in Input, node *tree.Node, indent int, lines []string) []string {
	for _, t := range node.Tests {
		st, ok := in.state(t.ID)
		if !ok {
			continue
		}
		lines = append(lines, TestLines(in, t, st, indent)...)
	}
	for _, child := range node.Children {
		lines = append(lines, Padding+spaces(indent)+headerStyle.Render(CharGroup+" "+child.Name))
		lines = treeLines(in, child, indent+2, lines)
	}
	return lines
}

// TestLines renders one test block: the test line, its steps and checks, and its
// failure.
func TestLines(in Input, t *declare.RegisteredTest, st state.TestState, indent int) []string {
	stepIndent := indent + 2
	detailIndent := stepIndent + 2

	timer := ""
	if st.Status != state.StatusPending {
		timer = grayStyle.Render(" [" + util.FormatDuration(in.Elapsed[t.ID]) + "]")
	}
	lines := []string{Padding + spaces(indent) + Glyph(KindTest, st.Status, in.SpinnerFrame) + " " + t.Title + timer}

	for _, item := range st.StepsAndChecks {
		kind := KindCheck
		if item.Variant() == state.VariantStep {
			kind = KindStep
		}
		lines = append(lines, Padding+spaces(stepIndent)+Glyph(kind, item.ItemStatus(), in.SpinnerFrame)+" "+item.ItemDescription())

		step, ok := item.(*state.StepDescriptor)
		if !ok {
			continue
		}
		for _, ev := range mergeEvents(step) {
			switch {
			case ev.thought && in.Settings.ShowThoughts:
				lines = append(lines, Padding+spaces(detailIndent)+dimStyle.Render(CharThought+" "+ev.text))
			case !ev.thought && in.Settings.ShowActions:
				lines = append(lines, Padding+spaces(detailIndent)+grayStyle.Render(ev.text))
			}
		}
	}

	if st.Failure != nil {
		lines = append(lines, FailureLine(st.Failure.Message, stepIndent))
	}
	return lines
}

// FailureLine renders a failure message marker at indent.
func FailureLine(message string, indent int) string {
	if message == "" {
		message = "Unknown error details"
	}
	return Padding + spaces(indent) + failureStyle.Render(CharGroup+" "+message)
}

type stepEvent struct {
	thought bool
	text    string
	time    int64
}

// mergeEvents orders a step's thoughts and actions by time. A thought sorts before an
// action with the same time.
func mergeEvents(step *state.StepDescriptor) []stepEvent {
	events := make([]stepEvent, 0, len(step.Thoughts)+len(step.Actions))
	for _, th := range step.Thoughts {
		events = append(events, stepEvent{thought: true, text: th.Text, time: th.Time})
	}
	for _, a := range step.Actions {
		events = append(events, stepEvent{text: a.Text, time: a.Time})
	}
	slices.SortStableFunc(events, func(a, b stepEvent) int {
		if c := cmp.Compare(a.time, b.time); c != 0 {
			return c
		}
		switch {
		case a.thought == b.thought:
			return 0
		case a.thought:
			return -1
		default:
			return 1
		}
	})
	return events
}

func spaces(n int) string {
	return strings.Repeat(" ", n)
}
