package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rickchristie/govner/testdeck/internal/declare"
	"github.com/rickchristie/govner/testdeck/internal/state"
)

// FailureContext locates a failed test for the summary.
type FailureContext struct {
	Filepath  string
	GroupName string // Innermost group, empty when the test has none
	Title     string
	Message   string
}

// Breadcrumb returns "file > group > title", leaving out an empty group.
func (f FailureContext) Breadcrumb() string {
	if f.GroupName == "" {
		return f.Filepath + " > " + f.Title
	}
	return f.Filepath + " > " + f.GroupName + " > " + f.Title
}

// Summary aggregates every tracked test state.
type Summary struct {
	Counts       map[state.Status]int
	Total        int
	InputTokens  int
	OutputTokens int
	Cost         float64
	HasCost      bool
	Failures     []FailureContext
}

// Summarize counts statuses, sums the first usage entry of each test, prices the totals
// for in.Model and collects failures in state order.
func Summarize(in Input) Summary {
	s := Summary{Counts: make(map[state.Status]int, len(state.Statuses))}
	if in.States == nil {
		return s
	}

	byID := make(map[string]*declare.RegisteredTest, len(in.Tests))
	for _, t := range in.Tests {
		byID[t.ID] = t
	}

	in.States.Range(func(id string, st state.TestState) bool {
		s.Total++
		s.Counts[st.Status]++
		if len(st.ModelUsage) > 0 {
			s.InputTokens += st.ModelUsage[0].InputTokens
			s.OutputTokens += st.ModelUsage[0].OutputTokens
		}
		if st.Failure != nil {
			fc := FailureContext{Filepath: "Unknown File", Title: "Unknown Test", Message: st.Failure.Message}
			if t, ok := byID[id]; ok {
				fc.Filepath = t.Filepath
				fc.GroupName = t.GroupName()
				fc.Title = t.Title
			}
			s.Failures = append(s.Failures, fc)
		}
		return true
	})

	s.Cost, s.HasCost = in.Costs.Calculate(in.Model, s.InputTokens, s.OutputTokens)
	return s
}

var summaryChars = map[state.Status]string{
	state.StatusPassed:    CharPassed,
	state.StatusFailed:    CharFailed,
	state.StatusRunning:   CharRunning,
	state.StatusPending:   CharPending,
	state.StatusCancelled: CharCancelled,
}

func summaryColor(status state.Status) lipgloss.Color {
	if status == state.StatusRunning {
		return ColorAccent
	}
	return StatusColor(status)
}

// StatusLine renders the non-zero status counts, e.g. "✓ 3 passed  ✗ 1 failed".
func (s Summary) StatusLine() string {
	var parts []string
	for _, status := range state.Statuses {
		n := s.Counts[status]
		if n == 0 {
			continue
		}
		style := lipgloss.NewStyle().Foreground(summaryColor(status))
		parts = append(parts, style.Render(fmt.Sprintf("%s %d %s", summaryChars[status], n, status)))
	}
	return strings.Join(parts, "  ")
}

// TokenLine renders token totals and, when known, the cost.
func (s Summary) TokenLine() string {
	text := fmt.Sprintf("tokens: %d in, %d out", s.InputTokens, s.OutputTokens)
	if s.HasCost {
		text += fmt.Sprintf(" ($%.2f)", s.Cost)
	}
	return grayStyle.Render(text)
}

// SummaryLines renders the summary section.
func SummaryLines(s Summary) []string {
	first := Padding
	if status := s.StatusLine(); status != "" {
		first += status + "  "
	}
	lines := []string{first + s.TokenLine()}

	if len(s.Failures) == 0 {
		return lines
	}
	lines = append(lines, Padding+dimStyle.Render("Failures:"))
	for _, f := range s.Failures {
		lines = append(lines,
			Padding+Padding+dimStyle.Render(f.Breadcrumb()),
			FailureLine(f.Message, 4),
			Padding,
		)
	}
	return lines
}
