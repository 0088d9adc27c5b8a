package render

import (
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/rickchristie/govner/testdeck/internal/state"
)

// Kind is what a status glyph decorates.
type Kind int

const (
	KindTest Kind = iota
	KindStep
	KindCheck
)

// Glyph characters
const (
	CharPassed    = "✓"
	CharFailed    = "✗"
	CharCancelled = "⊘"
	CharPending   = "◌"
	CharQueued    = "•"
	CharStepDone  = "⚑"
	CharStepRun   = "›"
	CharCheckRun  = "?"
	CharRunning   = "▷"
	CharGroup     = "↳"
	CharFile      = "☰"
	CharThought   = "💭"
)

// SpinnerFrames animate the glyph of a running test.
var SpinnerFrames = spinner.MiniDot.Frames

// Color definitions
var (
	ColorPassed    = lipgloss.Color("82")  // Green
	ColorFailed    = lipgloss.Color("196") // Red
	ColorRunning   = lipgloss.Color("39")  // Blue
	ColorPending   = lipgloss.Color("241") // Dim gray
	ColorCancelled = lipgloss.Color("245") // Gray
	ColorAccent    = lipgloss.Color("75")  // Bright blue
)

var glyphChars = map[Kind]map[state.Status]string{
	KindTest: {
		state.StatusPending:   CharPending,
		state.StatusPassed:    CharPassed,
		state.StatusFailed:    CharFailed,
		state.StatusCancelled: CharCancelled,
	},
	KindStep: {
		state.StatusPending:   CharQueued,
		state.StatusRunning:   CharStepRun,
		state.StatusPassed:    CharStepDone,
		state.StatusFailed:    CharFailed,
		state.StatusCancelled: CharCancelled,
	},
	KindCheck: {
		state.StatusPending:   CharQueued,
		state.StatusRunning:   CharCheckRun,
		state.StatusPassed:    CharPassed,
		state.StatusFailed:    CharFailed,
		state.StatusCancelled: CharCancelled,
	},
}

// StatusColor returns the color used for status.
func StatusColor(status state.Status) lipgloss.Color {
	switch status {
	case state.StatusPassed:
		return ColorPassed
	case state.StatusFailed:
		return ColorFailed
	case state.StatusRunning:
		return ColorRunning
	case state.StatusCancelled:
		return ColorCancelled
	default:
		return ColorPending
	}
}

// glyphSet holds pre-rendered glyphs. It is built on first use rather than at init so
// the color profile chosen by the command line is honored.
type glyphSet struct {
	icons   map[Kind]map[state.Status]string
	spinner []string
}

var glyphs = sync.OnceValue(func() *glyphSet {
	set := &glyphSet{icons: make(map[Kind]map[state.Status]string, len(glyphChars))}
	for kind, byStatus := range glyphChars {
		set.icons[kind] = make(map[state.Status]string, len(byStatus))
		for status, char := range byStatus {
			set.icons[kind][status] = lipgloss.NewStyle().Foreground(StatusColor(status)).Render(char)
		}
	}
	running := lipgloss.NewStyle().Foreground(ColorRunning)
	for _, frame := range SpinnerFrames {
		set.spinner = append(set.spinner, running.Render(frame))
	}
	return set
})

// Glyph returns the styled indicator for a test, step or check in the given status. A
// running test shows the spinner frame selected by spinnerFrame. Unknown statuses render
// as pending.
func Glyph(kind Kind, status state.Status, spinnerFrame int) string {
	set := glyphs()
	if kind == KindTest && status == state.StatusRunning {
		if spinnerFrame < 0 {
			spinnerFrame = -spinnerFrame
		}
		return set.spinner[spinnerFrame%len(set.spinner)]
	}
	if icon, ok := set.icons[kind][status]; ok {
		return icon
	}
	return set.icons[kind][state.StatusPending]
}

// Styles shared by the frame sections.
var (
	titleStyle   = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	grayStyle    = lipgloss.NewStyle().Foreground(ColorCancelled)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	failureStyle = lipgloss.NewStyle().Foreground(ColorFailed)
)
