package terminal

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-runewidth"
)

// Inline redraws frames in place below the cursor, erasing the rows written by the
// previous frame before writing the next one. Output before the first frame stays on
// screen.
type Inline struct {
	out   io.Writer
	width func() int

	lastRows int
	done     bool
}

// NewInline writes to f and measures its width on every frame. When f is not a terminal
// wrapping is not accounted for.
func NewInline(f *os.File) *Inline {
	fd := f.Fd()
	return &Inline{
		out: f,
		width: func() int {
			if !term.IsTerminal(fd) {
				return 0
			}
			w, _, err := term.GetSize(fd)
			if err != nil {
				return 0
			}
			return w
		},
	}
}

// NewInlineWriter writes to w, assuming a terminal of the given width. A width of 0
// disables wrap accounting.
func NewInlineWriter(w io.Writer, width int) *Inline {
	return &Inline{out: w, width: func() int { return width }}
}

// Replace erases the previous frame and writes frame.
func (d *Inline) Replace(frame string) error {
	if d.done {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(eraseRows(d.lastRows))
	sb.WriteString(frame)
	sb.WriteString("\n")

	if _, err := io.WriteString(d.out, sb.String()); err != nil {
		return err
	}
	// The cursor sits on the empty row after the trailing newline.
	d.lastRows = Rows(frame, d.width()) + 1
	return nil
}

// Done leaves the last frame on screen and moves below it. Later calls do nothing.
func (d *Inline) Done() error {
	if d.done {
		return nil
	}
	d.done = true
	d.lastRows = 0
	_, err := io.WriteString(d.out, "\n")
	return err
}

// eraseRows clears n rows ending at the cursor row and leaves the cursor at the start of
// the topmost one.
func eraseRows(n int) string {
	if n <= 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString(ansi.EraseEntireLine)
		if i < n-1 {
			sb.WriteString(ansi.CursorUp(1))
		}
	}
	sb.WriteString("\r")
	return sb.String()
}

// Rows returns how many terminal rows frame occupies at the given width, counting lines
// that soft-wrap. Escape sequences take no space. A width <= 0 counts one row per line.
func Rows(frame string, width int) int {
	rows := 0
	for _, line := range strings.Split(frame, "\n") {
		w := runewidth.StringWidth(ansi.Strip(line))
		if width <= 0 || w <= width {
			rows++
			continue
		}
		rows += (w + width - 1) / width
	}
	return rows
}
