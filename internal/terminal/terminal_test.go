package terminal

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRows(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		width    int
		expected int
	}{
		{"single line", "hello", 80, 1},
		{"three lines", "a\nb\nc", 80, 3},
		{"no width", strings.Repeat("x", 200), 0, 1},
		{"exact fit", strings.Repeat("x", 10), 10, 1},
		{"wraps once", strings.Repeat("x", 11), 10, 2},
		{"wraps twice", strings.Repeat("x", 25), 10, 3},
		{"escapes ignored", "\x1b[31m" + strings.Repeat("x", 10) + "\x1b[0m", 10, 1},
		{"wide runes", strings.Repeat("界", 6), 10, 2},
		{"empty line", "", 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Rows(tt.frame, tt.width))
		})
	}
}

func TestInline_ReplaceErasesPreviousFrame(t *testing.T) {
	var buf bytes.Buffer
	d := NewInlineWriter(&buf, 80)

	require.NoError(t, d.Replace("one\ntwo"))
	assert.Equal(t, "one\ntwo\n", buf.String())

	buf.Reset()
	require.NoError(t, d.Replace("three"))

	// Two frame rows plus the cursor row.
	expected := eraseRows(3) + "three\n"
	assert.Equal(t, expected, buf.String())
	assert.Equal(t, 3, strings.Count(buf.String(), ansi.EraseEntireLine))
	assert.Equal(t, 2, strings.Count(buf.String(), ansi.CursorUp(1)))
}

func TestInline_DoneIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	d := NewInlineWriter(&buf, 80)

	require.NoError(t, d.Replace("frame"))
	require.NoError(t, d.Done())
	require.NoError(t, d.Done())
	require.NoError(t, d.Replace("ignored"))

	assert.Equal(t, "frame\n\n", buf.String())
}

func TestEraseRows_Zero(t *testing.T) {
	assert.Equal(t, "", eraseRows(0))
}

func TestRecorder(t *testing.T) {
	var seen []string
	r := &Recorder{OnReplace: func(f string) { seen = append(seen, f) }}

	assert.Equal(t, "", r.Last())
	require.NoError(t, r.Replace("a"))
	require.NoError(t, r.Replace("b"))
	require.NoError(t, r.Done())

	assert.Equal(t, []string{"a", "b"}, r.Frames)
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, "b", r.Last())
	assert.Equal(t, 1, r.DoneCalls)
}

// syncBuffer guards a buffer written by the program goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProgram_ShowsLastFrameAndExits(t *testing.T) {
	out := &syncBuffer{}
	p := NewProgram(ProgramOptions{Output: out})

	require.NoError(t, p.Replace("first frame"))
	require.NoError(t, p.Replace("final frame"))

	done := make(chan error, 1)
	go func() { done <- p.Done() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("program did not exit")
	}

	assert.Contains(t, ansi.Strip(out.String()), "final frame")
	assert.NoError(t, p.Done())
	<-p.Exited()
}

func TestProgramModel_Interrupt(t *testing.T) {
	called := 0
	m := programModel{onInterrupt: func() { called++ }}

	next, cmd := m.Update(keyCtrlC())
	assert.Nil(t, cmd)
	assert.Equal(t, 1, called)

	next, _ = next.Update(frameMsg("x"))
	assert.Equal(t, "x", next.View())

	_, cmd = programModel{}.Update(keyCtrlC())
	assert.NotNil(t, cmd)
}

func keyCtrlC() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyCtrlC}
}
