package terminal

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

type frameMsg string

type doneMsg struct{}

type programModel struct {
	frame       string
	onInterrupt func()
}

func (m programModel) Init() tea.Cmd {
	return nil
}

func (m programModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frame = string(msg)
	case doneMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.onInterrupt == nil {
				return m, tea.Quit
			}
			m.onInterrupt()
		}
	}
	return m, nil
}

func (m programModel) View() string {
	return m.frame
}

// ProgramOptions configures a Program.
type ProgramOptions struct {
	Output io.Writer
	Input  io.Reader // nil disables keyboard input

	// OnInterrupt runs on ctrl+c. When nil, ctrl+c quits the program.
	OnInterrupt func()
}

// Program is a Display backed by a bubbletea program. The program starts on creation
// and runs until Done.
type Program struct {
	p    *tea.Program
	exit chan struct{}
	err  error
	once sync.Once
}

// NewProgram starts a program rendering the latest frame.
func NewProgram(opts ProgramOptions) *Program {
	teaOpts := []tea.ProgramOption{tea.WithInput(opts.Input)}
	if opts.Output != nil {
		teaOpts = append(teaOpts, tea.WithOutput(opts.Output))
	}

	pr := &Program{
		p:    tea.NewProgram(programModel{onInterrupt: opts.OnInterrupt}, teaOpts...),
		exit: make(chan struct{}),
	}
	go func() {
		defer close(pr.exit)
		if _, err := pr.p.Run(); err != nil {
			log.Error().Err(err).Msg("display program exited")
			pr.err = err
		}
	}()
	return pr
}

// Replace shows frame. Frames sent after the program exits are dropped.
func (pr *Program) Replace(frame string) error {
	pr.p.Send(frameMsg(frame))
	return nil
}

// Done quits the program, keeping the last frame, and waits for it to exit.
func (pr *Program) Done() error {
	var err error
	pr.once.Do(func() {
		pr.p.Send(doneMsg{})
		<-pr.exit
		err = pr.err
	})
	return err
}

// Exited is closed when the program stops.
func (pr *Program) Exited() <-chan struct{} {
	return pr.exit
}
