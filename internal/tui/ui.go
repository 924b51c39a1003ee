package tui

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"pomodoro/internal/input"
	"pomodoro/internal/timer"
)

// lockedWriter serialises the renderer and the bell on one writer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// UI runs a bubbletea program for the lifetime of the timer. Engine
// callbacks become messages sent to the program; key presses come back out
// through Keys.
type UI struct {
	program *tea.Program
	out     *lockedWriter
	keys    chan rune
	done    chan struct{}
	err     error
	opened  bool
	once    sync.Once
}

type Option func(*options)

type options struct {
	altScreen bool
}

// WithAltScreen runs the program on the alternate screen buffer.
func WithAltScreen() Option {
	return func(o *options) { o.altScreen = true }
}

func New(in io.Reader, out io.Writer, opts ...Option) *UI {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	u := &UI{
		out:  &lockedWriter{w: out},
		keys: make(chan rune, 16),
		done: make(chan struct{}),
	}
	popts := []tea.ProgramOption{
		tea.WithInput(in),
		tea.WithOutput(u.out),
		tea.WithoutSignalHandler(),
	}
	if o.altScreen {
		popts = append(popts, tea.WithAltScreen())
	}
	u.program = tea.NewProgram(newModel(u.keys), popts...)
	return u
}

// Open starts the program on its own goroutine.
func (u *UI) Open() error {
	u.opened = true
	go func() {
		defer close(u.done)
		defer close(u.keys)
		_, err := u.program.Run()
		if err != nil && (!errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrProgramPanic)) {
			u.err = fmt.Errorf("failed to run terminal UI: %w", err)
			log.Printf("Terminal UI stopped: %v", err)
		}
	}()
	return nil
}

// Close quits the program and waits for it to restore the terminal.
func (u *UI) Close() error {
	u.once.Do(func() {
		if !u.opened {
			return
		}
		u.program.Quit()
		select {
		case <-u.done:
		case <-time.After(2 * time.Second):
			log.Println("Terminal UI did not quit in time, killing it.")
			u.program.Kill()
			<-u.done
		}
	})
	return u.err
}

func (u *UI) Update(st *timer.State) { u.program.Send(statusMsg(st.Snapshot())) }
func (u *UI) ShowPaused(paused bool) { u.program.Send(pausedMsg(paused)) }

func (u *UI) Start(total time.Duration) { u.program.Send(startMsg(total)) }
func (u *UI) Advance(seconds int)       { u.program.Send(advanceMsg(seconds)) }
func (u *UI) Finish()                   { u.program.Send(finishMsg{}) }

// Alert rings the bell and records the finished phase on screen.
func (u *UI) Alert(completed timer.Phase) {
	if _, err := u.out.Write([]byte{ansi.BEL}); err != nil {
		log.Printf("Failed to ring bell: %v", err)
	}
	u.program.Send(alertMsg(completed))
}

func (u *UI) Keys() <-chan rune { return u.keys }

// Err reports why the program stopped. It is only meaningful once Keys
// has been closed.
func (u *UI) Err() error { return u.err }

func (u *UI) StatusSink() timer.StatusSink { return u }
func (u *UI) Notifier() timer.Notifier     { return u }
func (u *UI) Progress() timer.Progress     { return u }
func (u *UI) KeySource() input.KeySource   { return u }
