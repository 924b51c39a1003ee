package console

import (
	"fmt"
	"io"
	"log"

	"go.uber.org/multierr"

	"pomodoro/internal/input"
	"pomodoro/internal/timer"
)

type fder interface {
	Fd() uintptr
}

// Terminal is the plain frontend: raw keyboard input from in and an in-place
// status region on out.
type Terminal struct {
	in   io.Reader
	sink *Sink
	raw  *RawMode
	keys *KeyReader
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, sink: NewSink(out)}
}

// Open clears the screen and switches the input to raw mode when it is a
// terminal. Close must be called even if Open fails part way.
func (t *Terminal) Open() error {
	if err := t.sink.Clear(); err != nil {
		return fmt.Errorf("failed to clear screen: %w", err)
	}
	if f, ok := t.in.(fder); ok {
		raw, err := EnableRawMode(int(f.Fd()))
		if err != nil {
			return err
		}
		t.raw = raw
		log.Printf("Raw mode active: %t", raw.Active())
	}
	keys, err := NewKeyReader(t.in)
	if err != nil {
		return err
	}
	t.keys = keys
	return nil
}

// Close stops reading keys and restores the terminal.
func (t *Terminal) Close() error {
	var err error
	if t.keys != nil {
		err = multierr.Append(err, t.keys.Close())
	}
	if t.raw != nil {
		err = multierr.Append(err, t.raw.Restore())
	}
	t.sink.Release()
	return err
}

func (t *Terminal) StatusSink() timer.StatusSink { return t.sink }
func (t *Terminal) Notifier() timer.Notifier     { return t.sink }
func (t *Terminal) Progress() timer.Progress     { return t.sink }
func (t *Terminal) KeySource() input.KeySource   { return t.keys }
func (t *Terminal) ShowPaused(paused bool)       { t.sink.ShowPaused(paused) }
