// Package input turns key presses into pause and exit requests for the
// timer engine.
package input

import (
	"context"
	"fmt"
	"log"
	"time"

	"pomodoro/internal/timer"
)

// DefaultPollInterval bounds how long the listener takes to notice that the
// exit flag was set elsewhere or that the engine goroutine ended.
const DefaultPollInterval = 100 * time.Millisecond

const ctrlC = 0x03 // raw mode delivers Ctrl-C as a byte instead of SIGINT

// KeySource delivers key presses. The channel is closed when input ends;
// Err then reports why (nil for a clean end of input or cancellation).
type KeySource interface {
	Keys() <-chan rune
	Err() error
}

// Listener polls a KeySource and flips the shared control flags.
type Listener struct {
	ctrl    *timer.Control
	keys    KeySource
	poll    time.Duration
	refresh func(paused bool)
}

type Option func(*Listener)

// WithPollInterval overrides DefaultPollInterval. Non-positive values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(l *Listener) {
		if d > 0 {
			l.poll = d
		}
	}
}

// WithPauseRefresh installs a callback run right after every pause toggle so
// the display reflects the new state without waiting for the engine's next tick.
func WithPauseRefresh(fn func(paused bool)) Option {
	return func(l *Listener) { l.refresh = fn }
}

func NewListener(ctrl *timer.Control, keys KeySource, opts ...Option) *Listener {
	l := &Listener{
		ctrl: ctrl,
		keys: keys,
		poll: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes keys until exit is requested, engineDone is closed, or ctx
// is cancelled (which also requests exit). A read error from the key source
// is returned; a clean end of input only stops key handling.
func (l *Listener) Run(ctx context.Context, engineDone <-chan struct{}) error {
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	keys := l.keys.Keys()
	for !l.ctrl.ExitRequested() {
		select {
		case <-ctx.Done():
			log.Printf("Listener stopping: %v", ctx.Err())
			l.ctrl.RequestExit()
			return nil

		case <-engineDone:
			log.Println("Engine finished, listener stopping.")
			return nil

		case r, ok := <-keys:
			if !ok {
				keys = nil
				if err := l.keys.Err(); err != nil {
					return fmt.Errorf("failed to read keyboard input: %w", err)
				}
				log.Println("Keyboard input closed, waiting for exit.")
				continue
			}
			if l.handleKey(r) {
				return nil
			}

		case <-ticker.C:
		}
	}
	return nil
}

func (l *Listener) handleKey(r rune) (quit bool) {
	switch r {
	case 'q', 'Q', ctrlC:
		log.Println("Quit requested from keyboard.")
		l.ctrl.RequestExit()
		return true
	case 'p', 'P':
		paused := l.ctrl.TogglePause()
		log.Printf("Pause toggled from keyboard: paused=%t", paused)
		if l.refresh != nil {
			l.refresh(paused)
		}
	}
	return false
}
