package console

import (
	"fmt"
	"sync"

	"golang.org/x/term"
)

// RawMode puts a terminal into raw mode and restores it exactly once.
// Restore is meant to be deferred right after EnableRawMode succeeds so the
// terminal comes back on every return path, panics included.
type RawMode struct {
	fd    int
	state *term.State
	once  sync.Once
	err   error
}

// EnableRawMode switches fd to raw mode. When fd is not a terminal (piped
// input, tests) it returns a guard whose Restore does nothing.
func EnableRawMode(fd int) (*RawMode, error) {
	if !term.IsTerminal(fd) {
		return &RawMode{fd: fd}, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enable raw mode: %w", err)
	}
	return &RawMode{fd: fd, state: state}, nil
}

// Active reports whether the terminal is currently in raw mode because of this guard.
func (r *RawMode) Active() bool {
	return r.state != nil
}

func (r *RawMode) Restore() error {
	r.once.Do(func() {
		if r.state == nil {
			return
		}
		if err := term.Restore(r.fd, r.state); err != nil {
			r.err = fmt.Errorf("failed to restore terminal: %w", err)
		}
		r.state = nil
	})
	return r.err
}
