package timer

import (
	"time"

	"go.uber.org/atomic"
)

// Control holds the two flags shared between the engine goroutine and
// whoever drives it (keyboard listener, control socket, signal handler).
// The engine only reads them.
type Control struct {
	pause atomic.Bool
	exit  atomic.Bool
}

// NewControl returns a Control with both flags cleared.
func NewControl() *Control {
	return &Control{}
}

func (c *Control) Paused() bool { return c.pause.Load() }

func (c *Control) ExitRequested() bool { return c.exit.Load() }

// TogglePause flips the pause flag atomically and returns the new value.
func (c *Control) TogglePause() (paused bool) {
	return !c.pause.Toggle()
}

// SetPaused sets the pause flag and reports whether it changed.
func (c *Control) SetPaused(paused bool) (changed bool) {
	return c.pause.Swap(paused) != paused
}

// RequestExit sets the exit flag. It is never cleared.
func (c *Control) RequestExit() {
	c.exit.Store(true)
}

// State is the engine's view of the running timer. Phase and counters are
// written by the engine goroutine only; sinks read them during Update, which
// runs on that same goroutine. Other goroutines must use Snapshot values.
type State struct {
	phase           Phase
	cyclesCompleted uint
	elapsed         time.Duration
	total           time.Duration

	ctrl *Control
}

func newState(ctrl *Control) *State {
	return &State{phase: Work, ctrl: ctrl}
}

func (s *State) Phase() Phase { return s.phase }

// CyclesCompleted counts finished Work phases since the last long break.
func (s *State) CyclesCompleted() uint { return s.cyclesCompleted }

func (s *State) Paused() bool { return s.ctrl.Paused() }

func (s *State) ExitRequested() bool { return s.ctrl.ExitRequested() }

// Elapsed is the unpaused time spent in the current phase.
func (s *State) Elapsed() time.Duration { return s.elapsed }

// Total is the configured length of the current phase.
func (s *State) Total() time.Duration { return s.total }

// Remaining never goes below zero.
func (s *State) Remaining() time.Duration {
	if s.elapsed >= s.total {
		return 0
	}
	return s.total - s.elapsed
}

// Snapshot is a copy of State that can cross goroutines.
type Snapshot struct {
	Phase           Phase
	CyclesCompleted uint
	Paused          bool
	Elapsed         time.Duration
	Remaining       time.Duration
	Total           time.Duration
}

func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Phase:           s.phase,
		CyclesCompleted: s.cyclesCompleted,
		Paused:          s.Paused(),
		Elapsed:         s.elapsed,
		Remaining:       s.Remaining(),
		Total:           s.total,
	}
}
