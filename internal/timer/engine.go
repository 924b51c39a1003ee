package timer

import (
	"log"
	"time"

	"pomodoro/internal/clock"
	"pomodoro/internal/config"
)

// DefaultTick is the polling interval of the timed wait. It bounds how long
// the engine takes to notice a pause or exit request.
const DefaultTick = 100 * time.Millisecond

// Engine runs phases back to back until exit is requested.
type Engine struct {
	cfg      config.Config
	state    *State
	clock    clock.Clock
	sink     StatusSink
	notifier Notifier
	progress Progress
	tick     time.Duration
}

type Option func(*Engine)

func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithStatusSink(s StatusSink) Option {
	return func(e *Engine) { e.sink = s }
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithProgress(p Progress) Option {
	return func(e *Engine) { e.progress = p }
}

// WithTick overrides DefaultTick. Non-positive values are ignored.
func WithTick(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tick = d
		}
	}
}

// NewEngine creates an engine starting in Work with no completed cycles.
// cfg is expected to have passed Validate.
func NewEngine(cfg config.Config, ctrl *Control, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		state:    newState(ctrl),
		clock:    clock.New(),
		sink:     NopSink,
		notifier: NopNotifier,
		progress: NopProgress,
		tick:     DefaultTick,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State exposes the live state. Only the engine goroutine may read it while
// Start is running; use Snapshot elsewhere.
func (e *Engine) State() *State {
	return e.state
}

// Start runs the current phase, advances, and repeats until the exit flag is
// set. A phase cut short by exit does not advance the state.
func (e *Engine) Start() {
	log.Printf("Engine started: work=%s short=%s long=%s cycles=%d",
		e.cfg.WorkDuration, e.cfg.ShortBreakDuration, e.cfg.LongBreakDuration, e.cfg.CyclesBeforeLongBreak)
	defer log.Println("Engine stopped.")

	for !e.state.ExitRequested() {
		phase := e.state.phase
		total := phase.Duration(e.cfg)
		log.Printf("Phase %s started (%s), cycles completed: %d", phase, total, e.state.cyclesCompleted)

		if !e.RunPhase(total) {
			log.Printf("Phase %s interrupted after %s", phase, e.state.elapsed)
			return
		}
		next := e.Next()
		log.Printf("Phase %s complete, next: %s", phase, next)
	}
}

// RunPhase waits until total of unpaused time has passed in the current
// phase, rendering on every tick. It alerts the notifier and returns true
// when the phase completes, or returns false without alerting as soon as
// exit is observed.
//
// Time spent paused is measured and subtracted, so a pause freezes the
// countdown instead of eating into it.
func (e *Engine) RunPhase(total time.Duration) (completed bool) {
	s := e.state
	s.total = total
	s.elapsed = 0

	e.progress.Start(total)
	defer e.progress.Finish()

	target := wholeSeconds(total)
	reported := 0
	start := e.clock.Now()
	var paused time.Duration

	for {
		if s.ExitRequested() {
			return false
		}

		if s.Paused() {
			e.sink.Update(s)
			before := e.clock.Now()
			e.clock.Sleep(e.tick)
			paused += e.clock.Now().Sub(before)
			continue
		}

		e.sink.Update(s)
		e.clock.Sleep(e.tick)
		s.elapsed = e.clock.Now().Sub(start) - paused

		secs := wholeSeconds(s.elapsed)
		if secs > target {
			secs = target
		}
		if secs > reported {
			e.progress.Advance(secs - reported)
			reported = secs
		}
		if secs >= target {
			break
		}
	}

	e.notifier.Alert(s.phase)
	return true
}

// Next applies the transition table to the engine state and returns the new phase.
func (e *Engine) Next() Phase {
	e.state.phase, e.state.cyclesCompleted = NextPhase(e.state.phase, e.state.cyclesCompleted, e.cfg.CyclesBeforeLongBreak)
	return e.state.phase
}

// NextPhase is the transition table. Completing Work counts a cycle and
// picks a long break when the count reaches threshold. Leaving a long break
// resets the count so the next long break comes after another threshold
// cycles.
func NextPhase(phase Phase, cycles, threshold uint) (Phase, uint) {
	switch phase {
	case Work:
		cycles++
		if cycles == threshold {
			return LongBreak, cycles
		}
		return ShortBreak, cycles
	case LongBreak:
		return Work, 0
	default:
		return Work, cycles
	}
}

func wholeSeconds(d time.Duration) int {
	return int(d / time.Second)
}
