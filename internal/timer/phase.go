// Package timer holds the Pomodoro state machine and the timed-wait loop
// that drives it. Time, display and alerting are injected so the loop can be
// exercised without a terminal or a real clock.
package timer

import (
	"fmt"
	"time"

	"pomodoro/internal/config"
)

// Phase is one of the three timer states.
type Phase int

const (
	Work Phase = iota
	ShortBreak
	LongBreak
)

// String returns the short name used in logs and on the control socket.
func (p Phase) String() string {
	switch p {
	case Work:
		return "Work"
	case ShortBreak:
		return "ShortBreak"
	case LongBreak:
		return "LongBreak"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Label returns the human readable text shown on the status line.
func (p Phase) Label() string {
	switch p {
	case Work:
		return "Work in progress"
	case ShortBreak:
		return "Short Break"
	case LongBreak:
		return "Long Break"
	default:
		return p.String()
	}
}

// ParsePhase is the inverse of Phase.String. Matching is case sensitive.
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "Work":
		return Work, nil
	case "ShortBreak":
		return ShortBreak, nil
	case "LongBreak":
		return LongBreak, nil
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// Duration returns how long p lasts under cfg.
func (p Phase) Duration(cfg config.Config) time.Duration {
	switch p {
	case ShortBreak:
		return cfg.ShortBreakDuration
	case LongBreak:
		return cfg.LongBreakDuration
	default:
		return cfg.WorkDuration
	}
}
