// Package ipc is the local control socket: a running timer answers JSON
// commands on a Unix socket so another process can pause, resume, query or
// stop it.
package ipc

import (
	"time"

	"pomodoro/internal/timer"
)

// Command represents a command sent over the socket
type Command struct {
	Name string `json:"name"`
}

// Response represents a response sent back over the socket
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    *StatusData `json:"data,omitempty"`
}

const (
	CmdPing        = "ping"
	CmdGetStatus   = "get_status"
	CmdPause       = "pause"
	CmdResume      = "resume"
	CmdTogglePause = "toggle_pause"
	CmdQuit        = "quit"
)

// StatusData is the get_status payload.
type StatusData struct {
	Phase           string  `json:"phase"`
	CyclesCompleted uint    `json:"cycles_completed"`
	Paused          bool    `json:"paused"`
	ElapsedSecs     float64 `json:"elapsed_secs"`
	RemainingSecs   float64 `json:"remaining_secs"`
}

func newStatusData(s timer.Snapshot) *StatusData {
	return &StatusData{
		Phase:           s.Phase.String(),
		CyclesCompleted: s.CyclesCompleted,
		Paused:          s.Paused,
		ElapsedSecs:     s.Elapsed.Round(time.Second).Seconds(),
		RemainingSecs:   s.Remaining.Round(time.Second).Seconds(),
	}
}

// CurrentPhase decodes the phase name sent on the wire.
func (d *StatusData) CurrentPhase() (timer.Phase, error) {
	return timer.ParsePhase(d.Phase)
}
