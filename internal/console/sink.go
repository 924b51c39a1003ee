// Package console is the plain terminal frontend: a fixed status region
// redrawn in place with ANSI cursor movement, a bell for alerts, and raw
// keyboard input.
package console

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"pomodoro/internal/timer"
)

// Screen rows (1-based) of the status region.
const (
	statusRow   = 1
	pauseRow    = 2
	progressRow = 3
	cursorRow   = 4
)

var phaseColors = map[timer.Phase]lipgloss.Color{
	timer.Work:       lipgloss.Color("205"),
	timer.ShortBreak: lipgloss.Color("42"),
	timer.LongBreak:  lipgloss.Color("39"),
}

// Sink draws the status region. It implements timer.StatusSink,
// timer.Progress and timer.Notifier; all writes share one lock because the
// listener goroutine redraws the pause line while the engine is drawing.
type Sink struct {
	mu  sync.Mutex
	out io.Writer
	bar progress.Model

	total   time.Duration
	elapsed int
}

func NewSink(out io.Writer) *Sink {
	return &Sink{
		out: out,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
	}
}

// Update rewrites the phase and pause lines.
func (s *Sink) Update(st *timer.State) {
	style := lipgloss.NewStyle().Bold(true).Foreground(phaseColors[st.Phase()])
	status := fmt.Sprintf("Pomodoro Timer: %s. Press 'q' to exit", style.Render(st.Phase().Label()))

	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	writeRow(&b, statusRow, status)
	writeRow(&b, pauseRow, PauseHint(st.Paused()))
	s.flush(&b)
}

// ShowPaused rewrites only the pause line.
func (s *Sink) ShowPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	writeRow(&b, pauseRow, PauseHint(paused))
	s.flush(&b)
}

func (s *Sink) Start(total time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = total
	s.elapsed = 0
	s.drawProgress()
}

func (s *Sink) Advance(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed += seconds
	s.drawProgress()
}

// Finish clears the progress line.
func (s *Sink) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	writeRow(&b, progressRow, "")
	s.flush(&b)
}

// Alert rings the terminal bell.
func (s *Sink) Alert(completed timer.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.out, string(rune(ansi.BEL))); err != nil {
		log.Printf("Failed to ring bell: %v", err)
	}
}

// Clear wipes the screen and homes the cursor.
func (s *Sink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.out, ansi.EraseEntireScreen+ansi.CursorHomePosition)
	return err
}

// Release moves the cursor below the status region so the shell prompt
// does not overwrite it.
func (s *Sink) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.out, ansi.CursorPosition(1, cursorRow)+"\r\n")
}

func (s *Sink) drawProgress() {
	var pct float64
	secs := int(s.total / time.Second)
	if secs > 0 {
		pct = float64(s.elapsed) / float64(secs)
	}
	remaining := s.total - time.Duration(s.elapsed)*time.Second
	var b strings.Builder
	writeRow(&b, progressRow, s.bar.ViewAs(pct)+" "+FormatDuration(remaining))
	s.flush(&b)
}

// flush writes b and parks the cursor under the status region.
func (s *Sink) flush(b *strings.Builder) {
	b.WriteString(ansi.CursorPosition(1, cursorRow))
	if _, err := io.WriteString(s.out, b.String()); err != nil {
		log.Printf("Failed to draw status: %v", err)
	}
}

func writeRow(b *strings.Builder, row int, text string) {
	b.WriteString(ansi.CursorPosition(1, row))
	b.WriteString(ansi.EraseEntireLine)
	b.WriteString(text)
}

// PauseHint is the second status line.
func PauseHint(paused bool) string {
	if paused {
		return "(Paused) Press 'p' to resume"
	}
	return "Press 'p' to pause"
}

// FormatDuration renders d as mm:ss, or h:mm:ss past an hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	sec := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}
