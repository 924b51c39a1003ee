// Package tui is the full-screen frontend built on bubbletea.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pomodoro/internal/console"
	"pomodoro/internal/timer"
)

const ctrlC = 0x03

type (
	statusMsg  timer.Snapshot
	pausedMsg  bool
	startMsg   time.Duration
	advanceMsg int
	finishMsg  struct{}
	alertMsg   timer.Phase
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	hintStyle  = lipgloss.NewStyle().Faint(true)
	phaseStyle = map[timer.Phase]lipgloss.Style{
		timer.Work:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		timer.ShortBreak: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		timer.LongBreak:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
	}
)

type model struct {
	status  timer.Snapshot
	paused  bool
	total   time.Duration
	elapsed int
	running bool
	last    string
	bar     progress.Model
	keys    chan<- rune
}

func newModel(keys chan<- rune) model {
	return model{
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		keys: keys,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.forward(msg)
	case tea.WindowSizeMsg:
		if w := msg.Width - 10; w > 10 {
			m.bar.Width = min(w, 60)
		}
	case statusMsg:
		m.status = timer.Snapshot(msg)
		m.paused = msg.Paused
	case pausedMsg:
		m.paused = bool(msg)
	case startMsg:
		m.total, m.elapsed, m.running = time.Duration(msg), 0, true
	case advanceMsg:
		m.elapsed += int(msg)
	case finishMsg:
		m.running = false
	case alertMsg:
		m.last = fmt.Sprintf("%s finished at %s", timer.Phase(msg).Label(), time.Now().Format("15:04"))
	}
	return m, nil
}

// forward hands a key to the listener without blocking the event loop.
func (m model) forward(msg tea.KeyMsg) {
	var r rune
	switch msg.Type {
	case tea.KeyCtrlC:
		r = ctrlC
	case tea.KeyRunes:
		if len(msg.Runes) != 1 {
			return
		}
		r = msg.Runes[0]
	default:
		return
	}
	select {
	case m.keys <- r:
	default:
	}
}

func (m model) View() string {
	var b strings.Builder
	label := phaseStyle[m.status.Phase].Render(m.status.Phase.Label())
	b.WriteString(titleStyle.Render("Pomodoro Timer: ") + label + ". Press 'q' to exit\n")
	b.WriteString(hintStyle.Render(console.PauseHint(m.paused)) + "\n")
	if m.running {
		var pct float64
		if secs := int(m.total / time.Second); secs > 0 {
			pct = float64(m.elapsed) / float64(secs)
		}
		remaining := m.total - time.Duration(m.elapsed)*time.Second
		b.WriteString(m.bar.ViewAs(pct) + " " + console.FormatDuration(remaining) + "\n")
	} else {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Cycles completed: %d\n", m.status.CyclesCompleted)
	if m.last != "" {
		b.WriteString(hintStyle.Render(m.last) + "\n")
	}
	return b.String()
}
