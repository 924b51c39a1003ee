// Package tcellui is a frontend that draws the timer with tcell.
package tcellui

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"pomodoro/internal/console"
	"pomodoro/internal/input"
	"pomodoro/internal/timer"
)

const (
	ctrlC    = 0x03
	barWidth = 30
)

var phaseColors = map[timer.Phase]tcell.Color{
	timer.Work:       tcell.ColorFuchsia,
	timer.ShortBreak: tcell.ColorGreen,
	timer.LongBreak:  tcell.ColorDodgerBlue,
}

// Screen draws the status on a tcell.Screen and reads keys from its event
// queue.
type Screen struct {
	screen tcell.Screen

	mu      sync.Mutex
	status  timer.Snapshot
	paused  bool
	total   time.Duration
	elapsed int
	running bool

	keys   chan rune
	done   chan struct{}
	opened bool
	once   sync.Once
}

// New wraps s. Passing nil opens the real terminal via tcell.NewScreen on Open.
func New(s tcell.Screen) *Screen {
	return &Screen{
		screen: s,
		keys:   make(chan rune, 16),
		done:   make(chan struct{}),
	}
}

func (s *Screen) Open() error {
	if s.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to create screen: %w", err)
		}
		s.screen = screen
	}
	if err := s.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	s.opened = true
	s.screen.HideCursor()
	s.screen.Clear()
	go s.pollEvents()
	return nil
}

// Close finalizes the screen, which also ends the event loop.
func (s *Screen) Close() error {
	s.once.Do(func() {
		if !s.opened {
			return
		}
		s.screen.Fini()
		<-s.done
	})
	return nil
}

func (s *Screen) pollEvents() {
	defer close(s.done)
	defer close(s.keys)
	for {
		ev := s.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return
		case *tcell.EventResize:
			s.screen.Sync()
			s.mu.Lock()
			s.draw()
			s.mu.Unlock()
		case *tcell.EventKey:
			var r rune
			switch ev.Key() {
			case tcell.KeyCtrlC:
				r = ctrlC
			case tcell.KeyRune:
				r = ev.Rune()
			default:
				continue
			}
			select {
			case s.keys <- r:
			default:
				log.Printf("Dropping key %q, listener is behind", r)
			}
		}
	}
}

func (s *Screen) Update(st *timer.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st.Snapshot()
	s.paused = s.status.Paused
	s.draw()
}

func (s *Screen) ShowPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
	s.draw()
}

func (s *Screen) Start(total time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total, s.elapsed, s.running = total, 0, true
	s.draw()
}

func (s *Screen) Advance(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed += seconds
	s.draw()
}

func (s *Screen) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.draw()
}

func (s *Screen) Alert(completed timer.Phase) {
	if err := s.screen.Beep(); err != nil {
		log.Printf("Failed to ring bell: %v", err)
	}
}

// draw repaints the whole status area. Callers hold mu.
func (s *Screen) draw() {
	s.screen.Clear()
	plain := tcell.StyleDefault
	phase := plain.Foreground(phaseColors[s.status.Phase]).Bold(true)

	x := drawText(s.screen, 0, 0, plain, "Pomodoro Timer: ")
	x = drawText(s.screen, x, 0, phase, s.status.Phase.Label())
	drawText(s.screen, x, 0, plain, ". Press 'q' to exit")
	drawText(s.screen, 0, 1, plain.Dim(true), console.PauseHint(s.paused))

	if s.running {
		var filled int
		if secs := int(s.total / time.Second); secs > 0 {
			filled = min(barWidth, s.elapsed*barWidth/secs)
		}
		for i := 0; i < barWidth; i++ {
			r := '░'
			if i < filled {
				r = '█'
			}
			s.screen.SetContent(i, 2, r, nil, phase)
		}
		remaining := s.total - time.Duration(s.elapsed)*time.Second
		drawText(s.screen, barWidth+1, 2, plain, console.FormatDuration(remaining))
	}
	drawText(s.screen, 0, 3, plain, fmt.Sprintf("Cycles completed: %d", s.status.CyclesCompleted))
	s.screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) int {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

func (s *Screen) Keys() <-chan rune { return s.keys }

// Err is always nil; the event queue only ends when the screen is finalized.
func (s *Screen) Err() error { return nil }

func (s *Screen) StatusSink() timer.StatusSink { return s }
func (s *Screen) Notifier() timer.Notifier     { return s }
func (s *Screen) Progress() timer.Progress     { return s }
func (s *Screen) KeySource() input.KeySource   { return s }
