// Package app wires the timer engine, a frontend, the keyboard listener and
// the optional control socket into one run.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"

	"pomodoro/internal/clock"
	"pomodoro/internal/config"
	"pomodoro/internal/input"
	"pomodoro/internal/ipc"
	"pomodoro/internal/timer"
)

// ErrEngineFailed reports that the engine goroutine died instead of
// stopping on an exit request.
var ErrEngineFailed = errors.New("timer engine failed")

// Frontend is a terminal presentation: it owns raw mode between Open and
// Close and supplies the engine's sinks and the listener's keys.
type Frontend interface {
	Open() error
	Close() error
	StatusSink() timer.StatusSink
	Notifier() timer.Notifier
	Progress() timer.Progress
	KeySource() input.KeySource
	ShowPaused(paused bool)
}

type App struct {
	cfg      config.Config
	frontend Frontend
	ctrl     *timer.Control
	clock    clock.Clock
	tick     time.Duration
	poll     time.Duration
	server   *ipc.Server
}

type Option func(*App)

func WithClock(c clock.Clock) Option {
	return func(a *App) { a.clock = c }
}

func WithTick(d time.Duration) Option {
	return func(a *App) { a.tick = d }
}

func WithPollInterval(d time.Duration) Option {
	return func(a *App) { a.poll = d }
}

func NewApp(cfg config.Config, frontend Frontend, opts ...Option) *App {
	a := &App{
		cfg:      cfg,
		frontend: frontend,
		ctrl:     timer.NewControl(),
		clock:    clock.New(),
		tick:     timer.DefaultTick,
		poll:     input.DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Control exposes the shared pause and exit flags.
func (a *App) Control() *timer.Control { return a.ctrl }

// Run blocks until the user quits, ctx is cancelled or a signal arrives.
// A clean quit returns nil.
func (a *App) Run(ctx context.Context) (err error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Starting Pomodoro Timer...")
	log.Printf("Config: %+v", a.cfg)

	if err := a.frontend.Open(); err != nil {
		return multierr.Append(fmt.Errorf("failed to open terminal: %w", err), a.frontend.Close())
	}
	defer func() { err = multierr.Append(err, a.cleanup()) }()

	sinks := timer.MultiSink{a.frontend.StatusSink()}
	if a.cfg.Control {
		server := ipc.NewServer(a.cfg.SocketPath, a.ctrl)
		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start control socket: %w", err)
		}
		a.server = server
		sinks = append(sinks, server)
	}

	engine := timer.NewEngine(a.cfg, a.ctrl,
		timer.WithClock(a.clock),
		timer.WithStatusSink(sinks),
		timer.WithNotifier(a.frontend.Notifier()),
		timer.WithProgress(a.frontend.Progress()),
		timer.WithTick(a.tick),
	)

	var wg conc.WaitGroup
	engineDone := make(chan struct{})
	wg.Go(func() {
		defer close(engineDone)
		engine.Start()
	})

	listener := input.NewListener(a.ctrl, a.frontend.KeySource(),
		input.WithPollInterval(a.poll),
		input.WithPauseRefresh(a.frontend.ShowPaused),
	)
	listenErr := listener.Run(ctx, engineDone)
	if listenErr != nil {
		log.Printf("Listener error: %v", listenErr)
	}

	a.ctrl.RequestExit()
	if r := wg.WaitAndRecover(); r != nil {
		log.Printf("Engine panicked: %s", r.String())
		err = multierr.Append(err, fmt.Errorf("%w: %w", ErrEngineFailed, r.AsError()))
	}
	err = multierr.Append(err, listenErr)

	log.Println("Pomodoro Timer finished.")
	return err
}

// cleanup closes the control socket, then the frontend.
func (a *App) cleanup() error {
	log.Println("Running cleanup...")
	var err error
	if a.server != nil {
		err = multierr.Append(err, a.server.Close())
	}
	err = multierr.Append(err, a.frontend.Close())
	log.Println("Cleanup finished.")
	return err
}
