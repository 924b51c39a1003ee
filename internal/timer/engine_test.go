package timer

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/internal/clock"
	"pomodoro/internal/config"
)

func testConfig(cycles uint) config.Config {
	cfg := config.Default()
	cfg.WorkDuration = 5 * time.Second
	cfg.ShortBreakDuration = 1 * time.Second
	cfg.LongBreakDuration = 2 * time.Second
	cfg.CyclesBeforeLongBreak = cycles
	return cfg
}

func newTestEngine(t *testing.T, cfg config.Config, opts ...Option) (*Engine, *Control, *clock.Fake) {
	t.Helper()
	ctrl := NewControl()
	fake := clock.NewFake(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	opts = append([]Option{WithClock(fake)}, opts...)
	return NewEngine(cfg, ctrl, opts...), ctrl, fake
}

func TestInitialState(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(4))

	s := engine.State()
	assert.Equal(t, Work, s.Phase())
	assert.Zero(t, s.CyclesCompleted())
	assert.False(t, s.Paused())
	assert.False(t, s.ExitRequested())
}

func TestNextVisitsShortBreaksBeforeLongBreak(t *testing.T) {
	for n := uint(1); n <= 6; n++ {
		engine, _, _ := newTestEngine(t, testConfig(n))

		var got []Phase
		for engine.State().Phase() != LongBreak {
			got = append(got, engine.Next())
			require.LessOrEqual(t, len(got), int(2*n), "no long break after %d cycles", n)
		}

		var want []Phase
		for i := uint(1); i < n; i++ {
			want = append(want, ShortBreak, Work)
		}
		want = append(want, LongBreak)
		assert.Equal(t, want, got, "cycles=%d", n)
		assert.Equal(t, n, engine.State().CyclesCompleted())
	}
}

func TestNextWithTwoCycles(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(2))

	assert.Equal(t, ShortBreak, engine.Next())
	assert.Equal(t, Work, engine.Next())
	assert.Equal(t, LongBreak, engine.Next())
	assert.Equal(t, uint(2), engine.State().CyclesCompleted())
}

func TestNextResetsCyclesAfterLongBreak(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig(2))

	phases := make([]Phase, 0, 8)
	for i := 0; i < 8; i++ {
		phases = append(phases, engine.Next())
	}

	assert.Equal(t, []Phase{ShortBreak, Work, LongBreak, Work, ShortBreak, Work, LongBreak, Work}, phases)
	assert.Zero(t, engine.State().CyclesCompleted())
}

func TestNextPhaseIsDeterministic(t *testing.T) {
	tests := []struct {
		phase      Phase
		cycles     uint
		threshold  uint
		wantPhase  Phase
		wantCycles uint
	}{
		{Work, 0, 4, ShortBreak, 1},
		{Work, 3, 4, LongBreak, 4},
		{Work, 0, 1, LongBreak, 1},
		{ShortBreak, 2, 4, Work, 2},
		{LongBreak, 4, 4, Work, 0},
	}

	for _, tt := range tests {
		for i := 0; i < 3; i++ {
			phase, cycles := NextPhase(tt.phase, tt.cycles, tt.threshold)
			assert.Equal(t, tt.wantPhase, phase, "%s/%d/%d", tt.phase, tt.cycles, tt.threshold)
			assert.Equal(t, tt.wantCycles, cycles, "%s/%d/%d", tt.phase, tt.cycles, tt.threshold)
		}
	}
}

func TestRunPhaseCompletes(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	notifier := NewMockNotifier(mockCtrl)
	progress := NewMockProgress(mockCtrl)
	sink := NewMockStatusSink(mockCtrl)

	gomock.InOrder(
		progress.EXPECT().Start(5*time.Second),
		progress.EXPECT().Advance(1).Times(5),
		progress.EXPECT().Finish(),
	)
	notifier.EXPECT().Alert(Work).Times(1)
	sink.EXPECT().Update(gomock.Any()).Times(50)

	engine, _, fake := newTestEngine(t, testConfig(4),
		WithNotifier(notifier), WithProgress(progress), WithStatusSink(sink))

	assert.True(t, engine.RunPhase(5*time.Second))
	assert.Equal(t, 5*time.Second, fake.Slept())
	assert.Len(t, fake.Sleeps(), 50)
	assert.Equal(t, 5*time.Second, engine.State().Elapsed())
	assert.Zero(t, engine.State().Remaining())
}

func TestRunPhaseExitBeforeStart(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	notifier := NewMockNotifier(mockCtrl) // any Alert call fails the test

	engine, ctrl, fake := newTestEngine(t, testConfig(4), WithNotifier(notifier))
	ctrl.RequestExit()

	assert.False(t, engine.RunPhase(5*time.Second))
	assert.Empty(t, fake.Sleeps())
}

func TestRunPhaseExitDuringPhase(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	notifier := NewMockNotifier(mockCtrl)

	engine, ctrl, fake := newTestEngine(t, testConfig(4), WithNotifier(notifier))
	fake.OnSleep(func(n int, _ time.Duration) {
		if n == 20 {
			ctrl.RequestExit()
		}
	})

	assert.False(t, engine.RunPhase(5*time.Second))
	assert.Len(t, fake.Sleeps(), 20)
	assert.Equal(t, 2*time.Second, engine.State().Elapsed())
}

func TestRunPhasePauseFreezesElapsed(t *testing.T) {
	var updates int
	var pausedElapsed []time.Duration
	sink := SinkFunc(func(s *State) {
		updates++
		if s.Paused() {
			pausedElapsed = append(pausedElapsed, s.Elapsed())
		}
	})
	var alerts []Phase
	notifier := NotifierFunc(func(p Phase) { alerts = append(alerts, p) })

	engine, ctrl, fake := newTestEngine(t, testConfig(4), WithStatusSink(sink), WithNotifier(notifier))
	fake.OnSleep(func(n int, _ time.Duration) {
		switch n {
		case 10:
			ctrl.SetPaused(true)
		case 30:
			ctrl.SetPaused(false)
		}
	})

	require.True(t, engine.RunPhase(5*time.Second))

	// 1s running, 2s paused, 4s running.
	assert.Len(t, fake.Sleeps(), 70)
	assert.Equal(t, 7*time.Second, fake.Slept())
	assert.Equal(t, 70, updates)
	require.Len(t, pausedElapsed, 20)
	for _, e := range pausedElapsed {
		assert.Equal(t, time.Second, e)
	}
	assert.Equal(t, 5*time.Second, engine.State().Elapsed())
	assert.Equal(t, []Phase{Work}, alerts)
}

func TestRunPhaseExitWhilePaused(t *testing.T) {
	var alerts int
	engine, ctrl, fake := newTestEngine(t, testConfig(4),
		WithNotifier(NotifierFunc(func(Phase) { alerts++ })))
	ctrl.SetPaused(true)
	fake.OnSleep(func(n int, _ time.Duration) {
		if n == 5 {
			ctrl.RequestExit()
		}
	})

	assert.False(t, engine.RunPhase(5*time.Second))
	assert.Zero(t, alerts)
	assert.Zero(t, engine.State().Elapsed())
	assert.Len(t, fake.Sleeps(), 5)
}

func TestRunPhaseCustomTick(t *testing.T) {
	engine, _, fake := newTestEngine(t, testConfig(4), WithTick(250*time.Millisecond))

	assert.True(t, engine.RunPhase(time.Second))
	assert.Len(t, fake.Sleeps(), 4)
	for _, d := range fake.Sleeps() {
		assert.Equal(t, 250*time.Millisecond, d)
	}
}

func TestStartRunsPhasesUntilExit(t *testing.T) {
	var alerts []Phase
	var ctrl *Control
	notifier := NotifierFunc(func(p Phase) {
		alerts = append(alerts, p)
		if len(alerts) == 5 {
			ctrl.RequestExit()
		}
	})

	var engine *Engine
	var fake *clock.Fake
	engine, ctrl, fake = newTestEngine(t, testConfig(2), WithNotifier(notifier))

	engine.Start()

	assert.Equal(t, []Phase{Work, ShortBreak, Work, LongBreak, Work}, alerts)
	// 5s + 1s + 5s + 2s + 5s
	assert.Equal(t, 18*time.Second, fake.Slept())
	assert.Equal(t, ShortBreak, engine.State().Phase())
	assert.Equal(t, uint(1), engine.State().CyclesCompleted())
}

func TestStartStopsMidPhaseWithoutAdvancing(t *testing.T) {
	var alerts int
	engine, ctrl, fake := newTestEngine(t, testConfig(4),
		WithNotifier(NotifierFunc(func(Phase) { alerts++ })))
	fake.OnSleep(func(n int, _ time.Duration) {
		if n == 55 { // half a second into the short break
			ctrl.RequestExit()
		}
	})

	engine.Start()

	assert.Equal(t, 1, alerts)
	assert.Equal(t, ShortBreak, engine.State().Phase())
	assert.Equal(t, uint(1), engine.State().CyclesCompleted())
}

func TestStartReturnsImmediatelyWhenExitAlreadySet(t *testing.T) {
	engine, ctrl, fake := newTestEngine(t, testConfig(4))
	ctrl.RequestExit()

	engine.Start()

	assert.Empty(t, fake.Sleeps())
	assert.Equal(t, Work, engine.State().Phase())
}
