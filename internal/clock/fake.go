package clock

import (
	"sync"
	"time"
)

// Fake is a deterministic Clock. Sleep never blocks: it records the
// requested duration and moves the simulated time forward by exactly that much.
type Fake struct {
	mu      sync.Mutex
	current time.Time
	sleeps  []time.Duration
	onSleep func(n int, d time.Duration)
}

// NewFake returns a Fake clock set to start.
func NewFake(start time.Time) *Fake {
	return &Fake{current: start}
}

// Now returns the simulated time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Sleep records d and advances the simulated time.
func (f *Fake) Sleep(d time.Duration) {
	f.mu.Lock()
	f.current = f.current.Add(d)
	f.sleeps = append(f.sleeps, d)
	n := len(f.sleeps)
	hook := f.onSleep
	f.mu.Unlock()

	if hook != nil {
		hook(n, d)
	}
}

// Advance moves the simulated time forward without recording a sleep.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}

// OnSleep installs a hook that runs after every recorded sleep, outside the
// clock's lock. n is the 1-based index of the sleep.
func (f *Fake) OnSleep(hook func(n int, d time.Duration)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onSleep = hook
}

// Sleeps returns a copy of every recorded sleep, in call order.
func (f *Fake) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.sleeps))
	copy(out, f.sleeps)
	return out
}

// Slept returns the sum of all recorded sleeps.
func (f *Fake) Slept() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total time.Duration
	for _, d := range f.sleeps {
		total += d
	}
	return total
}
