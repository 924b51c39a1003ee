// Package clock abstracts time so the timer loop can run against the wall
// clock in production and a simulated clock in tests.
package clock

import "time"

// Clock supplies the current time and a blocking sleep.
// Sleep is not cancellable; callers poll their own flags between calls.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

// New returns a Clock backed by the operating system's monotonic clock.
func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
