package timer

import "time"

// StatusSink renders the current state. Update is called on every tick, so
// implementations must be cheap and must not block for long.
type StatusSink interface {
	Update(s *State)
}

// Notifier signals that a phase ran to completion.
type Notifier interface {
	Alert(completed Phase)
}

// Progress is a coarse indicator advanced once per elapsed whole second.
type Progress interface {
	Start(total time.Duration)
	Advance(seconds int)
	Finish()
}

type nopSink struct{}

func (nopSink) Update(*State) {}

type nopNotifier struct{}

func (nopNotifier) Alert(Phase) {}

type nopProgress struct{}

func (nopProgress) Start(time.Duration) {}
func (nopProgress) Advance(int)         {}
func (nopProgress) Finish()             {}

var (
	NopSink     StatusSink = nopSink{}
	NopNotifier Notifier   = nopNotifier{}
	NopProgress Progress   = nopProgress{}
)

// MultiSink fans Update out to every sink in order.
type MultiSink []StatusSink

func (m MultiSink) Update(s *State) {
	for _, sink := range m {
		sink.Update(s)
	}
}

// SinkFunc adapts a function to StatusSink.
type SinkFunc func(s *State)

func (f SinkFunc) Update(s *State) { f(s) }

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(completed Phase)

func (f NotifierFunc) Alert(completed Phase) { f(completed) }
