package session

import (
	"sync"
	"time"
)

// Ticker produces a periodic signal that can be cancelled. The session uses
// one signal for the one second countdown and one for balance polling, and
// holds the cancel functions so that cancelling both is part of every
// transition out of the waiting state.
type Ticker interface {
	// Tick returns a channel that receives roughly every d, and a function
	// that stops the channel from receiving. Cancel may be called multiple
	// times.
	Tick(d time.Duration) (<-chan time.Time, func())
}

// TimeTicker implements Ticker using the wall clock.
type TimeTicker struct{}

var _ Ticker = TimeTicker{}

// Tick returns a channel fed by a time.Ticker, and a cancel function that
// stops it.
func (TimeTicker) Tick(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	cancelOnce := sync.Once{}
	cancel := func() {
		cancelOnce.Do(t.Stop)
	}
	return t.C, cancel
}
