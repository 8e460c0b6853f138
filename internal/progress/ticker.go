package progress

import (
	"sync"
	"time"
)

// DefaultTickInterval approximates a per-frame cadence for terminal rendering.
const DefaultTickInterval = 50 * time.Millisecond

// Ticker invokes a callback on a fixed cadence until stopped. It exists so
// the estimator's ticking loop is a cancellable abstraction rather than a
// detail of any particular scheduler; Stop is idempotent and guarantees no
// further callbacks once it returns.
type Ticker struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartTicker runs fn every interval on a new goroutine. An interval <= 0
// falls back to DefaultTickInterval.
func StartTicker(interval time.Duration, fn func()) *Ticker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	t := &Ticker{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-tick.C:
				fn()
			}
		}
	}()
	return t
}

// Stop cancels the loop and waits for the in-flight callback (if any) to
// return, so callers can rely on no ticks after Stop.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}
