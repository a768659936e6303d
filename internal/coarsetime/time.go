// Package coarsetime is a clock refreshed every Tick, for timestamps taken on
// hot paths where the precision of time.Now is not needed.
package coarsetime

import (
	"sync"
	"sync/atomic"
	"time"
)

// Tick is the refresh interval, and so the worst-case error of Now.
const Tick = 50 * time.Millisecond

var (
	now   atomic.Pointer[time.Time]
	start sync.Once
)

// Now returns the current time, at most Tick old. The refresh goroutine
// starts on the first call.
func Now() time.Time {
	start.Do(run)
	return *now.Load()
}

// Since returns the time elapsed since t, measured with Now.
func Since(t time.Time) time.Duration {
	return max(Now().Sub(t), 0)
}

func run() {
	store()
	go func() {
		ticker := time.NewTicker(Tick)
		for range ticker.C {
			store()
		}
	}()
}

func store() {
	t := time.Now()
	now.Store(&t)
}
