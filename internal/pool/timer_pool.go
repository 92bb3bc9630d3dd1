// Package pool pools the timers of the HSMS protocol timeouts.
package pool

import (
	"sync"
	"time"
)

var timerPool sync.Pool

// GetTimer returns a timer that fires after d. Return it with PutTimer.
//
// Stop and Reset discard pending expirations since Go 1.23, so a pooled timer never delivers
// a stale tick.
func GetTimer(d time.Duration) *time.Timer {
	if t, ok := timerPool.Get().(*time.Timer); ok {
		t.Reset(d)
		return t
	}

	return time.NewTimer(d)
}

// PutTimer stops t and returns it to the pool. t must not be used afterwards.
func PutTimer(t *time.Timer) {
	t.Stop()
	timerPool.Put(t)
}

// Sleep waits for d and reports true, or reports false as soon as done is closed.
func Sleep(done <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-done:
			return false
		default:
			return true
		}
	}

	t := GetTimer(d)
	defer PutTimer(t)

	select {
	case <-done:
		return false
	case <-t.C:
		return true
	}
}
