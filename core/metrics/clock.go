package metrics

import (
	"sync/atomic"
	"time"
)

// atomicTime stores a time.Time behind an atomic pointer so "touched on
// every mutation" (spec.md Metric description) never needs a mutex on the
// hot increment path.
type atomicTime struct {
	v atomic.Pointer[time.Time]
}

func (a *atomicTime) store(t time.Time) { a.v.Store(&t) }

func (a *atomicTime) load() time.Time {
	if p := a.v.Load(); p != nil {
		return *p
	}
	return time.Time{}
}

var frozenNow atomic.Pointer[time.Time]

// Now returns the current time, or a frozen value set by SetNow. Tests use
// SetNow to pin created/updated timestamps the same way
// original_source/include/yahat/Metrics.h's static now_ override does for
// its unit tests.
func Now() time.Time {
	if p := frozenNow.Load(); p != nil {
		return *p
	}
	return time.Now()
}

// SetNow freezes the clock used for created/updated timestamps. Passing the
// zero Time un-freezes it.
func SetNow(t time.Time) {
	if t.IsZero() {
		frozenNow.Store(nil)
		return
	}
	frozenNow.Store(&t)
}
