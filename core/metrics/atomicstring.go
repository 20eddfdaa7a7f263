package metrics

import "sync/atomic"

// atomicString stores a string behind an atomic pointer, avoiding a mutex
// for the single-word Stateset active-state field.
type atomicString struct {
	v atomic.Pointer[string]
}

func (a *atomicString) store(s string) { a.v.Store(&s) }

func (a *atomicString) load() string {
	if p := a.v.Load(); p != nil {
		return *p
	}
	return ""
}
