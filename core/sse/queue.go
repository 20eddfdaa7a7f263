package sse

import (
	"sync"
	"time"
)

// Queue is the producer-facing convenience layer above Base: callers just
// Enqueue text messages (or structured Events) and a single background
// worker drains and sends them in order, without the producer ever
// touching the connection directly.
//
// The worker's wait is expressed with a buffered, size-1 "wake" channel
// instead of a condition variable: Enqueue does a non-blocking send to
// wake, which is exactly "cancel one pending wait" — at most one
// outstanding wake-up is ever needed because the worker re-checks the
// queue from the top every time it wakes.
type Queue struct {
	base *Base

	mu      sync.Mutex
	pending [][]byte
	active  bool

	wake chan struct{}
	done chan struct{}
}

// NewQueue creates an active Queue delivering through base. Messages
// enqueued before Run starts are kept and sent once it does; callers
// construct a Queue and call Run once they're ready to start serving.
func NewQueue(base *Base) *Queue {
	return &Queue{
		base:   base,
		active: true,
		wake:   make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Enqueue appends a pre-formatted SSE event to the send queue and wakes
// the worker if it's idling. It is a no-op once the queue has been
// closed.
func (q *Queue) Enqueue(formattedEvent []byte) {
	q.mu.Lock()
	if !q.active {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, formattedEvent)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
		// A wake-up is already pending; the worker will see this message
		// on its next drain regardless.
	}
}

// EnqueueEvent formats ev and enqueues it.
func (q *Queue) EnqueueEvent(ev Event) {
	q.Enqueue(FormatEvent(ev))
}

// Run drains the queue and sends each message in order until Close is
// called, a write fails (the remaining queue is discarded — at-most-once
// delivery per message), or the half-duplex probe reports the peer gone.
// It blocks until the worker stops, so callers run it in its own
// goroutine — this is the "single worker inside the continuation" the
// session hands off to.
func (q *Queue) Run() {
	defer close(q.done)

	for {
		q.mu.Lock()
		if !q.active {
			q.mu.Unlock()
			return
		}
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, msg := range batch {
			if !q.base.ProbeConnectionOK() {
				q.Close()
				return
			}
			if err := q.base.Send(msg); err != nil {
				q.Close()
				return
			}
		}

		select {
		case <-q.wake:
			continue
		case <-time.After(DefaultIdleTimeout):
			continue
		}
	}
}

// Close marks the queue inactive and wakes the worker so it observes the
// change promptly instead of waiting out the idle timer. Safe to call more
// than once, and safe to call from the half-duplex probe's
// on_connection_closed callback — this is that callback's implementation.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.active {
		q.mu.Unlock()
		return
	}
	q.active = false
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until the worker goroutine started by Run has returned.
func (q *Queue) Wait() {
	<-q.done
}
