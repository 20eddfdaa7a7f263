// Package sse provides Server-Sent Events on top of core/continuation: a
// base that sends raw formatted events, and a queue-based convenience
// layer for producers that just want to enqueue text messages. The
// core/sse/room subpackage fans a stream out to many clients, one layer
// above this single-connection base, and is what the chat room example
// is built on.
package sse

import (
	"fmt"
	"time"

	"github.com/searchktools/embedhttp/core/continuation"
)

// Base wraps a continuation.Stream with the SSE wire format: lazy header
// initialisation on first send, and chunked delivery of pre-formatted
// event text. It implements exactly the "SSE base flow" the queue layer
// above it is built on.
type Base struct {
	stream      continuation.Stream
	initialized bool
}

// NewBase wraps stream for SSE use.
func NewBase(stream continuation.Stream) *Base {
	return &Base{stream: stream}
}

// Send writes one pre-formatted SSE event (already ending in "\n\n") as a
// single chunk, lazily sending the SSE response headers first. Writes are
// wrapped in DisableTimeout so arbitrarily long idle gaps between events
// never trip the connection's rolling I/O deadline.
func (b *Base) Send(formattedEvent []byte) error {
	if !b.initialized {
		if err := b.stream.WriteHeader("text/event-stream"); err != nil {
			return err
		}
		b.initialized = true
	}
	b.stream.DisableTimeout()
	return b.stream.WriteChunk(formattedEvent)
}

// ProbeConnectionOK reports whether the half-duplex probe still sees the
// peer as connected.
func (b *Base) ProbeConnectionOK() bool {
	return b.stream.ProbeConnectionOK()
}

// Event is a single Server-Sent Event; zero-valued fields are omitted from
// the wire format.
type Event struct {
	ID    string
	Event string
	Data  string
	Retry int // milliseconds
}

// FormatEvent renders ev per the SSE wire grammar: optional id/event/retry
// fields, then data, terminated by a blank line.
func FormatEvent(ev Event) []byte {
	var buf []byte
	if ev.ID != "" {
		buf = append(buf, fmt.Sprintf("id: %s\n", ev.ID)...)
	}
	if ev.Event != "" {
		buf = append(buf, fmt.Sprintf("event: %s\n", ev.Event)...)
	}
	if ev.Retry > 0 {
		buf = append(buf, fmt.Sprintf("retry: %d\n", ev.Retry)...)
	}
	if ev.Data != "" {
		buf = append(buf, fmt.Sprintf("data: %s\n", ev.Data)...)
	}
	buf = append(buf, '\n')
	return buf
}

// DefaultIdleTimeout is how long the queue worker waits for a new message
// before re-checking whether it should keep running.
const DefaultIdleTimeout = 30 * time.Second
