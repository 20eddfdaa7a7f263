// Package continuation implements the chunked-streaming handoff a handler
// uses to take over a connection and push output incrementally instead of
// returning a single synchronous Response — the mechanism Server-Sent
// Events is built on.
package continuation

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"
)

// Stream is the duplex view of the connection a Continuation drives. It is
// deliberately narrow: a continuation writes chunks and can probe whether
// the peer is still there, nothing more.
type Stream interface {
	// WriteHeader sends the status line and headers for a chunked,
	// keep-alive response with the given content type. It is a no-op if
	// already called once.
	WriteHeader(contentType string) error

	// WriteChunk sends one HTTP/1.1 chunk. An empty chunk is a valid
	// no-op write used purely to exercise the connection.
	WriteChunk(data []byte) error

	// SetTimeout arms an I/O deadline for the next write; DisableTimeout
	// clears it. Continuations that idle for long stretches (an SSE feed
	// with no messages) disable the timeout rather than fighting it.
	SetTimeout(d time.Duration)
	DisableTimeout()

	// ProbeConnectionOK reports the last observed state of the half-duplex
	// close-detection read: false once the peer has gone away.
	ProbeConnectionOK() bool
}

// Continuation owns a connection from the moment a handler hands it the
// stream until the handler is done producing output. It implements
// core/http.Continuation so a Response can carry one without this package
// creating an import cycle with core/http.
type Continuation struct {
	conn         net.Conn
	w            *bufio.Writer
	serverHeader string
	uuid         string

	headerWritten bool
	probeOK       atomic.Bool
	probeStarted  atomic.Bool

	notifyClosed func()
}

// New creates a Continuation bound to conn. serverHeader is the Server
// header value to send; uuid correlates log lines for this request.
func New(conn net.Conn, serverHeader, uuid string) *Continuation {
	return &Continuation{
		conn:         conn,
		w:            bufio.NewWriter(conn),
		serverHeader: serverHeader,
		uuid:         uuid,
	}
}

// Detached always returns true: once a handler has obtained a
// Continuation, the session must stop writing to the connection itself.
func (c *Continuation) Detached() bool { return true }

// OnConnectionClosed registers a callback invoked the moment the
// half-duplex probe detects the peer has disconnected.
func (c *Continuation) OnConnectionClosed(fn func()) {
	c.notifyClosed = fn
}

// WriteHeader writes the status line and chunked-transfer headers, then
// starts the background half-duplex probe read. Calling it more than once
// is a no-op, matching the lazy "initialize on first sse_send" behaviour
// this is grounded on.
func (c *Continuation) WriteHeader(contentType string) error {
	if c.headerWritten {
		return nil
	}
	c.headerWritten = true

	header := "HTTP/1.1 200 OK\r\n" +
		"Server: " + c.serverHeader + "\r\n" +
		"Content-Type: " + contentType + "\r\n" +
		"Connection: keep-alive\r\n" +
		"Transfer-Encoding: chunked\r\n" +
		"\r\n"
	if _, err := c.w.WriteString(header); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return err
	}

	c.startProbe()
	return nil
}

// startProbe launches the one-byte half-duplex read that exists purely to
// detect the peer closing the connection while this continuation is
// otherwise only ever writing to it. It is not request data — a real
// client never sends bytes on an SSE connection — so any read completing
// at all (success, EOF, or error) means "the connection is no longer
// usable for more writes, either."
func (c *Continuation) startProbe() {
	if !c.probeStarted.CompareAndSwap(false, true) {
		return
	}
	c.probeOK.Store(true)
	go func() {
		var buf [1]byte
		_, _ = c.conn.Read(buf[:])
		c.probeOK.Store(false)
		if c.notifyClosed != nil {
			c.notifyClosed()
		}
		_ = c.conn.Close()
	}()
}

// WriteChunk writes data as one HTTP/1.1 chunk. An empty chunk is written
// as a legitimate zero-length chunk, not the terminating chunk — callers
// use Close for that — so a continuation can send an empty keep-alive
// comment line without ending the stream.
func (c *Continuation) WriteChunk(data []byte) error {
	if _, err := c.w.WriteString(strconv.FormatInt(int64(len(data)), 16)); err != nil {
		return err
	}
	if _, err := c.w.WriteString("\r\n"); err != nil {
		return err
	}
	if len(data) > 0 {
		if _, err := c.w.Write(data); err != nil {
			return err
		}
	}
	if _, err := c.w.WriteString("\r\n"); err != nil {
		return err
	}
	return c.w.Flush()
}

// Close writes the terminating zero-length chunk that ends chunked
// transfer encoding, then closes the underlying connection. The
// session itself took no lock on the connection past the handoff, so
// this is the only place that ends the connection's life on the
// graceful path; the half-duplex probe closes it on the other, peer
// initiated path.
func (c *Continuation) Close() error {
	if _, err := c.w.WriteString("0\r\n\r\n"); err != nil {
		_ = c.conn.Close()
		return err
	}
	err := c.w.Flush()
	_ = c.conn.Close()
	return err
}

// SetTimeout arms conn's write deadline d from now.
func (c *Continuation) SetTimeout(d time.Duration) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(d))
}

// DisableTimeout clears any write deadline.
func (c *Continuation) DisableTimeout() {
	_ = c.conn.SetWriteDeadline(time.Time{})
}

// ProbeConnectionOK reports whether the peer is still connected: it
// returns false once the half-duplex probe has observed the peer
// disconnect. Before WriteHeader is called (the probe hasn't started yet)
// it optimistically returns true.
func (c *Continuation) ProbeConnectionOK() bool {
	if !c.probeStarted.Load() {
		return true
	}
	return c.probeOK.Load()
}

var _ Stream = (*Continuation)(nil)

// errClosed is a sentinel used by callers that want a uniform error to
// compare against when a write happens after the probe already observed
// disconnect.
var errClosed = fmt.Errorf("continuation: connection closed")

// ErrConnectionClosed is returned by WriteChunk callers that choose to
// check ProbeConnectionOK first and want a named error for the case where
// they write anyway.
func ErrConnectionClosed() error { return errClosed }
