package http

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stream is the chunked-streaming handoff a handler uses to drive a
// connection directly instead of returning one synchronous Response —
// the shape core/continuation.Continuation satisfies. Declared here
// rather than imported so this package stays a leaf with no dependency
// on core/continuation; any type with this method set (concretely,
// *continuation.Continuation) assigns to it for free.
type Stream interface {
	WriteHeader(contentType string) error
	WriteChunk(data []byte) error
	SetTimeout(d time.Duration)
	DisableTimeout()
	ProbeConnectionOK() bool
}

// Method is one of the six verbs this library understands. Any other verb
// on the wire fails parsing with a 400.
type Method int

const (
	GET Method = iota
	PUT
	PATCH
	POST
	DELETE
	OPTIONS
)

var methodNames = [...]string{"GET", "PUT", "PATCH", "POST", "DELETE", "OPTIONS"}

func (m Method) String() string {
	if int(m) < 0 || int(m) >= len(methodNames) {
		return "UNKNOWN"
	}
	return methodNames[m]
}

// ParseMethod maps a request-line verb to a Method. ok is false for any
// verb this library does not support.
func ParseMethod(s string) (Method, bool) {
	for i, name := range methodNames {
		if name == s {
			return Method(i), true
		}
	}
	return 0, false
}

// Request is the decoded value handed to a route handler. It is owned by
// the dispatching session for the duration of one call and must not be
// mutated by the handler.
type Request struct {
	Method    Method
	Target    string
	Arguments map[string]string
	Cookies   []Cookie
	Body      []byte

	// Route is the prefix the dispatcher matched, filled in before the
	// handler runs.
	Route string

	// AuthorizationHeader is the raw Authorization header value, passed
	// verbatim to the Authenticator.
	AuthorizationHeader string

	Auth Auth

	// UUID correlates this request across log lines.
	UUID uuid.UUID

	IsHTTPS bool

	// KeepAlive reports whether this request's connection should stay
	// open for another request, per the HTTP/1.x default-and-override
	// rule (HTTP/1.1 defaults to true, HTTP/1.0 defaults to false).
	KeepAlive bool

	// AcceptsGzip records whether the client's Accept-Encoding allows a
	// gzip-compressed response body.
	AcceptsGzip bool

	// ProbeConnectionOK, when non-nil, reports whether the peer is still
	// reachable. It stays nil until the handler calls NewStream; from then
	// on it reflects that stream's half-duplex probe read (see
	// core/continuation).
	ProbeConnectionOK func() bool

	// NotifyConnectionClosed, if set by a handler, is invoked when the
	// half-duplex probe of a stream obtained through NewStream detects
	// that the connection has gone away — chiefly useful to a
	// continuation that wants to stop producing output early.
	NotifyConnectionClosed func()

	// NewStream, when non-nil, builds a Stream bound to this request's
	// underlying connection — the session sets this before dispatch so a
	// handler that wants to hand off to a long-lived continuation (e.g.
	// Server-Sent Events) can obtain one without knowing about sessions
	// or net.Conn at all.
	NewStream func() Stream
}

// NewRequest builds a Request with a fresh UUID and an initialised
// Arguments map, ready for the framing layer to populate.
func NewRequest() *Request {
	return &Request{
		Arguments: make(map[string]string),
		UUID:      uuid.New(),
	}
}

// Arg returns the query argument named key and whether it was present. A
// bare key (no '=') is present with an empty value.
func (r *Request) Arg(key string) (string, bool) {
	v, ok := r.Arguments[key]
	return v, ok
}

// Cookie returns the last Cookie header value named name.
func (r *Request) Cookie(name string) (string, bool) {
	return Lookup(r.Cookies, name)
}

// splitTarget splits a request-line target on the first '?' into the
// path and the raw query string (without the '?').
func splitTarget(raw string) (path, query string) {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	return raw, ""
}

// parseQuery breaks a query string on '&' into key[=value] segments. A
// bare key maps to the empty string; the last occurrence of a repeated key
// wins, matching the "ordered-irrelevant, last occurrence wins" rule.
func parseQuery(query string) map[string]string {
	args := make(map[string]string)
	if query == "" {
		return args
	}
	for _, segment := range strings.Split(query, "&") {
		if segment == "" {
			continue
		}
		if i := strings.IndexByte(segment, '='); i >= 0 {
			key, _ := percentDecode(segment[:i])
			value, _ := percentDecode(segment[i+1:])
			args[key] = value
		} else {
			key, _ := percentDecode(segment)
			args[key] = ""
		}
	}
	return args
}

// percentDecode decodes %XX escapes and turns '+' into a space, the way a
// query string (not a path) is conventionally decoded. err is non-nil on a
// malformed escape sequence.
func percentDecode(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%':
			if i+2 >= len(s) {
				return "", errMalformedEscape
			}
			hi, ok1 := hexDigit(s[i+1])
			lo, ok2 := hexDigit(s[i+2])
			if !ok1 || !ok2 {
				return "", errMalformedEscape
			}
			b.WriteByte(hi<<4 | lo)
			i += 2
		case '+':
			b.WriteByte(' ')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// pathDecode percent-decodes a path component without the '+'-as-space
// rule that query decoding applies.
func pathDecode(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			if i+2 >= len(s) {
				return "", errMalformedEscape
			}
			hi, ok1 := hexDigit(s[i+1])
			lo, ok2 := hexDigit(s[i+2])
			if !ok1 || !ok2 {
				return "", errMalformedEscape
			}
			b.WriteByte(hi<<4 | lo)
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String(), nil
}
