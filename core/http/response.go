package http

import "encoding/json"

// Continuation is implemented by anything a handler wants to hand the raw
// connection stream to once the normal request/response cycle is done —
// concretely, core/continuation.Continuation. Kept as an interface here so
// this package has no import-cycle dependency on core/continuation.
type Continuation interface {
	// Detached reports that the continuation, not this package, now owns
	// writing to the connection.
	Detached() bool
}

// Response is what a route handler returns. A zero Response is a bare 200
// OK with no body.
type Response struct {
	Code   int
	Reason string
	Body   []byte

	// Target, if set, is used for MIME inference instead of the request's
	// target — handlers serving a file under a different name than the
	// request path (an index.html fallback, say) set this.
	Target string

	// MimeType overrides MIME inference entirely when non-empty.
	MimeType string

	// Close forces the session to close the connection after writing this
	// response, even if the client asked to keep it alive.
	Close bool

	// CORS adds permissive cross-origin headers to the response.
	CORS bool

	Cookies []SetCookie

	// Continuation, when non-nil, makes the session write nothing for this
	// response and hand the connection's stream over to the continuation,
	// which sends its own status line and headers, rather than closing it.
	// See core/continuation.
	Continuation Continuation
}

// OK builds a 200 response with body and an inferred or default JSON mime
// type.
func OK(body []byte) Response {
	return Response{Code: 200, Reason: "OK", Body: body}
}

// NoContent builds a 200 response with no body; the session will
// synthesize the canonical JSON status document for it.
func NoContent() Response {
	return Response{Code: 200, Reason: "OK"}
}

// JSON marshals v and returns it as a 200 response with an explicit JSON
// mime type. A marshal error is folded into a 500 so handlers never need
// their own error path for this common case.
func JSON(v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		return InternalError(err)
	}
	return Response{Code: 200, Reason: "OK", Body: body, MimeType: DefaultMimeType}
}

// String builds a 200 response with a text/plain body.
func String(s string) Response {
	return Response{Code: 200, Reason: "OK", Body: []byte(s), MimeType: "text/plain; charset=utf-8"}
}

// NotFound builds a 404 response with no body (the session will synthesise
// the status document).
func NotFound(reason string) Response {
	if reason == "" {
		reason = "Not Found"
	}
	return Response{Code: 404, Reason: reason}
}

// Unauthorized builds a 401 response. The session is responsible for
// adding WWW-Authenticate when basic auth is enabled.
func Unauthorized(reason string) Response {
	if reason == "" {
		reason = "Access Denied"
	}
	return Response{Code: 401, Reason: reason}
}

// BadRequest builds a 400 response — the outcome for every protocol-level
// parsing failure (malformed request line, unsupported method, oversized
// decompressed body).
func BadRequest(reason string) Response {
	if reason == "" {
		reason = "Bad Request"
	}
	return Response{Code: 400, Reason: reason}
}

// InternalError builds a 500 response. err's message is deliberately not
// included in the body — only in server-side logs — so handlers can't
// leak internals by accident.
func InternalError(err error) Response {
	return Response{Code: 500, Reason: "Internal Server Error"}
}

// Ok reports whether the response's status code is in the 2xx range.
func (r Response) Ok() bool {
	return r.Code/100 == 2
}

// WithCookie appends a cookie to be emitted as a Set-Cookie header.
func (r Response) WithCookie(name, value string, attrs ...string) Response {
	r.Cookies = append(r.Cookies, SetCookie{Name: name, Value: value, Attrs: attrs})
	return r
}

// WithContinuation attaches a continuation handoff to the response.
func (r Response) WithContinuation(c Continuation) Response {
	r.Continuation = c
	return r
}

// ResolvedMimeType returns the response's effective Content-Type: an
// explicit MimeType, else inference from Target or the request's target,
// else the default JSON type.
func (r Response) ResolvedMimeType(requestTarget string) string {
	if r.MimeType != "" {
		return r.MimeType
	}
	target := r.Target
	if target == "" {
		target = requestTarget
	}
	if mt := MimeTypeForTarget(target); mt != "" {
		return mt
	}
	return DefaultMimeType
}

// StatusBody returns the response's body, synthesising the canonical JSON
// status document when Body is empty and method is not OPTIONS (spec's
// "synthesise a canonical JSON status document" rule).
func (r Response) StatusBody(method Method) []byte {
	if len(r.Body) > 0 || method == OPTIONS {
		return r.Body
	}
	return renderStatusJSON(r.Code, r.Reason)
}
