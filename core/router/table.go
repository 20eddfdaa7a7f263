// Package router implements longest-prefix dispatch over a flat table of
// route handlers — no radix tree, no path parameters, no templating DSL.
package router

import (
	"errors"
	"sync"

	httpmodel "github.com/searchktools/embedhttp/core/http"
)

// Handler answers one request. It must not mutate req.
//
// A handler that wants to exit early with a specific status, rather than
// returning its "normal" result, does so by returning that Response as
// outcome.EarlyResponse — the dispatcher-side equivalent of the original
// library's "throw a Response to abort the handler" idiom, expressed here
// as an explicit sum type instead of control flow via panic/recover.
type Handler func(req *httpmodel.Request) Outcome

// Outcome is what a Handler returns: exactly one of a normal Response, an
// early-exit Response, or an unexpected error that the dispatcher turns
// into a 500.
type Outcome struct {
	Response      httpmodel.Response
	EarlyResponse *httpmodel.Response
	Err           error
}

// Handled wraps a normal Response.
func Handled(resp httpmodel.Response) Outcome {
	return Outcome{Response: resp}
}

// EarlyExit wraps a Response a handler wants used verbatim instead of
// whatever further processing it would otherwise have done.
func EarlyExit(resp httpmodel.Response) Outcome {
	return Outcome{EarlyResponse: &resp}
}

// InternalError wraps an unexpected error; the dispatcher converts it to a
// 500 and logs err.
func InternalError(err error) Outcome {
	return Outcome{Err: err}
}

// Resolve collapses an Outcome to the Response the caller should act on.
func (o Outcome) Resolve() httpmodel.Response {
	if o.EarlyResponse != nil {
		return *o.EarlyResponse
	}
	if o.Err != nil {
		return httpmodel.InternalError(o.Err)
	}
	return o.Response
}

// ErrEmptyRoute is returned by AddRoute for an empty prefix — routes are
// stored verbatim and an empty prefix would match everything ambiguously.
var ErrEmptyRoute = errors.New("router: a route's prefix cannot be empty")

// Table is a thread-safe, append-only mapping from route prefix to
// Handler. Routes are never removed once added (spec invariant); the
// read/write split is a sync.RWMutex since lookups vastly outnumber
// registrations in steady state.
type Table struct {
	mu     sync.RWMutex
	routes map[string]Handler
}

// NewTable creates an empty route table.
func NewTable() *Table {
	return &Table{routes: make(map[string]Handler)}
}

// AddRoute registers handler under prefix. Registering the same prefix
// twice silently replaces the previous handler — matching the original
// map-assignment semantics this is grounded on — since re-registration
// during normal operation never happens in practice and isn't worth a
// dedicated error path.
func (t *Table) AddRoute(prefix string, handler Handler) error {
	if prefix == "" {
		return ErrEmptyRoute
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes[prefix] = handler
	return nil
}

// Match finds the longest registered prefix P such that target starts
// with P and either len(target) == len(P) or target[len(P)] == '/'. It
// returns the zero Handler and ok=false if no prefix matches.
func (t *Table) Match(target string) (prefix string, handler Handler, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	bestLen := -1
	for route, h := range t.routes {
		n := len(route)
		if len(target) < n {
			continue
		}
		if len(target) != n && target[n] != '/' {
			continue
		}
		if target[:n] != route {
			continue
		}
		if n > bestLen {
			bestLen = n
			prefix = route
			handler = h
			ok = true
		}
	}
	return prefix, handler, ok
}

// Dispatch resolves target against the table and invokes the winning
// handler, filling req.Route first. It returns a 404 Response if no route
// matches.
func (t *Table) Dispatch(req *httpmodel.Request) httpmodel.Response {
	prefix, handler, ok := t.Match(req.Target)
	if !ok {
		return httpmodel.NotFound("Document not found")
	}
	req.Route = prefix
	return handler(req).Resolve()
}
