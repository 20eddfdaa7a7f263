// Package selfmetrics wires the library's own operational metrics —
// incoming request counts per route/method, TCP connection counts,
// current session and worker gauges — into a metrics.Registry, and
// exposes them as a route handler for the server's own /metrics endpoint.
package selfmetrics

import (
	"sync"

	httpmodel "github.com/searchktools/embedhttp/core/http"
	"github.com/searchktools/embedhttp/core/metrics"
	"github.com/searchktools/embedhttp/core/router"
)

// allMethods mirrors the full verb set this library dispatches, plus "O"
// — the fallback bucket IncrementHTTPRequestCount uses for a route that
// was never registered with AddHTTPRequests for a specific method.
var allMethods = []string{"GET", "PUT", "POST", "PATCH", "DELETE", "OPTIONS", "O"}

// InstanceMetrics tracks the library's own operational counters inside a
// metrics.Registry.
type InstanceMetrics struct {
	registry *metrics.Registry

	incomingRequests *metrics.Counter
	tcpConnections   *metrics.Counter
	currentSessions  *metrics.Gauge
	workerThreads    *metrics.Gauge

	mu           sync.Mutex
	httpRequests map[string]*metrics.Counter // keyed by method+route, e.g. "GET/api"
}

// New creates an InstanceMetrics registering its base counters/gauges into
// registry, plus one per-method counter for route "/" for every verb in
// allMethods.
func New(registry *metrics.Registry) *InstanceMetrics {
	im := &InstanceMetrics{
		registry:     registry,
		httpRequests: make(map[string]*metrics.Counter),
	}

	im.incomingRequests, _ = registry.AddCounter("yahat_incoming_requests", "Number of incoming requests", "count", nil)
	im.tcpConnections, _ = registry.AddCounter("yahat_tcp_connections", "Number of TCP connections", "count", nil)
	im.currentSessions, _ = registry.AddGauge("yahat_current_sessions", "Number of current sessions", "count", nil)
	im.workerThreads, _ = registry.AddGauge("yahat_worker_threads", "Number of worker threads", "count", nil)

	im.AddHTTPRequests("/", nil)
	return im
}

// IncomingRequests returns the base incoming-requests counter.
func (im *InstanceMetrics) IncomingRequests() *metrics.Counter { return im.incomingRequests }

// TCPConnections returns the TCP connection counter.
func (im *InstanceMetrics) TCPConnections() *metrics.Counter { return im.tcpConnections }

// CurrentSessions returns the current-sessions gauge.
func (im *InstanceMetrics) CurrentSessions() *metrics.Gauge { return im.currentSessions }

// WorkerThreads returns the worker-threads gauge.
func (im *InstanceMetrics) WorkerThreads() *metrics.Gauge { return im.workerThreads }

// AddHTTPRequests registers a per-route-per-method counter for each of
// methods (or every verb in allMethods if methods is empty) under route,
// so IncrementHTTPRequestCount has something to find later.
func (im *InstanceMetrics) AddHTTPRequests(route string, methods []string) {
	if len(methods) == 0 {
		methods = allMethods
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	for _, method := range methods {
		key := method + route
		if _, exists := im.httpRequests[key]; exists {
			continue
		}
		c, err := im.registry.AddCounter("yahat_incoming_requests", "Number of incoming requests", "count",
			metrics.Labels{{Name: "route", Value: route}, {Name: "method", Value: method}})
		if err != nil {
			continue
		}
		im.httpRequests[key] = c
	}
}

// IncrementHTTPRequestCount increments the counter registered for
// (method, route), falling back to the route's "O" (other) bucket when no
// counter was registered for that exact method. The fallback correctly
// looks up the fallback key — the earlier instance metrics code here
// looked up the same key twice, so the "O" bucket was unreachable and
// every unregistered method silently went uncounted.
func (im *InstanceMetrics) IncrementHTTPRequestCount(route, method string) {
	key := method + route
	defaultKey := "O" + route

	im.mu.Lock()
	defer im.mu.Unlock()
	if c, ok := im.httpRequests[key]; ok {
		c.Inc(1)
		return
	}
	if c, ok := im.httpRequests[defaultKey]; ok {
		c.Inc(1)
	}
}

// Handler serves the registry's rendered OpenMetrics output. Only GET is
// allowed; every other verb gets 405.
func (im *InstanceMetrics) Handler() router.Handler {
	return func(req *httpmodel.Request) router.Outcome {
		if req.Method != httpmodel.GET {
			return router.Handled(httpmodel.Response{Code: 405, Reason: "Method Not Allowed - only GET is allowed here"})
		}
		body := []byte(im.registry.RenderString())
		return router.Handled(httpmodel.Response{
			Code:     200,
			Reason:   "OK",
			Body:     body,
			MimeType: metrics.ContentType,
		})
	}
}
