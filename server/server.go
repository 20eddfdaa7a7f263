// Package server is the public façade: configure endpoints, register
// routes, start and stop the reactor, and expose the self-metrics
// endpoint. It is the thin composition root gluing core/acceptor,
// core/session, core/router, core/metrics and core/selfmetrics together
// the way a caller embedding this library actually uses it.
package server

import (
	"fmt"
	"log"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/searchktools/embedhttp/config"
	"github.com/searchktools/embedhttp/core/acceptor"
	httpmodel "github.com/searchktools/embedhttp/core/http"
	"github.com/searchktools/embedhttp/core/metrics"
	"github.com/searchktools/embedhttp/core/pools"
	"github.com/searchktools/embedhttp/core/router"
	"github.com/searchktools/embedhttp/core/selfmetrics"
	"github.com/searchktools/embedhttp/core/session"
)

// Version is overridden at build time (-ldflags) by the embedding binary.
var Version = "dev"

// Server is one configured, embeddable HTTP server instance. It owns a
// route table, a metrics registry, and — once Start is called — a
// listener and the session goroutines it spawns.
type Server struct {
	cfg    *config.Config
	routes *router.Table
	auth   httpmodel.Authenticator

	registry *metrics.Registry
	instance *selfmetrics.InstanceMetrics

	mu       sync.Mutex
	acceptor *acceptor.Acceptor
	wg       sync.WaitGroup
}

// New creates a Server from cfg. A nil authenticator grants every request
// access under the account "anonymous".
func New(cfg *config.Config, auth httpmodel.Authenticator) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	registry := metrics.NewRegistry()
	s := &Server{
		cfg:      cfg,
		routes:   router.NewTable(),
		auth:     auth,
		registry: registry,
		instance: selfmetrics.New(registry),
	}
	if cfg.EnableMetrics {
		s.AddRoute(cfg.MetricsTarget, s.instance.Handler())
	}
	return s
}

// Registry exposes the metrics registry so embedding code can register
// its own application-level metrics alongside the server's own.
func (s *Server) Registry() *metrics.Registry { return s.registry }

// InstanceMetrics exposes the server's own operational counters.
func (s *Server) InstanceMetrics() *selfmetrics.InstanceMetrics { return s.instance }

// AddRoute registers handler under prefix, also registering per-method
// counters for it in the self-metrics map.
func (s *Server) AddRoute(prefix string, handler router.Handler) error {
	s.instance.AddHTTPRequests(prefix, nil)
	return s.routes.AddRoute(prefix, handler)
}

// serverHeaderValue implements spec.md §6's "Server: <branding>/yahat
// <version>" rule (or "yahat <version>" with no configured branding).
func (s *Server) serverHeaderValue() string {
	if s.cfg.ServerBranding == "" {
		return "yahat " + Version
	}
	return s.cfg.ServerBranding + "/yahat " + Version
}

func (s *Server) sessionConfig() session.Config {
	return session.Config{
		ServerHeader:        s.serverHeaderValue(),
		IOTimeout:           s.cfg.HTTPIOTimeout,
		TLSHandshakeTimeout: httpTLSHandshakeTimeout,
		MaxDecompressedSize: s.cfg.MaxDecompressedSize,
		EnableBasicAuth:     s.cfg.EnableHTTPBasicAuth,
		BasicAuthRealm:      s.cfg.HTTPBasicAuthRealm,
		AutoHandleCORS:      s.cfg.AutoHandleCORS,
	}
}

const httpTLSHandshakeTimeout = 5 * time.Second

// requestMetrics adapts InstanceMetrics to session.RequestMetrics without
// session needing to know selfmetrics' full shape.
type requestMetrics struct{ im *selfmetrics.InstanceMetrics }

func (r requestMetrics) ObserveRequest(method httpmodel.Method, route string, code int, _ time.Duration) {
	r.im.IncomingRequests().Inc(1)
	r.im.IncrementHTTPRequestCount(route, method.String())
	_ = code
}

// Start binds the configured endpoint and begins accepting connections.
// It applies the GC tuning profile the teacher's pools package exposes
// before the accept loop starts, since that's the last moment to
// influence the baseline heap before connection traffic begins.
func (s *Server) Start() error {
	pools.ApplyGCConfig(pools.DefaultGCConfig())
	if s.cfg.NumHTTPThreads > 0 {
		runtime.GOMAXPROCS(s.cfg.NumHTTPThreads)
	}
	s.instance.WorkerThreads().Set(uint64(s.cfg.NumHTTPThreads))

	a, err := acceptor.Listen(acceptor.Config{
		Endpoint:    s.cfg.HTTPEndpoint,
		Port:        s.cfg.HTTPPort,
		TLSCertFile: s.cfg.HTTPTLSCert,
		TLSKeyFile:  s.cfg.HTTPTLSKey,
	})
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}

	s.mu.Lock()
	s.acceptor = a
	s.mu.Unlock()

	sessCfg := s.sessionConfig()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		a.Serve(func(conn net.Conn) {
			s.instance.TCPConnections().Inc(1)
			s.instance.CurrentSessions().Inc(1)
			defer s.instance.CurrentSessions().Dec(1)

			sess := session.New(conn, sessCfg, s.routes, s.auth, requestMetrics{im: s.instance})
			sess.Run()
		})
	}()

	log.Printf("server: listening on %s", a.Addr())
	return nil
}

// Stop closes the listener, then waits for the accept loop to return.
// Connections already in flight finish on their own; Stop does not force
// them closed.
func (s *Server) Stop() error {
	s.mu.Lock()
	a := s.acceptor
	s.mu.Unlock()
	if a == nil {
		return nil
	}
	err := a.Close()
	s.wg.Wait()
	return err
}

// Addr returns the bound listener's address, valid only after Start
// succeeds.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acceptor == nil {
		return nil
	}
	return s.acceptor.Addr()
}
