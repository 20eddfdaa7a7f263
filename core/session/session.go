// Package session drives one connection's request/response loop: read a
// request, authenticate, dispatch, write a reply, and either keep the
// connection alive for the next request, hand it off to a continuation, or
// close it. Go's goroutine-per-connection model stands in for the
// original's one-cooperative-task-per-connection scheduling: instead of a
// fixed thread pool running a shared reactor with suspension points, each
// session gets its own goroutine and blocks directly on I/O, with
// GOMAXPROCS(num_http_threads) bounding how many run truly concurrently.
package session

import (
	"bufio"
	"crypto/tls"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/searchktools/embedhttp/core/continuation"
	httpmodel "github.com/searchktools/embedhttp/core/http"
	"github.com/searchktools/embedhttp/core/pools"
	"github.com/searchktools/embedhttp/core/router"
)

// State names a session's position in its state machine, exposed mainly
// for logging and tests — nothing outside this package branches on it.
type State int

const (
	StateHandshaking State = iota
	StateReading
	StateDispatching
	StateWriting
	StateContinuation
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateReading:
		return "reading"
	case StateDispatching:
		return "dispatching"
	case StateWriting:
		return "writing"
	case StateContinuation:
		return "continuation"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config carries the subset of server configuration a session needs on
// every connection it drives.
type Config struct {
	ServerHeader        string
	IOTimeout           time.Duration
	TLSHandshakeTimeout time.Duration
	MaxDecompressedSize int64
	EnableBasicAuth     bool
	BasicAuthRealm      string
	AutoHandleCORS      bool
}

// DefaultConfig matches the documented defaults: 120s I/O timeout, 5s TLS
// handshake timeout, 10MiB decompressed body cap, basic auth and
// auto-CORS both on.
func DefaultConfig() Config {
	return Config{
		ServerHeader:        "embedhttp",
		IOTimeout:           120 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxDecompressedSize: httpmodel.DefaultMaxDecompressedSize,
		EnableBasicAuth:     true,
		AutoHandleCORS:      true,
	}
}

// RequestMetrics is the minimal set of counters a session touches per
// request; callers wire it to core/selfmetrics so this package doesn't
// need to know that package's full shape.
type RequestMetrics interface {
	ObserveRequest(method httpmodel.Method, route string, code int, duration time.Duration)
}

// noopMetrics satisfies RequestMetrics when the caller doesn't wire one.
type noopMetrics struct{}

func (noopMetrics) ObserveRequest(httpmodel.Method, string, int, time.Duration) {}

// Session drives one connection's request loop until it closes.
type Session struct {
	conn   net.Conn
	isTLS  bool
	cfg    Config
	routes *router.Table
	auth   httpmodel.Authenticator
	stats  RequestMetrics

	state    State
	r        *bufio.Reader
	detached bool
}

// New creates a Session for a freshly accepted connection. auth may be
// nil, in which case every request is granted access under the account
// "anonymous" (httpmodel.AllowAllAuthenticator).
func New(conn net.Conn, cfg Config, routes *router.Table, auth httpmodel.Authenticator, stats RequestMetrics) *Session {
	if auth == nil {
		auth = httpmodel.AllowAllAuthenticator
	}
	if stats == nil {
		stats = noopMetrics{}
	}
	_, isTLS := conn.(*tls.Conn)
	return &Session{
		conn:   conn,
		isTLS:  isTLS,
		cfg:    cfg,
		routes: routes,
		auth:   auth,
		stats:  stats,
		state:  StateHandshaking,
		r:      bufio.NewReader(conn),
	}
}

// Run drives the session to completion: handshake (if TLS) then repeated
// read/dispatch/write cycles until the connection closes, a request asks
// to close, or a continuation is handed off and returns.
func (s *Session) Run() {
	defer s.close()

	if s.isTLS {
		if !s.handshake() {
			return
		}
	}
	s.state = StateReading

	for {
		switch s.state {
		case StateReading:
			req, closeAfter, ok := s.read()
			if !ok {
				return
			}
			req.NewStream = func() httpmodel.Stream {
				c := s.NewContinuation(req.UUID.String())
				req.ProbeConnectionOK = c.ProbeConnectionOK
				c.OnConnectionClosed(func() {
					if req.NotifyConnectionClosed != nil {
						req.NotifyConnectionClosed()
					}
				})
				return c
			}
			s.state = StateDispatching
			dispatchStart := time.Now()
			resp := s.dispatch(req)
			if closeAfter {
				resp.Close = true
			}
			if resp.Continuation != nil {
				// No reply is written here: the continuation sends its own
				// status line and headers.
				s.stats.ObserveRequest(req.Method, req.Route, resp.Code, time.Since(dispatchStart))
				s.state = StateContinuation
				// The continuation now owns the connection; the deferred
				// close above must not touch it. It's the continuation's
				// own Close, plus the half-duplex probe, that end this
				// connection's life from here.
				s.detached = true
				return
			}
			s.state = StateWriting
			if !s.write(req, resp) {
				return
			}
			s.stats.ObserveRequest(req.Method, req.Route, resp.Code, time.Since(dispatchStart))
			if resp.Close {
				return
			}
			s.state = StateReading
		default:
			return
		}
	}
}

func (s *Session) handshake() bool {
	tlsConn, ok := s.conn.(*tls.Conn)
	if !ok {
		return true
	}
	_ = s.conn.SetDeadline(time.Now().Add(s.cfg.TLSHandshakeTimeout))
	if err := tlsConn.Handshake(); err != nil {
		log.Printf("session: TLS handshake failed: %v", err)
		return false
	}
	_ = s.conn.SetDeadline(time.Time{})
	return true
}

// read arms the I/O timeout and parses one request. ok is false on
// end-of-stream, a read error, or a timeout — in every such case the
// session must close.
func (s *Session) read() (req *httpmodel.Request, closeAfter bool, ok bool) {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.IOTimeout))

	opts := httpmodel.ParseOptions{
		MaxDecompressedSize: s.cfg.MaxDecompressedSize,
		IsHTTPS:              s.isTLS,
	}
	parsed, err := httpmodel.ParseRequest(s.r, opts)
	if err != nil {
		if isProtocolError(err) {
			req := httpmodel.NewRequest()
			s.writeProtocolError(req)
		}
		return nil, false, false
	}
	return parsed, !parsed.KeepAlive, true
}

// isProtocolError distinguishes a parse failure worth replying 400 to
// (malformed request line, unsupported method, decompression overflow)
// from a plain connection error (EOF, reset) that should just close
// silently.
func isProtocolError(err error) bool {
	switch err {
	case httpmodel.ErrMalformedRequestLine, httpmodel.ErrUnsupportedMethod, httpmodel.ErrDecompressedTooLarge:
		return true
	default:
		return false
	}
}

func (s *Session) writeProtocolError(req *httpmodel.Request) {
	resp := httpmodel.BadRequest("")
	resp.Close = true
	s.write(req, resp)
}

// dispatch runs the CORS shortcut, authentication, and route dispatch —
// the session's Dispatching state.
func (s *Session) dispatch(req *httpmodel.Request) httpmodel.Response {
	if req.Method == httpmodel.OPTIONS && s.cfg.AutoHandleCORS {
		return httpmodel.Response{Code: 200, Reason: "OK", CORS: true}
	}

	auth := s.auth(httpmodel.AuthRequest{AuthHeader: req.AuthorizationHeader, Request: req})
	req.Auth = auth
	if !auth.Access {
		return httpmodel.Unauthorized("Access Denied!")
	}

	return s.routes.Dispatch(req)
}

// write serialises and sends resp, applying the common headers the
// spec's Writing state names. It returns false on a write failure, which
// drives the session to Closed.
func (s *Session) write(req *httpmodel.Request, resp httpmodel.Response) bool {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.IOTimeout))

	body := resp.StatusBody(req.Method)
	mime := resp.ResolvedMimeType(req.Target)

	gzipped := false
	if req.AcceptsGzip && len(body) > 0 {
		if compressed, err := httpmodel.CompressGzip(body); err == nil {
			body = compressed
			gzipped = true
		}
	}

	// The header is assembled into a pooled buffer rather than a fresh
	// bufio.Writer per response — headers plus body go out in one Write
	// call, and the backing array comes back to the pool once sent.
	buf := pools.AcquireBuffer(256 + len(body))
	defer pools.ReleaseBuffer(buf)
	b := *buf

	b = append(b, "HTTP/1.1 "...)
	b = append(b, strconv.Itoa(resp.Code)...)
	b = append(b, ' ')
	b = append(b, resp.Reason...)
	b = append(b, "\r\n"...)

	b = append(b, "Server: "...)
	b = append(b, s.cfg.ServerHeader...)
	b = append(b, "\r\n"...)
	if resp.Close {
		b = append(b, "Connection: close\r\n"...)
	} else {
		b = append(b, "Connection: keep-alive\r\n"...)
	}
	if req.Method != httpmodel.OPTIONS {
		b = append(b, "Content-Type: "...)
		b = append(b, mime...)
		b = append(b, "\r\n"...)
	}
	if gzipped {
		b = append(b, "Content-Encoding: gzip\r\n"...)
	}
	b = append(b, "Content-Length: "...)
	b = append(b, strconv.Itoa(len(body))...)
	b = append(b, "\r\n"...)

	if resp.CORS {
		b = append(b, "Access-Control-Allow-Origin: *\r\n"...)
		b = append(b, "Access-Control-Allow-Credentials: true\r\n"...)
		b = append(b, "Access-Control-Allow-Methods: GET,OPTIONS,POST,PUT,PATCH,DELETE\r\n"...)
		b = append(b, "Access-Control-Allow-Headers: Authorization, Content-Encoding, Access-Control-Allow-Headers, Origin, Accept, X-Requested-With, Content-Type, Access-Control-Request-Method, Access-Control-Request-Headers\r\n"...)
	}
	if resp.Code == 401 && s.cfg.EnableBasicAuth {
		if s.cfg.BasicAuthRealm != "" {
			b = append(b, "WWW-Authenticate: Basic realm="...)
			b = append(b, s.cfg.BasicAuthRealm...)
			b = append(b, "\r\n"...)
		} else {
			b = append(b, "WWW-Authenticate: Basic\r\n"...)
		}
	}
	for _, c := range resp.Cookies {
		b = append(b, "Set-Cookie: "...)
		b = append(b, c.Header()...)
		b = append(b, "\r\n"...)
	}
	b = append(b, "\r\n"...)
	b = append(b, body...)
	*buf = b

	if _, err := s.conn.Write(b); err != nil {
		log.Printf("session: write failed: %v", err)
		return false
	}
	return true
}

// TakeStream hands this session's raw connection to a Continuation. The
// caller (a route handler, via the Response it returns) must have set
// Response.Continuation; the session itself never calls this — it's here
// for the acceptor/dispatch glue that constructs continuation.Continuation
// values from the same net.Conn the session already owns.
func (s *Session) TakeStream() net.Conn {
	return s.conn
}

// NewContinuation builds a continuation bound to this session's
// connection, for a handler that wants to stream a response.
func (s *Session) NewContinuation(uuid string) *continuation.Continuation {
	return continuation.New(s.conn, s.cfg.ServerHeader, uuid)
}

func (s *Session) close() {
	s.state = StateClosed
	if s.detached {
		return
	}
	if tlsConn, ok := s.conn.(*tls.Conn); ok {
		_ = tlsConn.SetDeadline(time.Now().Add(s.cfg.IOTimeout))
		_ = tlsConn.CloseWrite()
		_ = tlsConn.Close()
		return
	}
	if tcpConn, ok := s.conn.(*net.TCPConn); ok {
		_ = tcpConn.CloseWrite()
	}
	_ = s.conn.Close()
}
