// Package acceptor listens on the configured endpoint, optionally wraps
// accepted connections in TLS, and spawns a session per connection. Go's
// net.Listener plus crypto/tls replace the original's raw tcp::acceptor
// plus a Boost.Asio SSL context: TLS needs an io.Reader/io.Writer-shaped
// stream to wrap, which a raw epoll/fd loop never provides, so the
// transport here is net.Conn end to end instead.
package acceptor

import (
	"crypto/tls"
	"errors"
	"log"
	"net"
)

// maxConsecutiveAcceptErrors bounds how many Accept failures in a row this
// loop tolerates before giving up on the listener — the original's
// "maxErrors = 64" accept-loop backstop.
const maxConsecutiveAcceptErrors = 64

// Config describes one listening endpoint.
type Config struct {
	// Endpoint is the address to listen on, e.g. "", "0.0.0.0", "::".
	Endpoint string
	// Port is the port or service name to resolve, e.g. "8443" or "https".
	Port string

	// A non-empty TLSKeyFile makes this endpoint terminate TLS, loading
	// TLSCertFile together with it. An empty TLSKeyFile means plain TCP.
	TLSCertFile string
	TLSKeyFile  string
}

// IsTLS reports whether this endpoint is configured for TLS.
func (c Config) IsTLS() bool {
	return c.TLSKeyFile != ""
}

// ConnHandler drives one accepted connection to completion. It is called
// in its own goroutine per connection — the goroutine-per-connection
// analogue of the original's "spawn a cooperative task per accepted
// socket."
type ConnHandler func(conn net.Conn)

// Acceptor owns one listening endpoint.
type Acceptor struct {
	cfg      Config
	listener net.Listener
	tlsConf  *tls.Config
}

// Listen resolves and binds cfg's endpoint. It does not yet accept
// connections; call Serve for that. Binding eagerly here (rather than
// inside Serve) lets a caller detect a bad port before committing to
// running the accept loop.
func Listen(cfg Config) (*Acceptor, error) {
	addr := net.JoinHostPort(cfg.Endpoint, cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	a := &Acceptor{cfg: cfg, listener: ln}
	if cfg.IsTLS() {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			ln.Close()
			return nil, err
		}
		a.tlsConf = &tls.Config{Certificates: []tls.Certificate{cert}}
	}
	return a, nil
}

// Addr returns the listener's bound address.
func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}

// Close stops accepting new connections.
func (a *Acceptor) Close() error {
	return a.listener.Close()
}

// Serve runs the accept loop until the listener is closed or
// maxConsecutiveAcceptErrors accept failures happen in a row, spawning
// handle in its own goroutine for every accepted connection. It returns
// once the loop stops; callers typically run it in its own goroutine, one
// per configured endpoint.
func (a *Acceptor) Serve(handle ConnHandler) {
	errorCount := 0
	for errorCount < maxConsecutiveAcceptErrors {
		conn, err := a.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("acceptor: accept failed on %s: %v", a.listener.Addr(), err)
			errorCount++
			continue
		}
		errorCount = 0

		if a.tlsConf != nil {
			conn = tls.Server(conn, a.tlsConf)
		}
		go handle(conn)
	}
	log.Printf("acceptor: giving up on %s after %d consecutive accept errors", a.listener.Addr(), errorCount)
}
