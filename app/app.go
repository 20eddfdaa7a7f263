// Package app wires a configured Server into a runnable process:
// signal-driven graceful shutdown around Server.Start/Stop, the way the
// original application wrapper started its engine and waited on
// SIGINT/SIGTERM.
package app

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/searchktools/embedhttp/config"
	httpmodel "github.com/searchktools/embedhttp/core/http"
	"github.com/searchktools/embedhttp/core/router"
	"github.com/searchktools/embedhttp/server"
)

// App is the process-level wrapper around one Server: it owns the
// signal handling and blocks Run until a shutdown signal arrives.
type App struct {
	cfg *config.Config
	srv *server.Server
}

// New creates an App around a fresh Server built from cfg and auth. A
// nil auth grants every request access under the account "anonymous".
func New(cfg *config.Config, auth httpmodel.Authenticator) *App {
	return &App{
		cfg: cfg,
		srv: server.New(cfg, auth),
	}
}

// NewWithServer wraps an already-configured Server, letting a caller
// register routes and application metrics on it before Run is called.
func NewWithServer(cfg *config.Config, srv *server.Server) *App {
	return &App{cfg: cfg, srv: srv}
}

// Server returns the underlying Server for route registration.
func (a *App) Server() *server.Server { return a.srv }

// AddRoute registers handler under prefix on the underlying Server.
func (a *App) AddRoute(prefix string, handler router.Handler) error {
	return a.srv.AddRoute(prefix, handler)
}

// Run starts the server and blocks until SIGINT or SIGTERM, then stops
// it. It returns once shutdown has completed.
func (a *App) Run() error {
	if err := a.srv.Start(); err != nil {
		return err
	}
	log.Printf("app: listening on %s", a.srv.Addr())

	a.awaitSignal()

	log.Print("app: shutting down")
	return a.srv.Stop()
}

func (a *App) awaitSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("app: signal received: %v", sig)
}
