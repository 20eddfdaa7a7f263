/*
Package embedhttp is an embeddable HTTP/1.1 serving library: a
connection-per-goroutine session state machine, longest-prefix route
dispatch, a chunked-streaming continuation abstraction for Server-Sent
Events with half-duplex close detection, and a mutex-guarded
OpenMetrics-compatible metrics registry.

It is built to be dropped into another program as a library, not run
standalone — a caller constructs a server.Server, registers routes, and
starts it on its own goroutine alongside whatever else the embedding
program does.

Quick Start

Basic usage:

	package main

	import (
	    "github.com/searchktools/embedhttp/app"
	    "github.com/searchktools/embedhttp/config"
	    httpmodel "github.com/searchktools/embedhttp/core/http"
	    "github.com/searchktools/embedhttp/core/router"
	)

	func main() {
	    cfg := config.New()
	    a := app.New(cfg, nil)

	    a.AddRoute("/hello", func(req *httpmodel.Request) router.Outcome {
	        return router.Handled(httpmodel.String("Hello, World!"))
	    })

	    if err := a.Run(); err != nil {
	        panic(err)
	    }
	}

Modules

The library is organized into several packages:

  - app: process wiring — signal-driven graceful shutdown around a Server
  - config: every documented server knob, loadable from flags or defaults
  - server: the public façade gluing the packages below together
  - core/acceptor: listener setup, including TLS termination
  - core/session: per-connection state machine (handshake, read, dispatch, write, continuation, closed)
  - core/router: longest-prefix route dispatch
  - core/http: request/response types, cookies, MIME inference, gzip
  - core/continuation: the chunked-streaming handoff Server-Sent Events is built on
  - core/sse: Server-Sent Events on top of a continuation
  - core/sse/room: fanning one event stream out to many subscribers
  - core/metrics: a mutex-guarded OpenMetrics-compatible registry
  - core/selfmetrics: the server's own operational counters
  - core/pools: buffer pooling, a work-stealing worker pool, and GC tuning
  - examples/assets: a directory file-serving route handler
  - examples/chatroom: a small multi-user chat room built on core/sse/room

For more information, see https://github.com/searchktools/embedhttp
*/
package embedhttp
