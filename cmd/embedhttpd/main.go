// Command embedhttpd is a minimal standalone binary around the library:
// it parses its own flag set (the thread, endpoint, port and TLS flags
// config.New also exposes, plus --version, --log-level and --assets-dir),
// registers the chat room and file-serving examples, and runs until
// SIGINT/SIGTERM.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/searchktools/embedhttp/app"
	"github.com/searchktools/embedhttp/config"
	"github.com/searchktools/embedhttp/examples/assets"
	"github.com/searchktools/embedhttp/examples/chatroom"
)

// exitHelp is returned for --help: a distinguishable non-zero code so
// scripts can tell "printed usage" apart from "ran and failed".
const exitHelp = 2

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("embedhttpd", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	showVersion := fs.Bool("version", false, "print the version and exit")
	logLevel := fs.String("log-level", "info", "log verbosity: debug, info, warn, error")
	assetsDir := fs.String("assets-dir", "", "directory to serve under /assets; disabled when empty")

	numThreads := fs.Int("http-num-threads", 0, "number of worker threads driving the server (0 keeps the default)")
	endpoint := fs.String("http-endpoint", "", "address to listen on (empty keeps the default)")
	port := fs.String("http-port", "", "port or service name to listen on (empty keeps the default)")
	tlsKey := fs.String("http-tls-key", "", "PEM private key file; enables TLS when set")
	tlsCert := fs.String("http-tls-cert", "", "PEM certificate file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", fs.Name())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitHelp
		}
		return 1
	}

	if *showVersion {
		fmt.Println(version)
		return 0
	}

	log.SetPrefix("embedhttpd: ")
	log.Printf("log level %q requested; this binary logs at one level via the standard logger", *logLevel)

	cfg := config.Default()
	if *numThreads > 0 {
		cfg.NumHTTPThreads = *numThreads
	}
	if *endpoint != "" {
		cfg.HTTPEndpoint = *endpoint
	}
	if *port != "" {
		cfg.HTTPPort = *port
	}
	cfg.HTTPTLSKey = *tlsKey
	cfg.HTTPTLSCert = *tlsCert

	a := app.New(cfg, nil)

	room := chatroom.New(cfg.NumHTTPThreads)
	defer room.Close()
	if err := a.AddRoute("/chat", chatroom.NewAPI("/chat", room).Handler()); err != nil {
		log.Printf("embedhttpd: registering /chat: %v", err)
		return 1
	}

	if *assetsDir != "" {
		if err := a.AddRoute("/assets", assets.New(*assetsDir, "/assets").Handler()); err != nil {
			log.Printf("embedhttpd: registering /assets: %v", err)
			return 1
		}
	}

	if err := a.Run(); err != nil {
		log.Printf("embedhttpd: %v", err)
		return 1
	}
	return 0
}
