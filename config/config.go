package config

import (
	"flag"
	"time"
)

// Config holds every knob spec.md §6 names for the embedded server.
type Config struct {
	NumHTTPThreads int

	HTTPEndpoint string
	HTTPPort     string

	HTTPTLSKey  string
	HTTPTLSCert string

	EnableHTTPBasicAuth bool
	HTTPBasicAuthRealm  string

	HTTPIOTimeout       time.Duration
	MaxDecompressedSize int64

	AutoHandleCORS bool

	EnableMetrics bool
	MetricsTarget string

	ServerBranding string
}

// IsTLS reports whether TLS should be terminated on the configured
// endpoint.
func (c *Config) IsTLS() bool {
	return c.HTTPTLSKey != ""
}

// New parses the flags an embedding binary typically exposes (see
// cmd/embedhttpd) and returns a Config with spec.md §6's defaults for
// anything left unset: 6 worker threads, a 120s I/O timeout, a 10MiB
// decompressed-body cap, basic auth and auto-CORS on, metrics on at
// "/metrics".
func New() *Config {
	cfg := Default()

	flag.IntVar(&cfg.NumHTTPThreads, "http-num-threads", cfg.NumHTTPThreads, "number of worker threads driving the server")
	flag.StringVar(&cfg.HTTPEndpoint, "http-endpoint", cfg.HTTPEndpoint, "address to listen on")
	flag.StringVar(&cfg.HTTPPort, "http-port", cfg.HTTPPort, "port or service name to listen on")
	flag.StringVar(&cfg.HTTPTLSKey, "http-tls-key", cfg.HTTPTLSKey, "PEM private key file; enables TLS when set")
	flag.StringVar(&cfg.HTTPTLSCert, "http-tls-cert", cfg.HTTPTLSCert, "PEM certificate file")
	flag.BoolVar(&cfg.EnableHTTPBasicAuth, "enable-http-basic-auth", cfg.EnableHTTPBasicAuth, "send WWW-Authenticate on 401")
	flag.StringVar(&cfg.HTTPBasicAuthRealm, "http-basic-auth-realm", cfg.HTTPBasicAuthRealm, "basic auth realm")
	flag.DurationVar(&cfg.HTTPIOTimeout, "http-io-timeout", cfg.HTTPIOTimeout, "rolling per-connection I/O timeout")
	flag.Int64Var(&cfg.MaxDecompressedSize, "max-decompressed-size", cfg.MaxDecompressedSize, "cap on gzip-decompressed request body size")
	flag.BoolVar(&cfg.AutoHandleCORS, "auto-handle-cors", cfg.AutoHandleCORS, "answer OPTIONS with permissive CORS headers")
	flag.BoolVar(&cfg.EnableMetrics, "enable-metrics", cfg.EnableMetrics, "serve the OpenMetrics endpoint")
	flag.StringVar(&cfg.MetricsTarget, "metrics-target", cfg.MetricsTarget, "route the metrics endpoint is served under")

	flag.Parse()
	return cfg
}

// Default returns spec.md §6's documented defaults.
func Default() *Config {
	return &Config{
		NumHTTPThreads:      6,
		HTTPEndpoint:        "::",
		HTTPPort:            "http",
		EnableHTTPBasicAuth: true,
		HTTPIOTimeout:       120 * time.Second,
		MaxDecompressedSize: 10 << 20,
		AutoHandleCORS:      true,
		EnableMetrics:       true,
		MetricsTarget:       "/metrics",
		ServerBranding:      "embedhttp",
	}
}
