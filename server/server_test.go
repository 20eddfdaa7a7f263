package server

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/searchktools/embedhttp/config"
	httpmodel "github.com/searchktools/embedhttp/core/http"
	"github.com/searchktools/embedhttp/core/router"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.HTTPEndpoint = "127.0.0.1"
	cfg.HTTPPort = "0"
	return cfg
}

func TestServerServesRegisteredRouteAndMetrics(t *testing.T) {
	s := New(testConfig(), nil)
	s.AddRoute("/hello", func(req *httpmodel.Request) router.Outcome {
		return router.Handled(httpmodel.String("world"))
	})

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	conn.Write([]byte("GET /hello HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading status line: %v", err)
	}
	if !strings.HasPrefix(statusLine, "HTTP/1.1 200") {
		t.Fatalf("status line = %q", statusLine)
	}

	// The server's self-metrics must be wired up and reachable.
	if got := s.InstanceMetrics(); got == nil {
		t.Fatal("InstanceMetrics returned nil")
	}
}

func TestServerMetricsEndpointServesRegistry(t *testing.T) {
	s := New(testConfig(), nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	conn.Write([]byte("GET /metrics HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading status line: %v", err)
	}
	if !strings.HasPrefix(statusLine, "HTTP/1.1 200") {
		t.Fatalf("status line = %q", statusLine)
	}
}

func TestServerStopClosesListener(t *testing.T) {
	s := New(testConfig(), nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := s.Addr().String()
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if _, err := net.DialTimeout("tcp", addr, 500*time.Millisecond); err == nil {
		t.Fatal("expected dial to a stopped server to fail")
	}
}
