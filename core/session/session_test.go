package session

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	httpmodel "github.com/searchktools/embedhttp/core/http"
	"github.com/searchktools/embedhttp/core/router"
)

func newTestRoutes() *router.Table {
	tbl := router.NewTable()
	tbl.AddRoute("/hello", func(req *httpmodel.Request) router.Outcome {
		return router.Handled(httpmodel.String("world"))
	})
	return tbl
}

func TestSessionServesOneRequestThenKeepsAlive(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	routes := newTestRoutes()
	s := New(serverConn, DefaultConfig(), routes, httpmodel.AllowAllAuthenticator, nil)
	go s.Run()

	clientConn.SetDeadline(time.Now().Add(2 * time.Second))
	_, err := clientConn.Write([]byte("GET /hello HTTP/1.1\r\nHost: x\r\n\r\n"))
	if err != nil {
		t.Fatalf("write request: %v", err)
	}

	reader := bufio.NewReader(clientConn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading status line: %v", err)
	}
	if !strings.HasPrefix(statusLine, "HTTP/1.1 200") {
		t.Fatalf("status line = %q", statusLine)
	}

	var contentLength int
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("reading headers: %v", err)
		}
		if line == "\r\n" {
			break
		}
		if strings.HasPrefix(line, "Content-Length:") {
			lenStr := strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:"))
			for _, c := range lenStr {
				contentLength = contentLength*10 + int(c-'0')
			}
		}
		if strings.HasPrefix(line, "Connection:") && !strings.Contains(line, "keep-alive") {
			t.Fatalf("expected keep-alive connection, got %q", line)
		}
	}

	body := make([]byte, contentLength)
	if _, err := reader.Read(body); err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(body) != "world" {
		t.Fatalf("body = %q, want world", body)
	}
}

func TestSessionClosesOnConnectionClose(t *testing.T) {
	serverConn, clientConn := net.Pipe()

	routes := newTestRoutes()
	s := New(serverConn, DefaultConfig(), routes, httpmodel.AllowAllAuthenticator, nil)
	runDone := make(chan struct{})
	go func() {
		s.Run()
		close(runDone)
	}()

	clientConn.SetDeadline(time.Now().Add(2 * time.Second))
	clientConn.Write([]byte("GET /hello HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))

	reader := bufio.NewReader(clientConn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading status line: %v", err)
	}
	if !strings.HasPrefix(statusLine, "HTTP/1.1 200") {
		t.Fatalf("status line = %q", statusLine)
	}
	for {
		line, err := reader.ReadString('\n')
		if err != nil || line == "\r\n" {
			break
		}
		if strings.HasPrefix(line, "Connection:") && !strings.Contains(line, "close") {
			t.Fatalf("expected Connection: close, got %q", line)
		}
	}

	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not close after Connection: close request")
	}
	clientConn.Close()
}

func TestSessionUnauthorizedDenied(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	routes := newTestRoutes()
	denyAll := func(httpmodel.AuthRequest) httpmodel.Auth { return httpmodel.Auth{Access: false} }
	s := New(serverConn, DefaultConfig(), routes, denyAll, nil)
	go s.Run()

	clientConn.SetDeadline(time.Now().Add(2 * time.Second))
	clientConn.Write([]byte("GET /hello HTTP/1.1\r\nHost: x\r\n\r\n"))

	reader := bufio.NewReader(clientConn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading status line: %v", err)
	}
	if !strings.HasPrefix(statusLine, "HTTP/1.1 401") {
		t.Fatalf("status line = %q, want 401", statusLine)
	}
}
