package continuation

import (
	"bufio"
	"net"
	"testing"
	"time"
)

func TestWriteHeaderAndChunks(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	c := New(serverConn, "embedhttp/1", "test-uuid")

	done := make(chan error, 1)
	go func() {
		done <- c.WriteHeader("text/event-stream")
	}()

	reader := bufio.NewReader(clientConn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading status line: %v", err)
	}
	if statusLine != "HTTP/1.1 200 OK\r\n" {
		t.Fatalf("status line = %q", statusLine)
	}
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("reading headers: %v", err)
		}
		if line == "\r\n" {
			break
		}
	}
	if err := <-done; err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	writeErr := make(chan error, 1)
	go func() {
		writeErr <- c.WriteChunk([]byte("hello"))
	}()

	sizeLine, _ := reader.ReadString('\n')
	if sizeLine != "5\r\n" {
		t.Fatalf("chunk size line = %q, want 5\\r\\n", sizeLine)
	}
	payload := make([]byte, len("hello")+2)
	if _, err := reader.Read(payload); err != nil {
		t.Fatalf("reading chunk payload: %v", err)
	}
	if string(payload[:5]) != "hello" {
		t.Fatalf("chunk payload = %q", payload[:5])
	}
	if err := <-writeErr; err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
}

func TestProbeDetectsClose(t *testing.T) {
	serverConn, clientConn := net.Pipe()

	c := New(serverConn, "embedhttp/1", "test-uuid")
	var closedCalled bool
	c.OnConnectionClosed(func() { closedCalled = true })

	go func() {
		_ = c.WriteHeader("text/event-stream")
	}()

	reader := bufio.NewReader(clientConn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil || line == "\r\n" {
			break
		}
	}

	if !c.ProbeConnectionOK() {
		t.Fatal("expected probe to report OK before client closes")
	}

	clientConn.Close()
	serverConn.Close()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if !c.ProbeConnectionOK() {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if c.ProbeConnectionOK() {
		t.Fatal("expected probe to report closed after client disconnects")
	}
	if !closedCalled {
		t.Fatal("expected notifyClosed callback to fire")
	}
}
