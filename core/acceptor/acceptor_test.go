package acceptor

import (
	"net"
	"testing"
	"time"
)

func TestListenAndServePlainTCP(t *testing.T) {
	a, err := Listen(Config{Endpoint: "127.0.0.1", Port: "0"})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer a.Close()

	connected := make(chan net.Conn, 1)
	go a.Serve(func(conn net.Conn) {
		connected <- conn
	})

	client, err := net.Dial("tcp", a.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	select {
	case conn := <-connected:
		conn.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for accepted connection")
	}
}

func TestCloseStopsServe(t *testing.T) {
	a, err := Listen(Config{Endpoint: "127.0.0.1", Port: "0"})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	serveDone := make(chan struct{})
	go func() {
		a.Serve(func(conn net.Conn) { conn.Close() })
		close(serveDone)
	}()

	a.Close()

	select {
	case <-serveDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}

func TestIsTLS(t *testing.T) {
	if (Config{}).IsTLS() {
		t.Fatal("empty config should not be TLS")
	}
	if !(Config{TLSKeyFile: "key.pem", TLSCertFile: "cert.pem"}).IsTLS() {
		t.Fatal("config with key file should be TLS")
	}
}
