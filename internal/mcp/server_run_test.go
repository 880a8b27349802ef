package mcp

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/inkswift/mcp-pdf-signer/internal/config"
	"github.com/inkswift/mcp-pdf-signer/internal/pdf"
)

// freePort asks the kernel for an unused TCP port
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func newRunServer(t *testing.T, mode string, port int) *Server {
	t.Helper()
	dir := t.TempDir()
	cfg := newTestConfig(dir)
	cfg.Mode = mode
	cfg.Host = "127.0.0.1"
	cfg.Port = port

	pdfService, err := pdf.NewService(cfg.MaxFileSize, dir, cfg.FieldDefaults(), nil)
	if err != nil {
		t.Fatalf("failed to create PDF service: %v", err)
	}
	server, err := NewServer(cfg, pdfService)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return server
}

func TestServer_Run_ServerMode_CanceledContext(t *testing.T) {
	server := newRunServer(t, config.ModeServer, freePort(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := server.Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "context") {
		t.Errorf("Run() error = %v, expected context-related error", err)
	}
}

func TestServer_Run_ServerMode_Serves(t *testing.T) {
	port := freePort(t)
	server := newRunServer(t, config.ModeServer, port)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run(ctx)
	}()

	addr := server.config.Address()
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("server did not start listening on %s: %v", addr, err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Run() error = %v, expected clean shutdown", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Error("Run() did not return after context cancellation")
	}
}

func TestServer_Run_ServerMode_PortInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer l.Close()

	server := newRunServer(t, config.ModeServer, l.Addr().(*net.TCPAddr).Port)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = server.Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "failed to serve sse") {
		t.Errorf("Run() error = %v, expected listen failure", err)
	}
}
