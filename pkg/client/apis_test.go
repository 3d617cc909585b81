package client

import (
	"net"
	"net/http"
	"path/filepath"
	"testing"
)

// serveOnSocket runs an HTTP handler on a unix socket for the test's lifetime.
func serveOnSocket(t *testing.T, handler http.Handler) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "d.sock")
	l, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	srv := &http.Server{Handler: handler}
	go srv.Serve(l)
	t.Cleanup(func() { srv.Close() })

	return path
}

func TestGetVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`"1.2.3"`))
	})
	c := NewClient(serveOnSocket(t, mux))

	version, err := c.GetVersion()
	if err != nil {
		t.Fatalf("GetVersion returned error: %v", err)
	}
	if version != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %q", version)
	}
}

func TestGetVersionEmptyBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/version", func(http.ResponseWriter, *http.Request) {})
	c := NewClient(serveOnSocket(t, mux))

	// An empty 200 body must surface as an error, not a crash.
	if _, err := c.GetVersion(); err == nil {
		t.Fatal("expected error for empty version body")
	}
}

func TestDaemonNotRunning(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	if _, err := c.GetVersion(); err == nil {
		t.Fatal("expected error when the daemon socket does not exist")
	}
}
