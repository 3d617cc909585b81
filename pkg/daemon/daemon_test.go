package daemon

import (
	"net"
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveStaleSocketMissingPath(t *testing.T) {
	if err := removeStaleSocket(filepath.Join(t.TempDir(), "none.sock")); err != nil {
		t.Fatalf("missing socket must be a no-op, got %v", err)
	}
}

func TestRemoveStaleSocketClearsLeftover(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zerocam.sock")

	// Simulate an unclean shutdown: the socket file exists but nothing is
	// accepting on it.
	l, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	l.(*net.UnixListener).SetUnlinkOnClose(false)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected leftover socket file: %v", err)
	}

	if err := removeStaleSocket(path); err != nil {
		t.Fatalf("removeStaleSocket: %v", err)
	}

	l2, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("expected to bind after cleanup: %v", err)
	}
	l2.Close()
}

func TestRemoveStaleSocketRefusesLiveDaemon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zerocam.sock")

	l, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	if err := removeStaleSocket(path); err == nil {
		t.Fatal("expected an error while another listener holds the socket")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("live socket must not be removed: %v", err)
	}
}
