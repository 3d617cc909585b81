package button

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, presses *int32) (*Watcher, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "value")
	if err := os.WriteFile(path, []byte("1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	w := &Watcher{
		valuePath: func() string { return path },
		interval:  2 * time.Millisecond,
		debounce:  20 * time.Millisecond,
		onPress:   func() { atomic.AddInt32(presses, 1) },
	}
	return w, path
}

func setValue(t *testing.T, path, v string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(v+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestPressEdgeFiresOnce(t *testing.T) {
	var presses int32
	w, path := newTestWatcher(t, &presses)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(10 * time.Millisecond)
	setValue(t, path, "0") // press and hold
	time.Sleep(30 * time.Millisecond)

	if got := atomic.LoadInt32(&presses); got != 1 {
		t.Fatalf("expected exactly 1 press while holding, got %d", got)
	}

	setValue(t, path, "1") // release
	time.Sleep(25 * time.Millisecond)
	setValue(t, path, "0") // press again after debounce
	time.Sleep(30 * time.Millisecond)

	if got := atomic.LoadInt32(&presses); got != 2 {
		t.Fatalf("expected 2 presses, got %d", got)
	}
}

func TestMissingGPIOGivesUpQuietly(t *testing.T) {
	var presses int32
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	w := &Watcher{
		valuePath: func() string { return missing },
		interval:  time.Millisecond,
		debounce:  time.Millisecond,
		onPress:   func() { atomic.AddInt32(&presses, 1) },
	}

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher must return when the GPIO is unavailable")
	}
	if atomic.LoadInt32(&presses) != 0 {
		t.Fatal("no presses expected")
	}
}
