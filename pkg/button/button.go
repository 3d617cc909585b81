// Package button watches the physical shutter-release button. The button is
// wired active-low with a pull-up; only the press edge matters to the rest
// of the system.
package button

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	pollInterval = 20 * time.Millisecond
	debounce     = 300 * time.Millisecond
)

// Watcher polls the sysfs GPIO value file and fires the press callback on a
// high-to-low edge. The pin is resolved through a getter on every read, so a
// config reload moves the watcher to the new pin.
type Watcher struct {
	valuePath func() string
	interval  time.Duration
	debounce  time.Duration
	onPress   func()
}

func NewWatcher(pin func() int, onPress func()) *Watcher {
	return &Watcher{
		valuePath: func() string { return fmt.Sprintf("/sys/class/gpio/gpio%d/value", pin()) },
		interval:  pollInterval,
		debounce:  debounce,
		onPress:   onPress,
	}
}

func (w *Watcher) read() (pressed bool, err error) {
	path := w.valuePath()
	b, err := os.ReadFile(path)
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to read %s", path)
	}
	return bytes.HasPrefix(bytes.TrimSpace(b), []byte("0")), nil
}

// Run polls until the context is cancelled. If the GPIO is not exported the
// watcher logs once and gives up; the rest of the system keeps working
// without the physical button.
func (w *Watcher) Run(ctx context.Context) {
	if _, err := w.read(); err != nil {
		logrus.Errorf("shutter button unavailable, physical capture disabled: %v", err)
		return
	}
	logrus.Debugf("shutter button watcher started on %s", w.valuePath())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	wasPressed := false
	var lastPress time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pressed, err := w.read()
			if err != nil {
				logrus.Debugf("shutter button read failed: %v", err)
				continue
			}

			if pressed && !wasPressed && time.Since(lastPress) >= w.debounce {
				lastPress = time.Now()
				logrus.Info("physical shutter button pressed")
				w.onPress()
			}
			wasPressed = pressed
		}
	}
}
