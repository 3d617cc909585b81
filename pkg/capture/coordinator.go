// Package capture serializes still captures: immediate ones, and delayed
// ones via the cancellable self-timer.
package capture

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nologo-earth/zerocam/pkg/camera"
	"github.com/nologo-earth/zerocam/pkg/exposure"
)

// TimerState is the self-timer state.
type TimerState string

const (
	TimerIdle     TimerState = "idle"
	TimerCounting TimerState = "counting"
)

const stillFormat = "XRGB8888"

// Coordinator owns the timer state and performs captures. Captures may reset
// running camera controls, so every completed capture is followed by a manual
// exposure reapplication (a no-op in auto mode). The output directory and
// timer delay are read through getters at use time, so a config reload is
// picked up by the next capture or countdown.
type Coordinator struct {
	cam        camera.Camera
	exp        *exposure.Controller
	outputDir  func() string
	timerDelay func() time.Duration

	mu       sync.Mutex
	counting bool
	gen      int

	// injectable for tests
	now       func() time.Time
	afterFunc func(time.Duration, func())
}

func NewCoordinator(cam camera.Camera, exp *exposure.Controller, outputDir func() string, timerDelay func() time.Duration) *Coordinator {
	return &Coordinator{
		cam:        cam,
		exp:        exp,
		outputDir:  outputDir,
		timerDelay: timerDelay,
		now:        time.Now,
		afterFunc:  func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// TimerState reports whether a countdown is running.
func (c *Coordinator) TimerState() TimerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counting {
		return TimerCounting
	}
	return TimerIdle
}

// CaptureNow captures a still immediately. While a countdown is running it is
// a no-op and reports captured=false; the countdown is left untouched.
func (c *Coordinator) CaptureNow(ctx context.Context) (captured bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.counting {
		logrus.Info("capture ignored, self-timer is counting")
		return false, nil
	}
	return true, c.captureLocked(ctx)
}

// ToggleTimer starts the countdown when idle and cancels it when counting.
// Cancellation is cooperative: the scheduled callback stays scheduled and
// no-ops when it fires. Returns the timer state after the call.
func (c *Coordinator) ToggleTimer() TimerState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.counting {
		c.counting = false
		logrus.Info("self-timer cancelled")
		return TimerIdle
	}

	c.counting = true
	c.gen++
	gen := c.gen
	delay := c.timerDelay()
	logrus.Infof("self-timer started (%s)", delay)
	// The callback outlives whatever request started the countdown, so it
	// runs on its own context.
	c.afterFunc(delay, func() { c.fire(context.Background(), gen) })
	return TimerCounting
}

// fire is the deferred timer callback. The generation check makes stale
// callbacks (cancelled, or cancelled-and-restarted countdowns) harmless.
func (c *Coordinator) fire(ctx context.Context, gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.counting || c.gen != gen {
		logrus.Debug("self-timer fired after cancellation, no capture")
		return
	}

	c.counting = false
	logrus.Info("self-timer finished, capturing")
	if err := c.captureLocked(ctx); err != nil {
		logrus.Errorf("timer capture failed: %v", err)
	}
}

// captureLocked performs the still capture and the mandatory exposure
// reapplication. Failures are returned for the caller to report; they never
// bring the daemon down, and no partial file is guaranteed absent.
func (c *Coordinator) captureLocked(ctx context.Context) error {
	dir := c.outputDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pkgerrors.Wrapf(err, "failed to create output directory %s", dir)
	}

	path := filepath.Join(dir, c.now().Format("20060102150405")+".jpg")

	w, h := c.cam.SensorResolution()
	cfg := camera.StillConfig{
		Width:    w,
		Height:   h,
		Format:   stillFormat,
		Quality:  95,
		Controls: c.stillControls(),
	}

	logrus.WithFields(logrus.Fields{
		"path":   path,
		"manual": c.exp.Current().Manual,
	}).Info("saving image")

	err := c.cam.SwitchModeAndCaptureToFile(ctx, cfg, path)
	if err != nil {
		logrus.Errorf("still capture failed: %v", err)
	}

	// Reapply even after a failed capture: the mode switch may have reset
	// the running controls regardless.
	c.exp.Reapply(ctx)

	return err
}

func (c *Coordinator) stillControls() camera.Controls {
	mode := c.exp.Current()
	if mode.Manual {
		return mode.Controls.Clone()
	}
	// Auto capture: no explicit controls, the capture uses the camera's
	// own auto exposure.
	return nil
}
