// Package exposure tracks the camera's exposure mode: auto, or one of the
// fixed manual shutter presets. It is the only owner of that state.
package exposure

import (
	"context"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nologo-earth/zerocam/pkg/camera"
)

// Mode is the current exposure mode. Manual carries the preset it was derived
// from and the full control set to apply to the device.
type Mode struct {
	Manual   bool
	Preset   string
	Controls camera.Controls
}

// AutoControls is the fixed control set for auto exposure.
func AutoControls() camera.Controls {
	return camera.Controls{
		camera.CtrlAeEnable:         true,
		camera.CtrlAeMeteringMode:   "matrix",
		camera.CtrlAeConstraintMode: "normal",
		camera.CtrlAeExposureMode:   "normal",
		camera.CtrlAwbEnable:        true,
		camera.CtrlAwbMode:          "auto",
	}
}

// ManualControls derives the control set for a preset exposure time. Manual
// mode pins the analogue gain and disables AE while keeping AWB on.
func ManualControls(exposureTime int) camera.Controls {
	return camera.Controls{
		camera.CtrlAnalogueGain: 1.0,
		camera.CtrlAeEnable:     false,
		camera.CtrlExposureTime: exposureTime,
		camera.CtrlAwbEnable:    true,
		camera.CtrlAwbMode:      "auto",
	}
}

// Controller owns the exposure mode and applies it to the camera. The preview
// dimensions are read through getters so a config reload is picked up by the
// next reconfigure.
type Controller struct {
	cam           camera.Camera
	previewWidth  func() int
	previewHeight func() int

	mu   sync.Mutex
	mode Mode
}

func NewController(cam camera.Camera, previewWidth, previewHeight func() int) *Controller {
	return &Controller{
		cam:           cam,
		previewWidth:  previewWidth,
		previewHeight: previewHeight,
		mode:          Mode{Controls: AutoControls()},
	}
}

// Current returns the recorded exposure mode. On a device reconfigure
// failure this is the requested mode, which may differ from what the
// hardware is actually doing; see Toggle.
func (c *Controller) Current() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Mode {
	return Mode{
		Manual:   c.mode.Manual,
		Preset:   c.mode.Preset,
		Controls: c.mode.Controls.Clone(),
	}
}

// Toggle switches the exposure mode. Toggling the active preset reverts to
// auto; toggling any other preset replaces the active one atomically. The
// recorded mode is updated before the device confirms: if both apply paths
// fail, Current() reports the requested mode while the hardware keeps the old
// settings. That divergence is logged, not corrected.
func (c *Controller) Toggle(ctx context.Context, preset string) (Mode, error) {
	exposureTime, ok := Presets[preset]
	if !ok {
		return Mode{}, pkgerrors.Errorf("unknown exposure preset %q", preset)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode.Manual && c.mode.Preset == preset {
		c.mode = Mode{Controls: AutoControls()}
		logrus.Info("re-enabling auto exposure")
	} else {
		c.mode = Mode{
			Manual:   true,
			Preset:   preset,
			Controls: ManualControls(exposureTime),
		}
		logrus.WithFields(logrus.Fields{
			"preset":       preset,
			"exposureTime": exposureTime,
		}).Info("setting manual exposure")
	}

	if err := c.applyLocked(ctx); err != nil {
		logrus.Errorf("failed to apply exposure mode: %v", err)
	}
	return c.snapshotLocked(), nil
}

// Reapply pushes the recorded manual mode back to the device. Captures can
// reset running controls, so the coordinator calls this after every capture.
// A no-op in auto mode.
func (c *Controller) Reapply(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mode.Manual {
		return
	}

	logrus.Debugf("re-applying manual exposure (preset %s) after capture", c.mode.Preset)
	if err := c.applyLocked(ctx); err != nil {
		logrus.Errorf("failed to re-apply manual exposure: %v", err)
	}
}

// applyLocked tries the lightweight running-controls update first and only
// falls back to a full stop/reconfigure/start cycle if that fails.
func (c *Controller) applyLocked(ctx context.Context) error {
	controls := c.mode.Controls.Clone()

	err := c.cam.SetControls(ctx, controls)
	if err == nil {
		return nil
	}
	logrus.Debugf("set controls failed (%v), reconfiguring", err)

	if err := c.cam.Stop(ctx); err != nil {
		return pkgerrors.Wrap(err, "stop before reconfigure")
	}
	if err := c.cam.Configure(ctx, c.previewWidth(), c.previewHeight(), controls); err != nil {
		return pkgerrors.Wrap(err, "reconfigure")
	}
	if err := c.cam.Start(ctx); err != nil {
		return pkgerrors.Wrap(err, "restart after reconfigure")
	}
	return nil
}
