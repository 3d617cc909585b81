// Package camera is the capability boundary to the camera device. The daemon
// only ever talks to the Camera interface; the exec-backed implementation
// drives the stock Raspberry Pi camera tools.
package camera

import "context"

// Control names understood by implementations. Values follow the libcamera
// control model: times in microseconds, gains as plain floats.
const (
	CtrlAeEnable         = "AeEnable"
	CtrlAeMeteringMode   = "AeMeteringMode"
	CtrlAeConstraintMode = "AeConstraintMode"
	CtrlAeExposureMode   = "AeExposureMode"
	CtrlAwbEnable        = "AwbEnable"
	CtrlAwbMode          = "AwbMode"
	CtrlAnalogueGain     = "AnalogueGain"
	CtrlExposureTime     = "ExposureTime"
)

// Controls is a set of camera control values keyed by control name.
type Controls map[string]any

// Clone returns a copy so callers can hold onto a control set without
// aliasing the owner's map.
func (c Controls) Clone() Controls {
	if c == nil {
		return nil
	}
	out := make(Controls, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// StillConfig describes a full-resolution still capture.
type StillConfig struct {
	Width    int
	Height   int
	Format   string
	Quality  int
	Controls Controls
}

// Camera is the device capability the controllers depend on.
type Camera interface {
	// Configure sets the preview stream geometry and initial controls.
	Configure(ctx context.Context, width, height int, controls Controls) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// SetControls updates controls on the running stream without
	// reconfiguring it.
	SetControls(ctx context.Context, controls Controls) error
	// CaptureFrame pulls one preview-sized frame as encoded JPEG bytes.
	CaptureFrame(ctx context.Context) ([]byte, error)
	// SwitchModeAndCaptureToFile switches to the still configuration,
	// captures one frame to path, and returns to the preview mode. The
	// running controls may be reset as a side effect.
	SwitchModeAndCaptureToFile(ctx context.Context, cfg StillConfig, path string) error
	// SensorResolution reports the sensor's native size.
	SensorResolution() (width, height int)
}
