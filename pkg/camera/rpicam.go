package camera

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HQ camera sensor (IMX477).
const (
	defaultSensorWidth  = 4056
	defaultSensorHeight = 3040
)

// Rpicam drives the camera through the stock Raspberry Pi command-line tools:
// rpicam-still for frames and stills, v4l2-ctl for updating controls on the
// running stream.
type Rpicam struct {
	devicePath   string
	sensorWidth  int
	sensorHeight int

	mu       sync.Mutex
	width    int
	height   int
	controls Controls
	started  bool
}

func NewRpicam(devicePath string) *Rpicam {
	return &Rpicam{
		devicePath:   devicePath,
		sensorWidth:  defaultSensorWidth,
		sensorHeight: defaultSensorHeight,
	}
}

var _ Camera = &Rpicam{}

func (r *Rpicam) Configure(_ context.Context, width, height int, controls Controls) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if width <= 0 || height <= 0 {
		return pkgerrors.Errorf("invalid preview size %dx%d", width, height)
	}
	r.width = width
	r.height = height
	r.controls = controls.Clone()
	return nil
}

func (r *Rpicam) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.width == 0 {
		return pkgerrors.New("camera not configured")
	}
	r.started = true
	return nil
}

func (r *Rpicam) Stop(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = false
	return nil
}

// v4l2Ctrls maps libcamera control names to the V4L2 control names the
// driver exposes. Controls without a mapping are applied on the next capture
// instead of the running stream.
var v4l2Ctrls = map[string]string{
	CtrlExposureTime: "exposure_time_absolute",
	CtrlAnalogueGain: "analogue_gain",
}

func (r *Rpicam) SetControls(ctx context.Context, controls Controls) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return pkgerrors.New("camera not started")
	}
	r.controls = controls.Clone()
	device := r.devicePath
	r.mu.Unlock()

	// AE on/off has to go first so manual values stick.
	if ae, ok := controls[CtrlAeEnable].(bool); ok {
		v := "0"
		if !ae {
			v = "1" // V4L2: 1 = manual exposure
		}
		if err := setV4L2Control(ctx, device, "auto_exposure", v); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(controls))
	for name := range controls {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctrl, ok := v4l2Ctrls[name]
		if !ok {
			continue
		}
		if err := setV4L2Control(ctx, device, ctrl, formatControlValue(controls[name])); err != nil {
			return err
		}
	}
	return nil
}

func setV4L2Control(ctx context.Context, device, name, value string) error {
	cmd := exec.CommandContext(ctx, "v4l2-ctl", "--device", device, "--set-ctrl", fmt.Sprintf("%s=%s", name, value))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return pkgerrors.Wrapf(err, "failed to set control %s (stderr: %s)", name, stderr.String())
	}
	return nil
}

func formatControlValue(v any) string {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (r *Rpicam) CaptureFrame(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil, pkgerrors.New("camera not started")
	}
	args := []string{
		"--immediate", "--nopreview",
		"--width", strconv.Itoa(r.width),
		"--height", strconv.Itoa(r.height),
		"--encoding", "jpg",
		"--output", "-",
	}
	args = append(args, controlFlags(r.controls)...)
	r.mu.Unlock()

	cmd := exec.CommandContext(ctx, "rpicam-still", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, pkgerrors.Wrapf(err, "frame capture failed (stderr: %s)", stderr.String())
	}
	return stdout.Bytes(), nil
}

func (r *Rpicam) SwitchModeAndCaptureToFile(ctx context.Context, cfg StillConfig, path string) error {
	quality := cfg.Quality
	if quality == 0 {
		quality = 95
	}
	args := []string{
		"--immediate", "--nopreview",
		"--width", strconv.Itoa(cfg.Width),
		"--height", strconv.Itoa(cfg.Height),
		"--quality", strconv.Itoa(quality),
		"--output", path,
	}
	args = append(args, controlFlags(cfg.Controls)...)

	logrus.WithFields(logrus.Fields{
		"path":   path,
		"width":  cfg.Width,
		"height": cfg.Height,
	}).Debug("capturing still")

	cmd := exec.CommandContext(ctx, "rpicam-still", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return pkgerrors.Wrapf(err, "still capture failed (stderr: %s)", stderr.String())
	}
	return nil
}

func (r *Rpicam) SensorResolution() (int, int) {
	return r.sensorWidth, r.sensorHeight
}

// controlFlags translates a control set into rpicam-still flags. Manual
// exposure only takes effect when AE is disabled, matching libcamera.
func controlFlags(controls Controls) []string {
	var flags []string

	aeOff := false
	if ae, ok := controls[CtrlAeEnable].(bool); ok && !ae {
		aeOff = true
	}
	if aeOff {
		if us, ok := controls[CtrlExposureTime].(int); ok {
			flags = append(flags, "--shutter", strconv.Itoa(us))
		}
		if gain, ok := controls[CtrlAnalogueGain].(float64); ok {
			flags = append(flags, "--gain", strconv.FormatFloat(gain, 'f', -1, 64))
		}
	}
	if mode, ok := controls[CtrlAwbMode].(string); ok {
		flags = append(flags, "--awb", mode)
	}
	if mode, ok := controls[CtrlAeMeteringMode].(string); ok && !aeOff {
		flags = append(flags, "--metering", mode)
	}
	return flags
}
