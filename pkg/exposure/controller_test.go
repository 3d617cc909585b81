package exposure

import (
	"context"
	"testing"

	"github.com/nologo-earth/zerocam/pkg/camera"
)

func newTestController() (*Controller, *camera.Mock) {
	mock := camera.NewMock()
	size := func(n int) func() int { return func() int { return n } }
	return NewController(mock, size(960), size(720)), mock
}

func TestToggleAlternatesAutoManual(t *testing.T) {
	c, _ := newTestController()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mode, err := c.Toggle(ctx, "1/125")
		if err != nil {
			t.Fatalf("Toggle returned error: %v", err)
		}
		if !mode.Manual || mode.Preset != "1/125" {
			t.Fatalf("iteration %d: expected Manual(1/125), got %+v", i, mode)
		}

		mode, err = c.Toggle(ctx, "1/125")
		if err != nil {
			t.Fatalf("Toggle returned error: %v", err)
		}
		if mode.Manual {
			t.Fatalf("iteration %d: expected auto after second toggle, got %+v", i, mode)
		}
	}
}

func TestTogglingOtherPresetReplaces(t *testing.T) {
	c, _ := newTestController()
	ctx := context.Background()

	if _, err := c.Toggle(ctx, "1/60"); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	mode, err := c.Toggle(ctx, "1/250")
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	if !mode.Manual || mode.Preset != "1/250" {
		t.Fatalf("expected Manual(1/250), got %+v", mode)
	}
	if got := mode.Controls[camera.CtrlExposureTime]; got != Presets["1/250"] {
		t.Fatalf("expected exposure time %d, got %v", Presets["1/250"], got)
	}
}

func TestToggleUnknownPreset(t *testing.T) {
	c, _ := newTestController()
	if _, err := c.Toggle(context.Background(), "1/7"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
	if c.Current().Manual {
		t.Fatal("mode must be unchanged after a rejected toggle")
	}
}

func TestManualControlsShape(t *testing.T) {
	c, mock := newTestController()

	if _, err := c.Toggle(context.Background(), "1/125"); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	applied := mock.LastControls()
	if applied == nil {
		t.Fatal("expected controls to be applied to the camera")
	}
	if applied[camera.CtrlAeEnable] != false {
		t.Errorf("manual mode must disable AE, got %v", applied[camera.CtrlAeEnable])
	}
	if applied[camera.CtrlAwbEnable] != true {
		t.Errorf("manual mode must keep AWB enabled, got %v", applied[camera.CtrlAwbEnable])
	}
	if applied[camera.CtrlAnalogueGain] != 1.0 {
		t.Errorf("manual mode must pin gain to 1.0, got %v", applied[camera.CtrlAnalogueGain])
	}
	if applied[camera.CtrlExposureTime] != 8000 {
		t.Errorf("expected exposure time 8000, got %v", applied[camera.CtrlExposureTime])
	}
}

func TestApplyFallsBackToReconfigure(t *testing.T) {
	c, mock := newTestController()
	mock.FailSetControls = true

	mode, err := c.Toggle(context.Background(), "1/30")
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	if mock.StopCalls != 1 || mock.ConfigureCalls != 1 || mock.StartCalls != 1 {
		t.Fatalf("expected stop/configure/start fallback, got stop=%d configure=%d start=%d",
			mock.StopCalls, mock.ConfigureCalls, mock.StartCalls)
	}
	if !mode.Manual || mode.Preset != "1/30" {
		t.Fatalf("expected Manual(1/30), got %+v", mode)
	}
}

func TestReconfigureUsesReloadedPreviewSize(t *testing.T) {
	mock := camera.NewMock()
	width, height := 960, 720
	c := NewController(mock, func() int { return width }, func() int { return height })
	mock.FailSetControls = true

	if _, err := c.Toggle(context.Background(), "1/30"); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	// A changed preview size must be honored by the next reconfigure.
	width, height = 1280, 960
	if _, err := c.Toggle(context.Background(), "1/30"); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if mock.LastConfigureW != 1280 || mock.LastConfigureH != 960 {
		t.Fatalf("expected reconfigure at 1280x960, got %dx%d", mock.LastConfigureW, mock.LastConfigureH)
	}
}

func TestTotalApplyFailureKeepsRequestedMode(t *testing.T) {
	// Recorded mode is updated optimistically even when both apply paths
	// fail; the divergence from device truth is reported via logs only.
	c, mock := newTestController()
	mock.FailSetControls = true
	mock.FailConfigure = true

	mode, err := c.Toggle(context.Background(), "1/500")
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if !mode.Manual || mode.Preset != "1/500" {
		t.Fatalf("expected requested mode to be recorded, got %+v", mode)
	}
	if cur := c.Current(); !cur.Manual || cur.Preset != "1/500" {
		t.Fatalf("Current() must report the requested mode, got %+v", cur)
	}
}

func TestReapplyNoopInAuto(t *testing.T) {
	c, mock := newTestController()

	c.Reapply(context.Background())
	if len(mock.ControlCalls) != 0 {
		t.Fatalf("auto-mode reapply must not touch the camera, got %d calls", len(mock.ControlCalls))
	}
}

func TestReapplyPushesManualControls(t *testing.T) {
	c, mock := newTestController()
	ctx := context.Background()

	if _, err := c.Toggle(ctx, "1/125"); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	before := len(mock.ControlCalls)

	c.Reapply(ctx)
	if len(mock.ControlCalls) != before+1 {
		t.Fatalf("expected one more control call, got %d -> %d", before, len(mock.ControlCalls))
	}
	if got := mock.LastControls()[camera.CtrlExposureTime]; got != 8000 {
		t.Fatalf("reapplied controls must carry the preset time, got %v", got)
	}
}
