package camera

import (
	"strings"
	"testing"
)

func TestControlFlagsManual(t *testing.T) {
	controls := Controls{
		CtrlAeEnable:     false,
		CtrlExposureTime: 8000,
		CtrlAnalogueGain: 1.0,
		CtrlAwbEnable:    true,
		CtrlAwbMode:      "auto",
	}

	got := strings.Join(controlFlags(controls), " ")
	for _, want := range []string{"--shutter 8000", "--gain 1", "--awb auto"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected flags to contain %q, got %q", want, got)
		}
	}
	if strings.Contains(got, "--metering") {
		t.Errorf("metering flag must not be set with AE disabled, got %q", got)
	}
}

func TestControlFlagsAuto(t *testing.T) {
	controls := Controls{
		CtrlAeEnable:       true,
		CtrlAeMeteringMode: "matrix",
		CtrlAwbEnable:      true,
		CtrlAwbMode:        "auto",
	}

	got := strings.Join(controlFlags(controls), " ")
	if strings.Contains(got, "--shutter") || strings.Contains(got, "--gain") {
		t.Errorf("auto mode must not carry manual exposure flags, got %q", got)
	}
	if !strings.Contains(got, "--metering matrix") {
		t.Errorf("expected metering flag, got %q", got)
	}
}

func TestFormatControlValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{8000, "8000"},
		{1.0, "1"},
		{true, "1"},
		{false, "0"},
		{"auto", "auto"},
	}
	for _, tt := range tests {
		if got := formatControlValue(tt.in); got != tt.want {
			t.Errorf("formatControlValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
