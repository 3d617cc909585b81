// Package netmode switches the device between WiFi client mode and access
// point mode by sequencing the system's network tools. The recorded mode is
// the intended one; on partial command failure it can diverge from what the
// services are actually doing, and that divergence is surfaced in logs and
// errors rather than corrected behind the caller's back.
package netmode

// Mode is the intended network mode.
type Mode string

const (
	ModeRadioOff    Mode = "off"
	ModeClient      Mode = "client"
	ModeAccessPoint Mode = "access-point"
)
