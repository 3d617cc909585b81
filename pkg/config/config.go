package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Config is what the daemon reads its fixed constants from. Values change
// only on reload (SIGHUP), never through the API.
type Config interface {
	ClientConnection() string
	APSSID() string
	APPassword() string
	APConnection() string
	APInterface() string
	APStabilizeDelay() time.Duration

	TimerDelay() time.Duration
	OutputDirectory() string

	PreviewWidth() int
	PreviewHeight() int
	PreviewInterval() time.Duration

	CameraDevice() string
	CommandTimeout() time.Duration
	GPIOPin() int
	AllowNonRootAccess() bool

	// Load reads the configuration from the source.
	Load() error

	LogrusFields() logrus.Fields
}
