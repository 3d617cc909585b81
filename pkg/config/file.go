package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nologo-earth/zerocam/pkg/utils/ptr"
)

var defaultFileConfig = &RawFileConfig{
	ClientConnection: ptr.To("preconfigured"),
	APSSID:           ptr.To("3zero"),
	APPassword:       ptr.To("3zerocamera"),
	APConnection:     ptr.To("CameraHotspot"),
	APInterface:      ptr.To("wlan0"),
	// The hotspot interface needs a generous window before samba can bind
	// to it cleanly.
	APStabilizeSeconds: ptr.To(15),

	TimerDelaySeconds: ptr.To(10),
	OutputDirectory:   ptr.To("/srv/DCIM"),

	PreviewWidth:      ptr.To(960),
	PreviewHeight:     ptr.To(720),
	PreviewIntervalMs: ptr.To(33),

	CameraDevice:          ptr.To("/dev/video0"),
	CommandTimeoutSeconds: ptr.To(30),
	GPIOPin:               ptr.To(26),
	AllowNonRootAccess:    ptr.To(false),
}

var _ Config = &File{}

// File is a Config backed by a JSON file. A missing or empty file yields the
// defaults.
type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	if err := f.Load(); err != nil {
		return nil, err
	}
	return f, nil
}

// RawFileConfig is the on-disk shape. Pointer fields distinguish "absent"
// from zero values; absent fields fall back to the defaults.
type RawFileConfig struct {
	ClientConnection   *string `json:"clientConnection,omitempty"`
	APSSID             *string `json:"apSSID,omitempty"`
	APPassword         *string `json:"apPassword,omitempty"`
	APConnection       *string `json:"apConnection,omitempty"`
	APInterface        *string `json:"apInterface,omitempty"`
	APStabilizeSeconds *int    `json:"apStabilizeSeconds,omitempty"`

	TimerDelaySeconds *int    `json:"timerDelaySeconds,omitempty"`
	OutputDirectory   *string `json:"outputDirectory,omitempty"`

	PreviewWidth      *int `json:"previewWidth,omitempty"`
	PreviewHeight     *int `json:"previewHeight,omitempty"`
	PreviewIntervalMs *int `json:"previewIntervalMs,omitempty"`

	CameraDevice          *string `json:"cameraDevice,omitempty"`
	CommandTimeoutSeconds *int    `json:"commandTimeoutSeconds,omitempty"`
	GPIOPin               *int    `json:"gpioPin,omitempty"`
	AllowNonRootAccess    *bool   `json:"allowNonRootAccess,omitempty"`
}

func stringOr(v, def *string) string {
	if v != nil {
		return *v
	}
	return *def
}

func intOr(v, def *int) int {
	if v != nil {
		return *v
	}
	return *def
}

func boolOr(v, def *bool) bool {
	if v != nil {
		return *v
	}
	return *def
}

func (f *File) ClientConnection() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return stringOr(f.c.ClientConnection, defaultFileConfig.ClientConnection)
}

func (f *File) APSSID() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return stringOr(f.c.APSSID, defaultFileConfig.APSSID)
}

func (f *File) APPassword() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return stringOr(f.c.APPassword, defaultFileConfig.APPassword)
}

func (f *File) APConnection() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return stringOr(f.c.APConnection, defaultFileConfig.APConnection)
}

func (f *File) APInterface() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return stringOr(f.c.APInterface, defaultFileConfig.APInterface)
}

func (f *File) APStabilizeDelay() time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return time.Duration(intOr(f.c.APStabilizeSeconds, defaultFileConfig.APStabilizeSeconds)) * time.Second
}

func (f *File) TimerDelay() time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return time.Duration(intOr(f.c.TimerDelaySeconds, defaultFileConfig.TimerDelaySeconds)) * time.Second
}

func (f *File) OutputDirectory() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return stringOr(f.c.OutputDirectory, defaultFileConfig.OutputDirectory)
}

func (f *File) PreviewWidth() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return intOr(f.c.PreviewWidth, defaultFileConfig.PreviewWidth)
}

func (f *File) PreviewHeight() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return intOr(f.c.PreviewHeight, defaultFileConfig.PreviewHeight)
}

func (f *File) PreviewInterval() time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return time.Duration(intOr(f.c.PreviewIntervalMs, defaultFileConfig.PreviewIntervalMs)) * time.Millisecond
}

func (f *File) CameraDevice() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return stringOr(f.c.CameraDevice, defaultFileConfig.CameraDevice)
}

func (f *File) CommandTimeout() time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return time.Duration(intOr(f.c.CommandTimeoutSeconds, defaultFileConfig.CommandTimeoutSeconds)) * time.Second
}

func (f *File) GPIOPin() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return intOr(f.c.GPIOPin, defaultFileConfig.GPIOPin)
}

func (f *File) AllowNonRootAccess() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return boolOr(f.c.AllowNonRootAccess, defaultFileConfig.AllowNonRootAccess)
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing file means defaults. Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		if err := fp.Close(); err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	if err := json.Unmarshal(b, &conf); err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

// NewRawFileConfigFromConfig snapshots any Config into the on-disk shape,
// with every default resolved. Used by the HTTP API to report the effective
// configuration.
func NewRawFileConfigFromConfig(c Config) *RawFileConfig {
	return &RawFileConfig{
		ClientConnection:   ptr.To(c.ClientConnection()),
		APSSID:             ptr.To(c.APSSID()),
		APPassword:         ptr.To(c.APPassword()),
		APConnection:       ptr.To(c.APConnection()),
		APInterface:        ptr.To(c.APInterface()),
		APStabilizeSeconds: ptr.To(int(c.APStabilizeDelay() / time.Second)),

		TimerDelaySeconds: ptr.To(int(c.TimerDelay() / time.Second)),
		OutputDirectory:   ptr.To(c.OutputDirectory()),

		PreviewWidth:      ptr.To(c.PreviewWidth()),
		PreviewHeight:     ptr.To(c.PreviewHeight()),
		PreviewIntervalMs: ptr.To(int(c.PreviewInterval() / time.Millisecond)),

		CameraDevice:          ptr.To(c.CameraDevice()),
		CommandTimeoutSeconds: ptr.To(int(c.CommandTimeout() / time.Second)),
		GPIOPin:               ptr.To(c.GPIOPin()),
		AllowNonRootAccess:    ptr.To(c.AllowNonRootAccess()),
	}
}

func (f *File) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"clientConnection": f.ClientConnection(),
		"apSSID":           f.APSSID(),
		"apConnection":     f.APConnection(),
		"apInterface":      f.APInterface(),
		"apStabilizeDelay": f.APStabilizeDelay().String(),
		"timerDelay":       f.TimerDelay().String(),
		"outputDirectory":  f.OutputDirectory(),
		"previewWidth":     f.PreviewWidth(),
		"previewHeight":    f.PreviewHeight(),
		"gpioPin":          f.GPIOPin(),
	}
}
