package client

import (
	"encoding/json"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/nologo-earth/zerocam/pkg/config"
	"github.com/nologo-earth/zerocam/pkg/daemon"
)

func (c *Client) GetStatus() (*daemon.Status, error) {
	ret, err := c.Get("/status")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get daemon status")
	}

	var st daemon.Status
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal daemon status")
	}
	return &st, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}
	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}

	var version string
	if err := json.Unmarshal([]byte(ret), &version); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal version")
	}
	return version, nil
}

func (c *Client) GetExposure() (*daemon.ExposureStatus, error) {
	ret, err := c.Get("/exposure")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get exposure mode")
	}

	var st daemon.ExposureStatus
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal exposure mode")
	}
	return &st, nil
}

// ToggleExposure selects a shutter preset. Selecting the active preset
// returns the camera to auto exposure.
func (c *Client) ToggleExposure(preset string) (*daemon.ExposureStatus, error) {
	payload, err := json.Marshal(preset)
	if err != nil {
		return nil, err
	}

	ret, err := c.Put("/exposure", string(payload))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to set exposure preset")
	}

	var st daemon.ExposureStatus
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal exposure mode")
	}
	return &st, nil
}

func (c *Client) SetWifi(enabled bool) (string, error) {
	return c.Put("/wifi", strconv.FormatBool(enabled))
}

func (c *Client) SetAccessPoint(enabled bool) (string, error) {
	return c.Put("/access-point", strconv.FormatBool(enabled))
}

// Capture takes a picture now. It reports false when the daemon ignored the
// request because the self-timer is counting down.
func (c *Client) Capture() (bool, error) {
	ret, err := c.Post("/capture", "")
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to capture")
	}

	var res daemon.CaptureResult
	if err := json.Unmarshal([]byte(ret), &res); err != nil {
		return false, pkgerrors.Wrapf(err, "failed to unmarshal capture result")
	}
	return res.Captured, nil
}

// ToggleTimer starts the self-timer, or cancels it if it is already counting.
// It returns the resulting timer state.
func (c *Client) ToggleTimer() (string, error) {
	ret, err := c.Post("/timer", "")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to toggle self-timer")
	}

	var state string
	if err := json.Unmarshal([]byte(ret), &state); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal timer state")
	}
	return state, nil
}

// GetPreview fetches the latest preview frame as JPEG bytes.
func (c *Client) GetPreview() ([]byte, error) {
	ret, err := c.Get("/preview")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get preview frame")
	}
	return []byte(ret), nil
}

func (c *Client) GetIntervalCapture() (*daemon.IntervalStatus, error) {
	ret, err := c.Get("/interval-capture")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get interval capture status")
	}

	var st daemon.IntervalStatus
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal interval capture status")
	}
	return &st, nil
}

func (c *Client) ScheduleIntervalCapture(cronExpr string) (string, error) {
	payload, err := json.Marshal(cronExpr)
	if err != nil {
		return "", err
	}
	return c.Put("/interval-capture", string(payload))
}

func (c *Client) ClearIntervalCapture() (string, error) {
	return c.Delete("/interval-capture")
}

func (c *Client) Shutdown() (string, error) {
	return c.Post("/shutdown", "")
}
