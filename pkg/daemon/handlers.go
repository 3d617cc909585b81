package daemon

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nologo-earth/zerocam/pkg/config"
	"github.com/nologo-earth/zerocam/pkg/exposure"
	"github.com/nologo-earth/zerocam/pkg/netmode"
	"github.com/nologo-earth/zerocam/pkg/version"
)

// Status is the daemon state summary returned by GET /status.
type Status struct {
	NetworkMode  string         `json:"networkMode"`
	Exposure     ExposureStatus `json:"exposure"`
	Timer        string         `json:"timer"`
	ScheduleExpr string         `json:"scheduleExpr,omitempty"`
	ScheduleNext string         `json:"scheduleNext,omitempty"`
}

// ExposureStatus describes the current exposure mode. Preset is empty in
// auto mode.
type ExposureStatus struct {
	Manual  bool     `json:"manual"`
	Preset  string   `json:"preset,omitempty"`
	Presets []string `json:"presets"`
}

// CaptureResult reports whether POST /capture actually took a picture. A
// running self-timer makes immediate captures no-ops.
type CaptureResult struct {
	Captured bool `json:"captured"`
}

// IntervalStatus is the interval-capture schedule as reported by the API.
type IntervalStatus struct {
	Active  bool   `json:"active"`
	Expr    string `json:"expr,omitempty"`
	NextRun string `json:"nextRun,omitempty"`
}

func exposureStatus() ExposureStatus {
	mode := expCtrl.Current()
	return ExposureStatus{
		Manual:  mode.Manual,
		Preset:  mode.Preset,
		Presets: exposure.Order,
	}
}

func getStatus(c *gin.Context) {
	st := Status{
		NetworkMode: string(netCtrl.Mode()),
		Exposure:    exposureStatus(),
		Timer:       string(coord.TimerState()),
	}
	if expr, next := sched.Status(); expr != "" {
		st.ScheduleExpr = expr
		st.ScheduleNext = next.Format(time.RFC3339)
	}
	c.IndentedJSON(http.StatusOK, st)
}

func getConfig(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, config.NewRawFileConfigFromConfig(conf))
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

func getExposure(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, exposureStatus())
}

// setExposure toggles a shutter preset: selecting the active preset returns
// to auto, selecting another replaces it.
func setExposure(c *gin.Context) {
	var preset string
	if err := c.BindJSON(&preset); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if _, err := expCtrl.Toggle(c.Request.Context(), preset); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, exposureStatus())
}

func setWifi(c *gin.Context) {
	var on bool
	if err := c.BindJSON(&on); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	var err error
	if on {
		err = netCtrl.EnableWifi(c.Request.Context())
	} else {
		err = netCtrl.DisableWifi(c.Request.Context())
	}
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set wifi to %t, mode is now %s", on, netCtrl.Mode())
	c.IndentedJSON(http.StatusCreated, string(netCtrl.Mode()))
}

func setAccessPoint(c *gin.Context) {
	var on bool
	if err := c.BindJSON(&on); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if on && netCtrl.Mode() == netmode.ModeRadioOff {
		msg := "wifi is off, turn it on before enabling the access point"
		c.IndentedJSON(http.StatusBadRequest, msg)
		c.Abort()
		return
	}

	var err error
	if on {
		err = netCtrl.EnableAccessPoint(c.Request.Context())
	} else {
		err = netCtrl.DisableAccessPoint(c.Request.Context())
	}
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set access point to %t, mode is now %s", on, netCtrl.Mode())
	c.IndentedJSON(http.StatusCreated, string(netCtrl.Mode()))
}

func doCapture(c *gin.Context) {
	captured, err := coord.CaptureNow(c.Request.Context())
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, CaptureResult{Captured: captured})
}

func toggleTimer(c *gin.Context) {
	state := coord.ToggleTimer()
	c.IndentedJSON(http.StatusCreated, string(state))
}

func getPreview(c *gin.Context) {
	frame, _, ok := previewCache.Latest()
	if !ok {
		c.IndentedJSON(http.StatusNotFound, "no preview frame available yet")
		c.Abort()
		return
	}
	c.Data(http.StatusOK, "image/jpeg", frame)
}

func getIntervalCapture(c *gin.Context) {
	expr, next := sched.Status()
	if expr == "" {
		c.IndentedJSON(http.StatusOK, IntervalStatus{Active: false})
		return
	}
	c.IndentedJSON(http.StatusOK, IntervalStatus{
		Active:  true,
		Expr:    expr,
		NextRun: next.Format(time.RFC3339),
	})
}

func setIntervalCapture(c *gin.Context) {
	var expr string
	if err := c.BindJSON(&expr); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if err := sched.Schedule(expr); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, "ok")
}

func clearIntervalCapture(c *gin.Context) {
	sched.Clear()
	c.IndentedJSON(http.StatusOK, "ok")
}

// doShutdown powers the device off. The HTTP response is written before the
// command runs so the client is not left hanging on a dying socket.
func doShutdown(c *gin.Context) {
	c.IndentedJSON(http.StatusCreated, "shutting down")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := netCtrl.Shutdown(ctx); err != nil {
			logrus.Errorf("shutdown failed: %v", err)
		}
	}()
}

func scheduledCapture() error {
	captured, err := coord.CaptureNow(context.Background())
	if err != nil {
		return err
	}
	if !captured {
		logrus.Warn("scheduled capture skipped, self-timer is counting")
	}
	return nil
}
