package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nologo-earth/zerocam/pkg/button"
	"github.com/nologo-earth/zerocam/pkg/camera"
	"github.com/nologo-earth/zerocam/pkg/capture"
	"github.com/nologo-earth/zerocam/pkg/command"
	"github.com/nologo-earth/zerocam/pkg/config"
	"github.com/nologo-earth/zerocam/pkg/exposure"
	"github.com/nologo-earth/zerocam/pkg/netmode"
	"github.com/nologo-earth/zerocam/pkg/preview"
)

var (
	conf         config.Config
	cam          camera.Camera
	netCtrl      *netmode.Controller
	expCtrl      *exposure.Controller
	coord        *capture.Coordinator
	previewCache *preview.Cache
	sched        *CaptureScheduler
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/status", getStatus)
	router.GET("/config", getConfig)
	router.GET("/version", getVersion)
	router.GET("/exposure", getExposure)
	router.PUT("/exposure", setExposure)
	router.PUT("/wifi", setWifi)
	router.PUT("/access-point", setAccessPoint)
	router.POST("/capture", doCapture)
	router.POST("/timer", toggleTimer)
	router.GET("/preview", getPreview)
	router.GET("/interval-capture", getIntervalCapture)
	router.PUT("/interval-capture", setIntervalCapture)
	router.DELETE("/interval-capture", clearIntervalCapture)
	router.POST("/shutdown", doShutdown)

	return router
}

func netSettings(c config.Config) netmode.Settings {
	return netmode.Settings{
		ClientConnection: c.ClientConnection(),
		APConnection:     c.APConnection(),
		APSSID:           c.APSSID(),
		APPassword:       c.APPassword(),
		APInterface:      c.APInterface(),
		StabilizeDelay:   c.APStabilizeDelay(),
	}
}

// removeStaleSocket clears a leftover socket file from an unclean shutdown so
// the listener can bind again. A socket that still accepts connections means
// another daemon is running, which is an error, not something to clean up.
func removeStaleSocket(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	conn, err := net.DialTimeout("unix", path, time.Second)
	if err == nil {
		conn.Close()
		return pkgerrors.Errorf("socket %s is in use, another daemon instance is already running", path)
	}

	logrus.Infof("removing stale socket %s", path)
	return os.Remove(path)
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	router := setupRoutes()

	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			logrus.Infof("config reloaded")
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	// Create the socket to listen on:
	if err := removeStaleSocket(unixSocketPath); err != nil {
		logrus.Fatal(err)
	}
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Nothing persists the network mode across restarts, so re-run the
	// client-mode entry sequence to get hardware and recorded state to agree.
	// Settings are bound to the config, not snapshotted, so a SIGHUP reload
	// reaches the controllers on their next use.
	netCtrl = netmode.NewController(command.NewExecRunner(conf.CommandTimeout), func() netmode.Settings {
		return netSettings(conf)
	})
	if err := netCtrl.Resync(bgCtx); err != nil {
		logrus.Errorf("network resync failed, starting with radio off: %v", err)
	}

	cam = camera.NewRpicam(conf.CameraDevice())
	if err := cam.Configure(bgCtx, conf.PreviewWidth(), conf.PreviewHeight(), exposure.AutoControls()); err != nil {
		logrus.Fatalf("failed to configure camera: %v", err)
	}
	if err := cam.Start(bgCtx); err != nil {
		logrus.Fatalf("failed to start camera: %v", err)
	}

	expCtrl = exposure.NewController(cam, conf.PreviewWidth, conf.PreviewHeight)
	coord = capture.NewCoordinator(cam, expCtrl, conf.OutputDirectory, conf.TimerDelay)

	previewCache = preview.NewCache()
	loop := preview.NewLoop(cam, previewCache, conf.PreviewInterval)
	go loop.Run(bgCtx)

	shutterButton := button.NewWatcher(conf.GPIOPin, func() {
		if _, err := coord.CaptureNow(context.Background()); err != nil {
			logrus.Errorf("shutter button capture failed: %v", err)
		}
	})
	go shutterButton.Run(bgCtx)

	sched = NewCaptureScheduler(scheduledCapture)
	sched.Start()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("stopping capture scheduler")
	sched.Stop()

	logrus.Info("stopping preview loop and button watcher")
	bgCancel()

	logrus.Info("stopping camera")
	if err := cam.Stop(context.Background()); err != nil {
		logrus.Errorf("failed to stop camera: %v", err)
	}

	logrus.Info("exiting")
	return nil
}
