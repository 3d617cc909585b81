package netmode

import (
	"context"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nologo-earth/zerocam/pkg/command"
)

// Settings are the network constants from the config file. The controller
// reads them through a getter at the start of every sequence, so a config
// reload is picked up by the next transition.
type Settings struct {
	ClientConnection string
	APConnection     string
	APSSID           string
	APPassword       string
	APInterface      string
	StabilizeDelay   time.Duration
}

// Controller owns the network mode and performs the transitions. Every
// transition is built from idempotent, ignorable teardown steps plus a few
// hard-requirement steps, so re-entering a transition after a prior partial
// failure is safe: no step assumes a pristine starting state.
type Controller struct {
	runner   command.Runner
	settings func() Settings

	mu   sync.Mutex
	mode Mode

	// sleep is injectable so tests can observe the AP stabilization wait.
	sleep func(time.Duration)
}

func NewController(runner command.Runner, settings func() Settings) *Controller {
	return &Controller{
		runner:   runner,
		settings: settings,
		mode:     ModeRadioOff,
		sleep:    time.Sleep,
	}
}

// Mode returns the intended network mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// step runs one command and folds the outcome into a boolean. Ignored
// failures are logged so the narrative trail survives.
func (c *Controller) step(ctx context.Context, argv []string, ignorable bool) bool {
	outcome := c.runner.Run(ctx, argv)
	ok := outcome.OK(ignorable)

	if outcome.Kind != command.Succeeded {
		entry := logrus.WithFields(logrus.Fields{
			"argv":     strings.Join(argv, " "),
			"outcome":  outcome.Kind.String(),
			"exitCode": outcome.ExitCode,
			"stderr":   outcome.Stderr,
		})
		if ok {
			entry.Info("step failed, ignoring")
		} else {
			entry.Error("required step failed")
		}
	}
	return ok
}

// Resync is the best-effort startup sequence: unblock the radio, bring up the
// client connection and start the sharing services. Nothing is persisted
// across restarts, so this replaces reading a saved mode.
func (c *Controller) Resync(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	logrus.Info("resyncing network state at startup")
	if c.startClient(ctx) {
		c.mode = ModeClient
		logrus.Info("startup resync done, client mode active")
		return nil
	}

	c.mode = ModeRadioOff
	return pkgerrors.New("one or more critical startup commands failed")
}

// EnableWifi transitions RADIO_OFF -> CLIENT. On hard failure the radio is
// re-blocked once and the mode stays off.
func (c *Controller) EnableWifi(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeRadioOff {
		return nil
	}

	logrus.Info("turning wifi on (client mode)")
	if c.startClient(ctx) {
		c.mode = ModeClient
		logrus.Info("wifi on")
		return nil
	}

	// Roll back: leave the radio blocked rather than half-configured.
	c.step(ctx, rfkillCmd("block"), false)
	c.mode = ModeRadioOff
	return pkgerrors.New("failed to start client mode, radio blocked")
}

// DisableWifi transitions CLIENT/ACCESS_POINT -> RADIO_OFF. Teardown steps
// are ignorable; blocking the radio is the hard requirement. If that fails
// the recorded mode keeps pointing at the pre-transition mode: the
// inconsistency is reported, not hidden.
func (c *Controller) DisableWifi(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeRadioOff {
		return nil
	}

	logrus.Info("turning wifi off")
	if c.mode == ModeAccessPoint {
		c.stopAccessPoint(ctx)
	} else {
		c.stopClient(ctx)
	}

	if !c.step(ctx, rfkillCmd("block"), false) {
		return pkgerrors.Errorf("failed to block wifi radio, state may be inconsistent (still %s)", c.mode)
	}

	c.mode = ModeRadioOff
	logrus.Info("wifi off")
	return nil
}

// EnableAccessPoint transitions CLIENT -> ACCESS_POINT. Only reachable while
// the radio is on. On hard failure the controller tries to revert to client
// mode; the recorded mode reflects client either way, even if the revert also
// failed and actual connectivity is gone.
func (c *Controller) EnableAccessPoint(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeRadioOff {
		return pkgerrors.New("wifi is off, cannot enable access point")
	}
	if c.mode == ModeAccessPoint {
		return nil
	}

	logrus.Info("switching client -> access point")
	c.stopClient(ctx)

	if c.startAccessPoint(ctx) {
		c.mode = ModeAccessPoint
		logrus.Info("access point mode active")
		return nil
	}

	logrus.Error("failed to start access point, attempting to revert to client mode")
	if !c.startClient(ctx) {
		logrus.Error("revert to client mode also failed, connectivity may be absent")
	}
	c.mode = ModeClient
	return pkgerrors.New("failed to switch to access point mode")
}

// DisableAccessPoint transitions ACCESS_POINT -> CLIENT, symmetric to
// EnableAccessPoint including the revert caveat.
func (c *Controller) DisableAccessPoint(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeAccessPoint {
		return nil
	}

	logrus.Info("switching access point -> client")
	c.stopAccessPoint(ctx)

	if c.startClient(ctx) {
		c.mode = ModeClient
		logrus.Info("client mode active")
		return nil
	}

	logrus.Error("failed to start client mode, attempting to revert to access point")
	if !c.startAccessPoint(ctx) {
		logrus.Error("revert to access point also failed, connectivity may be absent")
	}
	c.mode = ModeAccessPoint
	return pkgerrors.New("failed to switch to client mode")
}

// Shutdown asks the system to power off. Confirmation happens at the UI
// boundary, not here.
func (c *Controller) Shutdown(ctx context.Context) error {
	logrus.Info("executing system shutdown")
	if !c.step(ctx, shutdownCmd(), false) {
		return pkgerrors.New("shutdown command failed, check sudoers configuration")
	}
	return nil
}

// startClient is the CLIENT entry sequence. Hard requirements: unblocking
// the radio and starting the sharing services. The dnsmasq helper and the
// connection profile may legitimately fail (not installed, already up).
func (c *Controller) startClient(ctx context.Context) bool {
	if !c.step(ctx, rfkillCmd("unblock"), false) {
		return false
	}

	c.step(ctx, systemctlCmd("enable", unitDnsmasq), true)
	c.step(ctx, systemctlCmd("start", unitDnsmasq), true)

	c.step(ctx, nmcliConnectionCmd("up", c.settings().ClientConnection), true)

	if !c.step(ctx, systemctlCmd("start", unitNmbd), false) {
		return false
	}
	return c.step(ctx, systemctlCmd("start", unitSmbd), false)
}

// stopClient tears client mode down. Every step is ignorable: the connection
// or the services may already be down.
func (c *Controller) stopClient(ctx context.Context) {
	c.step(ctx, nmcliConnectionCmd("down", c.settings().ClientConnection), true)
	c.step(ctx, systemctlCmd("stop", unitSmbd), true)
	c.step(ctx, systemctlCmd("stop", unitNmbd), true)
}

// startAccessPoint is the ACCESS_POINT entry sequence. dnsmasq is stopped
// and disabled first so it cannot fight the hotspot over ports and the
// interface. After the hotspot comes up the interface needs time before the
// sharing services can bind to it, hence the stabilization wait.
func (c *Controller) startAccessPoint(ctx context.Context) bool {
	if !c.step(ctx, rfkillCmd("unblock"), false) {
		return false
	}

	c.step(ctx, systemctlCmd("stop", unitDnsmasq), true)
	c.step(ctx, systemctlCmd("disable", unitDnsmasq), true)

	s := c.settings()
	if !c.step(ctx, nmcliHotspotCmd(s.APInterface, s.APConnection, s.APSSID, s.APPassword), false) {
		return false
	}

	logrus.Infof("waiting %s for the access point network to stabilize", s.StabilizeDelay)
	c.sleep(s.StabilizeDelay)

	if !c.step(ctx, systemctlCmd("start", unitNmbd), false) {
		return false
	}
	return c.step(ctx, systemctlCmd("start", unitSmbd), false)
}

// stopAccessPoint tears the hotspot down, deleting the temporary connection
// profile. Every step is ignorable.
func (c *Controller) stopAccessPoint(ctx context.Context) {
	conn := c.settings().APConnection
	c.step(ctx, nmcliConnectionCmd("down", conn), true)
	c.step(ctx, nmcliConnectionCmd("delete", conn), true)
	c.step(ctx, systemctlCmd("stop", unitSmbd), true)
	c.step(ctx, systemctlCmd("stop", unitNmbd), true)
}
