package netmode

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nologo-earth/zerocam/pkg/command"
)

func testSettings() Settings {
	return Settings{
		ClientConnection: "preconfigured",
		APConnection:     "CameraHotspot",
		APSSID:           "3zero",
		APPassword:       "3zerocamera",
		APInterface:      "wlan0",
		StabilizeDelay:   15 * time.Second,
	}
}

// newTestController returns a controller with a scripted runner and an
// instrumented sleep.
func newTestController() (*Controller, *command.ScriptRunner, *int) {
	runner := command.NewScriptRunner()
	c := NewController(runner, testSettings)
	sleeps := 0
	c.sleep = func(time.Duration) { sleeps++ }
	return c, runner, &sleeps
}

func (c *Controller) forceMode(m Mode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

func TestEnableWifiHappyPath(t *testing.T) {
	c, runner, _ := newTestController()

	if err := c.EnableWifi(context.Background()); err != nil {
		t.Fatalf("EnableWifi returned error: %v", err)
	}
	if c.Mode() != ModeClient {
		t.Fatalf("expected client mode, got %s", c.Mode())
	}

	calls := runner.Calls()
	// Sharing services must start in fixed order: nmbd then smbd.
	nmbd, smbd := -1, -1
	for i, call := range calls {
		if strings.Contains(call, "start nmbd") {
			nmbd = i
		}
		if strings.Contains(call, "start smbd") {
			smbd = i
		}
	}
	if nmbd == -1 || smbd == -1 || nmbd > smbd {
		t.Fatalf("expected nmbd before smbd, calls: %v", calls)
	}
}

func TestEnableWifiIgnorableFailuresStillSucceed(t *testing.T) {
	c, runner, _ := newTestController()
	runner.Fail("sudo /bin/systemctl start dnsmasq", command.Outcome{Kind: command.Failed, ExitCode: 1})
	runner.Fail("sudo /usr/bin/nmcli connection up", command.Outcome{Kind: command.Failed, ExitCode: 4})

	if err := c.EnableWifi(context.Background()); err != nil {
		t.Fatalf("ignorable step failures must not abort the transition: %v", err)
	}
	if c.Mode() != ModeClient {
		t.Fatalf("expected client mode, got %s", c.Mode())
	}
}

func TestEnableWifiHardFailureRollsBack(t *testing.T) {
	c, runner, _ := newTestController()
	runner.Fail("sudo /bin/systemctl start nmbd", command.Outcome{Kind: command.Failed, ExitCode: 1})

	if err := c.EnableWifi(context.Background()); err == nil {
		t.Fatal("expected error on hard-requirement failure")
	}
	if c.Mode() != ModeRadioOff {
		t.Fatalf("expected radio off after rollback, got %s", c.Mode())
	}
	if got := runner.CountCalls("sudo /usr/sbin/rfkill block wifi"); got != 1 {
		t.Fatalf("expected exactly 1 rollback block command, got %d", got)
	}
}

func TestDisableWifiFromClient(t *testing.T) {
	c, runner, _ := newTestController()
	c.forceMode(ModeClient)

	if err := c.DisableWifi(context.Background()); err != nil {
		t.Fatalf("DisableWifi returned error: %v", err)
	}
	if c.Mode() != ModeRadioOff {
		t.Fatalf("expected radio off, got %s", c.Mode())
	}
	if got := runner.CountCalls("sudo /usr/bin/nmcli connection down preconfigured"); got != 1 {
		t.Fatalf("expected client connection teardown, got %d calls", got)
	}
}

func TestDisableWifiFromAccessPointDeletesProfile(t *testing.T) {
	c, runner, _ := newTestController()
	c.forceMode(ModeAccessPoint)

	if err := c.DisableWifi(context.Background()); err != nil {
		t.Fatalf("DisableWifi returned error: %v", err)
	}
	if got := runner.CountCalls("sudo /usr/bin/nmcli connection delete CameraHotspot"); got != 1 {
		t.Fatalf("expected temporary AP profile deletion, got %d calls", got)
	}
	if c.Mode() != ModeRadioOff {
		t.Fatalf("expected radio off, got %s", c.Mode())
	}
}

func TestDisableWifiBlockFailureKeepsPriorMode(t *testing.T) {
	c, runner, _ := newTestController()
	c.forceMode(ModeClient)
	runner.Fail("sudo /usr/sbin/rfkill block wifi", command.Outcome{Kind: command.TimedOut})

	if err := c.DisableWifi(context.Background()); err == nil {
		t.Fatal("expected error when rfkill block fails")
	}
	if c.Mode() != ModeClient {
		t.Fatalf("recorded mode must keep the pre-transition value, got %s", c.Mode())
	}
}

func TestEnableAccessPointHappyPath(t *testing.T) {
	c, runner, sleeps := newTestController()
	c.forceMode(ModeClient)

	if err := c.EnableAccessPoint(context.Background()); err != nil {
		t.Fatalf("EnableAccessPoint returned error: %v", err)
	}
	if c.Mode() != ModeAccessPoint {
		t.Fatalf("expected access point mode, got %s", c.Mode())
	}
	if *sleeps != 1 {
		t.Fatalf("expected exactly 1 stabilization wait, got %d", *sleeps)
	}
	if got := runner.CountCalls("sudo /usr/bin/nmcli device wifi hotspot ifname wlan0 con-name CameraHotspot ssid 3zero password 3zerocamera"); got != 1 {
		t.Fatalf("expected 1 hotspot invocation, got %d; calls: %v", got, runner.Calls())
	}
	// dnsmasq must be out of the way before the hotspot starts.
	if got := runner.CountCalls("sudo /bin/systemctl disable dnsmasq"); got != 1 {
		t.Fatalf("expected dnsmasq disable, got %d calls", got)
	}
}

func TestEnableAccessPointUsesReloadedSettings(t *testing.T) {
	settings := testSettings()
	runner := command.NewScriptRunner()
	c := NewController(runner, func() Settings { return settings })
	c.sleep = func(time.Duration) {}
	c.forceMode(ModeClient)

	if err := c.EnableAccessPoint(context.Background()); err != nil {
		t.Fatalf("EnableAccessPoint returned error: %v", err)
	}
	if err := c.DisableAccessPoint(context.Background()); err != nil {
		t.Fatalf("DisableAccessPoint returned error: %v", err)
	}

	// A config reload between transitions must be visible to the next one.
	settings.APSSID = "renamed"
	settings.APPassword = "newsecret"

	if err := c.EnableAccessPoint(context.Background()); err != nil {
		t.Fatalf("EnableAccessPoint returned error: %v", err)
	}
	if got := runner.CountCalls("sudo /usr/bin/nmcli device wifi hotspot ifname wlan0 con-name CameraHotspot ssid renamed password newsecret"); got != 1 {
		t.Fatalf("expected hotspot with reloaded credentials, got %d; calls: %v", got, runner.Calls())
	}
}

func TestEnableAccessPointRefusedWhileRadioOff(t *testing.T) {
	c, runner, _ := newTestController()

	if err := c.EnableAccessPoint(context.Background()); err == nil {
		t.Fatal("expected error with radio off")
	}
	if got := len(runner.Calls()); got != 0 {
		t.Fatalf("no commands must run, got %d", got)
	}
}

func TestEnableAccessPointHotspotFailureRevertsToClient(t *testing.T) {
	c, runner, sleeps := newTestController()
	c.forceMode(ModeClient)
	runner.Fail("sudo /usr/bin/nmcli device wifi hotspot", command.Outcome{Kind: command.Failed, ExitCode: 1})

	err := c.EnableAccessPoint(context.Background())
	if err == nil {
		t.Fatal("expected overall failure")
	}
	if c.Mode() != ModeClient {
		t.Fatalf("expected reported mode client after revert, got %s", c.Mode())
	}
	if *sleeps != 0 {
		t.Fatalf("stabilization delay must not run after hotspot failure, got %d", *sleeps)
	}
	// The revert re-runs the client entry sequence.
	if got := runner.CountCalls("sudo /usr/bin/nmcli connection up preconfigured"); got != 1 {
		t.Fatalf("expected revert to bring the client connection up, got %d calls", got)
	}
}

func TestEnableAccessPointRevertFailureStillReportsClient(t *testing.T) {
	c, runner, _ := newTestController()
	c.forceMode(ModeClient)
	runner.Fail("sudo /usr/bin/nmcli device wifi hotspot", command.Outcome{Kind: command.Failed, ExitCode: 1})
	runner.Fail("sudo /usr/sbin/rfkill unblock wifi", command.Outcome{Kind: command.Failed, ExitCode: 1})

	if err := c.EnableAccessPoint(context.Background()); err == nil {
		t.Fatal("expected overall failure")
	}
	// Documented inconsistency: mode says client even though the revert
	// could not actually restore connectivity.
	if c.Mode() != ModeClient {
		t.Fatalf("expected recorded mode client, got %s", c.Mode())
	}
}

func TestDisableAccessPointRevertsToAPOnFailure(t *testing.T) {
	c, runner, _ := newTestController()
	c.forceMode(ModeAccessPoint)
	runner.Fail("sudo /bin/systemctl start smbd", command.Outcome{Kind: command.Failed, ExitCode: 1})

	if err := c.DisableAccessPoint(context.Background()); err == nil {
		t.Fatal("expected overall failure")
	}
	if c.Mode() != ModeAccessPoint {
		t.Fatalf("expected recorded mode access-point after revert, got %s", c.Mode())
	}
	if got := runner.CountCalls("sudo /usr/bin/nmcli device wifi hotspot"); got != 1 {
		t.Fatalf("expected revert hotspot invocation, got %d", got)
	}
}

func TestResyncSuccess(t *testing.T) {
	c, _, _ := newTestController()

	if err := c.Resync(context.Background()); err != nil {
		t.Fatalf("Resync returned error: %v", err)
	}
	if c.Mode() != ModeClient {
		t.Fatalf("expected client mode after resync, got %s", c.Mode())
	}
}

func TestResyncFailure(t *testing.T) {
	c, runner, _ := newTestController()
	runner.Fail("sudo /bin/systemctl start smbd", command.Outcome{Kind: command.NotFound})

	if err := c.Resync(context.Background()); err == nil {
		t.Fatal("expected resync error")
	}
	if c.Mode() != ModeRadioOff {
		t.Fatalf("expected radio off after failed resync, got %s", c.Mode())
	}
}

func TestReenteringTransitionAfterPartialFailure(t *testing.T) {
	// A failed transition must leave the system in a state the next
	// attempt can recover from.
	c, runner, _ := newTestController()
	runner.Fail("sudo /bin/systemctl start smbd", command.Outcome{Kind: command.Failed, ExitCode: 1})

	if err := c.EnableWifi(context.Background()); err == nil {
		t.Fatal("expected first attempt to fail")
	}
	if c.Mode() != ModeRadioOff {
		t.Fatalf("expected radio off, got %s", c.Mode())
	}

	// The service comes back; retry succeeds.
	runner2 := command.NewScriptRunner()
	c.runner = runner2
	if err := c.EnableWifi(context.Background()); err != nil {
		t.Fatalf("retry must succeed: %v", err)
	}
	if c.Mode() != ModeClient {
		t.Fatalf("expected client mode, got %s", c.Mode())
	}
}

func TestShutdownFailure(t *testing.T) {
	c, runner, _ := newTestController()
	runner.Fail("sudo /sbin/shutdown", command.Outcome{Kind: command.Failed, ExitCode: 1})

	if err := c.Shutdown(context.Background()); err == nil {
		t.Fatal("expected shutdown error")
	}
}
