// Package daemon installs and removes the systemd unit that keeps the
// zerocam daemon running at boot.
package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	unitPath = "/etc/systemd/system/zerocam.service"
)

const unitTemplate = `[Unit]
Description=zerocam camera daemon
After=NetworkManager.service

[Service]
Type=simple
ExecStart=/path/to/zerocam daemon
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`

func Install() error {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}

	err = os.Chmod(exePath, 0755)
	if err != nil {
		return fmt.Errorf("failed to chmod the current executable to 0755: %w", err)
	}

	logrus.Infof("current executable path: %s", exePath)

	unit := strings.ReplaceAll(unitTemplate, "/path/to/zerocam", exePath)

	logrus.Infof("writing systemd unit to %s", unitPath)

	// warn if the file already exists
	_, err = os.Stat(unitPath)
	if err == nil {
		logrus.Errorf("%s already exists", unitPath)
	}

	err = os.WriteFile(unitPath, []byte(unit), 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", unitPath, err)
	}

	err = exec.Command("/bin/systemctl", "daemon-reload").Run()
	if err != nil {
		return fmt.Errorf("failed to reload systemd units: %w", err)
	}

	logrus.Infof("starting zerocam")

	err = exec.Command("/bin/systemctl", "enable", "--now", "zerocam.service").Run()
	if err != nil {
		return fmt.Errorf("failed to enable zerocam.service: %w", err)
	}

	return nil
}
