package daemon

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"
)

func Uninstall() error {
	logrus.Infof("stopping zerocam")

	err := exec.Command("/bin/systemctl", "disable", "--now", "zerocam.service").Run()
	if err != nil {
		// The unit may never have been enabled. Keep going so the file is
		// still removed.
		logrus.Warnf("failed to disable zerocam.service: %v", err)
	}

	logrus.Infof("removing %s", unitPath)

	err = os.Remove(unitPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", unitPath, err)
	}

	err = exec.Command("/bin/systemctl", "daemon-reload").Run()
	if err != nil {
		return fmt.Errorf("failed to reload systemd units: %w", err)
	}

	return nil
}
