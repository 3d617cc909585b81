package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	daemonutils "github.com/nologo-earth/zerocam/pkg/utils/daemon"
)

func NewInstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "install",
		Short:   "Install zerocam as a systemd service",
		GroupID: gInstallation,
		Long: `Install the zerocam daemon as a systemd service so it starts at boot.

This must run as root because it writes to /etc/systemd/system.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if os.Geteuid() != 0 {
				return fmt.Errorf("this command must be run as root")
			}

			if err := daemonutils.Install(); err != nil {
				return fmt.Errorf("failed to install daemon: %v", err)
			}

			logrus.Info("zerocam daemon installed and started")
			return nil
		},
	}
}

func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall",
		Short:   "Remove the zerocam systemd service",
		GroupID: gInstallation,
		RunE: func(_ *cobra.Command, _ []string) error {
			if os.Geteuid() != 0 {
				return fmt.Errorf("this command must be run as root")
			}

			if err := daemonutils.Uninstall(); err != nil {
				return fmt.Errorf("failed to uninstall daemon: %v", err)
			}

			logrus.Info("zerocam daemon uninstalled")
			return nil
		},
	}
}
