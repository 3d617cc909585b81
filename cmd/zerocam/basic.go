package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nologo-earth/zerocam/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewCaptureCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "capture",
		Aliases: []string{"shoot", "snap"},
		Short:   "Take a picture now",
		GroupID: gBasic,
		Long: `Take a picture immediately.

The picture is saved to the camera's output directory with a timestamp filename. If the self-timer is counting down, the request is ignored: cancel the timer first with "zerocam timer".`,
		RunE: func(_ *cobra.Command, _ []string) error {
			captured, err := apiClient.Capture()
			if err != nil {
				return fmt.Errorf("failed to capture: %v", err)
			}

			if !captured {
				logrus.Warn("capture ignored: the self-timer is counting down")
				return nil
			}

			logrus.Info("picture taken")
			return nil
		},
	}
}

func NewTimerCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "timer",
		Short:   "Start or cancel the self-timer",
		GroupID: gBasic,
		Long: `Start the self-timer, or cancel it if it is already counting down.

When the countdown finishes, a picture is taken exactly as with "zerocam capture".`,
		RunE: func(_ *cobra.Command, _ []string) error {
			state, err := apiClient.ToggleTimer()
			if err != nil {
				return fmt.Errorf("failed to toggle self-timer: %v", err)
			}

			logrus.Infof("self-timer is now %s", state)
			return nil
		},
	}
}

func NewExposureCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "exposure [preset]",
		Aliases: []string{"exp"},
		Short:   "Show or set the shutter preset",
		GroupID: gBasic,
		Long: `Show or set the shutter preset.

Without arguments, shows the current exposure mode and the available presets. With a preset argument (for example "1/250"), switches to manual exposure at that shutter speed. Selecting the active preset again returns the camera to auto exposure.`,
		Example: `  zerocam exposure         (show current mode)
  zerocam exposure 1/250   (fixed 1/250s shutter)
  zerocam exposure 1/250   (again: back to auto)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				st, err := apiClient.GetExposure()
				if err != nil {
					return fmt.Errorf("failed to get exposure mode: %v", err)
				}
				if st.Manual {
					cmd.Printf("mode: manual (%ss)\n", st.Preset)
				} else {
					cmd.Println("mode: auto")
				}
				cmd.Printf("presets: %v\n", st.Presets)
				return nil
			}

			st, err := apiClient.ToggleExposure(args[0])
			if err != nil {
				return fmt.Errorf("failed to set exposure preset: %v", err)
			}

			if st.Manual {
				logrus.Infof("manual exposure, %ss shutter", st.Preset)
			} else {
				logrus.Info("auto exposure")
			}
			return nil
		},
	}
}

func NewWifiCommand() *cobra.Command {
	return newEnableDisableCommand(
		"wifi",
		"wifi (client mode)",
		`Turn the wifi radio on or off.

Enabling joins the preconfigured wifi network and starts the file sharing services. Disabling tears everything down and blocks the radio to save power.`,
		func() (string, error) { return apiClient.SetWifi(true) },
		func() (string, error) { return apiClient.SetWifi(false) },
	)
}

func NewAccessPointCommand() *cobra.Command {
	return newEnableDisableCommand(
		"access-point",
		"access point (hotspot mode)",
		`Switch between client mode and hotspot mode.

Enabling starts a wifi hotspot so phones can connect directly to the camera. Disabling returns to the preconfigured wifi network. The wifi radio must be on first.`,
		func() (string, error) { return apiClient.SetAccessPoint(true) },
		func() (string, error) { return apiClient.SetAccessPoint(false) },
	)
}

func NewShutdownCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "shutdown",
		Short:   "Power off the camera",
		GroupID: gBasic,
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := apiClient.Shutdown()
			if err != nil {
				return fmt.Errorf("failed to shut down: %v", err)
			}
			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}
			return nil
		},
	}
}
