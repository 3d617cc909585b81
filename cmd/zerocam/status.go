package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nologo-earth/zerocam/pkg/config"
	"github.com/nologo-earth/zerocam/pkg/daemon"
)

type statusData struct {
	status *daemon.Status
	config *config.RawFileConfig
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	st, err := apiClient.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to get daemon status: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return &statusData{
		status: st,
		config: conf,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of zerocam",
		Long:    `Get network mode, exposure mode, timer state, and configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			st := data.status
			conf := data.config

			cmd.Println(bold("Network:"))
			switch st.NetworkMode {
			case "client":
				cmd.Println("  Mode: " + bold("client"))
				if conf.ClientConnection != nil {
					cmd.Printf("    Connected to the %q wifi profile. Pictures are reachable over the network share.\n", *conf.ClientConnection)
				}
			case "access-point":
				cmd.Println("  Mode: " + bold("access point"))
				if conf.APSSID != nil {
					cmd.Printf("    Hotspot %q is up. Connect to it to browse pictures.\n", *conf.APSSID)
				}
			default:
				cmd.Println("  Mode: " + bold("radio off"))
				cmd.Println("    Wifi is blocked to save power. Use \"zerocam wifi enable\" to go online.")
			}

			cmd.Println()

			cmd.Println(bold("Camera:"))
			if st.Exposure.Manual {
				cmd.Printf("  Exposure: %s\n", bold("manual, %ss shutter", st.Exposure.Preset))
			} else {
				cmd.Printf("  Exposure: %s\n", bold("auto"))
			}
			cmd.Printf("  Self-timer: %s\n", bold("%s", st.Timer))
			if st.ScheduleExpr != "" {
				cmd.Printf("  Interval capture: %s (next run %s)\n", bold("%s", st.ScheduleExpr), st.ScheduleNext)
			} else {
				cmd.Printf("  Interval capture: %s\n", bool2Text(false))
			}

			cmd.Println()

			cmd.Println(bold("Configuration:"))
			if conf.OutputDirectory != nil {
				cmd.Printf("  Output directory: %s\n", bold("%s", *conf.OutputDirectory))
			}
			if conf.TimerDelaySeconds != nil {
				cmd.Printf("  Self-timer delay: %s\n", bold("%ds", *conf.TimerDelaySeconds))
			}
			if conf.APSSID != nil && conf.APConnection != nil {
				cmd.Printf("  Hotspot SSID: %s\n", bold("%s", *conf.APSSID))
			}
			if conf.GPIOPin != nil {
				cmd.Printf("  Shutter button GPIO: %s\n", bold("%d", *conf.GPIOPin))
			}
			if conf.AllowNonRootAccess != nil {
				cmd.Printf("  Allow non-root users to access the daemon: %s\n", bool2Text(*conf.AllowNonRootAccess))
			}
			return nil
		},
	}
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
