package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule [cron-expression]",
		Aliases: []string{"sch", "sched"},
		Short:   "Manage the interval capture schedule",
		Long: `Manage the interval (timelapse) capture schedule.

The schedule command can be used in multiple ways:
  zerocam schedule 'cron expression'  Set the capture schedule
  zerocam schedule disable            Disable the schedule
  zerocam schedule show               Show the current schedule`,
		Example: `  zerocam schedule '@every 5m'   (one picture every 5 minutes)
  zerocam schedule '0 * * * *'   (one picture at the top of every hour)
  zerocam schedule '0 6 * * *'   (one picture at 06:00 every day)`,
		GroupID: gAdvanced,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runScheduleShow(cmd)
			}
			return runScheduleSet(args[0])
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "disable",
			Short: "Disable the interval capture schedule",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				if _, err := apiClient.ClearIntervalCapture(); err != nil {
					return fmt.Errorf("failed to disable schedule: %v", err)
				}
				logrus.Info("interval capture disabled")
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the current interval capture schedule",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runScheduleShow(cmd)
			},
		},
	)

	return cmd
}

func runScheduleSet(expr string) error {
	if _, err := apiClient.ScheduleIntervalCapture(expr); err != nil {
		return fmt.Errorf("failed to set schedule: %v", err)
	}
	logrus.Infof("interval capture scheduled: %s", expr)
	return nil
}

func runScheduleShow(cmd *cobra.Command) error {
	st, err := apiClient.GetIntervalCapture()
	if err != nil {
		return fmt.Errorf("failed to get schedule: %v", err)
	}

	if !st.Active {
		cmd.Println("Interval capture is disabled.")
		return nil
	}

	cmd.Printf("Schedule: %s\n", bold("%s", st.Expr))
	cmd.Printf("Next run: %s\n", st.NextRun)
	return nil
}

func NewPreviewCommand() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:     "preview",
		Short:   "Save the latest preview frame",
		GroupID: gAdvanced,
		Long:    `Fetch the latest preview frame from the daemon and write it to a file as JPEG.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			frame, err := apiClient.GetPreview()
			if err != nil {
				return fmt.Errorf("failed to get preview frame: %v", err)
			}

			if err := os.WriteFile(outputPath, frame, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %v", outputPath, err)
			}

			logrus.Infof("preview frame written to %s", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "preview.jpg", "output file path")

	return cmd
}
