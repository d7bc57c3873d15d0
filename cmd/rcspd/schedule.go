package main

import (
	"github.com/spf13/cobra"

	"github.com/cuemby/rcspd/pkg/lock"
	"github.com/cuemby/rcspd/pkg/scheduling"
	"github.com/cuemby/rcspd/pkg/task"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Solve a manifest's schedule and print the result",
	Long: `Read a task manifest and produce a schedule.

Examples:
  # Solve a manifest and print the schedule
  rcspd schedule -f project.yaml

  # Solve against a pinned lock file
  rcspd schedule -f project.yaml --lock schedule.lock`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringP("file", "f", "", "manifest file to schedule (required)")
	scheduleCmd.Flags().String("lock", "", "lock file to apply before scheduling")
	_ = scheduleCmd.MarkFlagRequired("file")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")
	lockPath, _ := cmd.Flags().GetString("lock")

	result, err := scheduleManifest(filename, lockPath)
	if err != nil {
		return err
	}
	return printResult(result)
}

// scheduleManifest loads a manifest, optionally applies a lock file, and
// runs the scheduling service, shared by `schedule` and `lock apply`.
func scheduleManifest(manifestPath, lockPath string) (*task.SchedulingResult, error) {
	m, err := loadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	currentDate, err := m.currentDate()
	if err != nil {
		return nil, err
	}

	opts := []scheduling.Option{
		scheduling.WithResourceConfig(m.toResourceConfig()),
		scheduling.WithConfig(m.toConfig()),
	}
	if m.FiscalYearStart > 0 {
		opts = append(opts, scheduling.WithFiscalYearStart(m.FiscalYearStart))
	}

	if lockPath != "" {
		l, err := lock.Read(lockPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, scheduling.WithLock(l))
	}

	svc := scheduling.New(m.toRawEntities(), currentDate, opts...)
	return svc.Schedule()
}
