package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/rcspd/pkg/lock"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Manage schedule lock files",
}

var lockExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Solve a manifest and write its schedule as a lock file",
	Long: `Solve a manifest and pin its result to a lock file, so a later
solve can reproduce the same start/end/resource assignments for the tasks
named in it (or every scheduled task, if none are named).

Example:
  rcspd lock export -f project.yaml -o schedule.lock`,
	RunE: runLockExport,
}

var lockApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Solve a manifest with an existing lock file applied",
	Long: `Re-run a manifest's schedule with a previously exported lock file
applied: every task named in the lock keeps its pinned start, end, and
resource assignment, and only the unlocked tasks are re-solved around it.

Example:
  rcspd lock apply -f project.yaml --lock schedule.lock`,
	RunE: runLockApply,
}

func init() {
	lockExportCmd.Flags().StringP("file", "f", "", "manifest file to schedule (required)")
	lockExportCmd.Flags().StringP("output", "o", "", "path to write the lock file to (required)")
	lockExportCmd.Flags().StringSlice("task-ids", nil, "only pin these task ids (default: every scheduled task)")
	_ = lockExportCmd.MarkFlagRequired("file")
	_ = lockExportCmd.MarkFlagRequired("output")

	lockApplyCmd.Flags().StringP("file", "f", "", "manifest file to schedule (required)")
	lockApplyCmd.Flags().String("lock", "", "lock file to apply (required)")
	_ = lockApplyCmd.MarkFlagRequired("file")
	_ = lockApplyCmd.MarkFlagRequired("lock")

	lockCmd.AddCommand(lockExportCmd)
	lockCmd.AddCommand(lockApplyCmd)
}

func runLockExport(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")
	outputPath, _ := cmd.Flags().GetString("output")
	taskIDsList, _ := cmd.Flags().GetStringSlice("task-ids")

	result, err := scheduleManifest(filename, "")
	if err != nil {
		return err
	}

	var taskIDs map[string]bool
	if len(taskIDsList) > 0 {
		taskIDs = make(map[string]bool, len(taskIDsList))
		for _, id := range taskIDsList {
			taskIDs[id] = true
		}
	}

	if err := lock.Write(outputPath, result, taskIDs); err != nil {
		return err
	}
	fmt.Printf("wrote lock file: %s\n", outputPath)
	return nil
}

func runLockApply(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")
	lockPath, _ := cmd.Flags().GetString("lock")

	result, err := scheduleManifest(filename, lockPath)
	if err != nil {
		return err
	}
	return printResult(result)
}
