package main

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/rcspd/pkg/task"
)

type scheduledTaskOutput struct {
	TaskID       string   `yaml:"taskId"`
	StartDate    string   `yaml:"startDate"`
	EndDate      string   `yaml:"endDate"`
	DurationDays float64  `yaml:"durationDays"`
	Resources    []string `yaml:"resources,omitempty"`
}

type annotationOutput struct {
	EntityID         string `yaml:"entityId"`
	EstimatedStart   string `yaml:"estimatedStart,omitempty"`
	EstimatedEnd     string `yaml:"estimatedEnd,omitempty"`
	DeadlineViolated bool   `yaml:"deadlineViolated"`
	WasFixed         bool   `yaml:"wasFixed"`
}

type resultOutput struct {
	ScheduledTasks []scheduledTaskOutput `yaml:"scheduledTasks"`
	Annotations    []annotationOutput    `yaml:"annotations"`
	Warnings       []string              `yaml:"warnings,omitempty"`
}

// printResult renders result as YAML to stdout, in deterministic
// (task-id-sorted) order so repeat invocations diff cleanly.
func printResult(result *task.SchedulingResult) error {
	out := resultOutput{Warnings: result.Warnings}

	scheduled := append([]task.ScheduledTask(nil), result.ScheduledTasks...)
	sort.Slice(scheduled, func(i, j int) bool { return scheduled[i].TaskID < scheduled[j].TaskID })
	for _, st := range scheduled {
		out.ScheduledTasks = append(out.ScheduledTasks, scheduledTaskOutput{
			TaskID:       st.TaskID,
			StartDate:    st.StartDate.Format("2006-01-02"),
			EndDate:      st.EndDate.Format("2006-01-02"),
			DurationDays: st.DurationDays,
			Resources:    st.Resources,
		})
	}

	ids := make([]string, 0, len(result.Annotations))
	for id := range result.Annotations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		a := result.Annotations[id]
		ao := annotationOutput{EntityID: id, DeadlineViolated: a.DeadlineViolated, WasFixed: a.WasFixed}
		if a.EstimatedStart != nil {
			ao.EstimatedStart = a.EstimatedStart.Format("2006-01-02")
		}
		if a.EstimatedEnd != nil {
			ao.EstimatedEnd = a.EstimatedEnd.Format("2006-01-02")
		}
		out.Annotations = append(out.Annotations, ao)
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
