package sgs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/rcspd/pkg/resource"
	"github.com/cuemby/rcspd/pkg/schedconfig"
	"github.com/cuemby/rcspd/pkg/task"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func findScheduled(all []task.ScheduledTask, id string) (task.ScheduledTask, bool) {
	for _, s := range all {
		if s.TaskID == id {
			return s, true
		}
	}
	return task.ScheduledTask{}, false
}

func TestScheduleSingleTaskOnExplicitResource(t *testing.T) {
	tasks := []*task.Task{
		{ID: "A", DurationDays: 5, Resources: []task.ResourceAssignment{{Name: "r1", Allocation: 1.0}}},
	}
	s := New(tasks, d(2025, 1, 1))
	result, err := s.Schedule()
	require.NoError(t, err)

	st, ok := findScheduled(result.ScheduledTasks, "A")
	require.True(t, ok)
	assert.True(t, st.StartDate.Equal(d(2025, 1, 1)))
	assert.True(t, st.EndDate.Equal(d(2025, 1, 6)))
}

func TestScheduleRespectsDependencyLag(t *testing.T) {
	tasks := []*task.Task{
		{ID: "A", DurationDays: 5, Resources: []task.ResourceAssignment{{Name: "r1", Allocation: 1.0}}},
		{
			ID: "B", DurationDays: 3,
			Resources:    []task.ResourceAssignment{{Name: "r2", Allocation: 1.0}},
			Dependencies: []task.Dependency{{TaskID: "A", LagDays: 2}},
		},
	}
	s := New(tasks, d(2025, 1, 1))
	result, err := s.Schedule()
	require.NoError(t, err)

	a, _ := findScheduled(result.ScheduledTasks, "A")
	b, _ := findScheduled(result.ScheduledTasks, "B")
	assert.True(t, a.EndDate.Equal(d(2025, 1, 6)))
	// B cannot start before A.end + 1 + lag = Jan 6 + 1 + 2 = Jan 9
	assert.True(t, !b.StartDate.Before(d(2025, 1, 9)))
}

func TestScheduleMilestoneConsumesNoResourceTime(t *testing.T) {
	tasks := []*task.Task{
		{ID: "M", DurationDays: 0},
	}
	s := New(tasks, d(2025, 1, 1))
	result, err := s.Schedule()
	require.NoError(t, err)

	m, ok := findScheduled(result.ScheduledTasks, "M")
	require.True(t, ok)
	assert.True(t, m.StartDate.Equal(m.EndDate))
	assert.Empty(t, m.Resources)
}

func TestScheduleAutoAssignPicksEarliestCompletionResource(t *testing.T) {
	cfg := &resource.Config{Resources: []resource.Definition{
		{Name: "busy", DNSPeriods: []resource.Period{{Start: d(2025, 1, 1), End: d(2025, 1, 10)}}},
		{Name: "free"},
	}}
	tasks := []*task.Task{
		{ID: "A", DurationDays: 3, ResourceSpec: "*"},
	}
	s := New(tasks, d(2025, 1, 1), WithResourceConfig(cfg))
	result, err := s.Schedule()
	require.NoError(t, err)

	a, ok := findScheduled(result.ScheduledTasks, "A")
	require.True(t, ok)
	require.Len(t, a.Resources, 1)
	assert.Equal(t, "free", a.Resources[0])
	assert.True(t, a.StartDate.Equal(d(2025, 1, 1)))
}

func TestScheduleFixedTaskRemovedFromSolveSet(t *testing.T) {
	start := d(2025, 1, 5)
	tasks := []*task.Task{
		{ID: "A", DurationDays: 4, StartOn: &start, Resources: []task.ResourceAssignment{{Name: "r1", Allocation: 1.0}}},
		{
			ID: "B", DurationDays: 2,
			Resources:    []task.ResourceAssignment{{Name: "r1", Allocation: 1.0}},
			Dependencies: []task.Dependency{{TaskID: "A"}},
		},
	}
	s := New(tasks, d(2025, 1, 1))
	result, err := s.Schedule()
	require.NoError(t, err)

	a, _ := findScheduled(result.ScheduledTasks, "A")
	b, _ := findScheduled(result.ScheduledTasks, "B")
	assert.True(t, a.StartDate.Equal(start))
	assert.True(t, !b.StartDate.Before(a.EndDate.AddDate(0, 0, 1)))
}

func TestScheduleUnschedulableResidueFails(t *testing.T) {
	tasks := []*task.Task{
		{ID: "A", DurationDays: 5}, // no resources, no spec -> never schedulable
	}
	s := New(tasks, d(2025, 1, 1))
	_, err := s.Schedule()
	assert.Error(t, err)
}

func TestScheduleStrategyWeightedOrdersByCRAndPriority(t *testing.T) {
	cfg := schedconfig.Default()
	cfg.Strategy = schedconfig.StrategyWeighted
	deadline := d(2025, 1, 20)
	lowPriority := 10
	highPriority := 90
	tasks := []*task.Task{
		{ID: "low", DurationDays: 5, Priority: &lowPriority, EndBefore: &deadline, Resources: []task.ResourceAssignment{{Name: "r1", Allocation: 1.0}}},
		{ID: "high", DurationDays: 5, Priority: &highPriority, EndBefore: &deadline, Resources: []task.ResourceAssignment{{Name: "r1", Allocation: 1.0}}},
	}
	s := New(tasks, d(2025, 1, 1), WithConfig(cfg))
	result, err := s.Schedule()
	require.NoError(t, err)

	high, _ := findScheduled(result.ScheduledTasks, "high")
	low, _ := findScheduled(result.ScheduledTasks, "low")
	assert.True(t, high.StartDate.Equal(d(2025, 1, 1)))
	assert.True(t, !low.StartDate.Before(high.EndDate))
}
