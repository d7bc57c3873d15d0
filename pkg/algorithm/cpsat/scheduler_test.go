package cpsat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/rcspd/internal/rcerr"
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

func TestScheduleRespectsPrecedenceAndResourceContention(t *testing.T) {
	tasks := []*task.Task{
		{ID: "A", DurationDays: 3, Resources: []task.ResourceAssignment{{Name: "r1", Allocation: 1.0}}},
		{ID: "B", DurationDays: 2, Resources: []task.ResourceAssignment{{Name: "r1", Allocation: 1.0}},
			Dependencies: []task.Dependency{{TaskID: "A"}}},
	}
	s := New(tasks, d(2025, 1, 1))
	result, err := s.Schedule()
	require.NoError(t, err)

	a, ok := findScheduled(result.ScheduledTasks, "A")
	require.True(t, ok)
	b, ok := findScheduled(result.ScheduledTasks, "B")
	require.True(t, ok)

	assert.True(t, a.StartDate.Equal(d(2025, 1, 1)))
	assert.True(t, a.EndDate.Equal(d(2025, 1, 4)))
	assert.True(t, !b.StartDate.Before(a.EndDate))
	assert.True(t, b.EndDate.Equal(b.StartDate.AddDate(0, 0, 2)))
}

func TestSchedulePrefersCompletingHigherPriorityTaskEarlier(t *testing.T) {
	// "zzz_high" sorts alphabetically AFTER "aaa_low": if the search's fixed
	// task order were still alphabetical, aaa_low would claim the resource
	// first. Priority must override that tie-break for this to pass.
	tasks := []*task.Task{
		{ID: "zzz_high", DurationDays: 2, Priority: intPtr(90),
			Resources: []task.ResourceAssignment{{Name: "r1", Allocation: 1.0}}},
		{ID: "aaa_low", DurationDays: 2, Priority: intPtr(10),
			Resources: []task.ResourceAssignment{{Name: "r1", Allocation: 1.0}}},
	}
	s := New(tasks, d(2025, 1, 1))
	result, err := s.Schedule()
	require.NoError(t, err)

	high, ok := findScheduled(result.ScheduledTasks, "zzz_high")
	require.True(t, ok)
	low, ok := findScheduled(result.ScheduledTasks, "aaa_low")
	require.True(t, ok)

	assert.True(t, high.StartDate.Equal(d(2025, 1, 1)))
	assert.True(t, !low.StartDate.Before(high.EndDate))
}

func TestScheduleRejectsMultiResourceTask(t *testing.T) {
	tasks := []*task.Task{
		{ID: "A", DurationDays: 2, Resources: []task.ResourceAssignment{
			{Name: "r1", Allocation: 1.0}, {Name: "r2", Allocation: 1.0},
		}},
	}
	s := New(tasks, d(2025, 1, 1))
	_, err := s.Schedule()
	require.Error(t, err)

	var e *rcerr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, rcerr.InvalidModel, e.Kind)
}

func TestScheduleDetectsDependencyCycle(t *testing.T) {
	tasks := []*task.Task{
		{ID: "A", DurationDays: 1, Dependencies: []task.Dependency{{TaskID: "B"}},
			Resources: []task.ResourceAssignment{{Name: "r1", Allocation: 1.0}}},
		{ID: "B", DurationDays: 1, Dependencies: []task.Dependency{{TaskID: "A"}},
			Resources: []task.ResourceAssignment{{Name: "r1", Allocation: 1.0}}},
	}
	s := New(tasks, d(2025, 1, 1))
	_, err := s.Schedule()
	require.Error(t, err)

	var e *rcerr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, rcerr.CycleDetected, e.Kind)
}

func TestScheduleReturnsFixedTasksOnlyWhenNothingLeftToSchedule(t *testing.T) {
	start, end := d(2025, 1, 1), d(2025, 1, 4)
	tasks := []*task.Task{
		{ID: "A", DurationDays: 3, StartOn: &start, EndOn: &end,
			Resources: []task.ResourceAssignment{{Name: "r1", Allocation: 1.0}}},
	}
	s := New(tasks, d(2025, 1, 1))
	result, err := s.Schedule()
	require.NoError(t, err)

	require.Len(t, result.ScheduledTasks, 1)
	assert.Equal(t, "no_tasks", result.AlgorithmMetadata["status"])
}

func intPtr(v int) *int { return &v }
