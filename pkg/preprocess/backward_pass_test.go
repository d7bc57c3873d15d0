package preprocess

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/rcspd/pkg/task"
)

func intp(i int) *int { return &i }

func timep(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestProcessNoDeadlinesUniformPriority(t *testing.T) {
	// Invariant 8: no deadlines + uniform priorities -> every computed
	// priority equals the default and every computed deadline is unset.
	tasks := []*task.Task{
		{ID: "A", DurationDays: 5},
		{ID: "B", DurationDays: 5, Dependencies: []task.Dependency{{TaskID: "A"}}},
	}
	result, err := New(50).Process(tasks, map[string]bool{})
	require.NoError(t, err)
	assert.Equal(t, 50, result.ComputedPriorities["A"])
	assert.Equal(t, 50, result.ComputedPriorities["B"])
	assert.Empty(t, result.ComputedDeadlines)
}

func TestProcessPriorityPropagation(t *testing.T) {
	// Scenario S6: chain A(pri=40) -> B(pri=40) -> C(pri=90); after backward
	// pass, priority[A] = priority[B] = priority[C] = 90.
	tasks := []*task.Task{
		{ID: "A", DurationDays: 5, Priority: intp(40)},
		{ID: "B", DurationDays: 5, Priority: intp(40), Dependencies: []task.Dependency{{TaskID: "A"}}},
		{ID: "C", DurationDays: 5, Priority: intp(90), Dependencies: []task.Dependency{{TaskID: "B"}}},
	}
	result, err := New(50).Process(tasks, map[string]bool{})
	require.NoError(t, err)
	assert.Equal(t, 90, result.ComputedPriorities["A"])
	assert.Equal(t, 90, result.ComputedPriorities["B"])
	assert.Equal(t, 90, result.ComputedPriorities["C"])
}

func TestProcessDeadlinePropagationWithLag(t *testing.T) {
	// Scenario S7-adjacent: B depends on A with a 7-day lag and a deadline;
	// A must inherit B's deadline minus B's duration and the lag.
	tasks := []*task.Task{
		{ID: "A", DurationDays: 5},
		{
			ID: "B", DurationDays: 5,
			EndBefore:    timep(2025, 2, 1),
			Dependencies: []task.Dependency{{TaskID: "A", LagDays: 7}},
		},
	}
	result, err := New(50).Process(tasks, map[string]bool{})
	require.NoError(t, err)
	want := task.ComputeDependencyDeadline(*timep(2025, 2, 1), 5, 7)
	assert.Equal(t, want, result.ComputedDeadlines["A"])
}

func TestProcessCycleDetected(t *testing.T) {
	tasks := []*task.Task{
		{ID: "A", DurationDays: 1, Dependencies: []task.Dependency{{TaskID: "B"}}},
		{ID: "B", DurationDays: 1, Dependencies: []task.Dependency{{TaskID: "A"}}},
	}
	_, err := New(50).Process(tasks, map[string]bool{})
	assert.Error(t, err)
}

func TestProcessDeadlineIntersectionAcrossSuccessors(t *testing.T) {
	// A is a dependency of both B (deadline 02-01) and C (deadline 01-15);
	// A must inherit the tighter (earlier) of the two propagated deadlines.
	tasks := []*task.Task{
		{ID: "A", DurationDays: 2},
		{ID: "B", DurationDays: 1, EndBefore: timep(2025, 2, 1), Dependencies: []task.Dependency{{TaskID: "A"}}},
		{ID: "C", DurationDays: 1, EndBefore: timep(2025, 1, 15), Dependencies: []task.Dependency{{TaskID: "A"}}},
	}
	result, err := New(50).Process(tasks, map[string]bool{})
	require.NoError(t, err)
	fromC := task.ComputeDependencyDeadline(*timep(2025, 1, 15), 1, 0)
	assert.Equal(t, fromC, result.ComputedDeadlines["A"])
}
