package lock

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/rcspd/pkg/task"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.lock.yaml")

	start, end := d(2025, 1, 1), d(2025, 1, 6)
	result := &task.SchedulingResult{
		Annotations: map[string]task.ScheduleAnnotations{
			"A": {
				EstimatedStart: &start,
				EstimatedEnd:   &end,
				ResourceAssignments: []task.ResourceAssignment{
					{Name: "r1", Allocation: 0.5},
				},
			},
		},
	}

	require.NoError(t, Write(path, result, nil))

	got, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, Version, got.Version)
	require.Contains(t, got.Tasks, "A")

	tl := got.Tasks["A"]
	assert.True(t, tl.StartDate.Equal(start))
	assert.True(t, tl.EndDate.Equal(end))
	require.Len(t, tl.Resources, 1)
	assert.Equal(t, "r1", tl.Resources[0].Name)
	assert.InDelta(t, 0.5, tl.Resources[0].Allocation, 1e-9)
}

func TestWriteFiltersByTaskIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.lock.yaml")

	start, end := d(2025, 1, 1), d(2025, 1, 6)
	result := &task.SchedulingResult{
		Annotations: map[string]task.ScheduleAnnotations{
			"A": {EstimatedStart: &start, EstimatedEnd: &end},
			"B": {EstimatedStart: &start, EstimatedEnd: &end},
		},
	}

	require.NoError(t, Write(path, result, map[string]bool{"A": true}))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Contains(t, got.Tasks, "A")
	assert.NotContains(t, got.Tasks, "B")
}

func TestWriteSkipsTasksWithoutBothDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.lock.yaml")

	start := d(2025, 1, 1)
	result := &task.SchedulingResult{
		Annotations: map[string]task.ScheduleAnnotations{
			"A": {EstimatedStart: &start}, // no EstimatedEnd
		},
	}

	require.NoError(t, Write(path, result, nil))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, got.Tasks)
}

func TestReadRejectsVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.lock.yaml")
	writeFile(t, path, "version: 2\nlocks: {}\n")

	_, err := Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported lock file version")
}

func TestReadRejectsUnparseableDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.lock.yaml")
	writeFile(t, path, "version: 1\nlocks:\n  A:\n    start_date: not-a-date\n    end_date: \"2025-01-06\"\n    resources: []\n")

	_, err := Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid start_date")
}

func TestReadDefaultsToFullAllocationWhenAllocationOmitted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.lock.yaml")
	writeFile(t, path, "version: 1\nlocks:\n  A:\n    start_date: \"2025-01-01\"\n    end_date: \"2025-01-06\"\n    resources:\n      - r1\n      - r2:0.25\n")

	got, err := Read(path)
	require.NoError(t, err)
	require.Contains(t, got.Tasks, "A")

	byName := map[string]float64{}
	for _, r := range got.Tasks["A"].Resources {
		byName[r.Name] = r.Allocation
	}
	assert.InDelta(t, 1.0, byName["r1"], 1e-9)
	assert.InDelta(t, 0.25, byName["r2"], 1e-9)
}

func TestApplyPinsLockedTasksAndDisablesAutoAssignment(t *testing.T) {
	start, end := d(2025, 1, 1), d(2025, 1, 6)
	l := &Lock{
		Version: Version,
		Tasks: map[string]TaskLock{
			"A": {
				StartDate: start,
				EndDate:   end,
				Resources: []task.ResourceAssignment{{Name: "r1", Allocation: 1.0}},
			},
		},
	}

	tasks := []*task.Task{
		{ID: "A", ResourceSpec: "any"},
		{ID: "B", ResourceSpec: "any"},
	}

	Apply(tasks, l)

	require.NotNil(t, tasks[0].StartOn)
	require.NotNil(t, tasks[0].EndOn)
	assert.True(t, tasks[0].StartOn.Equal(start))
	assert.True(t, tasks[0].EndOn.Equal(end))
	assert.Equal(t, "", tasks[0].ResourceSpec)
	require.Len(t, tasks[0].Resources, 1)
	assert.Equal(t, "r1", tasks[0].Resources[0].Name)

	assert.Nil(t, tasks[1].StartOn)
	assert.Equal(t, "any", tasks[1].ResourceSpec)
}

func TestApplyIgnoresMissingLock(t *testing.T) {
	tasks := []*task.Task{{ID: "A", ResourceSpec: "any"}}
	Apply(tasks, nil)
	assert.Nil(t, tasks[0].StartOn)
	assert.Equal(t, "any", tasks[0].ResourceSpec)
}

func TestSortedTaskIDs(t *testing.T) {
	l := &Lock{Tasks: map[string]TaskLock{"B": {}, "A": {}, "C": {}}}
	assert.Equal(t, []string{"A", "B", "C"}, l.SortedTaskIDs())
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}
