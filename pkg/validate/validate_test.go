package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/rcspd/pkg/resource"
)

func strp(s string) *string { return &s }

func TestEntityToTaskDoneWithoutDates(t *testing.T) {
	v := New(nil, TimeframeBoth, 1)
	task, isDone, _ := v.EntityToTask(RawEntity{ID: "A", Status: "done"})
	assert.Nil(t, task)
	assert.True(t, isDone)
}

func TestEntityToTaskDoneWithDatesIsNotExcluded(t *testing.T) {
	v := New(nil, TimeframeBoth, 1)
	task, isDone, _ := v.EntityToTask(RawEntity{ID: "A", Status: "done", StartDate: strp("2025-01-01"), EndDate: strp("2025-01-06")})
	require.NotNil(t, task)
	assert.False(t, isDone)
	assert.Equal(t, 5.0, task.DurationDays)
}

func TestEntityToTaskEffortDuration(t *testing.T) {
	v := New(nil, TimeframeBoth, 1)
	task, _, _ := v.EntityToTask(RawEntity{ID: "A", Effort: "2w"})
	require.NotNil(t, task)
	assert.Equal(t, 14.0, task.DurationDays)
}

func TestEntityToTaskDefaultEffortIsOneWeek(t *testing.T) {
	v := New(nil, TimeframeBoth, 1)
	task, _, _ := v.EntityToTask(RawEntity{ID: "A"})
	require.NotNil(t, task)
	assert.Equal(t, 7.0, task.DurationDays)
}

func TestEntityToTaskNoResourcesFallsBackToUnassigned(t *testing.T) {
	v := New(nil, TimeframeBoth, 1)
	task, _, computed := v.EntityToTask(RawEntity{ID: "A"})
	require.NotNil(t, task)
	assert.False(t, computed)
	require.Len(t, task.Resources, 1)
	assert.Equal(t, resource.UnassignedResource, task.Resources[0].Name)
}

func TestEntityToTaskDefaultResourceSpecAdopted(t *testing.T) {
	cfg := &resource.Config{DefaultResource: "*"}
	v := New(cfg, TimeframeBoth, 1)
	task, _, computed := v.EntityToTask(RawEntity{ID: "A"})
	require.NotNil(t, task)
	assert.True(t, computed)
	assert.Equal(t, "*", task.ResourceSpec)
}

func TestEntityToTaskWildcardSpec(t *testing.T) {
	cfg := &resource.Config{Resources: []resource.Definition{{Name: "alice"}, {Name: "bob"}}}
	v := New(cfg, TimeframeBoth, 1)
	task, _, computed := v.EntityToTask(RawEntity{ID: "A", Resources: []string{"*"}})
	require.NotNil(t, task)
	assert.True(t, computed)
	assert.Equal(t, "*", task.ResourceSpec)
	assert.Empty(t, task.Resources)
}

func TestEntityToTaskGroupSpec(t *testing.T) {
	cfg := &resource.Config{Groups: map[string][]string{"team_a": {"alice", "bob"}}}
	v := New(cfg, TimeframeBoth, 1)
	task, _, computed := v.EntityToTask(RawEntity{ID: "A", Resources: []string{"team_a"}})
	require.NotNil(t, task)
	assert.True(t, computed)
	assert.Equal(t, "team_a", task.ResourceSpec)
}

func TestEntityToTaskConcreteResourceWithAllocation(t *testing.T) {
	v := New(nil, TimeframeBoth, 1)
	task, _, computed := v.EntityToTask(RawEntity{ID: "A", Resources: []string{"alice:0.5"}})
	require.NotNil(t, task)
	assert.False(t, computed)
	require.Len(t, task.Resources, 1)
	assert.Equal(t, "alice", task.Resources[0].Name)
	assert.Equal(t, 0.5, task.Resources[0].Allocation)
	assert.Equal(t, 14.0, task.DurationDays) // 7 default effort days / 0.5 allocation
}

func TestEntityToTaskExplicitDatesOverrideEffort(t *testing.T) {
	v := New(nil, TimeframeBoth, 1)
	task, _, _ := v.EntityToTask(RawEntity{ID: "A", StartDate: strp("2025-01-01"), EndDate: strp("2025-01-11")})
	require.NotNil(t, task)
	assert.Equal(t, 10.0, task.DurationDays)
	require.NotNil(t, task.StartOn)
	require.NotNil(t, task.EndOn)
}

func TestEntityToTaskTimeframeSetsBothByDefault(t *testing.T) {
	v := New(nil, TimeframeBoth, 1)
	task, _, _ := v.EntityToTask(RawEntity{ID: "A", Timeframe: "2025q2"})
	require.NotNil(t, task)
	require.NotNil(t, task.StartAfter)
	require.NotNil(t, task.EndBefore)
}

func TestEntityToTaskTimeframeStartOnlyMode(t *testing.T) {
	v := New(nil, TimeframeStart, 1)
	task, _, _ := v.EntityToTask(RawEntity{ID: "A", Timeframe: "2025q2"})
	require.NotNil(t, task)
	assert.NotNil(t, task.StartAfter)
	assert.Nil(t, task.EndBefore)
}

func TestEntityToTaskTimeframeNoneMode(t *testing.T) {
	v := New(nil, TimeframeNone, 1)
	task, _, _ := v.EntityToTask(RawEntity{ID: "A", Timeframe: "2025q2"})
	require.NotNil(t, task)
	assert.Nil(t, task.StartAfter)
	assert.Nil(t, task.EndBefore)
}

func TestEntityToTaskExplicitConstraintsNotOverriddenByTimeframe(t *testing.T) {
	v := New(nil, TimeframeBoth, 1)
	task, _, _ := v.EntityToTask(RawEntity{ID: "A", Timeframe: "2025q2", StartAfter: strp("2025-01-01")})
	require.NotNil(t, task)
	require.NotNil(t, task.StartAfter)
	assert.Equal(t, 2025, task.StartAfter.Year())
	assert.Equal(t, 1, int(task.StartAfter.Month()))
	assert.Nil(t, task.EndBefore)
}

func TestExtractTasksSeparatesDoneWithoutDates(t *testing.T) {
	v := New(nil, TimeframeBoth, 1)
	entities := []RawEntity{
		{ID: "A", Status: "done"},
		{ID: "B", Effort: "5d"},
	}
	tasks, done, computed, warnings := v.ExtractTasks(entities)
	require.Len(t, tasks, 1)
	assert.Equal(t, "B", tasks[0].ID)
	assert.Equal(t, []string{"A"}, done)
	assert.Contains(t, computed, "B")
	require.Len(t, warnings, 1)
}

func TestParseDateInvalidReturnsNil(t *testing.T) {
	assert.Nil(t, ParseDate(strp("not-a-date")))
	assert.Nil(t, ParseDate(nil))
}
