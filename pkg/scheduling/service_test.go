package scheduling

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/rcspd/pkg/lock"
	"github.com/cuemby/rcspd/pkg/schedconfig"
	"github.com/cuemby/rcspd/pkg/task"
	"github.com/cuemby/rcspd/pkg/validate"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func strp(s string) *string { return &s }

func TestScheduleProducesAnnotationsForEligibleEntities(t *testing.T) {
	entities := []validate.RawEntity{
		{ID: "A", Resources: []string{"r1"}, StartDate: strp("2025-01-01"), EndDate: strp("2025-01-04")},
		{ID: "B", Resources: []string{"r1"}, Effort: "3d",
			Dependencies: []task.Dependency{{TaskID: "A"}}},
	}
	svc := New(entities, d(2025, 1, 1))
	result, err := svc.Schedule()
	require.NoError(t, err)

	a, ok := result.Annotations["A"]
	require.True(t, ok)
	assert.True(t, a.WasFixed)
	require.NotNil(t, a.EstimatedStart)
	require.NotNil(t, a.EstimatedEnd)

	b, ok := result.Annotations["B"]
	require.True(t, ok)
	assert.False(t, b.WasFixed)
	require.NotNil(t, b.EstimatedStart)
	assert.True(t, !b.EstimatedStart.Before(*a.EstimatedEnd))
}

func TestScheduleExcludesDoneWithoutDatesFromAnnotations(t *testing.T) {
	entities := []validate.RawEntity{
		{ID: "A", Status: "done"},
		{ID: "B", Resources: []string{"r1"}, Effort: "2d",
			Dependencies: []task.Dependency{{TaskID: "A"}}},
	}
	svc := New(entities, d(2025, 1, 1))
	result, err := svc.Schedule()
	require.NoError(t, err)

	_, ok := result.Annotations["A"]
	assert.False(t, ok)
	assert.Contains(t, result.Warnings, "A marked done without start/end dates; excluded from scheduling")

	_, ok = result.Annotations["B"]
	assert.True(t, ok)
}

func TestScheduleFlagsDeadlineViolationWithWarning(t *testing.T) {
	entities := []validate.RawEntity{
		{ID: "A", Resources: []string{"r1"}, Effort: "5d", EndBefore: strp("2025-01-02")},
	}
	svc := New(entities, d(2025, 1, 1))
	result, err := svc.Schedule()
	require.NoError(t, err)

	a, ok := result.Annotations["A"]
	require.True(t, ok)
	assert.True(t, a.DeadlineViolated)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "entity \"A\" finishes")
}

func TestScheduleAppliesLockToPinDatesAndResources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.lock")
	contents := "version: 1\n" +
		"locks:\n" +
		"  A:\n" +
		"    start_date: \"2025-02-01\"\n" +
		"    end_date: \"2025-02-05\"\n" +
		"    resources:\n" +
		"      - r9:1\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	l, err := lock.Read(path)
	require.NoError(t, err)

	entities := []validate.RawEntity{
		{ID: "A", Effort: "5d"},
	}
	svc := New(entities, d(2025, 1, 1), WithLock(l))
	result, err := svc.Schedule()
	require.NoError(t, err)

	a, ok := result.Annotations["A"]
	require.True(t, ok)
	assert.True(t, a.WasFixed)
	assert.False(t, a.ResourcesWereComputed)
	require.True(t, a.EstimatedStart.Equal(d(2025, 2, 1)))
	require.True(t, a.EstimatedEnd.Equal(d(2025, 2, 5)))
	require.Len(t, a.ResourceAssignments, 1)
	assert.Equal(t, "r9", a.ResourceAssignments[0].Name)
}

func TestResolvePreprocessorTypeDefersToBackwardPassExceptForCPSAT(t *testing.T) {
	cfg := schedconfig.Default()
	cfg.PreProcessor = schedconfig.PreProcessorAuto

	cfg.Algorithm = schedconfig.AlgorithmParallelSGS
	assert.Equal(t, schedconfig.PreProcessorBackwardPass, resolvePreprocessorType(cfg))

	cfg.Algorithm = schedconfig.AlgorithmCPSAT
	assert.Equal(t, schedconfig.PreProcessorNone, resolvePreprocessorType(cfg))

	cfg.PreProcessor = schedconfig.PreProcessorBackwardPass
	assert.Equal(t, schedconfig.PreProcessorBackwardPass, resolvePreprocessorType(cfg))
}
