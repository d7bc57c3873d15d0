package rcspdpb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRequestWireRoundTrip(t *testing.T) {
	priority := int32(80)
	req := &ScheduleRequest{
		Entities: []TaskInput{
			{
				ID:        "A",
				Effort:    "3d",
				Resources: []string{"r1"},
				Priority:  &priority,
				Dependencies: []DependencyInput{
					{TaskID: "root", LagDays: 1},
				},
			},
		},
		CurrentDate:     "2025-01-01",
		Algorithm:       "cpsat",
		FiscalYearStart: 4,
	}

	wire, err := req.toWire()
	require.NoError(t, err)

	got, err := requestFromWire(wire)
	require.NoError(t, err)

	assert.Equal(t, req.CurrentDate, got.CurrentDate)
	assert.Equal(t, req.Algorithm, got.Algorithm)
	assert.Equal(t, req.FiscalYearStart, got.FiscalYearStart)
	require.Len(t, got.Entities, 1)
	assert.Equal(t, "A", got.Entities[0].ID)
	assert.Equal(t, []string{"r1"}, got.Entities[0].Resources)
	require.NotNil(t, got.Entities[0].Priority)
	assert.Equal(t, int32(80), *got.Entities[0].Priority)
	require.Len(t, got.Entities[0].Dependencies, 1)
	assert.Equal(t, "root", got.Entities[0].Dependencies[0].TaskID)
}

func TestScheduleResponseWireRoundTrip(t *testing.T) {
	resp := &ScheduleResponse{
		RunID: "run-1",
		ScheduledTasks: []ScheduledTaskOutput{
			{TaskID: "A", StartDate: "2025-01-01", EndDate: "2025-01-03", DurationDays: 2, Resources: []string{"r1"}},
		},
		Annotations: []AnnotationOutput{
			{EntityID: "A", EstimatedStart: "2025-01-01", EstimatedEnd: "2025-01-03", WasFixed: true},
		},
		Warnings: []string{"entity \"A\" finishes late"},
	}

	wire, err := resp.toWire()
	require.NoError(t, err)

	got, err := responseFromWire(wire)
	require.NoError(t, err)

	assert.Equal(t, resp.RunID, got.RunID)
	require.Len(t, got.ScheduledTasks, 1)
	assert.Equal(t, "A", got.ScheduledTasks[0].TaskID)
	require.Len(t, got.Annotations, 1)
	assert.True(t, got.Annotations[0].WasFixed)
	assert.Equal(t, resp.Warnings, got.Warnings)
}
