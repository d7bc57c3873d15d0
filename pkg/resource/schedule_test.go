package resource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestAddBusyPeriodMergesAdjacent(t *testing.T) {
	s := New("r1", nil)
	s.AddBusyPeriod(d(2025, 1, 1), d(2025, 1, 5))
	s.AddBusyPeriod(d(2025, 1, 6), d(2025, 1, 10))
	assert.Len(t, s.busyPeriods, 1)
	assert.Equal(t, d(2025, 1, 1), s.busyPeriods[0].Start)
	assert.Equal(t, d(2025, 1, 10), s.busyPeriods[0].End)
}

func TestAddBusyPeriodDoesNotMergeWithGap(t *testing.T) {
	s := New("r1", nil)
	s.AddBusyPeriod(d(2025, 1, 1), d(2025, 1, 5))
	s.AddBusyPeriod(d(2025, 1, 8), d(2025, 1, 10))
	assert.Len(t, s.busyPeriods, 2)
}

func TestIsAvailable(t *testing.T) {
	s := New("r1", nil)
	s.AddBusyPeriod(d(2025, 1, 5), d(2025, 1, 10))
	assert.True(t, s.IsAvailable(d(2025, 1, 1), 3))
	assert.False(t, s.IsAvailable(d(2025, 1, 8), 3))
}

func TestNextAvailableTime(t *testing.T) {
	s := New("r1", nil)
	s.AddBusyPeriod(d(2025, 1, 5), d(2025, 1, 10))
	assert.Equal(t, d(2025, 1, 1), s.NextAvailableTime(d(2025, 1, 1)))
	assert.Equal(t, d(2025, 1, 11), s.NextAvailableTime(d(2025, 1, 7)))
}

func TestCalculateCompletionTimeNoBusy(t *testing.T) {
	s := New("r1", nil)
	got := s.CalculateCompletionTime(d(2025, 1, 1), 5)
	assert.Equal(t, d(2025, 1, 6), got)
}

func TestCalculateCompletionTimeSpansDNS(t *testing.T) {
	// Ported directly from calculate_completion_time's forward-walk: 4 work
	// days before the DNS window (Jan1-4), skip to Jan11 once the inclusive
	// [01-05,01-10] window ends, then 6 more work days land on Jan17.
	s := New("r1", []Period{{Start: d(2025, 1, 5), End: d(2025, 1, 10)}})
	got := s.CalculateCompletionTime(d(2025, 1, 1), 10)
	assert.Equal(t, d(2025, 1, 17), got)
}

func TestCalculateCompletionTimeIsMemoized(t *testing.T) {
	s := New("r1", []Period{{Start: d(2025, 1, 5), End: d(2025, 1, 10)}})
	first := s.CalculateCompletionTime(d(2025, 1, 1), 10)
	second := s.CalculateCompletionTime(d(2025, 1, 1), 10)
	assert.Equal(t, first, second)
}

func TestCopyIsIndependent(t *testing.T) {
	s := New("r1", nil)
	s.AddBusyPeriod(d(2025, 1, 1), d(2025, 1, 5))
	clone := s.Copy()
	clone.AddBusyPeriod(d(2025, 2, 1), d(2025, 2, 5))
	assert.Len(t, s.busyPeriods, 1)
	assert.Len(t, clone.busyPeriods, 2)
}

func TestDNSTouchingByOneDayMerges(t *testing.T) {
	// Invariant 12: DNS touching another DNS by exactly one day merges.
	s := New("r1", []Period{
		{Start: d(2025, 1, 1), End: d(2025, 1, 5)},
		{Start: d(2025, 1, 6), End: d(2025, 1, 10)},
	})
	assert.Len(t, s.busyPeriods, 1)
}
