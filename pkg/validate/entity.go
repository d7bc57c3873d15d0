package validate

import "github.com/cuemby/rcspd/pkg/task"

// TimeframeConstraintMode controls which date constraints a timeframe string
// produces when neither start_after nor end_before is already set.
type TimeframeConstraintMode string

const (
	TimeframeBoth  TimeframeConstraintMode = "both"
	TimeframeStart TimeframeConstraintMode = "start"
	TimeframeEnd   TimeframeConstraintMode = "end"
	TimeframeNone  TimeframeConstraintMode = "none"
)

// RawEntity is the unvalidated, loosely-typed input record a caller
// supplies for one schedulable item. Date fields are ISO-8601 strings
// ("2025-01-31") so callers can pass values straight from whatever
// metadata store they maintain; nil/empty means "not set".
type RawEntity struct {
	ID           string
	Effort       string
	Resources    []string
	StartDate    *string
	EndDate      *string
	StartAfter   *string
	EndBefore    *string
	Timeframe    string
	Status       string
	Priority     *int
	Dependencies []task.Dependency
	Meta         map[string]any
}
