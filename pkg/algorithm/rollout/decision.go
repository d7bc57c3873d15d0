package rollout

import "time"

// Action is the outcome of a rollout comparison.
type Action string

const (
	ActionSchedule Action = "schedule"
	ActionSkip     Action = "skip"
)

// Decision records one rollout comparison for explainability: a task
// eligible for its tentative resource, a competing more-urgent task about
// to become eligible, both scenarios' scores, and which one won.
type Decision struct {
	TaskID                string
	TaskPriority          int
	TaskCR                float64
	CompetingTaskID       string
	CompetingPriority     int
	CompetingCR           float64
	CompetingEligibleDate time.Time
	ScheduleScore         float64
	SkipScore             float64
	Action                Action
}

type upcomingTask struct {
	TaskID       string
	Priority     int
	CR           float64
	EligibleDate time.Time
}
