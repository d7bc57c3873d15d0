package rollout

import (
	"math"
	"time"

	"github.com/cuemby/rcspd/pkg/algorithm/sgs"
	"github.com/cuemby/rcspd/pkg/task"
)

// simState pairs an sgs.State with the list of tasks scheduled while
// simulating from it. Kept outside sgs.State since only rollout's scoring
// needs a running result log.
type simState struct {
	state  *sgs.State
	result []task.ScheduledTask
}

func (s *simState) copy() *simState {
	return &simState{
		state:  s.state.Copy(),
		result: append([]task.ScheduledTask(nil), s.result...),
	}
}

// advanceWithinHorizon advances state's clock to the next event, refusing
// to cross horizon. Reverts and reports false when the next event would
// overshoot or none exists.
func advanceWithinHorizon(state *sgs.State, horizon time.Time) bool {
	before := state.CurrentTime
	if !state.AdvanceTime() {
		return false
	}
	if state.CurrentTime.After(horizon) {
		state.CurrentTime = before
		return false
	}
	return true
}

// runRolloutSimulation greedily completes a cloned state through horizon,
// optionally skipping skipTaskID at the very first time step (simulating
// "defer this task"), then scores the resulting partial schedule. Lower
// scores are better.
func runRolloutSimulation(anchorDate time.Time, st *simState, horizon time.Time, skipTaskID string) (*simState, float64) {
	initialTime := st.state.CurrentTime
	maxIterations := len(st.state.Tasks)*10 + 1

	for iteration := 0; len(st.state.Unscheduled) > 0 && !st.state.CurrentTime.After(horizon) && iteration < maxIterations; iteration++ {
		eligible := st.state.EligibleTasks()
		if len(eligible) == 0 {
			if !advanceWithinHorizon(st.state, horizon) {
				break
			}
			continue
		}

		scheduledAny := false
		for _, taskID := range eligible {
			if skipTaskID != "" && taskID == skipTaskID && st.state.CurrentTime.Equal(initialTime) {
				continue
			}
			scheduledTask, ok := st.state.TryScheduleTask(taskID)
			if !ok {
				continue
			}
			scheduledAny = true
			st.result = append(st.result, scheduledTask)
		}

		if !scheduledAny {
			if !advanceWithinHorizon(st.state, horizon) {
				break
			}
		}
	}

	return st, evaluatePartialSchedule(anchorDate, st, horizon)
}

// evaluatePartialSchedule scores a simulated outcome: earlier starts for
// high-priority tasks are rewarded, missed deadlines and projected misses
// for still-eligible tasks are penalized heavily, and urgent tasks left
// unscheduled at the horizon are penalized in proportion to how urgent
// they are. Lower is better.
func evaluatePartialSchedule(anchorDate time.Time, st *simState, horizon time.Time) float64 {
	score := 0.0
	scheduledIDs := make(map[string]bool, len(st.result))

	for _, scheduledTask := range st.result {
		scheduledIDs[scheduledTask.TaskID] = true
		priority := float64(st.state.Priority(scheduledTask.TaskID))

		daysFromStart := daysBetween(anchorDate, scheduledTask.StartDate)
		score += daysFromStart * (priority / 100.0)

		if deadline, ok := st.state.Deadlines[scheduledTask.TaskID]; ok && scheduledTask.EndDate.After(deadline) {
			tardiness := daysBetween(deadline, scheduledTask.EndDate)
			score += tardiness * priority * 10
		}
	}

	for taskID := range st.state.Unscheduled {
		if scheduledIDs[taskID] {
			continue
		}

		t := st.state.Tasks[taskID]
		priority := float64(st.state.Priority(taskID))
		cr := computeTaskCR(st.state, taskID, anchorDate)

		wasEligible := true
		for _, dep := range t.Dependencies {
			if st.state.CompletedTaskIDs[dep.TaskID] {
				continue
			}
			if _, ok := st.state.Scheduled[dep.TaskID]; !ok {
				wasEligible = false
				break
			}
		}
		if wasEligible && t.StartAfter != nil && t.StartAfter.After(horizon) {
			wasEligible = false
		}
		if !wasEligible {
			continue
		}

		urgencyMultiplier := math.Min(10.0/math.Max(cr, 0.1), 100.0)
		daysDelayed := daysBetween(anchorDate, horizon)
		score += daysDelayed * (priority / 100.0) * urgencyMultiplier

		if deadline, ok := st.state.Deadlines[taskID]; ok {
			expectedEnd := addDays(horizon, t.DurationDays)
			if expectedEnd.After(deadline) {
				expectedTardiness := daysBetween(deadline, expectedEnd)
				score += expectedTardiness * priority * 10
			}
		}
	}

	return score
}
