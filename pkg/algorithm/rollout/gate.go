package rollout

import (
	"math"
	"sort"
	"time"

	"github.com/cuemby/rcspd/pkg/algorithm/sgs"
)

// computeTaskCR mirrors sgs.State.CriticalRatio but anchors slack at the
// caller-supplied time rather than always state.CurrentTime, and falls back
// to the configured CR floor rather than the adaptive default-CR when a task
// has no computed deadline — the rollout gates compare tasks against a
// stable floor, not a value that shifts as the unscheduled set drains.
func computeTaskCR(state *sgs.State, taskID string, at time.Time) float64 {
	deadline, ok := state.Deadlines[taskID]
	if !ok {
		return state.Config.DefaultCRFloor
	}
	slack := daysBetween(at, deadline)
	duration := state.Tasks[taskID].DurationDays
	return slack / math.Max(duration, 1.0)
}

// estimateTaskCompletion projects when an as-yet-unscheduled task would
// finish if started at the earliest moment its own dependencies allow,
// for tasks whose dependency chain is not yet resolved in state.Scheduled.
// Returns false when a dependency's own completion cannot be estimated.
func estimateTaskCompletion(state *sgs.State, depID string, at time.Time) (time.Time, bool) {
	depTask, ok := state.Tasks[depID]
	if !ok {
		return time.Time{}, false
	}

	for _, dd := range depTask.Dependencies {
		if state.CompletedTaskIDs[dd.TaskID] {
			continue
		}
		if _, scheduled := state.Scheduled[dd.TaskID]; !scheduled {
			return time.Time{}, false
		}
	}

	earliest := at
	if depTask.StartAfter != nil && depTask.StartAfter.After(earliest) {
		earliest = *depTask.StartAfter
	}
	for _, dd := range depTask.Dependencies {
		if state.CompletedTaskIDs[dd.TaskID] {
			continue
		}
		depEnd := state.Scheduled[dd.TaskID].End
		candidate := addDays(depEnd, 1+dd.LagDays)
		if candidate.After(earliest) {
			earliest = candidate
		}
	}

	return addDays(earliest, depTask.DurationDays), true
}

// findUpcomingUrgentTasks finds unscheduled tasks more urgent than taskID
// — by a significantly higher priority, or a much tighter deadline without
// a significantly lower priority — that will become eligible before
// horizon. Sorted most-urgent first (CR ascending, then priority
// descending, then eligible date ascending).
func findUpcomingUrgentTasks(state *sgs.State, taskID string, horizon time.Time) []upcomingTask {
	taskPriority := state.Priority(taskID)
	taskCR := computeTaskCR(state, taskID, state.CurrentTime)
	minPriorityGap := float64(state.Config.Rollout.MinPriorityGap)
	minCRUrgencyGap := state.Config.Rollout.MinCRUrgencyGap

	var upcoming []upcomingTask

	for otherID := range state.Unscheduled {
		if otherID == taskID {
			continue
		}

		otherPriority := state.Priority(otherID)
		otherCR := computeTaskCR(state, otherID, state.CurrentTime)

		isHigherPriority := float64(otherPriority) >= float64(taskPriority)+minPriorityGap
		isMoreUrgentCR := taskCR-otherCR >= minCRUrgencyGap &&
			float64(otherPriority) >= float64(taskPriority)-minPriorityGap

		if !isHigherPriority && !isMoreUrgentCR {
			continue
		}

		otherTask := state.Tasks[otherID]
		eligibleDate := state.CurrentTime
		canEstimate := true

		for _, dep := range otherTask.Dependencies {
			if state.CompletedTaskIDs[dep.TaskID] {
				continue
			}
			if span, ok := state.Scheduled[dep.TaskID]; ok {
				candidate := addDays(span.End, 1+dep.LagDays)
				if candidate.After(eligibleDate) {
					eligibleDate = candidate
				}
				continue
			}
			estimated, ok := estimateTaskCompletion(state, dep.TaskID, state.CurrentTime)
			if !ok {
				canEstimate = false
				break
			}
			candidate := addDays(estimated, 1+dep.LagDays)
			if candidate.After(eligibleDate) {
				eligibleDate = candidate
			}
		}
		if !canEstimate {
			continue
		}

		if otherTask.StartAfter != nil && otherTask.StartAfter.After(eligibleDate) {
			eligibleDate = *otherTask.StartAfter
		}

		if eligibleDate.Before(horizon) {
			upcoming = append(upcoming, upcomingTask{
				TaskID:       otherID,
				Priority:     otherPriority,
				CR:           otherCR,
				EligibleDate: eligibleDate,
			})
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		if upcoming[i].CR != upcoming[j].CR {
			return upcoming[i].CR < upcoming[j].CR
		}
		if upcoming[i].Priority != upcoming[j].Priority {
			return upcoming[i].Priority > upcoming[j].Priority
		}
		return upcoming[i].EligibleDate.Before(upcoming[j].EligibleDate)
	})

	return upcoming
}

// shouldTriggerRollout decides whether a tentative scheduling decision for
// taskID, completing at completionDate, is relaxed enough (low priority or
// generous slack) to warrant checking for a more urgent competitor before
// committing.
func shouldTriggerRollout(state *sgs.State, taskID string, completionDate time.Time) (bool, []upcomingTask) {
	if state.Tasks[taskID].DurationDays == 0 {
		return false, nil
	}

	taskPriority := state.Priority(taskID)
	taskCR := computeTaskCR(state, taskID, state.CurrentTime)

	isLowPriority := taskPriority < state.Config.Rollout.PriorityThreshold
	isRelaxedCR := taskCR > state.Config.Rollout.CRRelaxedThreshold
	if !isLowPriority && !isRelaxedCR {
		return false, nil
	}

	horizon := completionDate
	if state.Config.Rollout.MaxHorizonDays > 0 {
		capped := addDays(state.CurrentTime, float64(state.Config.Rollout.MaxHorizonDays))
		if capped.Before(horizon) {
			horizon = capped
		}
	}

	upcoming := findUpcomingUrgentTasks(state, taskID, horizon)
	if len(upcoming) > 0 {
		return true, upcoming
	}
	return false, nil
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

func addDays(t time.Time, days float64) time.Time {
	return t.AddDate(0, 0, int(math.Round(days)))
}
