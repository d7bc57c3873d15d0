package sgs

import (
	"math"
	"time"

	"github.com/cuemby/rcspd/pkg/resource"
	"github.com/cuemby/rcspd/pkg/schedconfig"
	"github.com/cuemby/rcspd/pkg/task"
)

// Span is a committed [start, end] interval, both inclusive.
type Span struct {
	Start time.Time
	End   time.Time
}

// State is the mutable working state of a forward-pass greedy dispatch.
// pkg/algorithm/rollout reuses it directly (including Copy) to run the
// bounded-lookahead simulations.
type State struct {
	Tasks               map[string]*task.Task
	CurrentTime         time.Time
	Scheduled           map[string]Span
	ResourceAssignments map[string][]string
	Unscheduled         map[string]bool
	ResourceSchedules   map[string]*resource.Schedule
	CompletedTaskIDs    map[string]bool
	Deadlines           map[string]time.Time
	Priorities          map[string]int
	ResourceConfig      *resource.Config
	Config              *schedconfig.Config
}

// Copy deep-copies every mutable collection so a caller can advance the
// clone without disturbing the original — the building block bounded
// rollout needs to simulate "schedule now" vs. "defer" scenarios.
func (s *State) Copy() *State {
	c := &State{
		CurrentTime:    s.CurrentTime,
		Tasks:          s.Tasks, // read-only, safe to share
		ResourceConfig: s.ResourceConfig,
		Config:         s.Config,
	}

	c.Scheduled = make(map[string]Span, len(s.Scheduled))
	for k, v := range s.Scheduled {
		c.Scheduled[k] = v
	}

	c.ResourceAssignments = make(map[string][]string, len(s.ResourceAssignments))
	for k, v := range s.ResourceAssignments {
		cp := make([]string, len(v))
		copy(cp, v)
		c.ResourceAssignments[k] = cp
	}

	c.Unscheduled = make(map[string]bool, len(s.Unscheduled))
	for k, v := range s.Unscheduled {
		c.Unscheduled[k] = v
	}

	c.CompletedTaskIDs = make(map[string]bool, len(s.CompletedTaskIDs))
	for k, v := range s.CompletedTaskIDs {
		c.CompletedTaskIDs[k] = v
	}

	c.Deadlines = make(map[string]time.Time, len(s.Deadlines))
	for k, v := range s.Deadlines {
		c.Deadlines[k] = v
	}

	c.Priorities = make(map[string]int, len(s.Priorities))
	for k, v := range s.Priorities {
		c.Priorities[k] = v
	}

	c.ResourceSchedules = make(map[string]*resource.Schedule, len(s.ResourceSchedules))
	for k, v := range s.ResourceSchedules {
		c.ResourceSchedules[k] = v.Copy()
	}

	return c
}

// ComputeDefaultCR computes the adaptive default critical ratio applied
// to tasks without an explicit deadline: the highest CR among
// deadline-driven unscheduled tasks, scaled by the configured multiplier
// and floored.
func (s *State) ComputeDefaultCR() float64 {
	maxCR := 0.0
	for taskID := range s.Unscheduled {
		deadline, ok := s.Deadlines[taskID]
		if !ok {
			continue
		}
		slack := daysBetween(s.CurrentTime, deadline)
		duration := s.Tasks[taskID].DurationDays
		cr := slack / math.Max(duration, 1.0)
		if cr > maxCR {
			maxCR = cr
		}
	}
	return math.Max(maxCR*s.Config.DefaultCRMultiplier, s.Config.DefaultCRFloor)
}

// CriticalRatio returns the task's CR at the current time, or the
// supplied default when the task has no computed deadline.
func (s *State) CriticalRatio(taskID string, defaultCR float64) float64 {
	deadline, ok := s.Deadlines[taskID]
	if !ok {
		return defaultCR
	}
	slack := daysBetween(s.CurrentTime, deadline)
	duration := s.Tasks[taskID].DurationDays
	return slack / math.Max(duration, 1.0)
}

func (s *State) priority(taskID string) int {
	return s.Priority(taskID)
}

// Priority returns the task's effective (post-propagation) priority, or
// the configured default if none was computed.
func (s *State) Priority(taskID string) int {
	if p, ok := s.Priorities[taskID]; ok {
		return p
	}
	return s.Config.DefaultPriority
}

// EligibleTasks returns the unscheduled tasks whose dependencies are
// satisfied and whose start_after has arrived, as of CurrentTime.
func (s *State) EligibleTasks() []string {
	eligible := make([]string, 0, len(s.Unscheduled))

	for taskID := range s.Unscheduled {
		t := s.Tasks[taskID]

		allDepsComplete := true
		earliest := s.CurrentTime
		for _, dep := range t.Dependencies {
			if s.CompletedTaskIDs[dep.TaskID] {
				continue
			}
			span, scheduled := s.Scheduled[dep.TaskID]
			if !scheduled {
				allDepsComplete = false
				break
			}
			eligibleDate := addDays(span.End, 1+dep.LagDays)
			if eligibleDate.After(s.CurrentTime) {
				allDepsComplete = false
				break
			}
			if eligibleDate.After(earliest) {
				earliest = eligibleDate
			}
		}
		if !allDepsComplete {
			continue
		}

		if t.StartAfter != nil && t.StartAfter.After(earliest) {
			earliest = *t.StartAfter
		}

		if !earliest.After(s.CurrentTime) {
			eligible = append(eligible, taskID)
		}
	}

	defaultCR := s.ComputeDefaultCR()
	sortEligible(eligible, s, defaultCR)
	return eligible
}

// TryScheduleTask attempts to place one eligible task at CurrentTime. It
// returns false without mutating state when the task cannot start right
// now (a required resource is not free this instant, or the
// greedy-with-foresight best candidate is available only later).
func (s *State) TryScheduleTask(taskID string) (task.ScheduledTask, bool) {
	t := s.Tasks[taskID]

	if t.DurationDays == 0 {
		s.Scheduled[taskID] = Span{Start: s.CurrentTime, End: s.CurrentTime}
		delete(s.Unscheduled, taskID)
		return task.ScheduledTask{
			TaskID:       taskID,
			StartDate:    s.CurrentTime,
			EndDate:      s.CurrentTime,
			DurationDays: 0,
			Resources:    nil,
		}, true
	}

	if t.ResourceSpec != "" && s.ResourceConfig != nil {
		bestResource, bestStart, bestCompletion := s.FindBestResource(t)
		if bestResource == "" {
			return task.ScheduledTask{}, false
		}
		if !bestStart.Equal(s.CurrentTime) {
			return task.ScheduledTask{}, false
		}

		s.ResourceSchedules[bestResource].AddBusyPeriod(s.CurrentTime, bestCompletion)
		s.Scheduled[taskID] = Span{Start: s.CurrentTime, End: bestCompletion}
		s.ResourceAssignments[taskID] = []string{bestResource}
		delete(s.Unscheduled, taskID)

		return task.ScheduledTask{
			TaskID:       taskID,
			StartDate:    s.CurrentTime,
			EndDate:      bestCompletion,
			DurationDays: t.DurationDays,
			Resources:    []string{bestResource},
		}, true
	}

	maxCompletion, ok := s.PeekExplicitCompletion(t)
	if !ok {
		return task.ScheduledTask{}, false
	}

	names := make([]string, 0, len(t.Resources))
	for _, r := range t.Resources {
		s.ResourceSchedules[r.Name].AddBusyPeriod(s.CurrentTime, maxCompletion)
		names = append(names, r.Name)
	}

	s.Scheduled[taskID] = Span{Start: s.CurrentTime, End: maxCompletion}
	s.ResourceAssignments[taskID] = names
	delete(s.Unscheduled, taskID)

	return task.ScheduledTask{
		TaskID:       taskID,
		StartDate:    s.CurrentTime,
		EndDate:      maxCompletion,
		DurationDays: t.DurationDays,
		Resources:    names,
	}, true
}

// PeekExplicitCompletion reports whether every resource an explicitly
// assigned task lists is free to start right now, and if so the DNS-aware
// completion date (the maximum across all listed resources). It performs
// no mutation, so callers can use it to evaluate a decision before
// committing.
func (s *State) PeekExplicitCompletion(t *task.Task) (time.Time, bool) {
	if len(t.Resources) == 0 {
		return time.Time{}, false
	}

	for _, r := range t.Resources {
		schedule, ok := s.ResourceSchedules[r.Name]
		if !ok {
			return time.Time{}, false
		}
		if !schedule.NextAvailableTime(s.CurrentTime).Equal(s.CurrentTime) {
			return time.Time{}, false
		}
	}

	maxCompletion := s.CurrentTime
	for _, r := range t.Resources {
		completion := s.ResourceSchedules[r.Name].CalculateCompletionTime(s.CurrentTime, t.DurationDays)
		if completion.After(maxCompletion) {
			maxCompletion = completion
		}
	}
	return maxCompletion, true
}

// FindBestResource evaluates every expanded candidate resource for a task
// and returns the one with the earliest completion time (greedy with
// foresight).
func (s *State) FindBestResource(t *task.Task) (string, time.Time, time.Time) {
	var candidates []string
	if t.ResourceSpec != "" && s.ResourceConfig != nil {
		candidates = s.ResourceConfig.ExpandResourceSpec(t.ResourceSpec)
	} else {
		for _, r := range t.Resources {
			candidates = append(candidates, r.Name)
		}
	}

	var bestResource string
	var bestStart, bestCompletion time.Time

	for _, name := range candidates {
		schedule, ok := s.ResourceSchedules[name]
		if !ok {
			continue
		}
		availableAt := schedule.NextAvailableTime(s.CurrentTime)
		completion := schedule.CalculateCompletionTime(availableAt, t.DurationDays)

		if bestResource == "" || completion.Before(bestCompletion) {
			bestResource = name
			bestStart = availableAt
			bestCompletion = completion
		}
	}

	return bestResource, bestStart, bestCompletion
}

// AdvanceTime moves CurrentTime to the next interesting event: a
// dependency completion (plus lag), a start_after boundary, or the day
// after a busy period ends. Returns false if there is no such event while
// tasks remain unscheduled — an infeasible configuration.
func (s *State) AdvanceTime() bool {
	var next *time.Time

	consider := func(t time.Time) {
		if !t.After(s.CurrentTime) {
			return
		}
		if next == nil || t.Before(*next) {
			tc := t
			next = &tc
		}
	}

	for taskID := range s.Unscheduled {
		t := s.Tasks[taskID]
		for _, dep := range t.Dependencies {
			span, ok := s.Scheduled[dep.TaskID]
			if !ok {
				continue
			}
			consider(addDays(span.End, 1+dep.LagDays))
		}
		if t.StartAfter != nil {
			consider(*t.StartAfter)
		}
	}

	for _, schedule := range s.ResourceSchedules {
		for _, end := range schedule.BusyPeriodEnds() {
			if !end.Before(s.CurrentTime) {
				consider(addDays(end, 1))
			}
		}
	}

	if next == nil {
		return false
	}
	s.CurrentTime = *next
	return true
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

func addDays(t time.Time, days float64) time.Time {
	return t.AddDate(0, 0, int(math.Round(days)))
}
