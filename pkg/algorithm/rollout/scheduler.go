package rollout

import (
	"errors"
	"time"

	"github.com/cuemby/rcspd/internal/rcerr"
	"github.com/cuemby/rcspd/internal/rclog"
	"github.com/cuemby/rcspd/internal/rcmetrics"
	"github.com/cuemby/rcspd/pkg/algorithm/sgs"
	"github.com/cuemby/rcspd/pkg/task"
)

// Option configures a Scheduler at construction time. Rollout shares its
// construction knobs verbatim with Component E, so Option is the same
// functional-options type.
type Option = sgs.Option

// Construction options, re-exported so callers never need to import
// pkg/algorithm/sgs themselves just to configure a rollout Scheduler.
var (
	WithResourceConfig   = sgs.WithResourceConfig
	WithCompletedTaskIDs = sgs.WithCompletedTaskIDs
	WithConfig           = sgs.WithConfig
	WithGlobalDNSPeriods = sgs.WithGlobalDNSPeriods
	WithPreprocessResult = sgs.WithPreprocessResult
)

// Scheduler implements Component F: the parallel SGS dispatcher augmented
// with a bounded-rollout deferral check before committing a relaxed
// (low-priority or slack-heavy) task when a more urgent one is about to
// become eligible.
type Scheduler struct {
	setup     sgs.Setup
	decisions []Decision
}

// New constructs a Scheduler over the given tasks, anchored at
// currentDate.
func New(tasks []*task.Task, currentDate time.Time, opts ...Option) *Scheduler {
	setup := sgs.Setup{Tasks: tasks, CurrentDate: currentDate}
	for _, opt := range opts {
		opt(&setup)
	}
	return &Scheduler{setup: setup}
}

// Decisions returns every rollout comparison made during the most recent
// Schedule call, in the order they were decided.
func (s *Scheduler) Decisions() []Decision {
	return append([]Decision(nil), s.decisions...)
}

// Schedule runs fixed-task extraction followed by the rollout-augmented
// forward pass.
func (s *Scheduler) Schedule() (*task.AlgorithmResult, error) {
	logger := rclog.WithAlgorithm("bounded_rollout")
	timer := rcmetrics.NewTimer()
	defer timer.ObserveSeconds(rcmetrics.SolveDuration, "bounded_rollout")
	s.decisions = nil

	state, fixed, err := sgs.Prepare(s.setup)
	if err != nil {
		return nil, err
	}

	scheduled, err := s.runForward(state)
	if err != nil {
		logger.Error().Err(err).Msg("forward pass failed")
		rcmetrics.ScheduleFailuresTotal.WithLabelValues("bounded_rollout", failureKind(err)).Inc()
		return nil, err
	}

	for _, decision := range s.decisions {
		rcmetrics.RolloutDecisionsTotal.WithLabelValues(string(decision.Action)).Inc()
	}

	all := make([]task.ScheduledTask, 0, len(fixed)+len(scheduled))
	all = append(all, fixed...)
	all = append(all, scheduled...)
	rcmetrics.TasksScheduled.WithLabelValues("bounded_rollout").Add(float64(len(all)))

	return &task.AlgorithmResult{
		ScheduledTasks: all,
		AlgorithmMetadata: map[string]any{
			"algorithm":         "bounded_rollout",
			"strategy":          string(state.Config.Strategy),
			"rollout_decisions": len(s.decisions),
		},
	}, nil
}

// runForward mirrors sgs.RunForward's eligible/schedule/advance loop, but
// before committing a relaxed task it checks whether a more urgent
// competitor is about to become eligible and, if so, simulates both
// "schedule now" and "defer" scenarios to decide.
func (s *Scheduler) runForward(state *sgs.State) ([]task.ScheduledTask, error) {
	anchor := s.setup.CurrentDate
	result := make([]task.ScheduledTask, 0, len(state.Tasks))

	maxIterations := len(state.Tasks)*100 + 1
	for iteration := 0; len(state.Unscheduled) > 0 && iteration < maxIterations; iteration++ {
		eligible := state.EligibleTasks()
		scheduledAny := false
		deferred := make(map[string]bool)

		for _, taskID := range eligible {
			if deferred[taskID] {
				continue
			}
			t := state.Tasks[taskID]

			if t.DurationDays == 0 {
				scheduledTask, ok := state.TryScheduleTask(taskID)
				if ok {
					scheduledAny = true
					result = append(result, scheduledTask)
				}
				continue
			}

			tentativeCompletion, ready := s.tentativeCompletion(state, t)
			if !ready {
				continue
			}

			if shouldRollout, upcoming := shouldTriggerRollout(state, taskID, tentativeCompletion); shouldRollout {
				decision := s.decide(state, taskID, tentativeCompletion, upcoming[0], anchor)
				if decision.Action == ActionSkip {
					deferred[taskID] = true
					continue
				}
			}

			scheduledTask, ok := state.TryScheduleTask(taskID)
			if !ok {
				continue
			}
			scheduledAny = true
			result = append(result, scheduledTask)
		}

		if !scheduledAny {
			if !state.AdvanceTime() {
				break
			}
		}
	}

	if len(state.Unscheduled) > 0 {
		residue := make([]string, 0, len(state.Unscheduled))
		for id := range state.Unscheduled {
			residue = append(residue, id)
		}
		return nil, rcerr.New(rcerr.UnschedulableResidue, "failed to schedule all tasks", residue...)
	}

	return result, nil
}

// tentativeCompletion peeks the completion date a task would get if
// scheduled right now, without mutating state, on whichever resource path
// applies (auto-assignment or explicit resources).
func (s *Scheduler) tentativeCompletion(state *sgs.State, t *task.Task) (time.Time, bool) {
	if t.ResourceSpec != "" && state.ResourceConfig != nil {
		bestResource, bestStart, bestCompletion := state.FindBestResource(t)
		if bestResource == "" || !bestStart.Equal(state.CurrentTime) {
			return time.Time{}, false
		}
		return bestCompletion, true
	}
	return state.PeekExplicitCompletion(t)
}

// decide runs the schedule-now vs. defer simulations and records the
// outcome.
func (s *Scheduler) decide(state *sgs.State, taskID string, completionDate time.Time, competitor upcomingTask, anchor time.Time) Decision {
	taskPriority := state.Priority(taskID)
	taskCR := computeTaskCR(state, taskID, state.CurrentTime)

	base := &simState{state: state.Copy()}

	scenarioA := base.copy()
	if scheduledTask, ok := scenarioA.state.TryScheduleTask(taskID); ok {
		scenarioA.result = append(scenarioA.result, scheduledTask)
	}
	_, scoreA := runRolloutSimulation(anchor, scenarioA, completionDate, "")

	scenarioB := base.copy()
	_, scoreB := runRolloutSimulation(anchor, scenarioB, completionDate, taskID)

	action := ActionSchedule
	if scoreB < scoreA {
		action = ActionSkip
	}

	decision := Decision{
		TaskID:                taskID,
		TaskPriority:          taskPriority,
		TaskCR:                taskCR,
		CompetingTaskID:       competitor.TaskID,
		CompetingPriority:     competitor.Priority,
		CompetingCR:           competitor.CR,
		CompetingEligibleDate: competitor.EligibleDate,
		ScheduleScore:         scoreA,
		SkipScore:             scoreB,
		Action:                action,
	}
	s.decisions = append(s.decisions, decision)
	return decision
}

// failureKind extracts the structured error kind for metric labeling,
// falling back to "unknown" for errors this package did not itself raise.
func failureKind(err error) string {
	var e *rcerr.Error
	if errors.As(err, &e) {
		return string(e.Kind)
	}
	return "unknown"
}
