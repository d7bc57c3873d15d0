package sgs

import (
	"errors"
	"time"

	"github.com/cuemby/rcspd/internal/rcerr"
	"github.com/cuemby/rcspd/internal/rclog"
	"github.com/cuemby/rcspd/internal/rcmetrics"
	"github.com/cuemby/rcspd/pkg/preprocess"
	"github.com/cuemby/rcspd/pkg/resource"
	"github.com/cuemby/rcspd/pkg/schedconfig"
	"github.com/cuemby/rcspd/pkg/task"
)

// Setup bundles the shared construction inputs both Component E (this
// package) and Component F (pkg/algorithm/rollout) need before running
// their respective forward passes: resolved deadlines/priorities, fixed
// tasks extracted from the solve set, and an initial State seeded with
// every resource's DNS and fixed-task busy periods.
type Setup struct {
	Tasks            []*task.Task
	CurrentDate      time.Time
	ResourceConfig   *resource.Config
	CompletedTaskIDs map[string]bool
	Config           *schedconfig.Config
	GlobalDNSPeriods []resource.Period
	PreprocessResult *task.PreProcessResult
}

// Prepare resolves deadlines/priorities, extracts fixed tasks, and builds
// the initial forward-pass State.
func Prepare(setup Setup) (*State, []task.ScheduledTask, error) {
	if setup.Config == nil {
		setup.Config = schedconfig.Default()
	}
	if setup.CompletedTaskIDs == nil {
		setup.CompletedTaskIDs = map[string]bool{}
	}

	tasksByID := make(map[string]*task.Task, len(setup.Tasks))
	for _, t := range setup.Tasks {
		tasksByID[t.ID] = t
	}

	deadlines, priorities, err := resolveDeadlinesAndPriorities(tasksByID, setup.CompletedTaskIDs, setup.Config, setup.PreprocessResult)
	if err != nil {
		return nil, nil, err
	}

	fixed, remaining := processFixedTasks(tasksByID, setup.ResourceConfig, setup.GlobalDNSPeriods)
	state := buildInitialState(remaining, fixed, deadlines, priorities, setup)
	return state, fixed, nil
}

func resolveDeadlinesAndPriorities(
	tasksByID map[string]*task.Task,
	completedTaskIDs map[string]bool,
	config *schedconfig.Config,
	preprocessResult *task.PreProcessResult,
) (map[string]time.Time, map[string]int, error) {
	if preprocessResult != nil {
		return preprocessResult.ComputedDeadlines, preprocessResult.ComputedPriorities, nil
	}

	all := make([]*task.Task, 0, len(tasksByID))
	for _, t := range tasksByID {
		all = append(all, t)
	}

	result, err := preprocess.New(config.DefaultPriority).Process(all, completedTaskIDs)
	if err != nil {
		return nil, nil, err
	}
	return result.ComputedDeadlines, result.ComputedPriorities, nil
}

// processFixedTasks extracts every task with start_on and/or end_on set:
// these are treated as already scheduled and removed from the solve set,
// but still consume resource time and serve as dependency sources.
func processFixedTasks(
	tasksByID map[string]*task.Task,
	resourceConfig *resource.Config,
	globalDNSPeriods []resource.Period,
) ([]task.ScheduledTask, map[string]*task.Task) {
	fixed := make([]task.ScheduledTask, 0)
	remaining := make(map[string]*task.Task, len(tasksByID))

	for id, t := range tasksByID {
		if t.StartOn == nil && t.EndOn == nil {
			remaining[id] = t
			continue
		}

		var start, end time.Time
		switch {
		case t.StartOn != nil && t.EndOn != nil:
			start, end = *t.StartOn, *t.EndOn
		case t.StartOn != nil:
			start = *t.StartOn
			end = dnsAwareEndDate(t, start, resourceConfig, globalDNSPeriods)
		default:
			end = *t.EndOn
			start = end.AddDate(0, 0, -int(t.DurationDays))
		}

		resources := make([]string, 0, len(t.Resources))
		if t.DurationDays != 0 {
			for _, r := range t.Resources {
				resources = append(resources, r.Name)
			}
		}

		fixed = append(fixed, task.ScheduledTask{
			TaskID:       id,
			StartDate:    start,
			EndDate:      end,
			DurationDays: t.DurationDays,
			Resources:    resources,
		})
	}

	return fixed, remaining
}

// dnsAwareEndDate computes a fixed task's end date from a fixed start,
// accounting for the DNS periods of its assigned resources.
func dnsAwareEndDate(t *task.Task, start time.Time, resourceConfig *resource.Config, globalDNSPeriods []resource.Period) time.Time {
	if resourceConfig == nil || len(t.Resources) == 0 {
		return start.AddDate(0, 0, int(t.DurationDays))
	}

	maxEnd := start
	for _, r := range t.Resources {
		dns := resourceConfig.GetDNSPeriods(r.Name, globalDNSPeriods)
		schedule := resource.New(r.Name, dns)
		completion := schedule.CalculateCompletionTime(start, t.DurationDays)
		if completion.After(maxEnd) {
			maxEnd = completion
		}
	}
	return maxEnd
}

func buildInitialState(
	remaining map[string]*task.Task,
	fixed []task.ScheduledTask,
	deadlines map[string]time.Time,
	priorities map[string]int,
	setup Setup,
) *State {
	scheduled := make(map[string]Span, len(fixed))
	unscheduled := make(map[string]bool, len(remaining))
	for id := range remaining {
		unscheduled[id] = true
	}
	for _, f := range fixed {
		scheduled[f.TaskID] = Span{Start: f.StartDate, End: f.EndDate}
	}

	allResources := map[string]bool{}
	for _, t := range remaining {
		for _, r := range t.Resources {
			allResources[r.Name] = true
		}
	}
	for _, f := range fixed {
		for _, r := range f.Resources {
			allResources[r] = true
		}
	}
	if setup.ResourceConfig != nil {
		for _, r := range setup.ResourceConfig.GetResourceOrder() {
			allResources[r] = true
		}
	}

	schedules := make(map[string]*resource.Schedule, len(allResources))
	for name := range allResources {
		var dns []resource.Period
		if setup.ResourceConfig != nil {
			dns = setup.ResourceConfig.GetDNSPeriods(name, setup.GlobalDNSPeriods)
		}
		schedules[name] = resource.New(name, dns)
	}
	for _, f := range fixed {
		for _, name := range f.Resources {
			if sched, ok := schedules[name]; ok {
				sched.AddBusyPeriod(f.StartDate, f.EndDate)
			}
		}
	}

	return &State{
		Tasks:               remaining,
		CurrentTime:         setup.CurrentDate,
		Scheduled:           scheduled,
		ResourceAssignments: map[string][]string{},
		Unscheduled:         unscheduled,
		ResourceSchedules:   schedules,
		CompletedTaskIDs:    setup.CompletedTaskIDs,
		Deadlines:           deadlines,
		Priorities:          priorities,
		ResourceConfig:      setup.ResourceConfig,
		Config:              setup.Config,
	}
}

// Scheduler implements Component E, the Parallel Schedule Generation
// Scheme: a forward-pass dispatcher that places every eligible task it
// can right now, then jumps the clock to the next event.
type Scheduler struct {
	setup Setup
}

// Option configures a Scheduler at construction time.
type Option func(*Setup)

// WithResourceConfig supplies resource definitions, groups, and DNS
// periods used for auto-assignment and availability lookups.
func WithResourceConfig(cfg *resource.Config) Option {
	return func(s *Setup) { s.ResourceConfig = cfg }
}

// WithCompletedTaskIDs marks tasks already completed without dates: they
// satisfy dependencies but are never scheduled.
func WithCompletedTaskIDs(ids map[string]bool) Option {
	return func(s *Setup) { s.CompletedTaskIDs = ids }
}

// WithConfig supplies the scheduling configuration; the zero value falls
// back to schedconfig.Default().
func WithConfig(cfg *schedconfig.Config) Option {
	return func(s *Setup) { s.Config = cfg }
}

// WithGlobalDNSPeriods supplies DNS periods applied on top of every
// resource's own.
func WithGlobalDNSPeriods(periods []resource.Period) Option {
	return func(s *Setup) { s.GlobalDNSPeriods = periods }
}

// WithPreprocessResult supplies a pre-computed backward-pass result. When
// absent, Scheduler runs the backward pass itself.
func WithPreprocessResult(result *task.PreProcessResult) Option {
	return func(s *Setup) { s.PreprocessResult = result }
}

// New constructs a Scheduler over the given tasks, anchored at
// currentDate (the earliest date any task may be placed).
func New(tasks []*task.Task, currentDate time.Time, opts ...Option) *Scheduler {
	setup := Setup{Tasks: tasks, CurrentDate: currentDate}
	for _, opt := range opts {
		opt(&setup)
	}
	return &Scheduler{setup: setup}
}

// Schedule runs the full algorithm: fixed-task extraction, then the
// forward pass over the remaining tasks.
func (s *Scheduler) Schedule() (*task.AlgorithmResult, error) {
	logger := rclog.WithAlgorithm("parallel_sgs")
	timer := rcmetrics.NewTimer()
	defer timer.ObserveSeconds(rcmetrics.SolveDuration, "parallel_sgs")

	state, fixed, err := Prepare(s.setup)
	if err != nil {
		return nil, err
	}

	scheduled, err := RunForward(state)
	if err != nil {
		logger.Error().Err(err).Msg("forward pass failed")
		rcmetrics.ScheduleFailuresTotal.WithLabelValues("parallel_sgs", failureKind(err)).Inc()
		return nil, err
	}

	all := make([]task.ScheduledTask, 0, len(fixed)+len(scheduled))
	all = append(all, fixed...)
	all = append(all, scheduled...)
	rcmetrics.TasksScheduled.WithLabelValues("parallel_sgs").Add(float64(len(all)))

	return &task.AlgorithmResult{
		ScheduledTasks: all,
		AlgorithmMetadata: map[string]any{
			"algorithm": "parallel_sgs",
			"strategy":  string(state.Config.Strategy),
		},
	}, nil
}

// RunForward drives the eligible-set / schedule / advance-time loop to
// completion, bounded by the O(task_count x 100) safety cap.
// pkg/algorithm/rollout does not call it: its forward pass and its
// simulations run their own variants of this loop.
func RunForward(state *State) ([]task.ScheduledTask, error) {
	result := make([]task.ScheduledTask, 0, len(state.Tasks))

	maxIterations := len(state.Tasks)*100 + 1
	for iteration := 0; len(state.Unscheduled) > 0 && iteration < maxIterations; iteration++ {
		eligible := state.EligibleTasks()

		scheduledAny := false
		for _, taskID := range eligible {
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

// failureKind extracts the structured error kind for metric labeling,
// falling back to "unknown" for errors this package did not itself raise.
func failureKind(err error) string {
	var e *rcerr.Error
	if errors.As(err, &e) {
		return string(e.Kind)
	}
	return "unknown"
}
