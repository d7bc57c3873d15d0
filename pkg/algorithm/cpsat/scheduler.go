package cpsat

import (
	"errors"
	"fmt"
	"time"

	"github.com/cuemby/rcspd/internal/rcerr"
	"github.com/cuemby/rcspd/internal/rclog"
	"github.com/cuemby/rcspd/internal/rcmetrics"
	"github.com/cuemby/rcspd/pkg/algorithm/sgs"
	"github.com/cuemby/rcspd/pkg/resource"
	"github.com/cuemby/rcspd/pkg/schedconfig"
	"github.com/cuemby/rcspd/pkg/task"
)

// Setup bundles this algorithm's construction inputs. Unlike sgs.Setup,
// PreprocessResult is the only source of computed deadlines/priorities:
// this algorithm is a global optimizer and does not run its own backward
// pass (mirroring the teacher's preprocessor auto-resolution, which maps
// algorithm=cpsat to preprocessor=none unless told otherwise).
type Setup struct {
	Tasks            []*task.Task
	CurrentDate      time.Time
	ResourceConfig   *resource.Config
	CompletedTaskIDs map[string]bool
	Config           *schedconfig.Config
	GlobalDNSPeriods []resource.Period
	PreprocessResult *task.PreProcessResult
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

// WithPreprocessResult supplies computed deadlines/priorities from a prior
// backward pass. Without one, every task keeps its own EndBefore (if any)
// as its deadline and the configured default priority.
func WithPreprocessResult(result *task.PreProcessResult) Option {
	return func(s *Setup) { s.PreprocessResult = result }
}

// Scheduler implements Component G.
type Scheduler struct {
	setup Setup
}

// New constructs a Scheduler over the given tasks, anchored at
// currentDate.
func New(tasks []*task.Task, currentDate time.Time, opts ...Option) *Scheduler {
	setup := Setup{Tasks: tasks, CurrentDate: currentDate}
	for _, opt := range opts {
		opt(&setup)
	}
	return &Scheduler{setup: setup}
}

// Schedule runs the full algorithm: fixed-task extraction, a greedy
// pre-solve for search hints and horizon sizing, then branch-and-bound
// search over the remaining tasks' (start, resource) assignments.
func (s *Scheduler) Schedule() (*task.AlgorithmResult, error) {
	logger := rclog.WithAlgorithm("cpsat")
	timer := rcmetrics.NewTimer()
	defer timer.ObserveSeconds(rcmetrics.SolveDuration, "cpsat")

	cfg := s.setup.Config
	if cfg == nil {
		cfg = schedconfig.Default()
	}
	completed := s.setup.CompletedTaskIDs
	if completed == nil {
		completed = map[string]bool{}
	}

	for _, t := range s.setup.Tasks {
		if len(t.Resources) > 1 {
			err := rcerr.New(rcerr.InvalidModel,
				fmt.Sprintf("cpsat does not support multi-resource tasks: task %q has %d resources assigned", t.ID, len(t.Resources)),
				t.ID)
			rcmetrics.ScheduleFailuresTotal.WithLabelValues("cpsat", string(rcerr.InvalidModel)).Inc()
			return nil, err
		}
	}

	fixed, _, toSchedule := separateFixed(s.setup.Tasks, completed, s.setup.ResourceConfig, s.setup.GlobalDNSPeriods)
	if len(toSchedule) == 0 {
		return &task.AlgorithmResult{
			ScheduledTasks:    fixed,
			AlgorithmMetadata: map[string]any{"algorithm": "cpsat", "status": "no_tasks"},
		}, nil
	}

	deadlines, priorities := map[string]time.Time{}, map[string]int{}
	if s.setup.PreprocessResult != nil {
		deadlines = s.setup.PreprocessResult.ComputedDeadlines
		priorities = s.setup.PreprocessResult.ComputedPriorities
	}

	var hint *task.AlgorithmResult
	if cfg.CPSAT.UseGreedyHints {
		greedy := sgs.New(s.setup.Tasks, s.setup.CurrentDate,
			sgs.WithResourceConfig(s.setup.ResourceConfig),
			sgs.WithCompletedTaskIDs(completed),
			sgs.WithConfig(cfg),
			sgs.WithGlobalDNSPeriods(s.setup.GlobalDNSPeriods),
			sgs.WithPreprocessResult(s.setup.PreprocessResult),
		)
		if result, err := greedy.Schedule(); err == nil {
			hint = result
		} else {
			logger.Warn().Err(err).Msg("greedy pre-solve failed, searching without hints")
		}
	}

	horizon := computeHorizon(s.setup.CurrentDate, toSchedule, fixed, hint)

	plans, order, err := buildPlans(toSchedule, deadlines, priorities, cfg.DefaultPriority, s.setup.ResourceConfig)
	if err != nil {
		rcmetrics.ScheduleFailuresTotal.WithLabelValues("cpsat", failureKind(err)).Inc()
		return nil, err
	}

	slv := newSolver(plans, order, s.setup.CurrentDate, horizon, cfg.CPSAT, s.setup.ResourceConfig, s.setup.GlobalDNSPeriods, fixed)
	slv.seedIncumbent(hint)

	slv.run()

	if slv.bestAssigned == nil {
		err := rcerr.New(rcerr.InfeasibleModel, "cpsat search found no feasible assignment within the planning horizon")
		rcmetrics.ScheduleFailuresTotal.WithLabelValues("cpsat", string(rcerr.InfeasibleModel)).Inc()
		return nil, err
	}

	scheduled := make([]task.ScheduledTask, 0, len(slv.bestAssigned))
	for _, id := range order {
		scheduled = append(scheduled, slv.bestAssigned[id])
	}

	all := make([]task.ScheduledTask, 0, len(fixed)+len(scheduled))
	all = append(all, fixed...)
	all = append(all, scheduled...)
	rcmetrics.TasksScheduled.WithLabelValues("cpsat").Add(float64(len(all)))

	status := "FEASIBLE"
	if slv.exhausted {
		status = "OPTIMAL"
	}
	gap := 0.0
	if status != "OPTIMAL" {
		gap = 1.0
	}
	rcmetrics.CPSATObjectiveGap.Observe(gap)

	return &task.AlgorithmResult{
		ScheduledTasks: all,
		AlgorithmMetadata: map[string]any{
			"algorithm":       "cpsat",
			"status":          status,
			"objective_value": slv.bestCost,
			"nodes_explored":  slv.nodeCount,
			"greedy_seeded":   hint != nil,
		},
	}, nil
}

func failureKind(err error) string {
	var e *rcerr.Error
	if errors.As(err, &e) {
		return string(e.Kind)
	}
	return "unknown"
}
