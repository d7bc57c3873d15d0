package scheduling

import (
	"fmt"
	"sort"
	"time"

	"github.com/cuemby/rcspd/internal/rcerr"
	"github.com/cuemby/rcspd/internal/rclog"
	"github.com/cuemby/rcspd/pkg/algorithm/cpsat"
	"github.com/cuemby/rcspd/pkg/algorithm/rollout"
	"github.com/cuemby/rcspd/pkg/algorithm/sgs"
	"github.com/cuemby/rcspd/pkg/lock"
	"github.com/cuemby/rcspd/pkg/preprocess"
	"github.com/cuemby/rcspd/pkg/resource"
	"github.com/cuemby/rcspd/pkg/schedconfig"
	"github.com/cuemby/rcspd/pkg/task"
	"github.com/cuemby/rcspd/pkg/validate"
)

// algorithmScheduler is the common shape every pkg/algorithm/* Scheduler
// implements; Service dispatches to one of them by schedconfig.AlgorithmType
// without caring which.
type algorithmScheduler interface {
	Schedule() (*task.AlgorithmResult, error)
}

// Setup bundles a Service's construction inputs.
type Setup struct {
	Entities         []validate.RawEntity
	CurrentDate      time.Time
	ResourceConfig   *resource.Config
	Config           *schedconfig.Config
	GlobalDNSPeriods []resource.Period
	Lock             *lock.Lock
	FiscalYearStart  int
}

// Option configures a Service at construction time.
type Option func(*Setup)

// WithResourceConfig supplies resource definitions, groups, and DNS periods
// used for auto-assignment and availability lookups.
func WithResourceConfig(cfg *resource.Config) Option {
	return func(s *Setup) { s.ResourceConfig = cfg }
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

// WithLock supplies a previously-loaded lock file: every task it names is
// pinned to its recorded start/end/resources before scheduling runs.
func WithLock(l *lock.Lock) Option {
	return func(s *Setup) { s.Lock = l }
}

// WithFiscalYearStart sets the 1-indexed month (1=January) used to resolve
// quarter/half timeframe strings; the zero value defaults to January.
func WithFiscalYearStart(month int) Option {
	return func(s *Setup) { s.FiscalYearStart = month }
}

// Service is Component H: it coordinates Component C (validation), Component
// I (lock pinning), Component D (pre-processing), and whichever of
// Components E/F/G the configuration selects, into one SchedulingResult.
type Service struct {
	setup Setup
}

// New constructs a Service over the given raw entities, anchored at
// currentDate.
func New(entities []validate.RawEntity, currentDate time.Time, opts ...Option) *Service {
	setup := Setup{Entities: entities, CurrentDate: currentDate}
	for _, opt := range opts {
		opt(&setup)
	}
	return &Service{setup: setup}
}

// resolvePreprocessorType resolves "auto" to backward-pass for every
// algorithm except cpsat, which is a global optimizer and derives its own
// deadline/priority resolution from each task's own fields when none is
// supplied.
func resolvePreprocessorType(cfg *schedconfig.Config) schedconfig.PreProcessorType {
	if cfg.PreProcessor != schedconfig.PreProcessorAuto {
		return cfg.PreProcessor
	}
	if cfg.Algorithm == schedconfig.AlgorithmCPSAT {
		return schedconfig.PreProcessorNone
	}
	return schedconfig.PreProcessorBackwardPass
}

// Schedule runs the full pipeline: extract tasks, apply any lock, run the
// configured pre-processor, dispatch to the configured algorithm, and turn
// the result into per-entity annotations and warnings.
func (s *Service) Schedule() (*task.SchedulingResult, error) {
	logger := rclog.WithComponent("scheduling")

	if s.setup.ResourceConfig != nil {
		if err := s.setup.ResourceConfig.Validate(); err != nil {
			logger.Error().Err(err).Msg("invalid resource configuration")
			return nil, err
		}
	}

	cfg := s.setup.Config
	if cfg == nil {
		cfg = schedconfig.Default()
	}
	fiscalYearStart := s.setup.FiscalYearStart
	if fiscalYearStart == 0 {
		fiscalYearStart = 1
	}

	validator := validate.New(s.setup.ResourceConfig, cfg.AutoConstraintFromTimeframe, fiscalYearStart)
	tasks, doneWithoutDatesList, resourcesComputed, warnings := validator.ExtractTasks(s.setup.Entities)

	doneWithoutDates := make(map[string]bool, len(doneWithoutDatesList))
	for _, id := range doneWithoutDatesList {
		doneWithoutDates[id] = true
	}

	if s.setup.Lock != nil {
		lock.Apply(tasks, s.setup.Lock)
	}

	var preprocessResult *task.PreProcessResult
	if resolvePreprocessorType(cfg) == schedconfig.PreProcessorBackwardPass {
		result, err := preprocess.New(cfg.DefaultPriority).Process(tasks, doneWithoutDates)
		if err != nil {
			logger.Error().Err(err).Msg("pre-processing failed")
			return nil, err
		}
		preprocessResult = result
	}

	algo, err := s.buildAlgorithm(cfg, tasks, doneWithoutDates, preprocessResult)
	if err != nil {
		return nil, err
	}

	algorithmResult, err := algo.Schedule()
	if err != nil {
		logger.Warn().Err(err).Msg("scheduling failed")
		return &task.SchedulingResult{
			Warnings: []string{fmt.Sprintf("scheduling failed: %v", err)},
		}, nil
	}

	computedDeadlines, computedPriorities := resolveComputedValues(tasks, cfg, preprocessResult)

	annotations := s.buildAnnotations(tasks, doneWithoutDates, resourcesComputed, algorithmResult, computedDeadlines, computedPriorities)
	warnings = append(warnings, deadlineWarnings(annotations)...)

	return &task.SchedulingResult{
		ScheduledTasks: algorithmResult.ScheduledTasks,
		Annotations:    annotations,
		Warnings:       warnings,
	}, nil
}

func (s *Service) buildAlgorithm(
	cfg *schedconfig.Config,
	tasks []*task.Task,
	doneWithoutDates map[string]bool,
	preprocessResult *task.PreProcessResult,
) (algorithmScheduler, error) {
	switch cfg.Algorithm {
	case schedconfig.AlgorithmParallelSGS:
		return sgs.New(tasks, s.setup.CurrentDate,
			sgs.WithResourceConfig(s.setup.ResourceConfig),
			sgs.WithCompletedTaskIDs(doneWithoutDates),
			sgs.WithConfig(cfg),
			sgs.WithGlobalDNSPeriods(s.setup.GlobalDNSPeriods),
			sgs.WithPreprocessResult(preprocessResult),
		), nil
	case schedconfig.AlgorithmBoundedRollout:
		return rollout.New(tasks, s.setup.CurrentDate,
			rollout.WithResourceConfig(s.setup.ResourceConfig),
			rollout.WithCompletedTaskIDs(doneWithoutDates),
			rollout.WithConfig(cfg),
			rollout.WithGlobalDNSPeriods(s.setup.GlobalDNSPeriods),
			rollout.WithPreprocessResult(preprocessResult),
		), nil
	case schedconfig.AlgorithmCPSAT:
		return cpsat.New(tasks, s.setup.CurrentDate,
			cpsat.WithResourceConfig(s.setup.ResourceConfig),
			cpsat.WithCompletedTaskIDs(doneWithoutDates),
			cpsat.WithConfig(cfg),
			cpsat.WithGlobalDNSPeriods(s.setup.GlobalDNSPeriods),
			cpsat.WithPreprocessResult(preprocessResult),
		), nil
	default:
		return nil, rcerr.New(rcerr.InvalidModel, fmt.Sprintf("unknown algorithm %q", cfg.Algorithm))
	}
}

// resolveComputedValues returns the deadlines/priorities used for
// annotation purposes: the pre-processor's propagated values when one ran,
// or each task's own declared deadline/priority (falling back to the
// configured default) when none did — mirroring what cpsat's planner and
// sgs/rollout's own backward-pass fallback would otherwise compute
// independently.
func resolveComputedValues(tasks []*task.Task, cfg *schedconfig.Config, preprocessResult *task.PreProcessResult) (map[string]time.Time, map[string]int) {
	if preprocessResult != nil {
		return preprocessResult.ComputedDeadlines, preprocessResult.ComputedPriorities
	}

	deadlines := make(map[string]time.Time, len(tasks))
	priorities := make(map[string]int, len(tasks))
	for _, t := range tasks {
		if t.EndBefore != nil {
			deadlines[t.ID] = *t.EndBefore
		}
		if t.Priority != nil {
			priorities[t.ID] = *t.Priority
		} else {
			priorities[t.ID] = cfg.DefaultPriority
		}
	}
	return deadlines, priorities
}

func (s *Service) buildAnnotations(
	tasks []*task.Task,
	doneWithoutDates map[string]bool,
	resourcesComputed map[string]bool,
	algorithmResult *task.AlgorithmResult,
	computedDeadlines map[string]time.Time,
	computedPriorities map[string]int,
) map[string]task.ScheduleAnnotations {
	scheduledByID := make(map[string]task.ScheduledTask, len(algorithmResult.ScheduledTasks))
	for _, st := range algorithmResult.ScheduledTasks {
		scheduledByID[st.TaskID] = st
	}

	annotations := make(map[string]task.ScheduleAnnotations, len(tasks))
	for _, t := range tasks {
		if doneWithoutDates[t.ID] {
			continue
		}
		scheduled, ok := scheduledByID[t.ID]
		if !ok {
			continue
		}

		wasFixed := t.IsFixed()
		resourcesWereComputed := resourcesComputed[t.ID]
		if s.setup.Lock != nil {
			if _, locked := s.setup.Lock.Tasks[t.ID]; locked {
				// A locked task's resources come verbatim from the lock
				// file, never from auto-assignment.
				wasFixed, resourcesWereComputed = true, false
			}
		}

		var deadline *time.Time
		if d, ok := computedDeadlines[t.ID]; ok {
			deadline = &d
		}
		var priority *int
		if p, ok := computedPriorities[t.ID]; ok {
			priority = &p
		}

		deadlineViolated := deadline != nil && scheduled.EndDate.After(*deadline)

		resourceAssignments := make([]task.ResourceAssignment, 0, len(scheduled.Resources))
		for _, name := range scheduled.Resources {
			resourceAssignments = append(resourceAssignments, task.ResourceAssignment{Name: name, Allocation: 1.0})
		}

		start, end := scheduled.StartDate, scheduled.EndDate
		annotations[t.ID] = task.ScheduleAnnotations{
			EstimatedStart:        &start,
			EstimatedEnd:          &end,
			ComputedDeadline:      deadline,
			ComputedPriority:      priority,
			DeadlineViolated:      deadlineViolated,
			ResourceAssignments:   resourceAssignments,
			ResourcesWereComputed: resourcesWereComputed,
			WasFixed:              wasFixed,
		}
	}

	return annotations
}

// deadlineWarnings generates one warning per entity whose estimated
// completion falls after its computed deadline, in a deterministic
// (entity-id-sorted) order.
func deadlineWarnings(annotations map[string]task.ScheduleAnnotations) []string {
	ids := make([]string, 0, len(annotations))
	for id := range annotations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	warnings := make([]string, 0)
	for _, id := range ids {
		annot := annotations[id]
		if !annot.DeadlineViolated || annot.ComputedDeadline == nil || annot.EstimatedEnd == nil {
			continue
		}
		daysLate := int(annot.EstimatedEnd.Sub(*annot.ComputedDeadline).Hours() / 24)
		warnings = append(warnings, fmt.Sprintf(
			"entity %q finishes %d day(s) after required date (%s vs %s)",
			id, daysLate, annot.EstimatedEnd.Format("2006-01-02"), annot.ComputedDeadline.Format("2006-01-02"),
		))
	}
	return warnings
}
