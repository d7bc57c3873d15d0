package cpsat

import (
	"sort"
	"time"

	"github.com/cuemby/rcspd/pkg/resource"
	"github.com/cuemby/rcspd/pkg/schedconfig"
	"github.com/cuemby/rcspd/pkg/task"
)

// maxBranchStarts bounds how many candidate start dates a single task
// branches over at each search node, trading completeness for
// tractability — the same trade the teacher's solver makes implicitly by
// bounding the horizon and letting CP-SAT's own search heuristics prune.
const maxBranchStarts = 12

// maxNodes bounds the search in the absence of a real solver's internal
// propagation; it stands in for a wall-clock budget so test runs stay
// deterministic.
const maxNodes = 50000

// searchState is one branch's resource occupancy and partial assignment.
// Branching clones only the resource schedule being mutated, sharing the
// rest — cheaper than a full deep copy per node.
type searchState struct {
	resourceSchedules map[string]*resource.Schedule
	assigned          map[string]task.ScheduledTask
}

func (s *searchState) withAssignment(resourceName string, start, end time.Time, st task.ScheduledTask) *searchState {
	schedules := make(map[string]*resource.Schedule, len(s.resourceSchedules))
	for k, v := range s.resourceSchedules {
		schedules[k] = v
	}
	if resourceName != "" {
		cloned := schedules[resourceName].Copy()
		cloned.AddBusyPeriod(start, end)
		schedules[resourceName] = cloned
	}

	assigned := make(map[string]task.ScheduledTask, len(s.assigned)+1)
	for k, v := range s.assigned {
		assigned[k] = v
	}
	assigned[st.TaskID] = st

	return &searchState{resourceSchedules: schedules, assigned: assigned}
}

// solver runs the branch-and-bound search over plans in order.
type solver struct {
	plans       map[string]*plan
	order       []string
	currentDate time.Time
	horizon     time.Time
	config      schedconfig.CPSATConfig
	deadline    time.Time

	baseState *searchState
	fixedEnds map[string]time.Time

	nodeCount   int
	exhausted   bool
	bestCost    float64
	bestAssigned map[string]task.ScheduledTask
}

func newSolver(
	plans map[string]*plan,
	order []string,
	currentDate, horizon time.Time,
	cfg schedconfig.CPSATConfig,
	resourceConfig *resource.Config,
	globalDNSPeriods []resource.Period,
	fixed []task.ScheduledTask,
) *solver {
	allResources := map[string]bool{}
	for _, p := range plans {
		for _, r := range p.candidates {
			allResources[r] = true
		}
	}
	for _, st := range fixed {
		for _, r := range st.Resources {
			allResources[r] = true
		}
	}

	schedules := make(map[string]*resource.Schedule, len(allResources))
	for name := range allResources {
		var dns []resource.Period
		if resourceConfig != nil {
			dns = resourceConfig.GetDNSPeriods(name, globalDNSPeriods)
		}
		schedules[name] = resource.New(name, dns)
	}
	for _, st := range fixed {
		for _, name := range st.Resources {
			if sched, ok := schedules[name]; ok {
				sched.AddBusyPeriod(st.StartDate, st.EndDate)
			}
		}
	}

	fixedEnds := make(map[string]time.Time, len(fixed))
	for _, st := range fixed {
		fixedEnds[st.TaskID] = st.EndDate
	}

	timeLimit := cfg.TimeLimitSeconds
	if timeLimit <= 0 {
		timeLimit = 30
	}

	return &solver{
		plans:       plans,
		order:       order,
		currentDate: currentDate,
		horizon:     horizon,
		config:      cfg,
		deadline:    time.Now().Add(time.Duration(timeLimit * float64(time.Second))),
		baseState:   &searchState{resourceSchedules: schedules, assigned: map[string]task.ScheduledTask{}},
		fixedEnds:   fixedEnds,
		bestCost:    0,
	}
}

// seedIncumbent primes bestCost/bestAssigned from a greedy pre-solve so
// the search always has a fallback answer and an early pruning bound.
func (s *solver) seedIncumbent(hint *task.AlgorithmResult) {
	if hint == nil {
		return
	}

	byID := make(map[string]task.ScheduledTask, len(hint.ScheduledTasks))
	for _, st := range hint.ScheduledTasks {
		byID[st.TaskID] = st
	}

	assigned := make(map[string]task.ScheduledTask, len(s.order))
	total := 0.0
	for _, id := range s.order {
		st, ok := byID[id]
		if !ok {
			return
		}
		assigned[id] = st
		total += s.taskCost(id, st.EndDate)
	}

	s.bestAssigned = assigned
	s.bestCost = total
}

func (s *solver) run() {
	s.exhausted = true
	s.search(0, s.baseState, 0)
}

func (s *solver) search(idx int, state *searchState, cost float64) {
	if s.nodeCount >= maxNodes || time.Now().After(s.deadline) {
		s.exhausted = false
		return
	}
	s.nodeCount++

	if idx == len(s.order) {
		if s.bestAssigned == nil || cost < s.bestCost {
			s.bestCost = cost
			s.bestAssigned = state.assigned
		}
		return
	}

	if s.bestAssigned != nil && s.config.EarlinessWeight <= 0 && cost >= s.bestCost {
		return
	}

	taskID := s.order[idx]
	p := s.plans[taskID]
	earliest := s.earliestStart(taskID, state)
	if earliest.After(s.horizon) {
		return
	}

	if p.task.DurationDays == 0 || len(p.candidates) == 0 {
		end := earliest.AddDate(0, 0, int(p.task.DurationDays))
		st := task.ScheduledTask{TaskID: taskID, StartDate: earliest, EndDate: end, DurationDays: p.task.DurationDays}
		next := state.withAssignment("", earliest, end, st)
		s.search(idx+1, next, cost+s.taskCost(taskID, end))
		return
	}

	for _, resourceName := range p.candidates {
		sched := state.resourceSchedules[resourceName]
		starts := candidateStarts(earliest, s.horizon, sched, maxBranchStarts)
		for _, start := range starts {
			if !sched.IsAvailable(start, p.task.DurationDays) {
				continue
			}
			end := sched.CalculateCompletionTime(start, p.task.DurationDays)
			if end.After(s.horizon) {
				continue
			}

			st := task.ScheduledTask{
				TaskID: taskID, StartDate: start, EndDate: end,
				DurationDays: p.task.DurationDays, Resources: []string{resourceName},
			}
			next := state.withAssignment(resourceName, start, end, st)
			s.search(idx+1, next, cost+s.taskCost(taskID, end))

			if s.nodeCount >= maxNodes || time.Now().After(s.deadline) {
				return
			}
		}
	}
}

// earliestStart computes the earliest a task may begin given its
// start_after constraint and the day after every dependency's end date
// plus its lag, sourced from fixed tasks, completed (unconstrained) tasks,
// or branch-local assignments already made earlier in topological order.
func (s *solver) earliestStart(taskID string, state *searchState) time.Time {
	p := s.plans[taskID]
	earliest := s.currentDate
	if p.task.StartAfter != nil && p.task.StartAfter.After(earliest) {
		earliest = *p.task.StartAfter
	}

	for _, dep := range p.task.Dependencies {
		var depEnd time.Time
		if end, ok := s.fixedEnds[dep.TaskID]; ok {
			depEnd = end
		} else if st, ok := state.assigned[dep.TaskID]; ok {
			depEnd = st.EndDate
		} else {
			continue
		}
		candidate := depEnd.AddDate(0, 0, 1+int(dep.LagDays))
		if candidate.After(earliest) {
			earliest = candidate
		}
	}

	return earliest
}

// taskCost is this task's contribution to the objective once placed with
// the given completion date: tardiness and earliness weighted by
// priority against its deadline (when one exists), plus a
// priority-weighted completion-time term that pulls every task earlier.
func (s *solver) taskCost(taskID string, end time.Time) float64 {
	p := s.plans[taskID]
	priority := float64(p.priority)
	endDays := end.Sub(s.currentDate).Hours() / 24

	cost := s.config.PriorityWeight * priority * endDays

	if p.deadline != nil {
		deadlineDays := p.deadline.Sub(s.currentDate).Hours() / 24
		lateness := endDays - deadlineDays
		if lateness > 0 {
			cost += s.config.TardinessWeight * priority * lateness
		}
		if s.config.EarlinessWeight > 0 {
			earliness := deadlineDays - endDays
			if earliness > 0 {
				cost -= s.config.EarlinessWeight * priority * earliness
			}
		}
	}

	return cost
}

// candidateStarts enumerates the "interesting" start dates for one
// resource: the earliest feasible date plus every moment that resource's
// busy periods free up, bounded by the horizon and capped at limit
// entries to keep branching tractable.
func candidateStarts(earliest, horizon time.Time, sched *resource.Schedule, limit int) []time.Time {
	set := map[time.Time]bool{earliest: true}
	for _, end := range sched.BusyPeriodEnds() {
		candidate := end.AddDate(0, 0, 1)
		if candidate.After(earliest) && !candidate.After(horizon) {
			set[candidate] = true
		}
	}

	out := make([]time.Time, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
