package cpsat

import (
	"sort"
	"time"

	"github.com/cuemby/rcspd/internal/rcerr"
	"github.com/cuemby/rcspd/pkg/resource"
	"github.com/cuemby/rcspd/pkg/task"
)

// separateFixed splits the input into already-scheduled (fixed) tasks and
// the remaining tasks this algorithm must place, mirroring
// _create_fixed_scheduled_task: a task with start_on and/or end_on is
// never branched on, only used as a precedence source.
func separateFixed(
	tasks []*task.Task,
	completedTaskIDs map[string]bool,
	resourceConfig *resource.Config,
	globalDNSPeriods []resource.Period,
) ([]task.ScheduledTask, map[string]time.Time, []*task.Task) {
	fixed := make([]task.ScheduledTask, 0)
	fixedEnds := make(map[string]time.Time)
	toSchedule := make([]*task.Task, 0, len(tasks))

	for _, t := range tasks {
		if completedTaskIDs[t.ID] {
			continue
		}
		if t.StartOn == nil && t.EndOn == nil {
			toSchedule = append(toSchedule, t)
			continue
		}

		var start, end time.Time
		switch {
		case t.StartOn != nil && t.EndOn != nil:
			start, end = *t.StartOn, *t.EndOn
		case t.StartOn != nil:
			start = *t.StartOn
			end = dnsAwareEnd(t, start, resourceConfig, globalDNSPeriods)
		default:
			end = *t.EndOn
			start = end.AddDate(0, 0, -int(t.DurationDays))
		}

		names := make([]string, 0, len(t.Resources))
		if t.DurationDays != 0 {
			for _, r := range t.Resources {
				names = append(names, r.Name)
			}
		}

		fixed = append(fixed, task.ScheduledTask{
			TaskID: t.ID, StartDate: start, EndDate: end,
			DurationDays: t.DurationDays, Resources: names,
		})
		fixedEnds[t.ID] = end
	}

	return fixed, fixedEnds, toSchedule
}

func dnsAwareEnd(t *task.Task, start time.Time, resourceConfig *resource.Config, globalDNSPeriods []resource.Period) time.Time {
	if resourceConfig == nil || len(t.Resources) == 0 {
		return start.AddDate(0, 0, int(t.DurationDays))
	}
	maxEnd := start
	for _, r := range t.Resources {
		dns := resourceConfig.GetDNSPeriods(r.Name, globalDNSPeriods)
		completion := resource.New(r.Name, dns).CalculateCompletionTime(start, t.DurationDays)
		if completion.After(maxEnd) {
			maxEnd = completion
		}
	}
	return maxEnd
}

// computeHorizon picks the planning cutoff date: when a greedy hint
// solution exists, its latest end date plus 30 days (mirroring the
// teacher's horizon-from-greedy shortcut); otherwise a generous fallback
// derived from total remaining work and any declared deadlines.
func computeHorizon(currentDate time.Time, toSchedule []*task.Task, fixed []task.ScheduledTask, hint *task.AlgorithmResult) time.Time {
	if hint != nil && len(hint.ScheduledTasks) > 0 {
		maxEnd := hint.ScheduledTasks[0].EndDate
		for _, st := range hint.ScheduledTasks {
			if st.EndDate.After(maxEnd) {
				maxEnd = st.EndDate
			}
		}
		return maxEnd.AddDate(0, 0, 30)
	}

	maxEnd := currentDate
	totalDuration := 0
	for _, t := range toSchedule {
		totalDuration += int(t.DurationDays) + 1
		if t.EndBefore != nil && t.EndBefore.After(maxEnd) {
			maxEnd = *t.EndBefore
		}
	}
	for _, st := range fixed {
		if st.EndDate.After(maxEnd) {
			maxEnd = st.EndDate
		}
	}

	daysFromStart := int(maxEnd.Sub(currentDate).Hours() / 24)
	best := daysFromStart + 60
	if totalDuration*2 > best {
		best = totalDuration * 2
	}
	if best < 365 {
		best = 365
	}
	return currentDate.AddDate(0, 0, best)
}

// plan is the per-task search model: its candidate resources (empty for
// milestones or tasks with neither an explicit resource nor a spec), its
// deadline (computed or declared), and its weighting priority.
type plan struct {
	task       *task.Task
	candidates []string
	deadline   *time.Time
	priority   int
}

// buildPlans resolves each task's candidate resource set, deadline, and
// priority, and computes a topological order (predecessors before
// dependents) over the tasks being scheduled.
func buildPlans(
	toSchedule []*task.Task,
	computedDeadlines map[string]time.Time,
	computedPriorities map[string]int,
	defaultPriority int,
	resourceConfig *resource.Config,
) (map[string]*plan, []string, error) {
	byID := make(map[string]*task.Task, len(toSchedule))
	for _, t := range toSchedule {
		byID[t.ID] = t
	}

	plans := make(map[string]*plan, len(toSchedule))
	for _, t := range toSchedule {
		var candidates []string
		if t.DurationDays > 0 {
			switch {
			case len(t.Resources) > 0:
				candidates = []string{t.Resources[0].Name}
			case t.ResourceSpec != "" && resourceConfig != nil:
				candidates = resourceConfig.ExpandResourceSpec(t.ResourceSpec)
			}
		}

		var deadline *time.Time
		if d, ok := computedDeadlines[t.ID]; ok {
			deadline = &d
		} else if t.EndBefore != nil {
			deadline = t.EndBefore
		}

		priority := defaultPriority
		if p, ok := computedPriorities[t.ID]; ok {
			priority = p
		} else if t.Priority != nil {
			priority = *t.Priority
		}

		plans[t.ID] = &plan{task: t, candidates: candidates, deadline: deadline, priority: priority}
	}

	order, err := topoOrder(byID, plans)
	if err != nil {
		return nil, nil, err
	}

	return plans, order, nil
}

// topoOrder returns tasks in an order where every dependency within
// byID appears before its dependent, using a priority-driven variant of
// Kahn's algorithm: whenever more than one task is ready at once, the
// higher-priority one goes first, so the fixed processing order the
// search walks already favors the same tasks the objective rewards for
// finishing early, rather than an arbitrary topological tie-break.
func topoOrder(byID map[string]*task.Task, plans map[string]*plan) ([]string, error) {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	inDegree := make(map[string]int, len(byID))
	dependents := make(map[string][]string, len(byID))
	for _, id := range ids {
		inDegree[id] = 0
	}
	for _, id := range ids {
		for _, dep := range byID[id].Dependencies {
			if _, ok := byID[dep.TaskID]; !ok {
				continue
			}
			inDegree[id]++
			dependents[dep.TaskID] = append(dependents[dep.TaskID], id)
		}
	}

	ready := make([]string, 0, len(byID))
	for _, id := range ids {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	result := make([]string, 0, len(byID))
	for len(ready) > 0 {
		sort.SliceStable(ready, func(i, j int) bool {
			if plans[ready[i]].priority != plans[ready[j]].priority {
				return plans[ready[i]].priority > plans[ready[j]].priority
			}
			return ready[i] < ready[j]
		})

		id := ready[0]
		ready = ready[1:]
		result = append(result, id)

		for _, dependent := range dependents[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(result) != len(byID) {
		return nil, rcerr.New(rcerr.CycleDetected, "circular dependency detected in task graph")
	}
	return result, nil
}
