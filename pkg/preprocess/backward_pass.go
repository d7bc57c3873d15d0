package preprocess

import (
	"time"

	"github.com/cuemby/rcspd/internal/rcerr"
	"github.com/cuemby/rcspd/internal/rclog"
	"github.com/cuemby/rcspd/pkg/task"
)

// BackwardPass is the Component D pre-processor: it topologically sorts the
// task graph and propagates deadlines and priorities from successors to
// predecessors.
type BackwardPass struct {
	defaultPriority int
}

// New constructs a BackwardPass pre-processor with the given default
// priority for tasks that declare none.
func New(defaultPriority int) *BackwardPass {
	return &BackwardPass{defaultPriority: defaultPriority}
}

// Process runs the topological sort and backward propagation over tasks,
// treating completedTaskIDs as already-satisfied dependency sources that are
// never propagated into.
func (b *BackwardPass) Process(tasks []*task.Task, completedTaskIDs map[string]bool) (*task.PreProcessResult, error) {
	logger := rclog.WithComponent("preprocess")

	byID := make(map[string]*task.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	topoOrder, err := topologicalSort(byID)
	if err != nil {
		logger.Error().Err(err).Msg("backward pass failed: cycle detected")
		return nil, err
	}

	deadlines, priorities := calculateLatestDates(byID, topoOrder, completedTaskIDs, b.defaultPriority)

	return &task.PreProcessResult{
		ComputedDeadlines:  deadlines,
		ComputedPriorities: priorities,
		Metadata:           map[string]any{},
	}, nil
}

// topologicalSort computes a Kahn's-algorithm ordering keyed by
// "number of tasks that depend on this task" (in-degree in the reversed
// graph), so iterating the result and propagating along each task's own
// dependency edges visits every successor strictly before its predecessors.
func topologicalSort(byID map[string]*task.Task) ([]string, error) {
	inDegree := make(map[string]int, len(byID))
	for id := range byID {
		inDegree[id] = 0
	}
	for _, t := range byID {
		for _, dep := range t.Dependencies {
			if _, ok := inDegree[dep.TaskID]; ok {
				inDegree[dep.TaskID]++
			}
		}
	}

	queue := make([]string, 0, len(byID))
	for id, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}

	result := make([]string, 0, len(byID))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		result = append(result, id)

		for _, dep := range byID[id].Dependencies {
			if _, ok := inDegree[dep.TaskID]; !ok {
				continue
			}
			inDegree[dep.TaskID]--
			if inDegree[dep.TaskID] == 0 {
				queue = append(queue, dep.TaskID)
			}
		}
	}

	if len(result) != len(byID) {
		return nil, rcerr.New(rcerr.CycleDetected, "circular dependency detected in task graph")
	}

	return result, nil
}

func calculateLatestDates(
	byID map[string]*task.Task,
	topoOrder []string,
	completedTaskIDs map[string]bool,
	defaultPriority int,
) (map[string]time.Time, map[string]int) {
	latest := make(map[string]time.Time)
	priorities := make(map[string]int)

	for id, t := range byID {
		if t.EndBefore != nil {
			latest[id] = *t.EndBefore
		}
	}

	for id, t := range byID {
		priorities[id] = taskPriority(t, defaultPriority)
	}

	for _, id := range topoOrder {
		t := byID[id]
		deadline, hasDeadline := latest[id]
		priority := priorities[id]

		for _, dep := range t.Dependencies {
			if _, ok := byID[dep.TaskID]; !ok || completedTaskIDs[dep.TaskID] {
				continue
			}

			if priority > priorities[dep.TaskID] {
				priorities[dep.TaskID] = priority
			}

			if !hasDeadline {
				continue
			}

			depDeadline := task.ComputeDependencyDeadline(deadline, t.DurationDays, dep.LagDays)
			if existing, ok := latest[dep.TaskID]; ok {
				if depDeadline.Before(existing) {
					latest[dep.TaskID] = depDeadline
				}
			} else {
				latest[dep.TaskID] = depDeadline
			}
		}
	}

	return latest, priorities
}

func taskPriority(t *task.Task, defaultPriority int) int {
	if t.Priority != nil {
		return *t.Priority
	}
	return defaultPriority
}
