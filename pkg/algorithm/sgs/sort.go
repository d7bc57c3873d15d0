package sgs

import (
	"math"
	"sort"

	"github.com/cuemby/rcspd/pkg/schedconfig"
)

// sortEligible orders the eligible set in place by the configured
// strategy, lower-ranked (more urgent) tasks first.
func sortEligible(ids []string, s *State, defaultCR float64) {
	avgDuration := averageUnscheduledDuration(s)

	sort.SliceStable(ids, func(i, j int) bool {
		return less(ids[i], ids[j], s, defaultCR, avgDuration)
	})
}

func less(a, b string, s *State, defaultCR, avgDuration float64) bool {
	priorityA, priorityB := float64(s.priority(a)), float64(s.priority(b))
	crA, crB := s.CriticalRatio(a, defaultCR), s.CriticalRatio(b, defaultCR)

	switch s.Config.Strategy {
	case schedconfig.StrategyPriorityFirst:
		if priorityA != priorityB {
			return priorityA > priorityB // higher priority sorts first (-priority ascending)
		}
		if crA != crB {
			return crA < crB
		}
		return a < b

	case schedconfig.StrategyCRFirst:
		if crA != crB {
			return crA < crB
		}
		if priorityA != priorityB {
			return priorityA > priorityB
		}
		return a < b

	case schedconfig.StrategyATC:
		scoreA := atcScore(s, a, crA, priorityA, avgDuration)
		scoreB := atcScore(s, b, crB, priorityB, avgDuration)
		if scoreA != scoreB {
			return scoreA < scoreB
		}
		return a < b

	default: // schedconfig.StrategyWeighted and any unrecognized value
		scoreA := s.Config.CRWeight*crA + s.Config.PriorityWeight*(100-priorityA)
		scoreB := s.Config.CRWeight*crB + s.Config.PriorityWeight*(100-priorityB)
		if scoreA != scoreB {
			return scoreA < scoreB
		}
		return a < b
	}
}

// atcScore implements the Apparent Tardiness Cost urgency: urgency decays
// exponentially with available slack relative to k * average duration of
// the unscheduled set, floored for tasks without a deadline. The sort key
// is -priority * urgency / duration so higher urgency and priority both
// push a task earlier.
func atcScore(s *State, taskID string, cr, priority, avgDuration float64) float64 {
	t := s.Tasks[taskID]
	duration := math.Max(t.DurationDays, 1.0)

	var urgency float64
	if _, hasDeadline := s.Deadlines[taskID]; hasDeadline {
		slack := cr * duration
		urgency = math.Exp(-slack / (s.Config.ATCK * math.Max(avgDuration, 1.0)))
		if urgency < s.Config.ATCDefaultUrgencyFloor {
			urgency = s.Config.ATCDefaultUrgencyFloor
		}
	} else {
		urgency = math.Max(s.Config.ATCDefaultUrgencyMultiplier, s.Config.ATCDefaultUrgencyFloor)
	}

	return -priority * urgency / duration
}

func averageUnscheduledDuration(s *State) float64 {
	if len(s.Unscheduled) == 0 {
		return 1.0
	}
	total := 0.0
	for taskID := range s.Unscheduled {
		total += s.Tasks[taskID].DurationDays
	}
	avg := total / float64(len(s.Unscheduled))
	return math.Max(avg, 1.0)
}
