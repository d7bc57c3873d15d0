// Package resource implements the per-resource busy-interval store
// (ResourceSchedule) every scheduling algorithm uses to answer "when is this
// resource next free" and "when would a task starting here actually finish",
// plus the static resource/DNS/group configuration that feeds it.
//
// ResourceSchedule is the one data structure every algorithm shares: the
// greedy dispatcher (pkg/algorithm/sgs) mutates it directly as it commits
// tasks, the rollout dispatcher (pkg/algorithm/rollout) clones it per
// simulated scenario via Copy, and the CP-SAT search (pkg/algorithm/cpsat)
// clones, via Copy, the one schedule a search branch assigns a task to and
// adds that task's busy period to the clone.
package resource
