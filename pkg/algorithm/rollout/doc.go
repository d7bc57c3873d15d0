// Package rollout implements Component F, the bounded-rollout scheduler: a
// superset of the parallel SGS dispatcher (pkg/algorithm/sgs) that, before
// committing a low-urgency task, simulates a short lookahead to decide
// whether deferring it lets a more urgent task start sooner.
//
// It reuses pkg/algorithm/sgs's State and its forward-pass primitives
// (Copy, EligibleTasks, TryScheduleTask, AdvanceTime, FindBestResource,
// PeekExplicitCompletion, Priority) rather than re-deriving the greedy
// mechanics a second time.
package rollout
