// Package preprocess implements the backward-pass pre-processor: a
// topological sort followed by a reverse traversal that propagates
// deadlines (by intersection) and priorities (by max) from successors to
// their predecessors. This is Component D: it runs once before the
// forward-scheduling algorithms (pkg/algorithm/sgs, pkg/algorithm/rollout)
// and is skipped by default for CP-SAT, which then uses each task's own
// declared deadline and priority without propagating them.
package preprocess
