// Package cpsat implements Component G: a global, deadline- and
// priority-aware scheduler that searches for the schedule minimizing total
// weighted tardiness, earliness, and priority-weighted completion time,
// subject to precedence and per-resource no-overlap constraints.
//
// Unlike Components E and F, which place one task at a time, this package
// searches the joint assignment of every task's (start date, resource)
// pair via branch-and-bound, seeded and bounded by a greedy pre-solve so
// it degrades gracefully to a feasible-but-not-provably-optimal schedule
// when the search space is too large to exhaust within its node and time
// budget. It does not support tasks with more than one explicit resource.
package cpsat
