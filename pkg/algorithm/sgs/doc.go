// Package sgs implements the Parallel Schedule Generation Scheme: a
// forward-pass greedy dispatcher that, at each time step, schedules every
// eligible task it can place right now, then advances the clock to the
// next interesting event. It is Component E; pkg/algorithm/rollout embeds
// its building blocks to add deferral lookahead.
package sgs
