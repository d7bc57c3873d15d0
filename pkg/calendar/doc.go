// Package calendar parses the small set of human-written date shorthands the
// scheduler accepts at its boundary: timeframe strings ("2025q2", "2025W07",
// "2025h1", "2025-03", "2025") and effort strings ("5d", "2w", "1.5m", "L").
//
// Both parsers are pure functions over strings and return a zero-value
// result (or the documented default) on anything they cannot recognize —
// neither one ever panics or errors, matching how the rest of the scheduling
// core treats malformed free-form input as something to normalize rather
// than reject (see pkg/validate, which is the only place loose typing from
// an upstream feature map enters the core).
package calendar
