// Package scheduling implements Component H: the high-level Service that
// coordinates entity validation, schedule-lock pinning, pre-processing, and
// algorithm dispatch into a single SchedulingResult. It is the one entry
// point callers outside this module are expected to use directly.
package scheduling
