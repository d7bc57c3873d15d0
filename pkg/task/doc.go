// Package task defines the data model shared by every scheduling component:
// the immutable Task input, the ScheduledTask/PreProcessResult/
// ScheduleAnnotations/SchedulingResult outputs, and the small set of
// resource-assignment and dependency value types that flow between them.
//
// Nothing in this package schedules anything; it exists so Components B
// through I can agree on one shape without importing each other.
package task
