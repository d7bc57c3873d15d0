// Package lock implements Component I: a version-tagged YAML document that
// pins a prior solve's (start date, end date, resources) per task so a
// later phased solve can treat them as fixed. Reads are tolerant of task
// ids no longer present in the input; version mismatch or unparseable
// dates are fatal.
package lock
