// Package rcerr defines the structured fatal-error type returned across the
// scheduling core's public boundary. Warnings never use this type — they are
// plain strings appended to a SchedulingResult's Warnings slice.
package rcerr

import (
	"fmt"
	"strings"
)

// Kind enumerates the fatal error conditions the core can raise.
type Kind string

const (
	CycleDetected        Kind = "cycle_detected"
	UnschedulableResidue Kind = "unschedulable_residue"
	InfeasibleModel      Kind = "infeasible_model"
	InvalidModel         Kind = "invalid_model"
	SolverTimeout        Kind = "solver_timeout"
	HintMismatch         Kind = "hint_mismatch"
	InvalidLockFile      Kind = "invalid_lock_file"
)

// Error is the structured error type raised by the scheduling core. It
// names the offending task ids so collaborators can surface them without
// re-parsing the message string.
type Error struct {
	Kind    Kind
	Message string
	TaskIDs []string
}

func New(kind Kind, message string, taskIDs ...string) *Error {
	return &Error{Kind: kind, Message: message, TaskIDs: taskIDs}
}

func (e *Error) Error() string {
	if len(e.TaskIDs) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (tasks: %s)", e.Kind, e.Message, strings.Join(e.TaskIDs, ", "))
}

// Is allows errors.Is(err, rcerr.New(kind, "")) style comparisons by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
