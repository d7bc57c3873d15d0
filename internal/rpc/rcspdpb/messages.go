// Package rcspdpb plays the role generated .pb.go code would normally play
// for the Schedule RPC: it is hand-written because no .proto source exists
// in this module's lineage to regenerate from. Every message is a plain Go
// struct shaped the way the equivalent .proto message would be declared;
// on the wire each request/response is carried inside a
// google.golang.org/protobuf/types/known/structpb.Struct, the one generated
// protobuf message type available without a compiler step, so the service
// still speaks real protobuf instead of a private ad-hoc encoding.
package rcspdpb

import "encoding/json"

// DependencyInput names a predecessor task id and the minimum lag, in
// calendar days, required between its end and the dependent's start.
type DependencyInput struct {
	TaskID  string  `json:"task_id"`
	LagDays float64 `json:"lag_days"`
}

// TaskInput is the wire shape of one schedulable entity, mirroring
// validate.RawEntity field-for-field except Meta, which has no wire
// counterpart, so the gateway does no semantic translation beyond JSON
// (de)serialization.
type TaskInput struct {
	ID           string             `json:"id"`
	Effort       string             `json:"effort,omitempty"`
	Resources    []string           `json:"resources,omitempty"`
	StartDate    string             `json:"start_date,omitempty"`
	EndDate      string             `json:"end_date,omitempty"`
	StartAfter   string             `json:"start_after,omitempty"`
	EndBefore    string             `json:"end_before,omitempty"`
	Timeframe    string             `json:"timeframe,omitempty"`
	Status       string             `json:"status,omitempty"`
	Priority     *int32             `json:"priority,omitempty"`
	Dependencies []DependencyInput  `json:"dependencies,omitempty"`
}

// ScheduleRequest is the Schedule RPC's request message.
type ScheduleRequest struct {
	Entities        []TaskInput `json:"entities"`
	CurrentDate     string      `json:"current_date"`
	Algorithm       string      `json:"algorithm,omitempty"`
	FiscalYearStart int32       `json:"fiscal_year_start,omitempty"`
}

// ResourceAssignmentOutput pairs a resource name with its allocation
// fraction, mirroring task.ResourceAssignment.
type ResourceAssignmentOutput struct {
	Name       string  `json:"name"`
	Allocation float64 `json:"allocation"`
}

// ScheduledTaskOutput is one task's placement in the solved schedule.
type ScheduledTaskOutput struct {
	TaskID       string   `json:"task_id"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	DurationDays float64  `json:"duration_days"`
	Resources    []string `json:"resources,omitempty"`
}

// AnnotationOutput is one entity's schedule annotation, mirroring
// task.ScheduleAnnotations.
type AnnotationOutput struct {
	EntityID              string                     `json:"entity_id"`
	EstimatedStart        string                     `json:"estimated_start,omitempty"`
	EstimatedEnd          string                     `json:"estimated_end,omitempty"`
	ComputedDeadline      string                     `json:"computed_deadline,omitempty"`
	ComputedPriority      *int32                     `json:"computed_priority,omitempty"`
	DeadlineViolated      bool                       `json:"deadline_violated"`
	ResourceAssignments   []ResourceAssignmentOutput `json:"resource_assignments,omitempty"`
	ResourcesWereComputed bool                       `json:"resources_were_computed"`
	WasFixed              bool                       `json:"was_fixed"`
}

// ScheduleResponse is the Schedule RPC's response message.
type ScheduleResponse struct {
	RunID          string                `json:"run_id,omitempty"`
	ScheduledTasks []ScheduledTaskOutput `json:"scheduled_tasks"`
	Annotations    []AnnotationOutput    `json:"annotations"`
	Warnings       []string              `json:"warnings,omitempty"`
}

// toMap round-trips v through JSON into a map suitable for
// structpb.NewStruct: json.Marshal already reduces any Go value to the
// string/float64/bool/nil/slice/map set structpb accepts.
func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// fromMap is toMap's inverse: it re-marshals m to JSON and unmarshals it
// into v.
func fromMap(m map[string]any, v any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
