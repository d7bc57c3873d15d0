package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/rcspd/internal/rclog"
	"github.com/cuemby/rcspd/pkg/calendar"
	"github.com/cuemby/rcspd/pkg/resource"
	"github.com/cuemby/rcspd/pkg/task"
)

// Validator converts RawEntity records into task.Task records, applying
// the same extraction rules regardless of where the raw metadata
// originated.
type Validator struct {
	resourceConfig   *resource.Config
	constraintMode   TimeframeConstraintMode
	fiscalYearStart  int
	defaultEffort    string
	defaultAllocUnit float64
}

// New constructs a Validator. resourceConfig may be nil, in which case no
// auto-assignment spec classification or default-resource fallback is
// performed. fiscalYearStart is the 1-indexed month (1=January) used for
// quarter/half timeframe parsing.
func New(resourceConfig *resource.Config, constraintMode TimeframeConstraintMode, fiscalYearStart int) *Validator {
	return &Validator{
		resourceConfig:   resourceConfig,
		constraintMode:   constraintMode,
		fiscalYearStart:  fiscalYearStart,
		defaultEffort:    "1w",
		defaultAllocUnit: 1.0,
	}
}

// ParseDate parses an ISO-8601 date string. A nil or unparsable input
// returns nil rather than an error: callers treat an invalid date the same
// as an absent one, matching the tolerant extraction rules used
// throughout this package.
func ParseDate(dateStr *string) *time.Time {
	if dateStr == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*dateStr)
	if trimmed == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return nil
	}
	return &t
}

// ParseResources classifies a raw resource list into either concrete
// (resource, allocation) pairs or a single auto-assignment spec string.
// It returns the concrete list, the spec (empty if none), and whether the
// result requires auto-assignment.
func (v *Validator) ParseResources(resourcesRaw []string) ([]task.ResourceAssignment, string, bool) {
	if len(resourcesRaw) == 0 {
		if v.resourceConfig != nil && v.resourceConfig.DefaultResource != "" {
			return nil, v.resourceConfig.DefaultResource, true
		}
		return []task.ResourceAssignment{{Name: resource.UnassignedResource, Allocation: 1.0}}, "", false
	}

	if v.resourceConfig != nil && len(resourcesRaw) == 1 {
		specStr := resourcesRaw[0]
		_, isGroup := v.resourceConfig.Groups[specStr]
		isSpec := specStr == "*" || strings.Contains(specStr, "|") || strings.HasPrefix(specStr, "!") || isGroup
		if isSpec {
			return nil, specStr, true
		}
	}

	result := make([]task.ResourceAssignment, 0, len(resourcesRaw))
	for _, raw := range resourcesRaw {
		if idx := strings.Index(raw, ":"); idx >= 0 {
			name := strings.TrimSpace(raw[:idx])
			capacity, err := strconv.ParseFloat(strings.TrimSpace(raw[idx+1:]), 64)
			if err != nil {
				capacity = 1.0
			}
			result = append(result, task.ResourceAssignment{Name: name, Allocation: capacity})
			continue
		}
		result = append(result, task.ResourceAssignment{Name: strings.TrimSpace(raw), Allocation: 1.0})
	}
	return result, "", false
}

// EntityToTask converts one RawEntity into a task.Task. It returns
// (nil, true, false) when the entity is completed without ever having
// recorded start/end dates — such entities satisfy dependencies but are
// excluded from the solve set and consume no resource time.
func (v *Validator) EntityToTask(e RawEntity) (*task.Task, bool, bool) {
	startDate := ParseDate(e.StartDate)
	endDate := ParseDate(e.EndDate)
	startAfter := ParseDate(e.StartAfter)
	endBefore := ParseDate(e.EndBefore)

	if e.Status == "done" && startDate == nil && endDate == nil {
		return nil, true, false
	}

	resources, spec, isComputed := v.ParseResources(e.Resources)

	var duration float64
	if startDate != nil && endDate != nil {
		duration = endDate.Sub(*startDate).Hours() / 24
	} else {
		effort := e.Effort
		if effort == "" {
			effort = v.defaultEffort
		}
		effortDays := calendar.ParseEffort(effort)
		totalCapacity := v.defaultAllocUnit
		if spec == "" {
			totalCapacity = 0
			for _, r := range resources {
				totalCapacity += r.Allocation
			}
			if totalCapacity == 0 {
				totalCapacity = 1.0
			}
		}
		duration = effortDays / totalCapacity
	}

	if e.Timeframe != "" && startAfter == nil && endBefore == nil && v.constraintMode != TimeframeNone {
		tfStart, tfEnd, ok := calendar.ParseTimeframe(e.Timeframe, v.fiscalYearStart)
		if ok {
			if v.constraintMode == TimeframeBoth || v.constraintMode == TimeframeStart {
				startAfter = &tfStart
			}
			if v.constraintMode == TimeframeBoth || v.constraintMode == TimeframeEnd {
				endBefore = &tfEnd
			}
		}
	}

	t := &task.Task{
		ID:           e.ID,
		DurationDays: duration,
		Resources:    resources,
		ResourceSpec: spec,
		Dependencies: e.Dependencies,
		StartAfter:   startAfter,
		EndBefore:    endBefore,
		StartOn:      startDate,
		EndOn:        endDate,
		Priority:     e.Priority,
		Meta:         e.Meta,
	}

	return t, false, isComputed
}

// ExtractTasks converts a batch of RawEntity records into the task list
// consumed by the pre-processor and scheduling algorithms, alongside the
// set of entities completed without dates and a per-entity flag recording
// whether resources require auto-assignment.
func (v *Validator) ExtractTasks(entities []RawEntity) ([]*task.Task, []string, map[string]bool, []string) {
	logger := rclog.WithComponent("validate")

	tasks := make([]*task.Task, 0, len(entities))
	doneWithoutDates := make([]string, 0)
	resourcesComputed := make(map[string]bool, len(entities))
	warnings := make([]string, 0)

	for _, e := range entities {
		t, isDone, isComputed := v.EntityToTask(e)
		if isDone {
			doneWithoutDates = append(doneWithoutDates, e.ID)
			warnings = append(warnings, fmt.Sprintf("%s marked done without start/end dates; excluded from scheduling", e.ID))
			logger.Debug().Str("task_id", e.ID).Msg("entity completed without dates, excluding from solve set")
			continue
		}
		if t != nil {
			tasks = append(tasks, t)
			resourcesComputed[e.ID] = isComputed
		}
	}

	return tasks, doneWithoutDates, resourcesComputed, warnings
}
