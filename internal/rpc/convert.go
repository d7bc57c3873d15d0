package rpc

import (
	"github.com/cuemby/rcspd/internal/rpc/rcspdpb"
	"github.com/cuemby/rcspd/pkg/task"
	"github.com/cuemby/rcspd/pkg/validate"
)

func convertTaskInput(in rcspdpb.TaskInput) validate.RawEntity {
	entity := validate.RawEntity{
		ID:        in.ID,
		Effort:    in.Effort,
		Resources: in.Resources,
		Timeframe: in.Timeframe,
		Status:    in.Status,
	}
	if in.StartDate != "" {
		entity.StartDate = strPtr(in.StartDate)
	}
	if in.EndDate != "" {
		entity.EndDate = strPtr(in.EndDate)
	}
	if in.StartAfter != "" {
		entity.StartAfter = strPtr(in.StartAfter)
	}
	if in.EndBefore != "" {
		entity.EndBefore = strPtr(in.EndBefore)
	}
	if in.Priority != nil {
		p := int(*in.Priority)
		entity.Priority = &p
	}
	if len(in.Dependencies) > 0 {
		entity.Dependencies = make([]task.Dependency, len(in.Dependencies))
		for i, d := range in.Dependencies {
			entity.Dependencies[i] = task.Dependency{TaskID: d.TaskID, LagDays: d.LagDays}
		}
	}
	return entity
}

func strPtr(s string) *string { return &s }
