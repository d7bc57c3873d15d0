// Package rpc implements §14: a thin gRPC gateway over pkg/scheduling for
// callers that run out-of-process from the scheduling core (a UI backend,
// a CI step, another service). It is entirely optional — nothing in
// pkg/scheduling or the algorithm packages imports it, and a caller
// embedding this module directly never needs it.
//
// No .proto source exists in this module's lineage for the Schedule RPC, so
// internal/rpc/rcspdpb hand-writes the request/response messages that a
// generated scheduler.pb.go would otherwise declare, and carries them over
// the wire inside a structpb.Struct rather than inventing a private codec.
package rpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"

	"github.com/cuemby/rcspd/internal/history"
	"github.com/cuemby/rcspd/internal/rclog"
	"github.com/cuemby/rcspd/internal/rpc/rcspdpb"
	"github.com/cuemby/rcspd/pkg/resource"
	"github.com/cuemby/rcspd/pkg/schedconfig"
	"github.com/cuemby/rcspd/pkg/scheduling"
	"github.com/cuemby/rcspd/pkg/task"
	"github.com/cuemby/rcspd/pkg/validate"
)

const dateLayout = "2006-01-02"

// Server implements the rcspdpb Scheduler service over pkg/scheduling. Its
// resource configuration and defaults are fixed at construction time; only
// the entity set, current date, and per-request overrides travel over the
// wire.
type Server struct {
	resourceConfig   *resource.Config
	config           *schedconfig.Config
	globalDNSPeriods []resource.Period
	history          *history.Store

	grpc *grpc.Server
}

// NewServer builds a Server. history may be nil, in which case runs are not
// recorded.
func NewServer(resourceConfig *resource.Config, cfg *schedconfig.Config, globalDNSPeriods []resource.Period, hist *history.Store) *Server {
	if cfg == nil {
		cfg = schedconfig.Default()
	}
	return &Server{
		resourceConfig:   resourceConfig,
		config:           cfg,
		globalDNSPeriods: globalDNSPeriods,
		history:          hist,
		grpc:             grpc.NewServer(),
	}
}

// Start listens on addr and serves until the listener or server stops.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	rcspdpb.RegisterSchedulerServer(s.grpc, s)

	rclog.WithComponent("rpc").Info().Str("addr", addr).Msg("scheduler RPC listening")
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the gRPC server.
func (s *Server) Stop() {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
}

// Schedule runs one scheduling pass over the request's entities and
// returns the solved schedule.
func (s *Server) Schedule(ctx context.Context, req *rcspdpb.ScheduleRequest) (*rcspdpb.ScheduleResponse, error) {
	currentDate, err := parseDate(req.CurrentDate)
	if err != nil {
		return nil, fmt.Errorf("invalid current_date: %w", err)
	}

	entities := make([]validate.RawEntity, len(req.Entities))
	for i, e := range req.Entities {
		entities[i] = convertTaskInput(e)
	}

	cfg := s.config
	if req.Algorithm != "" && schedconfig.AlgorithmType(req.Algorithm) != cfg.Algorithm {
		clone := *cfg
		clone.Algorithm = schedconfig.AlgorithmType(req.Algorithm)
		cfg = &clone
	}

	opts := []scheduling.Option{
		scheduling.WithResourceConfig(s.resourceConfig),
		scheduling.WithConfig(cfg),
		scheduling.WithGlobalDNSPeriods(s.globalDNSPeriods),
	}
	if req.FiscalYearStart > 0 {
		opts = append(opts, scheduling.WithFiscalYearStart(int(req.FiscalYearStart)))
	}

	svc := scheduling.New(entities, currentDate, opts...)
	result, err := svc.Schedule()
	if err != nil {
		return nil, fmt.Errorf("scheduling failed: %w", err)
	}

	var runID string
	if s.history != nil {
		runID, err = s.history.Record(string(cfg.Algorithm), len(entities), result)
		if err != nil {
			rclog.WithComponent("rpc").Warn().Err(err).Msg("failed to record run history")
		}
	}

	return responseFromResult(runID, result), nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("current_date is required")
	}
	return time.Parse(dateLayout, s)
}

func responseFromResult(runID string, result *task.SchedulingResult) *rcspdpb.ScheduleResponse {
	scheduled := make([]rcspdpb.ScheduledTaskOutput, 0, len(result.ScheduledTasks))
	for _, st := range result.ScheduledTasks {
		scheduled = append(scheduled, rcspdpb.ScheduledTaskOutput{
			TaskID:       st.TaskID,
			StartDate:    st.StartDate.Format(dateLayout),
			EndDate:      st.EndDate.Format(dateLayout),
			DurationDays: st.DurationDays,
			Resources:    st.Resources,
		})
	}

	annotations := make([]rcspdpb.AnnotationOutput, 0, len(result.Annotations))
	for id, a := range result.Annotations {
		out := rcspdpb.AnnotationOutput{
			EntityID:              id,
			DeadlineViolated:      a.DeadlineViolated,
			ResourcesWereComputed: a.ResourcesWereComputed,
			WasFixed:              a.WasFixed,
		}
		if a.EstimatedStart != nil {
			out.EstimatedStart = a.EstimatedStart.Format(dateLayout)
		}
		if a.EstimatedEnd != nil {
			out.EstimatedEnd = a.EstimatedEnd.Format(dateLayout)
		}
		if a.ComputedDeadline != nil {
			out.ComputedDeadline = a.ComputedDeadline.Format(dateLayout)
		}
		if a.ComputedPriority != nil {
			p := int32(*a.ComputedPriority)
			out.ComputedPriority = &p
		}
		for _, ra := range a.ResourceAssignments {
			out.ResourceAssignments = append(out.ResourceAssignments, rcspdpb.ResourceAssignmentOutput{
				Name: ra.Name, Allocation: ra.Allocation,
			})
		}
		annotations = append(annotations, out)
	}

	return &rcspdpb.ScheduleResponse{
		RunID:          runID,
		ScheduledTasks: scheduled,
		Annotations:    annotations,
		Warnings:       result.Warnings,
	}
}
