package rcspdpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// SchedulerServer is the server-side interface a Schedule RPC implementation
// satisfies — the hand-written equivalent of what protoc-gen-go-grpc would
// otherwise generate from a scheduler.proto service declaration.
type SchedulerServer interface {
	Schedule(ctx context.Context, req *ScheduleRequest) (*ScheduleResponse, error)
}

// SchedulerClient is the client-side counterpart.
type SchedulerClient interface {
	Schedule(ctx context.Context, req *ScheduleRequest, opts ...grpc.CallOption) (*ScheduleResponse, error)
}

// ServiceDesc describes the rcspdpb.Scheduler service to grpc.Server, in
// place of the ServiceDesc a generated _grpc.pb.go file would declare.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "rcspdpb.Scheduler",
	HandlerType: (*SchedulerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Schedule",
			Handler:    scheduleHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rcspdpb/scheduler.go",
}

// RegisterSchedulerServer registers srv as the handler for ServiceDesc on
// s, mirroring the generated proto.RegisterXxxServer helper.
func RegisterSchedulerServer(s *grpc.Server, srv SchedulerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func scheduleHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	wire := new(structpb.Struct)
	if err := dec(wire); err != nil {
		return nil, err
	}
	req, err := requestFromWire(wire)
	if err != nil {
		return nil, err
	}

	run := func(ctx context.Context, reqIface interface{}) (interface{}, error) {
		resp, err := srv.(SchedulerServer).Schedule(ctx, reqIface.(*ScheduleRequest))
		if err != nil {
			return nil, err
		}
		return resp.toWire()
	}

	if interceptor == nil {
		return run(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/rcspdpb.Scheduler/Schedule"}
	return interceptor(ctx, req, info, run)
}

type schedulerClient struct {
	cc grpc.ClientConnInterface
}

// NewSchedulerClient wraps cc as a SchedulerClient, mirroring the generated
// proto.NewXxxClient helper.
func NewSchedulerClient(cc grpc.ClientConnInterface) SchedulerClient {
	return &schedulerClient{cc: cc}
}

func (c *schedulerClient) Schedule(ctx context.Context, in *ScheduleRequest, opts ...grpc.CallOption) (*ScheduleResponse, error) {
	wire, err := in.toWire()
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/rcspdpb.Scheduler/Schedule", wire, out, opts...); err != nil {
		return nil, err
	}
	return responseFromWire(out)
}

func (r *ScheduleRequest) toWire() (*structpb.Struct, error) {
	m, err := toMap(r)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func requestFromWire(s *structpb.Struct) (*ScheduleRequest, error) {
	req := new(ScheduleRequest)
	if err := fromMap(s.AsMap(), req); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *ScheduleResponse) toWire() (*structpb.Struct, error) {
	m, err := toMap(r)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func responseFromWire(s *structpb.Struct) (*ScheduleResponse, error) {
	resp := new(ScheduleResponse)
	if err := fromMap(s.AsMap(), resp); err != nil {
		return nil, err
	}
	return resp, nil
}
