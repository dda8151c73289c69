package control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified service name.
	ServiceName = "diffbell.v1.ControlService"

	// GetStatusMethod returns the latest status.
	GetStatusMethod = "/" + ServiceName + "/GetStatus"
	// SnoozeMethod snoozes the alert.
	SnoozeMethod = "/" + ServiceName + "/Snooze"
	// TestAlertMethod rings a test alert.
	TestAlertMethod = "/" + ServiceName + "/TestAlert"
)

// ControlServiceServer is the server API of the control service.
type ControlServiceServer interface {
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	Snooze(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
	TestAlert(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
}

// ServiceDesc describes the control service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetStatus",
			Handler: emptyHandler(GetStatusMethod, func(s ControlServiceServer, ctx context.Context, req *emptypb.Empty) (proto.Message, error) {
				return s.GetStatus(ctx, req)
			}),
		},
		{
			MethodName: "Snooze",
			Handler: emptyHandler(SnoozeMethod, func(s ControlServiceServer, ctx context.Context, req *emptypb.Empty) (proto.Message, error) {
				return s.Snooze(ctx, req)
			}),
		},
		{
			MethodName: "TestAlert",
			Handler: emptyHandler(TestAlertMethod, func(s ControlServiceServer, ctx context.Context, req *emptypb.Empty) (proto.Message, error) {
				return s.TestAlert(ctx, req)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "diffbell/v1/control.proto",
}

// RegisterControlServiceServer registers srv on registrar.
func RegisterControlServiceServer(registrar grpc.ServiceRegistrar, srv ControlServiceServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// emptyHandler builds a unary handler for a method taking google.protobuf.Empty.
func emptyHandler(
	fullMethod string,
	call func(ControlServiceServer, context.Context, *emptypb.Empty) (proto.Message, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(ControlServiceServer)

		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			request, _ := req.(*emptypb.Empty)

			return call(server, ctx, request)
		}

		return interceptor(ctx, in, info, handler)
	}
}
