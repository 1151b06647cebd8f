// Package bridge exposes a session to the host engine over gRPC. Messages are
// protobuf well-known types so the engine side needs no generated code:
// inbound signals and outbound snapshots and events travel as Struct.
package bridge

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "defuse.v1.Bridge"

const (
	methodArm      = "/" + ServiceName + "/Arm"
	methodSend     = "/" + ServiceName + "/Send"
	methodSnapshot = "/" + ServiceName + "/Snapshot"
	methodWatch    = "/" + ServiceName + "/Watch"
)

// BridgeServer is the server API for the Bridge service.
type BridgeServer interface {
	Arm(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Send(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Watch(*emptypb.Empty, Bridge_WatchServer) error
}

// Bridge_WatchServer is the server side of the outbound event stream.
type Bridge_WatchServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type bridgeWatchServer struct {
	grpc.ServerStream
}

func (x *bridgeWatchServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterBridgeServer registers srv on s.
func RegisterBridgeServer(s grpc.ServiceRegistrar, srv BridgeServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func armHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServer).Arm(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodArm}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServer).Arm(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func sendHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServer).Send(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodSend}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServer).Send(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func snapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServer).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodSnapshot}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServer).Snapshot(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(BridgeServer).Watch(in, &bridgeWatchServer{stream})
}

// ServiceDesc describes the Bridge service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Arm", Handler: armHandler},
		{MethodName: "Send", Handler: sendHandler},
		{MethodName: "Snapshot", Handler: snapshotHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "defuse/v1/bridge.proto",
}
