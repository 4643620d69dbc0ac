// Package submission_api describes the SubmissionAPI gRPC service. Messages are protobuf
// well-known types, atoms travel in the ledger codec encoding.
package submission_api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "atomengine.submission.SubmissionAPI"

	SubmissionAPI_SubmitAtom_FullMethodName = "/" + ServiceName + "/SubmitAtom"
	SubmissionAPI_HealthGRPC_FullMethodName = "/" + ServiceName + "/HealthGRPC"
)

// SubmissionAPIServer is the server API for the SubmissionAPI service.
type SubmissionAPIServer interface {
	// SubmitAtom validates an encoded atom and queues it for commit. It returns the atom id.
	SubmitAtom(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	HealthGRPC(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

func RegisterSubmissionAPIServer(s grpc.ServiceRegistrar, srv SubmissionAPIServer) {
	s.RegisterService(&SubmissionAPI_ServiceDesc, srv)
}

func _SubmissionAPI_SubmitAtom_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(SubmissionAPIServer).SubmitAtom(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SubmissionAPI_SubmitAtom_FullMethodName,
	}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SubmissionAPIServer).SubmitAtom(ctx, req.(*wrapperspb.BytesValue))
	}

	return interceptor(ctx, in, info, handler)
}

func _SubmissionAPI_HealthGRPC_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(SubmissionAPIServer).HealthGRPC(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SubmissionAPI_HealthGRPC_FullMethodName,
	}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SubmissionAPIServer).HealthGRPC(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

// SubmissionAPI_ServiceDesc is the grpc.ServiceDesc for the SubmissionAPI service.
var SubmissionAPI_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SubmissionAPIServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SubmitAtom",
			Handler:    _SubmissionAPI_SubmitAtom_Handler,
		},
		{
			MethodName: "HealthGRPC",
			Handler:    _SubmissionAPI_HealthGRPC_Handler,
		},
	},
	Streams: []grpc.StreamDesc{},
}

// SubmissionAPIClient is the client API for the SubmissionAPI service.
type SubmissionAPIClient interface {
	SubmitAtom(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	HealthGRPC(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type submissionAPIClient struct {
	cc grpc.ClientConnInterface
}

func NewSubmissionAPIClient(cc grpc.ClientConnInterface) SubmissionAPIClient {
	return &submissionAPIClient{cc}
}

func (c *submissionAPIClient) SubmitAtom(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, SubmissionAPI_SubmitAtom_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *submissionAPIClient) HealthGRPC(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, SubmissionAPI_HealthGRPC_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
