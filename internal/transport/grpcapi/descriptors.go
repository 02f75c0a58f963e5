package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Service descriptors are written by hand over well-known types so the API
// needs no generated stubs.

const (
	UserServiceName    = "socfony.v1.UserService"
	StorageServiceName = "socfony.v1.StorageService"
)

type UserServiceServer interface {
	UpdatePhone(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	UpdateName(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
}

type StorageServiceServer interface {
	CreateUploadIntent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ResolveDownloadURL(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error)
}

func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&userServiceDesc, srv)
}

func RegisterStorageServiceServer(s grpc.ServiceRegistrar, srv StorageServiceServer) {
	s.RegisterService(&storageServiceDesc, srv)
}

var userServiceDesc = grpc.ServiceDesc{
	ServiceName: UserServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "UpdatePhone",
			Handler: unaryHandler(UserServiceName+"/UpdatePhone", func(srv any, ctx context.Context, in *structpb.Struct) (any, error) {
				return srv.(UserServiceServer).UpdatePhone(ctx, in)
			}),
		},
		{
			MethodName: "UpdateName",
			Handler: unaryHandler(UserServiceName+"/UpdateName", func(srv any, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return srv.(UserServiceServer).UpdateName(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "socfony/v1/user.proto",
}

var storageServiceDesc = grpc.ServiceDesc{
	ServiceName: StorageServiceName,
	HandlerType: (*StorageServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateUploadIntent",
			Handler: unaryHandler(StorageServiceName+"/CreateUploadIntent", func(srv any, ctx context.Context, in *structpb.Struct) (any, error) {
				return srv.(StorageServiceServer).CreateUploadIntent(ctx, in)
			}),
		},
		{
			MethodName: "ResolveDownloadURL",
			Handler: unaryHandler(StorageServiceName+"/ResolveDownloadURL", func(srv any, ctx context.Context, in *structpb.Struct) (any, error) {
				return srv.(StorageServiceServer).ResolveDownloadURL(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "socfony/v1/storage.proto",
}

// unaryHandler adapts a typed method call to grpc.MethodHandler, decoding the
// request into a fresh Req and routing through the server's interceptor chain.
func unaryHandler[Req any, PReq interface {
	*Req
}](method string, call func(srv any, ctx context.Context, in PReq) (any, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv, ctx, req.(PReq))
		})
	}
}

// UserServiceClient calls socfony.v1.UserService over cc.
type UserServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewUserServiceClient(cc grpc.ClientConnInterface) *UserServiceClient {
	return &UserServiceClient{cc: cc}
}

func (c *UserServiceClient) UpdatePhone(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+UserServiceName+"/UpdatePhone", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *UserServiceClient) UpdateName(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+UserServiceName+"/UpdateName", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// StorageServiceClient calls socfony.v1.StorageService over cc.
type StorageServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewStorageServiceClient(cc grpc.ClientConnInterface) *StorageServiceClient {
	return &StorageServiceClient{cc: cc}
}

func (c *StorageServiceClient) CreateUploadIntent(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+StorageServiceName+"/CreateUploadIntent", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StorageServiceClient) ResolveDownloadURL(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, "/"+StorageServiceName+"/ResolveDownloadURL", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
