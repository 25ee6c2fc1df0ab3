package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

const (
	RuntimeClientServiceName = "runtimed.v1.RuntimeClient"
	StorageServiceName       = "runtimed.v1.Storage"
)

// RuntimeClientServer is the server side of the runtime client service
type RuntimeClientServer interface {
	SubmitTx(context.Context, *SubmitTxRequest) (*SubmitTxResponse, error)
	WaitSync(context.Context, *WaitSyncRequest) (*WaitSyncResponse, error)
	IsSynced(context.Context, *IsSyncedRequest) (*IsSyncedResponse, error)
	WatchBlocks(*WatchBlocksRequest, RuntimeClient_WatchBlocksServer) error
	GetBlock(context.Context, *GetBlockRequest) (*BlockResponse, error)
	GetTxn(context.Context, *GetTxnRequest) (*TxnResponse, error)
	GetTxnByBlockHash(context.Context, *GetTxnByBlockHashRequest) (*TxnResponse, error)
	GetTransactions(context.Context, *GetTransactionsRequest) (*GetTransactionsResponse, error)
	QueryBlock(context.Context, *QueryBlockRequest) (*BlockResponse, error)
	QueryTxn(context.Context, *QueryTxnRequest) (*TxnResponse, error)
}

type RuntimeClient_WatchBlocksServer interface {
	Send(*BlockResponse) error
	grpc.ServerStream
}

type runtimeClientWatchBlocksServer struct {
	grpc.ServerStream
}

func (x *runtimeClientWatchBlocksServer) Send(m *BlockResponse) error {
	return x.ServerStream.SendMsg(m)
}

// StorageServer is the server side of the storage service
type StorageServer interface {
	GetObject(context.Context, *GetObjectRequest) (*GetObjectResponse, error)
}

func fullMethod(service, method string) string {
	return fmt.Sprintf("/%s/%s", service, method)
}

func handlerSubmitTx(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(SubmitTxRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeClientServer).SubmitTx(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(RuntimeClientServiceName, "SubmitTx")}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RuntimeClientServer).SubmitTx(ctx, req.(*SubmitTxRequest))
	})
}

func handlerWaitSync(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(WaitSyncRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeClientServer).WaitSync(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(RuntimeClientServiceName, "WaitSync")}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RuntimeClientServer).WaitSync(ctx, req.(*WaitSyncRequest))
	})
}

func handlerIsSynced(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(IsSyncedRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeClientServer).IsSynced(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(RuntimeClientServiceName, "IsSynced")}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RuntimeClientServer).IsSynced(ctx, req.(*IsSyncedRequest))
	})
}

func handlerGetBlock(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetBlockRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeClientServer).GetBlock(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(RuntimeClientServiceName, "GetBlock")}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RuntimeClientServer).GetBlock(ctx, req.(*GetBlockRequest))
	})
}

func handlerGetTxn(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetTxnRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeClientServer).GetTxn(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(RuntimeClientServiceName, "GetTxn")}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RuntimeClientServer).GetTxn(ctx, req.(*GetTxnRequest))
	})
}

func handlerGetTxnByBlockHash(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetTxnByBlockHashRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeClientServer).GetTxnByBlockHash(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(RuntimeClientServiceName, "GetTxnByBlockHash")}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RuntimeClientServer).GetTxnByBlockHash(ctx, req.(*GetTxnByBlockHashRequest))
	})
}

func handlerGetTransactions(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetTransactionsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeClientServer).GetTransactions(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(RuntimeClientServiceName, "GetTransactions")}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RuntimeClientServer).GetTransactions(ctx, req.(*GetTransactionsRequest))
	})
}

func handlerQueryBlock(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(QueryBlockRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeClientServer).QueryBlock(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(RuntimeClientServiceName, "QueryBlock")}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RuntimeClientServer).QueryBlock(ctx, req.(*QueryBlockRequest))
	})
}

func handlerQueryTxn(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(QueryTxnRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeClientServer).QueryTxn(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(RuntimeClientServiceName, "QueryTxn")}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RuntimeClientServer).QueryTxn(ctx, req.(*QueryTxnRequest))
	})
}

func handlerWatchBlocks(srv interface{}, stream grpc.ServerStream) error {
	req := new(WatchBlocksRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(RuntimeClientServer).WatchBlocks(req, &runtimeClientWatchBlocksServer{stream})
}

func handlerGetObject(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetObjectRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorageServer).GetObject(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(StorageServiceName, "GetObject")}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StorageServer).GetObject(ctx, req.(*GetObjectRequest))
	})
}

// RuntimeClient_ServiceDesc is the manual gRPC service descriptor of the
// runtime client service
var RuntimeClient_ServiceDesc = grpc.ServiceDesc{
	ServiceName: RuntimeClientServiceName,
	HandlerType: (*RuntimeClientServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitTx", Handler: handlerSubmitTx},
		{MethodName: "WaitSync", Handler: handlerWaitSync},
		{MethodName: "IsSynced", Handler: handlerIsSynced},
		{MethodName: "GetBlock", Handler: handlerGetBlock},
		{MethodName: "GetTxn", Handler: handlerGetTxn},
		{MethodName: "GetTxnByBlockHash", Handler: handlerGetTxnByBlockHash},
		{MethodName: "GetTransactions", Handler: handlerGetTransactions},
		{MethodName: "QueryBlock", Handler: handlerQueryBlock},
		{MethodName: "QueryTxn", Handler: handlerQueryTxn},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchBlocks",
			Handler:       handlerWatchBlocks,
			ServerStreams: true,
		},
	},
	Metadata: "runtimed/v1/runtime.msgpack",
}

// Storage_ServiceDesc is the manual gRPC service descriptor of the storage
// service
var Storage_ServiceDesc = grpc.ServiceDesc{
	ServiceName: StorageServiceName,
	HandlerType: (*StorageServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetObject", Handler: handlerGetObject},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "runtimed/v1/storage.msgpack",
}

func RegisterRuntimeClientServer(s grpc.ServiceRegistrar, srv RuntimeClientServer) {
	s.RegisterService(&RuntimeClient_ServiceDesc, srv)
}

func RegisterStorageServer(s grpc.ServiceRegistrar, srv StorageServer) {
	s.RegisterService(&Storage_ServiceDesc, srv)
}
