package api

import (
	"context"

	"google.golang.org/grpc"
)

// RuntimeClientClient is the client side of the runtime client service
type RuntimeClientClient interface {
	SubmitTx(ctx context.Context, in *SubmitTxRequest, opts ...grpc.CallOption) (*SubmitTxResponse, error)
	WaitSync(ctx context.Context, in *WaitSyncRequest, opts ...grpc.CallOption) (*WaitSyncResponse, error)
	IsSynced(ctx context.Context, in *IsSyncedRequest, opts ...grpc.CallOption) (*IsSyncedResponse, error)
	WatchBlocks(ctx context.Context, in *WatchBlocksRequest, opts ...grpc.CallOption) (RuntimeClient_WatchBlocksClient, error)
	GetBlock(ctx context.Context, in *GetBlockRequest, opts ...grpc.CallOption) (*BlockResponse, error)
	GetTxn(ctx context.Context, in *GetTxnRequest, opts ...grpc.CallOption) (*TxnResponse, error)
	GetTxnByBlockHash(ctx context.Context, in *GetTxnByBlockHashRequest, opts ...grpc.CallOption) (*TxnResponse, error)
	GetTransactions(ctx context.Context, in *GetTransactionsRequest, opts ...grpc.CallOption) (*GetTransactionsResponse, error)
	QueryBlock(ctx context.Context, in *QueryBlockRequest, opts ...grpc.CallOption) (*BlockResponse, error)
	QueryTxn(ctx context.Context, in *QueryTxnRequest, opts ...grpc.CallOption) (*TxnResponse, error)
}

type RuntimeClient_WatchBlocksClient interface {
	Recv() (*BlockResponse, error)
	grpc.ClientStream
}

// StorageClient is the client side of the storage service
type StorageClient interface {
	GetObject(ctx context.Context, in *GetObjectRequest, opts ...grpc.CallOption) (*GetObjectResponse, error)
}

type runtimeClientClient struct {
	cc grpc.ClientConnInterface
}

func NewRuntimeClientClient(cc grpc.ClientConnInterface) RuntimeClientClient {
	return &runtimeClientClient{cc}
}

func (c *runtimeClientClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	return c.cc.Invoke(ctx, fullMethod(RuntimeClientServiceName, method), in, out, opts...)
}

func (c *runtimeClientClient) SubmitTx(ctx context.Context, in *SubmitTxRequest, opts ...grpc.CallOption) (*SubmitTxResponse, error) {
	out := new(SubmitTxResponse)
	if err := c.invoke(ctx, "SubmitTx", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *runtimeClientClient) WaitSync(ctx context.Context, in *WaitSyncRequest, opts ...grpc.CallOption) (*WaitSyncResponse, error) {
	out := new(WaitSyncResponse)
	if err := c.invoke(ctx, "WaitSync", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *runtimeClientClient) IsSynced(ctx context.Context, in *IsSyncedRequest, opts ...grpc.CallOption) (*IsSyncedResponse, error) {
	out := new(IsSyncedResponse)
	if err := c.invoke(ctx, "IsSynced", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *runtimeClientClient) WatchBlocks(ctx context.Context, in *WatchBlocksRequest, opts ...grpc.CallOption) (RuntimeClient_WatchBlocksClient, error) {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)

	stream, err := c.cc.NewStream(ctx, &RuntimeClient_ServiceDesc.Streams[0], fullMethod(RuntimeClientServiceName, "WatchBlocks"), opts...)
	if err != nil {
		return nil, err
	}

	x := &runtimeClientWatchBlocksClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}

type runtimeClientWatchBlocksClient struct {
	grpc.ClientStream
}

func (x *runtimeClientWatchBlocksClient) Recv() (*BlockResponse, error) {
	m := new(BlockResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *runtimeClientClient) GetBlock(ctx context.Context, in *GetBlockRequest, opts ...grpc.CallOption) (*BlockResponse, error) {
	out := new(BlockResponse)
	if err := c.invoke(ctx, "GetBlock", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *runtimeClientClient) GetTxn(ctx context.Context, in *GetTxnRequest, opts ...grpc.CallOption) (*TxnResponse, error) {
	out := new(TxnResponse)
	if err := c.invoke(ctx, "GetTxn", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *runtimeClientClient) GetTxnByBlockHash(ctx context.Context, in *GetTxnByBlockHashRequest, opts ...grpc.CallOption) (*TxnResponse, error) {
	out := new(TxnResponse)
	if err := c.invoke(ctx, "GetTxnByBlockHash", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *runtimeClientClient) GetTransactions(ctx context.Context, in *GetTransactionsRequest, opts ...grpc.CallOption) (*GetTransactionsResponse, error) {
	out := new(GetTransactionsResponse)
	if err := c.invoke(ctx, "GetTransactions", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *runtimeClientClient) QueryBlock(ctx context.Context, in *QueryBlockRequest, opts ...grpc.CallOption) (*BlockResponse, error) {
	out := new(BlockResponse)
	if err := c.invoke(ctx, "QueryBlock", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *runtimeClientClient) QueryTxn(ctx context.Context, in *QueryTxnRequest, opts ...grpc.CallOption) (*TxnResponse, error) {
	out := new(TxnResponse)
	if err := c.invoke(ctx, "QueryTxn", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

type storageClient struct {
	cc grpc.ClientConnInterface
}

func NewStorageClient(cc grpc.ClientConnInterface) StorageClient {
	return &storageClient{cc}
}

func (c *storageClient) GetObject(ctx context.Context, in *GetObjectRequest, opts ...grpc.CallOption) (*GetObjectResponse, error) {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)

	out := new(GetObjectResponse)
	if err := c.cc.Invoke(ctx, fullMethod(StorageServiceName, "GetObject"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
