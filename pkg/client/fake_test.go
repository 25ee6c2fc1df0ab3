package client

import (
	"context"
	"sync/atomic"

	"google.golang.org/grpc"

	"github.com/tcfw/runtimed/api"
	"github.com/tcfw/runtimed/pkg/storage"
)

var (
	_ api.RuntimeClientClient = (*fakeRuntimeClient)(nil)
	_ api.StorageClient       = (*fakeStorageClient)(nil)
)

// fakeRuntimeClient answers calls with the configured Fn fields. Unset
// fields fail the call.
type fakeRuntimeClient struct {
	SubmitTxFn          func(context.Context, *api.SubmitTxRequest) (*api.SubmitTxResponse, error)
	WatchBlocksFn       func(context.Context, *api.WatchBlocksRequest) (api.RuntimeClient_WatchBlocksClient, error)
	GetBlockFn          func(context.Context, *api.GetBlockRequest) (*api.BlockResponse, error)
	GetTxnFn            func(context.Context, *api.GetTxnRequest) (*api.TxnResponse, error)
	GetTransactionsFn   func(context.Context, *api.GetTransactionsRequest) (*api.GetTransactionsResponse, error)
	QueryBlockFn        func(context.Context, *api.QueryBlockRequest) (*api.BlockResponse, error)
	QueryTxnFn          func(context.Context, *api.QueryTxnRequest) (*api.TxnResponse, error)
	GetTxnByBlockHashFn func(context.Context, *api.GetTxnByBlockHashRequest) (*api.TxnResponse, error)

	SubmitTxCalls    atomic.Int64
	WatchBlocksCalls atomic.Int64
}

var errNotConfigured = &CallFailedError{Reason: "not configured"}

func (f *fakeRuntimeClient) SubmitTx(ctx context.Context, in *api.SubmitTxRequest, _ ...grpc.CallOption) (*api.SubmitTxResponse, error) {
	f.SubmitTxCalls.Add(1)
	if f.SubmitTxFn == nil {
		return nil, errNotConfigured
	}
	return f.SubmitTxFn(ctx, in)
}

func (f *fakeRuntimeClient) WaitSync(context.Context, *api.WaitSyncRequest, ...grpc.CallOption) (*api.WaitSyncResponse, error) {
	return &api.WaitSyncResponse{}, nil
}

func (f *fakeRuntimeClient) IsSynced(context.Context, *api.IsSyncedRequest, ...grpc.CallOption) (*api.IsSyncedResponse, error) {
	return &api.IsSyncedResponse{Synced: true}, nil
}

func (f *fakeRuntimeClient) WatchBlocks(ctx context.Context, in *api.WatchBlocksRequest, _ ...grpc.CallOption) (api.RuntimeClient_WatchBlocksClient, error) {
	f.WatchBlocksCalls.Add(1)
	if f.WatchBlocksFn == nil {
		return nil, errNotConfigured
	}
	return f.WatchBlocksFn(ctx, in)
}

func (f *fakeRuntimeClient) GetBlock(ctx context.Context, in *api.GetBlockRequest, _ ...grpc.CallOption) (*api.BlockResponse, error) {
	if f.GetBlockFn == nil {
		return nil, errNotConfigured
	}
	return f.GetBlockFn(ctx, in)
}

func (f *fakeRuntimeClient) GetTxn(ctx context.Context, in *api.GetTxnRequest, _ ...grpc.CallOption) (*api.TxnResponse, error) {
	if f.GetTxnFn == nil {
		return nil, errNotConfigured
	}
	return f.GetTxnFn(ctx, in)
}

func (f *fakeRuntimeClient) GetTxnByBlockHash(ctx context.Context, in *api.GetTxnByBlockHashRequest, _ ...grpc.CallOption) (*api.TxnResponse, error) {
	if f.GetTxnByBlockHashFn == nil {
		return nil, errNotConfigured
	}
	return f.GetTxnByBlockHashFn(ctx, in)
}

func (f *fakeRuntimeClient) GetTransactions(ctx context.Context, in *api.GetTransactionsRequest, _ ...grpc.CallOption) (*api.GetTransactionsResponse, error) {
	if f.GetTransactionsFn == nil {
		return nil, errNotConfigured
	}
	return f.GetTransactionsFn(ctx, in)
}

func (f *fakeRuntimeClient) QueryBlock(ctx context.Context, in *api.QueryBlockRequest, _ ...grpc.CallOption) (*api.BlockResponse, error) {
	if f.QueryBlockFn == nil {
		return nil, errNotConfigured
	}
	return f.QueryBlockFn(ctx, in)
}

func (f *fakeRuntimeClient) QueryTxn(ctx context.Context, in *api.QueryTxnRequest, _ ...grpc.CallOption) (*api.TxnResponse, error) {
	if f.QueryTxnFn == nil {
		return nil, errNotConfigured
	}
	return f.QueryTxnFn(ctx, in)
}

// fakeBlockStream delivers whatever is pushed to blocks, and ends with the
// first error pushed to errs
type fakeBlockStream struct {
	grpc.ClientStream

	ctx    context.Context
	blocks chan *api.BlockResponse
	errs   chan error
}

func newFakeBlockStream(ctx context.Context) *fakeBlockStream {
	return &fakeBlockStream{
		ctx:    ctx,
		blocks: make(chan *api.BlockResponse, 10),
		errs:   make(chan error, 1),
	}
}

func (s *fakeBlockStream) Recv() (*api.BlockResponse, error) {
	select {
	case b := <-s.blocks:
		return b, nil
	case err := <-s.errs:
		return nil, err
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
}

// fakeStorageClient serves objects out of a MemStore
type fakeStorageClient struct {
	store *storage.MemStore

	GetObjectCalls atomic.Int64
}

func (f *fakeStorageClient) GetObject(ctx context.Context, in *api.GetObjectRequest, _ ...grpc.CallOption) (*api.GetObjectResponse, error) {
	f.GetObjectCalls.Add(1)

	d, err := f.store.GetObject(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	return &api.GetObjectResponse{Data: d}, nil
}
