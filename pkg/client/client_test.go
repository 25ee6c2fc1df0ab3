package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcfw/runtimed/api"
	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/hash"
	"github.com/tcfw/runtimed/pkg/storage"
	"github.com/tcfw/runtimed/pkg/transaction"
)

func newTestClient(t *testing.T, rc *fakeRuntimeClient, opts ...Option) (*Client, *fakeStorageClient) {
	sc := &fakeStorageClient{store: storage.NewMemStore()}

	c, err := New(rc, sc, block.Namespace{1}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })

	return c, sc
}

func testHeader(round uint64) *block.Header {
	h := block.NewGenesisHeader(block.Namespace{1}, hash.Hash{}, hash.Hash{})
	h.Round = block.NewU256(round)
	return h
}

func blockResponse(h *block.Header) *api.BlockResponse {
	raw, _ := h.Marshal()
	bh, _ := h.EncodedHash()

	return &api.BlockResponse{Block: raw, BlockHash: bh}
}

func testBlock(round uint64) *api.BlockResponse {
	return blockResponse(testHeader(round))
}

func encodeOutput(t *testing.T, o transaction.TxnOutput) []byte {
	b, err := transaction.EncodeOutput(o)
	require.NoError(t, err)
	return b
}

func TestGetLatestBlockSingleSubscription(t *testing.T) {
	var stream *fakeBlockStream
	opened := make(chan struct{})

	rc := &fakeRuntimeClient{
		WatchBlocksFn: func(ctx context.Context, _ *api.WatchBlocksRequest) (api.RuntimeClient_WatchBlocksClient, error) {
			stream = newFakeBlockStream(ctx)
			close(opened)
			return stream, nil
		},
	}
	c, _ := newTestClient(t, rc)

	n := 10
	results := make([]*BlockSnapshot, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetLatestBlock(context.Background())
		}(i)
	}

	<-opened
	first := testBlock(3)
	stream.blocks <- first

	wg.Wait()

	assert.Equal(t, int64(1), rc.WatchBlocksCalls.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, first.BlockHash, results[i].BlockHash)
		assert.Equal(t, uint64(3), results[i].Round())
	}

	second := testBlock(4)
	stream.blocks <- second

	assert.Eventually(t, func() bool {
		b, err := c.GetLatestBlock(context.Background())
		return err == nil && b.BlockHash == second.BlockHash
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int64(1), rc.WatchBlocksCalls.Load())
}

func TestGetLatestBlockSubscriptionFailure(t *testing.T) {
	fail := true

	rc := &fakeRuntimeClient{
		WatchBlocksFn: func(ctx context.Context, _ *api.WatchBlocksRequest) (api.RuntimeClient_WatchBlocksClient, error) {
			if fail {
				return nil, errors.New("connection refused")
			}

			s := newFakeBlockStream(ctx)
			s.blocks <- testBlock(1)
			return s, nil
		},
	}
	c, _ := newTestClient(t, rc)

	_, err := c.GetLatestBlock(context.Background())
	assert.True(t, IsCallFailed(err))
	assert.Contains(t, err.Error(), "connection refused")

	fail = false

	b, err := c.GetLatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b.Round())
	assert.Equal(t, int64(2), rc.WatchBlocksCalls.Load())
}

func TestGetLatestBlockStreamEnds(t *testing.T) {
	var streams []*fakeBlockStream
	var mu sync.Mutex
	opened := make(chan struct{}, 2)

	rc := &fakeRuntimeClient{
		WatchBlocksFn: func(ctx context.Context, _ *api.WatchBlocksRequest) (api.RuntimeClient_WatchBlocksClient, error) {
			s := newFakeBlockStream(ctx)
			mu.Lock()
			streams = append(streams, s)
			mu.Unlock()
			opened <- struct{}{}
			return s, nil
		},
	}
	c, _ := newTestClient(t, rc)

	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() {
			_, err := c.GetLatestBlock(context.Background())
			errs <- err
		}()
	}

	<-opened
	mu.Lock()
	streams[0].errs <- io.EOF
	mu.Unlock()

	// every waiter of the dead subscription fails rather than hangs, later
	// callers may have started a new subscription which is ended too
	for i := 0; i < 3; i++ {
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrWatcherClosed)
		case <-opened:
			mu.Lock()
			streams[len(streams)-1].errs <- io.EOF
			mu.Unlock()
			i--
		case <-time.After(2 * time.Second):
			t.Fatal("waiter never released")
		}
	}

	go func() {
		<-opened
		mu.Lock()
		streams[len(streams)-1].blocks <- testBlock(7)
		mu.Unlock()
	}()

	b, err := c.GetLatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), b.Round())
}

func TestGetLatestBlockContextCancel(t *testing.T) {
	rc := &fakeRuntimeClient{
		WatchBlocksFn: func(ctx context.Context, _ *api.WatchBlocksRequest) (api.RuntimeClient_WatchBlocksClient, error) {
			return newFakeBlockStream(ctx), nil
		},
	}
	c, _ := newTestClient(t, rc)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.GetLatestBlock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	done := make(chan error)
	go func() {
		_, err := c.GetLatestBlock(context.Background())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	c.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrWatcherClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter not released on close")
	}

	assert.Equal(t, int64(1), rc.WatchBlocksCalls.Load())
}

func TestCall(t *testing.T) {
	rc := &fakeRuntimeClient{
		SubmitTxFn: func(_ context.Context, req *api.SubmitTxRequest) (*api.SubmitTxResponse, error) {
			call, err := transaction.DecodeCall(req.Data)
			if err != nil {
				return nil, err
			}

			if call.Method == "fail" {
				return &api.SubmitTxResponse{Output: encodeOutput(t, &transaction.Failure{Message: "no such key: x"})}, nil
			}

			s, err := transaction.NewSuccess("v")
			if err != nil {
				return nil, err
			}
			return &api.SubmitTxResponse{Output: encodeOutput(t, s)}, nil
		},
	}
	c, _ := newTestClient(t, rc)

	var v string
	require.NoError(t, c.Call(context.Background(), "get", "k", &v))
	assert.Equal(t, "v", v)

	require.NoError(t, c.Call(context.Background(), "get", "k", nil))

	err := c.Call(context.Background(), "fail", "x", &v)
	require.True(t, IsTxnFailed(err))
	assert.False(t, IsCallFailed(err))
	assert.Equal(t, "no such key: x", err.Error())

	var n int
	err = c.Call(context.Background(), "get", "k", &n)
	assert.Error(t, err)
	assert.False(t, IsTxnFailed(err))
}

func TestCallTransportFailure(t *testing.T) {
	rc := &fakeRuntimeClient{
		SubmitTxFn: func(ctx context.Context, _ *api.SubmitTxRequest) (*api.SubmitTxResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	c, _ := newTestClient(t, rc, WithTimeout(10*time.Millisecond))

	err := c.Call(context.Background(), "get", "k", nil)
	assert.True(t, IsCallFailed(err))
	assert.Equal(t, int64(1), rc.SubmitTxCalls.Load())

	_, err = New(rc, nil, block.Namespace{}, WithTimeout(-1))
	assert.Error(t, err)
}

func TestGetTxn(t *testing.T) {
	b := testBlock(5)

	in, err := transaction.NewTxnCall("insert", map[string]string{"key": "k", "value": "v"})
	require.NoError(t, err)
	input, err := in.Marshal()
	require.NoError(t, err)

	s, err := transaction.NewSuccess(nil)
	require.NoError(t, err)
	output := encodeOutput(t, s)

	rc := &fakeRuntimeClient{
		GetTxnFn: func(_ context.Context, req *api.GetTxnRequest) (*api.TxnResponse, error) {
			if req.Round != 5 || req.Index != 2 {
				return nil, errors.New("unexpected position")
			}
			return &api.TxnResponse{Block: b.Block, BlockHash: b.BlockHash, Input: input, Output: output}, nil
		},
	}
	c, _ := newTestClient(t, rc)

	txn, err := c.GetTxn(context.Background(), 5, 2)
	require.NoError(t, err)

	assert.Equal(t, uint64(5), txn.Round)
	assert.Equal(t, uint32(2), txn.Index)
	assert.Equal(t, input, txn.Input)
	assert.Equal(t, output, txn.Output)
	assert.Equal(t, *testHeader(5), txn.Header)
	assert.Equal(t, b.BlockHash, txn.Block().BlockHash)

	call, err := txn.Call()
	require.NoError(t, err)
	assert.Equal(t, "insert", call.Method)

	var prev *string
	require.NoError(t, txn.Result(&prev))
	assert.Nil(t, prev)
}

func TestQueryBlockIdempotent(t *testing.T) {
	b := testBlock(9)

	rc := &fakeRuntimeClient{
		QueryBlockFn: func(context.Context, *api.QueryBlockRequest) (*api.BlockResponse, error) {
			return b, nil
		},
	}
	c, _ := newTestClient(t, rc)

	first, err := c.QueryBlock(context.Background(), []byte("kv_hello"), []byte("insert"))
	require.NoError(t, err)
	second, err := c.QueryBlock(context.Background(), []byte("kv_hello"), []byte("insert"))
	require.NoError(t, err)

	assert.Equal(t, first.BlockHash, second.BlockHash)
}

func TestBlockSnapshotTransactions(t *testing.T) {
	ctx := context.Background()
	c, sc := newTestClient(t, &fakeRuntimeClient{})

	txns := []*transaction.Txn{
		{Input: []byte("in 0"), Output: []byte("out 0")},
		{Input: []byte("in 1"), Output: []byte("out 1")},
	}
	root, err := storage.PutTxns(ctx, sc.store, txns)
	require.NoError(t, err)

	h := block.NewGenesisHeader(block.Namespace{1}, root, hash.Hash{})
	snap, err := newBlockSnapshot(blockResponse(h), c.Store())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := snap.Transactions(ctx)
			assert.NoError(t, err)
			assert.Equal(t, txns, got)
		}()
	}
	wg.Wait()

	calls := sc.GetObjectCalls.Load()
	assert.LessOrEqual(t, calls, int64(5*3))

	got, err := snap.Transactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, txns, got)
	assert.Equal(t, calls, sc.GetObjectCalls.Load())

	missing, err := newBlockSnapshot(blockResponse(block.NewGenesisHeader(block.Namespace{}, hash.Digest([]byte("x")), hash.Hash{})), c.Store())
	require.NoError(t, err)
	_, err = missing.Transactions(ctx)
	assert.Error(t, err)
}

func TestGetLatestBlockAfterEmptySubscription(t *testing.T) {
	w := NewBlockWatcher(storage.NewMemStore(), logrus.NewEntry(logrus.New()))
	defer w.Close()

	require.True(t, w.StartSpawn())

	s := newFakeBlockStream(w.Context())
	s.errs <- io.EOF
	w.Spawn(s)

	assert.Eventually(t, func() bool {
		return w.state.Load() == stateNotStarted
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := w.GetLatestBlock(ctx)
	assert.ErrorIs(t, err, ErrWatcherClosed)
}

func TestMalformedBlockIsNotCallFailure(t *testing.T) {
	garbage := &api.BlockResponse{Block: []byte("garbage"), BlockHash: hash.Digest([]byte("garbage"))}

	rc := &fakeRuntimeClient{
		GetBlockFn: func(context.Context, *api.GetBlockRequest) (*api.BlockResponse, error) {
			return garbage, nil
		},
		QueryBlockFn: func(context.Context, *api.QueryBlockRequest) (*api.BlockResponse, error) {
			return garbage, nil
		},
		GetTxnFn: func(context.Context, *api.GetTxnRequest) (*api.TxnResponse, error) {
			return &api.TxnResponse{Block: garbage.Block, BlockHash: garbage.BlockHash}, nil
		},
		WatchBlocksFn: func(ctx context.Context, _ *api.WatchBlocksRequest) (api.RuntimeClient_WatchBlocksClient, error) {
			s := newFakeBlockStream(ctx)
			s.blocks <- garbage
			return s, nil
		},
	}
	c, _ := newTestClient(t, rc)
	ctx := context.Background()

	_, err := c.GetBlock(ctx, 1)
	require.Error(t, err)
	assert.False(t, IsCallFailed(err))

	_, err = c.QueryBlock(ctx, []byte("k"), []byte("v"))
	require.Error(t, err)
	assert.False(t, IsCallFailed(err))

	_, err = c.GetTxn(ctx, 1, 0)
	require.Error(t, err)
	assert.False(t, IsCallFailed(err))

	_, err = c.GetLatestBlock(ctx)
	require.Error(t, err)
	assert.False(t, IsCallFailed(err))
	assert.NotErrorIs(t, err, ErrWatcherClosed)
}
