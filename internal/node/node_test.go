package node

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tcfw/runtimed/internal/runtime/keyvalue"
	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/keymanager"
	"github.com/tcfw/runtimed/pkg/mkvs"
	"github.com/tcfw/runtimed/pkg/runtime"
	"github.com/tcfw/runtimed/pkg/storage"
	"github.com/tcfw/runtimed/pkg/transaction"
)

var testRuntimeID = block.Namespace{0xaa}

func newTestNode(t *testing.T, store storage.Store, tree mkvs.Tree, id block.Namespace) *Node {
	km, err := keymanager.NewLocalClient(bytes.Repeat([]byte{3}, keymanager.KeySize))
	if err != nil {
		t.Fatal(err)
	}

	d := runtime.NewTxnDispatcher()
	keyvalue.Register(d, km)

	n, err := NewNode(context.Background(),
		WithStore(store),
		WithTree(tree),
		WithDispatcher(d),
		WithRuntimeID(id),
		WithBlockInterval(5*time.Millisecond),
		WithMaxBatchSize(10),
	)
	if err != nil {
		t.Fatal(err)
	}

	return n
}

func startNode(t *testing.T, n *Node) {
	errs := make(chan error, 1)
	go func() { errs <- n.ListenAndServe() }()

	t.Cleanup(func() {
		n.Stop()
		assert.NoError(t, <-errs)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, n.WaitSync(ctx))
}

func submit(t *testing.T, n *Node, method string, args interface{}) *string {
	c, err := transaction.NewTxnCall(method, args)
	require.NoError(t, err)
	in, err := c.Marshal()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := n.Submit(ctx, in)
	require.NoError(t, err)

	o, err := transaction.DecodeOutput(out)
	require.NoError(t, err)
	s, ok := o.(*transaction.Success)
	require.True(t, ok, "call failed: %v", o)

	var v *string
	require.NoError(t, msgpack.Unmarshal(s.Value, &v))
	return v
}

func TestNodeSubmit(t *testing.T) {
	store := storage.NewMemStore()
	n := newTestNode(t, store, mkvs.NewMemTree(), testRuntimeID)

	assert.False(t, n.IsSynced())
	startNode(t, n)
	assert.True(t, n.IsSynced())

	genesis := n.Head()
	assert.Equal(t, uint64(0), genesis.Header.RoundNumber())
	assert.Equal(t, testRuntimeID, genesis.Header.Namespace)

	blocks, release := n.Subscribe()
	defer release()

	prev := submit(t, n, keyvalue.MethodInsert, keyvalue.KeyValue{Key: "k", Value: "v"})
	assert.Nil(t, prev)

	v := submit(t, n, keyvalue.MethodGet, "k")
	require.NotNil(t, v)
	assert.Equal(t, "v", *v)

	var b1 *storage.BlockRecord
	select {
	case b1 = <-blocks:
	case <-time.After(time.Second):
		t.Fatal("no block published")
	}
	assert.True(t, genesis.Header.IsParentOf(&b1.Header))

	ctx := context.Background()

	q, err := store.QueryBlock(ctx, keyvalue.TagBlockHello, []byte("insert"))
	require.NoError(t, err)
	assert.Equal(t, b1.Hash, q.Hash)

	byHash, err := store.QueryBlock(ctx, block.TagBlockHash, b1.Hash[:])
	require.NoError(t, err)
	assert.Equal(t, b1.Hash, byHash.Hash)

	qb, idx, err := store.QueryTxn(ctx, keyvalue.TagTxnOp, []byte("get"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), idx)

	txn, err := storage.GetTxn(ctx, store, qb.Header.TransactionHash, idx)
	require.NoError(t, err)
	call, err := transaction.DecodeCall(txn.Input)
	require.NoError(t, err)
	assert.Equal(t, keyvalue.MethodGet, call.Method)
}

func TestNodeRestart(t *testing.T) {
	store := storage.NewMemStore()
	tree := mkvs.NewMemTree()

	n := newTestNode(t, store, tree, testRuntimeID)
	require.NoError(t, n.sync(context.Background()))
	genesis := n.Head()

	again := newTestNode(t, store, tree, testRuntimeID)
	require.NoError(t, again.sync(context.Background()))
	assert.Equal(t, genesis.Hash, again.Head().Hash)

	other := newTestNode(t, store, tree, block.Namespace{0xbb})
	assert.Error(t, other.sync(context.Background()))
}

func TestNodeStop(t *testing.T) {
	n := newTestNode(t, storage.NewMemStore(), mkvs.NewMemTree(), testRuntimeID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, n.WaitSync(ctx), context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() {
		_, err := n.Submit(context.Background(), []byte("never produced"))
		done <- err
	}()

	assert.Eventually(t, func() bool { return n.pool.Len() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, n.Stop())
	assert.ErrorIs(t, <-done, ErrStopped)

	_, err := n.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, n.WaitSync(context.Background()), ErrStopped)
}

func TestNodeOptions(t *testing.T) {
	_, err := NewNode(context.Background())
	assert.Error(t, err)

	_, err = NewNode(context.Background(), WithMaxBatchSize(storage.MaxBlockTxCount+1))
	assert.Error(t, err)

	_, err = NewNode(context.Background(), WithBlockInterval(0))
	assert.Error(t, err)
}

func TestCallPoolOrder(t *testing.T) {
	p := newCallPool()

	for i := 0; i < 5; i++ {
		p.Add([]byte{byte(i)})
	}

	first := p.Take(3)
	require.Len(t, first, 3)
	for i, c := range first {
		assert.Equal(t, []byte{byte(i)}, c.data)
	}

	rest := p.Take(10)
	require.Len(t, rest, 2)
	assert.Equal(t, []byte{3}, rest[0].data)
	assert.Equal(t, 0, p.Len())
}

func TestBlockEvents(t *testing.T) {
	evt := newBlockEvents()

	a := evt.Acquire("a")
	b := evt.Acquire("b")

	rec := &storage.BlockRecord{}
	evt.Send(rec)

	assert.Equal(t, rec, <-a)
	assert.Equal(t, rec, <-b)

	require.NoError(t, evt.Release("a"))
	assert.Error(t, evt.Release("a"))

	_, ok := <-a
	assert.False(t, ok)

	evt.Shutdown()
	_, ok = <-b
	assert.False(t, ok)
}

// failingIndexStore accepts the genesis block then refuses to index more
type failingIndexStore struct {
	storage.Store

	blocks int
}

func (s *failingIndexStore) PutBlock(ctx context.Context, b *storage.BlockRecord, blockTags transaction.Tags, txnTags []transaction.Tags) error {
	if s.blocks > 0 {
		return errors.New("disk full")
	}
	s.blocks++

	return s.Store.PutBlock(ctx, b, blockTags, txnTags)
}

func TestNodeIndexFailureRollsBackState(t *testing.T) {
	ctx := context.Background()
	tree := mkvs.NewMemTree()
	n := newTestNode(t, &failingIndexStore{Store: storage.NewMemStore()}, tree, testRuntimeID)
	startNode(t, n)

	genesisRoot := n.Head().Header.StateRoot

	c, err := transaction.NewTxnCall(keyvalue.MethodInsert, &keyvalue.KeyValue{Key: "k", Value: "v"})
	require.NoError(t, err)
	in, err := c.Marshal()
	require.NoError(t, err)

	sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err = n.Submit(sctx, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	v, err := tree.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Nil(t, v)

	root, err := tree.Root(ctx)
	require.NoError(t, err)
	assert.Equal(t, genesisRoot, root)
	assert.Equal(t, uint64(0), n.Head().Header.RoundNumber())
}
