package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/hash"
	"github.com/tcfw/runtimed/pkg/transaction"
)

func tag(k, v string) transaction.Tag {
	return transaction.Tag{Key: []byte(k), Value: []byte(v)}
}

func commitTestBlock(t *testing.T, s Store, parent *block.Header, txns []*transaction.Txn, blockTags transaction.Tags, txnTags []transaction.Tags) *BlockRecord {
	ctx := context.Background()

	root, err := PutTxns(ctx, s, txns)
	require.NoError(t, err)

	var h *block.Header
	if parent == nil {
		var ns block.Namespace
		h = block.NewGenesisHeader(ns, root, hash.Hash{})
	} else {
		h, err = block.NewChildHeader(parent, root, hash.Hash{})
		require.NoError(t, err)
	}

	rec, err := NewBlockRecord(h, txnTags)
	require.NoError(t, err)

	require.NoError(t, s.PutBlock(ctx, rec, blockTags, txnTags))

	return rec
}

func TestMemStoreObjects(t *testing.T) {
	m := NewMemStore()

	id, err := m.PutObject(context.Background(), []byte("object"))
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, hash.Digest([]byte("object")), id)

	d, err := m.GetObject(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []byte("object"), d)

	_, err = m.GetObject(context.Background(), hash.Digest([]byte("missing")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreTxns(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	txns := []*transaction.Txn{
		{Input: []byte("in 0"), Output: []byte("out 0")},
		{Input: []byte("in 1"), Output: []byte("out 1")},
	}

	root, err := PutTxns(ctx, m, txns)
	if err != nil {
		t.Fatal(err)
	}

	all, err := GetTxns(ctx, m, root)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, txns, all)

	one, err := GetTxn(ctx, m, root, 1)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, txns[1], one)

	_, err = GetTxn(ctx, m, root, 2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	emptyRoot, err := PutTxns(ctx, m, nil)
	if err != nil {
		t.Fatal(err)
	}

	none, err := GetTxns(ctx, m, emptyRoot)
	if err != nil {
		t.Fatal(err)
	}
	assert.Empty(t, none)
}

func TestMemStoreBlocks(t *testing.T) {
	testStoreBlocks(t, NewMemStore())
}

func testStoreBlocks(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.GetLatestBlock(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.QueryTxn(ctx, []byte("kv_op"), []byte("insert"))
	assert.ErrorIs(t, err, ErrNotFound)

	genesis := commitTestBlock(t, s, nil, nil, nil, nil)

	b1 := commitTestBlock(t, s, &genesis.Header,
		[]*transaction.Txn{{Input: []byte("a")}, {Input: []byte("b")}},
		transaction.Tags{tag("kv_hello", "insert")},
		[]transaction.Tags{{tag("kv_op", "insert"), tag("kv_key", "a")}, {tag("kv_op", "insert"), tag("kv_key", "b")}},
	)

	b2 := commitTestBlock(t, s, &b1.Header,
		[]*transaction.Txn{{Input: []byte("c")}},
		transaction.Tags{tag("kv_hello", "get")},
		[]transaction.Tags{{tag("kv_op", "get"), tag("kv_key", "a")}},
	)

	latest, err := s.GetLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, b2.Hash, latest.Hash)

	byRound, err := s.GetBlockByRound(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, b1.Hash, byRound.Hash)
	assert.True(t, genesis.Header.IsParentOf(&byRound.Header))

	byLatest, err := s.GetBlockByRound(ctx, block.RoundLatest)
	require.NoError(t, err)
	assert.Equal(t, b2.Hash, byLatest.Hash)

	byHash, err := s.GetBlockByHash(ctx, genesis.Hash)
	require.NoError(t, err)
	assert.Equal(t, genesis.Header, byHash.Header)

	_, err = s.GetBlockByRound(ctx, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	q, err := s.QueryBlock(ctx, []byte("kv_hello"), []byte("insert"))
	require.NoError(t, err)
	assert.Equal(t, b1.Hash, q.Hash)

	again, err := s.QueryBlock(ctx, []byte("kv_hello"), []byte("insert"))
	require.NoError(t, err)
	assert.Equal(t, q.Hash, again.Hash)

	_, err = s.QueryBlock(ctx, []byte("kv_hello"), []byte("remove"))
	assert.ErrorIs(t, err, ErrNotFound)

	qb, idx, err := s.QueryTxn(ctx, []byte("kv_key"), []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, b1.Hash, qb.Hash)
	assert.Equal(t, uint32(1), idx)

	// kv_key=a is tagged in both blocks, the latest wins
	qb, idx, err = s.QueryTxn(ctx, []byte("kv_key"), []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, b2.Hash, qb.Hash)
	assert.Equal(t, uint32(0), idx)

	err = s.PutBlock(ctx, b1, nil, nil)
	assert.ErrorIs(t, err, ErrBlockExists)
}

func TestMemStoreQueryBlockSeparatorInTag(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	genesis := commitTestBlock(t, s, nil, nil, transaction.Tags{tag("a\x00b", "c")}, nil)
	child := commitTestBlock(t, s, &genesis.Header, nil, transaction.Tags{tag("a", "b\x00c")}, nil)

	b, err := s.QueryBlock(ctx, []byte("a\x00b"), []byte("c"))
	require.NoError(t, err)
	assert.Equal(t, genesis.Hash, b.Hash)

	b, err = s.QueryBlock(ctx, []byte("a"), []byte("b\x00c"))
	require.NoError(t, err)
	assert.Equal(t, child.Hash, b.Hash)
}
