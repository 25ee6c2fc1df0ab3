package runtime

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tcfw/runtimed/pkg/keymanager"
	"github.com/tcfw/runtimed/pkg/keymanager/mocks"
	"github.com/tcfw/runtimed/pkg/mkvs"
	"github.com/tcfw/runtimed/pkg/transaction"
)

type setArgs struct {
	Key  string `msgpack:"key"`
	Fail bool   `msgpack:"fail"`
}

func testDispatcher() *TxnDispatcher {
	d := NewTxnDispatcher()

	d.Register("set", Method(func(ctx *Context, args setArgs) (string, error) {
		if _, err := ctx.State().Insert(ctx.Context(), []byte(args.Key), []byte("set")); err != nil {
			return "", err
		}

		ctx.EmitBlockTag([]byte("op"), []byte("set"))
		ctx.EmitTxnTag([]byte("key"), []byte(args.Key))

		if args.Fail {
			return "", errors.New("asked to fail")
		}

		return "ok", nil
	}))

	return d
}

func call(t *testing.T, method string, args interface{}) []byte {
	c, err := transaction.NewTxnCall(method, args)
	require.NoError(t, err)

	b, err := c.Marshal()
	require.NoError(t, err)

	return b
}

func TestDispatchSuccess(t *testing.T) {
	ctx := context.Background()
	tree := mkvs.NewMemTree()
	d := testDispatcher()

	res, err := d.Dispatch(ctx, tree, call(t, "set", setArgs{Key: "a"}))
	require.NoError(t, err)
	assert.False(t, res.Failed)

	out, err := transaction.DecodeOutput(res.Output)
	require.NoError(t, err)
	require.IsType(t, &transaction.Success{}, out)

	var v string
	require.NoError(t, msgpack.Unmarshal(out.(*transaction.Success).Value, &v))
	assert.Equal(t, "ok", v)

	assert.True(t, res.BlockTags.Contains([]byte("op"), []byte("set")))
	assert.True(t, res.TxnTags.Contains([]byte("key"), []byte("a")))

	stored, err := tree.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("set"), stored)
}

func TestDispatchFailureLeavesNoWrites(t *testing.T) {
	ctx := context.Background()
	tree := mkvs.NewMemTree()
	d := testDispatcher()

	res, err := d.Dispatch(ctx, tree, call(t, "set", setArgs{Key: "a", Fail: true}))
	require.NoError(t, err)
	assert.True(t, res.Failed)
	assert.Empty(t, res.BlockTags)
	assert.Empty(t, res.TxnTags)

	out, err := transaction.DecodeOutput(res.Output)
	require.NoError(t, err)
	assert.Equal(t, &transaction.Failure{Message: "asked to fail"}, out)

	stored, err := tree.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDispatchBadInput(t *testing.T) {
	ctx := context.Background()
	d := testDispatcher()

	res, err := d.Dispatch(ctx, mkvs.NewMemTree(), call(t, "missing", nil))
	require.NoError(t, err)
	assert.True(t, res.Failed)

	out, err := transaction.DecodeOutput(res.Output)
	require.NoError(t, err)
	assert.Contains(t, out.(*transaction.Failure).Message, ErrUnknownMethod.Error())

	res, err = d.Dispatch(ctx, mkvs.NewMemTree(), []byte{0xc1})
	require.NoError(t, err)
	assert.True(t, res.Failed)
}

func TestExecuteBatch(t *testing.T) {
	ctx := context.Background()
	tree := mkvs.NewMemTree()
	d := testDispatcher()

	br, err := d.ExecuteBatch(ctx, tree, [][]byte{
		call(t, "set", setArgs{Key: "a"}),
		call(t, "set", setArgs{Key: "b", Fail: true}),
		call(t, "set", setArgs{Key: "c"}),
	})
	require.NoError(t, err)

	assert.Len(t, br.Outputs, 3)
	assert.Len(t, br.TxnTags, 3)
	assert.Empty(t, br.TxnTags[1])
	assert.True(t, br.TxnTags[2].Contains([]byte("key"), []byte("c")))
	assert.Len(t, br.BlockTags, 2)

	entries, err := tree.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestWithEncryption(t *testing.T) {
	ctx := context.Background()
	tree := mkvs.NewMemTree()

	km := mocks.NewClient(t)
	km.On("GetOrCreateKeys", mock.Anything, ContractIDFromKey([]byte("k"))).
		Return(&keymanager.ContractKey{StateKey: [32]byte{9}}, nil)
	km.On("GetOrCreateKeys", mock.Anything, ContractIDFromKey([]byte("bad"))).
		Return(nil, errors.New("key manager offline"))

	d := NewTxnDispatcher()
	d.SetContextInitializer(func(c *Context) { c.SetRuntime(km) })
	d.Register("put", Method(func(c *Context, key string) (bool, error) {
		return WithEncryption(c, c.Runtime().(keymanager.Client), []byte(key), func(m mkvs.MKVS) (bool, error) {
			prev, err := m.Insert(c.Context(), []byte(key), []byte("secret"))
			return prev == nil, err
		})
	}))

	res, err := d.Dispatch(ctx, tree, call(t, "put", "k"))
	require.NoError(t, err)
	assert.False(t, res.Failed)

	plain, err := tree.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Nil(t, plain)

	entries, err := tree.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	res, err = d.Dispatch(ctx, tree, call(t, "put", "bad"))
	require.NoError(t, err)
	assert.True(t, res.Failed)

	entries, err = tree.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
