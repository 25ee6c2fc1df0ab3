package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcfw/runtimed/internal/runtime/keyvalue"
	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/hash"
	"github.com/tcfw/runtimed/pkg/transaction"
)

func TestParseArgs(t *testing.T) {
	v, err := parseArgs(`{"key": "a", "value": "b"}`, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"key": "a", "value": "b"}, v)

	v, err = parseArgs("key: a", false)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"key": "a"}, v)

	v, err = parseArgs("{not yaml", true)
	require.NoError(t, err)
	assert.Equal(t, "{not yaml", v)

	_, err = parseArgs("{not yaml", false)
	assert.Error(t, err)
}

func TestKVMethod(t *testing.T) {
	assert.Equal(t, keyvalue.MethodInsert, kvMethod("insert", false))
	assert.Equal(t, keyvalue.MethodEncInsert, kvMethod("insert", true))
	assert.Equal(t, keyvalue.MethodGet, kvMethod("get", false))
	assert.Equal(t, keyvalue.MethodEncGet, kvMethod("get", true))
	assert.Equal(t, keyvalue.MethodRemove, kvMethod("remove", false))
	assert.Equal(t, keyvalue.MethodEncRemove, kvMethod("remove", true))
}

func TestDecodeCallAndResult(t *testing.T) {
	call, err := transaction.NewTxnCall(keyvalue.MethodGet, "hello")
	require.NoError(t, err)
	in, err := call.Marshal()
	require.NoError(t, err)

	method, args := decodeCall(in)
	assert.Equal(t, keyvalue.MethodGet, method)
	assert.Equal(t, "hello", args)

	method, args = decodeCall([]byte{0xc1})
	assert.Empty(t, method)
	assert.Equal(t, "c1", args)

	s, err := transaction.NewSuccess("world")
	require.NoError(t, err)
	out, err := transaction.EncodeOutput(s)
	require.NoError(t, err)

	res, msg := decodeResult(out)
	assert.Equal(t, "world", res)
	assert.Empty(t, msg)

	out, err = transaction.EncodeOutput(&transaction.Failure{Message: "no such key"})
	require.NoError(t, err)

	res, msg = decodeResult(out)
	assert.Nil(t, res)
	assert.Equal(t, "no such key", msg)
}

func TestBlockView(t *testing.T) {
	h := block.NewGenesisHeader(block.Namespace{1}, hash.Digest([]byte("txs")), hash.Digest([]byte("state")))
	id, err := h.EncodedHash()
	require.NoError(t, err)

	v := newBlockView(h, id)
	assert.Equal(t, uint64(0), v.Round)
	assert.Equal(t, id.String(), v.Hash)
	assert.Equal(t, h.StateRoot.String(), v.StateRoot)
	assert.Equal(t, h.Namespace.String(), v.Namespace)
}
