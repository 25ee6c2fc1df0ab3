// Package keyvalue is a simple key value runtime with plain and encrypted
// variants of insert, get and remove.
package keyvalue

import (
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/tcfw/runtimed/pkg/keymanager"
	"github.com/tcfw/runtimed/pkg/mkvs"
	"github.com/tcfw/runtimed/pkg/runtime"
)

const (
	MethodInsert    = "insert"
	MethodGet       = "get"
	MethodRemove    = "remove"
	MethodEncInsert = "enc_insert"
	MethodEncGet    = "enc_get"
	MethodEncRemove = "enc_remove"
)

var (
	TagBlockHello = []byte("kv_hello")
	TagTxnOp      = []byte("kv_op")
	TagTxnKey     = []byte("kv_key")

	ErrInvalidUTF8 = errors.New("stored value is not valid utf-8")
)

// KeyValue is the argument of insert
type KeyValue struct {
	Key   string `msgpack:"key"`
	Value string `msgpack:"value"`
}

type runtimeContext struct {
	km keymanager.Client
}

// Register adds the key value methods to d. km backs the encrypted methods.
func Register(d *runtime.TxnDispatcher, km keymanager.Client) {
	d.Register(MethodInsert, runtime.Method(insert))
	d.Register(MethodGet, runtime.Method(get))
	d.Register(MethodRemove, runtime.Method(remove))
	d.Register(MethodEncInsert, runtime.Method(encInsert))
	d.Register(MethodEncGet, runtime.Method(encGet))
	d.Register(MethodEncRemove, runtime.Method(encRemove))

	d.SetContextInitializer(func(ctx *runtime.Context) {
		ctx.SetRuntime(&runtimeContext{km: km})
	})
}

func toString(v []byte) (*string, error) {
	if v == nil {
		return nil, nil
	}

	if !utf8.Valid(v) {
		return nil, ErrInvalidUTF8
	}

	s := string(v)
	return &s, nil
}

func emitTags(ctx *runtime.Context, op, key string) {
	ctx.EmitBlockTag(TagBlockHello, []byte(op))
	ctx.EmitTxnTag(TagTxnOp, []byte(op))
	ctx.EmitTxnTag(TagTxnKey, []byte(key))
}

func insert(ctx *runtime.Context, args KeyValue) (*string, error) {
	emitTags(ctx, MethodInsert, args.Key)

	prev, err := ctx.State().Insert(ctx.Context(), []byte(args.Key), []byte(args.Value))
	if err != nil {
		return nil, err
	}

	return toString(prev)
}

func get(ctx *runtime.Context, key string) (*string, error) {
	emitTags(ctx, MethodGet, key)

	v, err := ctx.State().Get(ctx.Context(), []byte(key))
	if err != nil {
		return nil, err
	}

	return toString(v)
}

func remove(ctx *runtime.Context, key string) (*string, error) {
	emitTags(ctx, MethodRemove, key)

	prev, err := ctx.State().Remove(ctx.Context(), []byte(key))
	if err != nil {
		return nil, err
	}

	return toString(prev)
}

func withEncryption(ctx *runtime.Context, key string, fn func(mkvs.MKVS) ([]byte, error)) (*string, error) {
	rctx, ok := ctx.Runtime().(*runtimeContext)
	if !ok {
		return nil, errors.New("runtime context not initialized")
	}

	v, err := runtime.WithEncryption(ctx, rctx.km, []byte(key), fn)
	if err != nil {
		return nil, err
	}

	return toString(v)
}

func encInsert(ctx *runtime.Context, args KeyValue) (*string, error) {
	return withEncryption(ctx, args.Key, func(m mkvs.MKVS) ([]byte, error) {
		return m.Insert(ctx.Context(), []byte(args.Key), []byte(args.Value))
	})
}

func encGet(ctx *runtime.Context, key string) (*string, error) {
	return withEncryption(ctx, key, func(m mkvs.MKVS) ([]byte, error) {
		return m.Get(ctx.Context(), []byte(key))
	})
}

func encRemove(ctx *runtime.Context, key string) (*string, error) {
	return withEncryption(ctx, key, func(m mkvs.MKVS) ([]byte, error) {
		return m.Remove(ctx.Context(), []byte(key))
	})
}
