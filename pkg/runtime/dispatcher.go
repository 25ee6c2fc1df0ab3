package runtime

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tcfw/runtimed/pkg/mkvs"
	"github.com/tcfw/runtimed/pkg/transaction"
)

var (
	ErrUnknownMethod = errors.New("unknown method")
)

// MethodHandler runs a single call against the invocation context returning
// the encoded result
type MethodHandler func(ctx *Context, args msgpack.RawMessage) ([]byte, error)

// Method adapts a typed handler into a MethodHandler, decoding args into A
// and encoding the returned R
func Method[A any, R any](fn func(*Context, A) (R, error)) MethodHandler {
	return func(ctx *Context, raw msgpack.RawMessage) ([]byte, error) {
		var args A
		if err := msgpack.Unmarshal(raw, &args); err != nil {
			return nil, errors.Wrap(err, "decoding args")
		}

		res, err := fn(ctx, args)
		if err != nil {
			return nil, err
		}

		return msgpack.Marshal(res)
	}
}

// Result is the outcome of dispatching one transaction
type Result struct {
	Output    []byte
	Failed    bool
	BlockTags transaction.Tags
	TxnTags   transaction.Tags
}

// BatchResult is the outcome of dispatching a batch in order
type BatchResult struct {
	Outputs   [][]byte
	BlockTags transaction.Tags
	TxnTags   []transaction.Tags
}

// TxnDispatcher routes calls to the registered method handlers
type TxnDispatcher struct {
	mu       sync.RWMutex
	methods  map[string]MethodHandler
	initFunc func(*Context)
}

func NewTxnDispatcher() *TxnDispatcher {
	return &TxnDispatcher{methods: make(map[string]MethodHandler)}
}

func (d *TxnDispatcher) Register(name string, h MethodHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.methods[name] = h
}

// SetContextInitializer installs fn to be run on every invocation context
// before the handler is called
func (d *TxnDispatcher) SetContextInitializer(fn func(*Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.initFunc = fn
}

func (d *TxnDispatcher) handler(method string) (MethodHandler, func(*Context), bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	h, ok := d.methods[method]
	return h, d.initFunc, ok
}

func failure(msg string) (*Result, error) {
	out, err := transaction.EncodeOutput(&transaction.Failure{Message: msg})
	if err != nil {
		return nil, err
	}

	return &Result{Output: out, Failed: true}, nil
}

// Dispatch runs a single transaction input against tree. Writes are only
// applied to tree if the handler succeeds; a failed handler leaves no writes
// or tags behind and yields a Failure output. The returned error is
// reserved for failures of tree itself.
func (d *TxnDispatcher) Dispatch(ctx context.Context, tree mkvs.Tree, input []byte) (*Result, error) {
	call, err := transaction.DecodeCall(input)
	if err != nil {
		return failure(errors.Wrap(err, "malformed call").Error())
	}

	h, init, ok := d.handler(call.Method)
	if !ok {
		return failure(errors.Wrap(ErrUnknownMethod, call.Method).Error())
	}

	overlay := mkvs.NewOverlay(tree)
	rctx := newContext(ctx, overlay)
	if init != nil {
		init(rctx)
	}

	res, err := h(rctx, call.Args)
	if err != nil {
		overlay.Discard()
		return failure(err.Error())
	}

	if err := overlay.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "committing txn writes")
	}

	out, err := transaction.EncodeOutput(&transaction.Success{Value: res})
	if err != nil {
		return nil, err
	}

	return &Result{
		Output:    out,
		BlockTags: rctx.blockTags,
		TxnTags:   rctx.txnTags,
	}, nil
}

// ExecuteBatch dispatches inputs in order against tree
func (d *TxnDispatcher) ExecuteBatch(ctx context.Context, tree mkvs.Tree, inputs [][]byte) (*BatchResult, error) {
	br := &BatchResult{
		Outputs: make([][]byte, 0, len(inputs)),
		TxnTags: make([]transaction.Tags, 0, len(inputs)),
	}

	for i, in := range inputs {
		res, err := d.Dispatch(ctx, tree, in)
		if err != nil {
			return nil, errors.Wrapf(err, "dispatching txn %d", i)
		}

		br.Outputs = append(br.Outputs, res.Output)
		br.BlockTags = append(br.BlockTags, res.BlockTags...)
		br.TxnTags = append(br.TxnTags, res.TxnTags)
	}

	return br, nil
}
