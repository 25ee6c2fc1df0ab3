package runtime

import (
	"context"

	"github.com/tcfw/runtimed/pkg/mkvs"
	"github.com/tcfw/runtimed/pkg/transaction"
)

// Context is handed to each method invocation. It is only valid for the
// duration of that invocation.
type Context struct {
	ctx   context.Context
	state mkvs.MKVS

	runtime interface{}

	blockTags transaction.Tags
	txnTags   transaction.Tags
}

func newContext(ctx context.Context, state mkvs.MKVS) *Context {
	return &Context{ctx: ctx, state: state}
}

// Context returns the request scoped context of the invocation
func (c *Context) Context() context.Context {
	return c.ctx
}

// State returns the state the invocation reads and writes
func (c *Context) State() mkvs.MKVS {
	return c.state
}

// Runtime returns the services installed by the dispatcher's context
// initializer, nil if there is none
func (c *Context) Runtime() interface{} {
	return c.runtime
}

func (c *Context) SetRuntime(v interface{}) {
	c.runtime = v
}

// EmitBlockTag tags the block the transaction ends up in
func (c *Context) EmitBlockTag(key, value []byte) {
	c.blockTags = append(c.blockTags, transaction.Tag{Key: key, Value: value})
}

// EmitTxnTag tags the transaction itself
func (c *Context) EmitTxnTag(key, value []byte) {
	c.txnTags = append(c.txnTags, transaction.Tag{Key: key, Value: value})
}
