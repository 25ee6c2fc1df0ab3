package client

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tcfw/runtimed/api"
	"github.com/tcfw/runtimed/internal/utils/logging"
	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/hash"
	"github.com/tcfw/runtimed/pkg/storage"
	"github.com/tcfw/runtimed/pkg/transaction"
)

type Option func(*Client) error

// WithTimeout bounds every unary call made to the node
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = d
		return nil
	}
}

func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) error {
		c.log = l
		return nil
	}
}

// Client submits calls to, and reads the chain of, a single runtime on a node
type Client struct {
	rc        api.RuntimeClientClient
	store     storage.ObjectReader
	runtimeID block.Namespace

	timeout time.Duration
	log     *logrus.Entry

	watcher *BlockWatcher
}

func New(rc api.RuntimeClientClient, sc api.StorageClient, runtimeID block.Namespace, opts ...Option) (*Client, error) {
	c := &Client{
		rc:        rc,
		store:     &remoteObjects{sc: sc},
		runtimeID: runtimeID,
		log:       logging.Entry().WithField("runtime", runtimeID.String()),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.Wrap(err, "applying client option")
		}
	}

	c.watcher = NewBlockWatcher(c.store, c.log)

	return c, nil
}

// Store is the object store snapshots resolve from
func (c *Client) Store() storage.ObjectReader {
	return c.store
}

func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout == 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.timeout)
}

// Call submits method with args and decodes a successful result into out.
// A nil out discards the result.
func (c *Client) Call(ctx context.Context, method string, args interface{}, out interface{}) error {
	call, err := transaction.NewTxnCall(method, args)
	if err != nil {
		return err
	}

	data, err := call.Marshal()
	if err != nil {
		return err
	}

	output, err := c.SubmitTxRaw(ctx, data)
	if err != nil {
		return err
	}

	return ParseCallOutput(output, out)
}

// ParseCallOutput decodes an output envelope. A Failure is returned as a
// *TxnFailedError carrying the runtime's message.
func ParseCallOutput(data []byte, out interface{}) error {
	o, err := transaction.DecodeOutput(data)
	if err != nil {
		return err
	}

	switch v := o.(type) {
	case *transaction.Success:
		if out == nil {
			return nil
		}
		return msgpack.Unmarshal(v.Value, out)
	case *transaction.Failure:
		return &TxnFailedError{Message: v.Message}
	default:
		return errors.Errorf("unexpected output %T", o)
	}
}

// SubmitTxRaw submits an encoded call returning the encoded output
func (c *Client) SubmitTxRaw(ctx context.Context, data []byte) ([]byte, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.rc.SubmitTx(ctx, &api.SubmitTxRequest{RuntimeID: c.runtimeID, Data: data})
	if err != nil {
		return nil, callFailed(err)
	}

	return resp.Output, nil
}

// WaitSync blocks until the node has synced
func (c *Client) WaitSync(ctx context.Context) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	if _, err := c.rc.WaitSync(ctx, &api.WaitSyncRequest{}); err != nil {
		return callFailed(err)
	}

	return nil
}

func (c *Client) IsSynced(ctx context.Context) (bool, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.rc.IsSynced(ctx, &api.IsSyncedRequest{})
	if err != nil {
		return false, callFailed(err)
	}

	return resp.Synced, nil
}

// GetLatestBlock returns the most recent block seen on the block
// subscription, opening the subscription on first use
func (c *Client) GetLatestBlock(ctx context.Context) (*BlockSnapshot, error) {
	if c.watcher.StartSpawn() {
		stream, err := c.rc.WatchBlocks(c.watcher.Context(), &api.WatchBlocksRequest{RuntimeID: c.runtimeID})
		if err != nil {
			c.watcher.CancelSpawn()
			return nil, callFailed(err)
		}

		c.watcher.Spawn(stream)
	}

	return c.watcher.GetLatestBlock(ctx)
}

// GetBlock returns the block at round. block.RoundLatest requests the most
// recent block.
func (c *Client) GetBlock(ctx context.Context, round uint64) (*BlockSnapshot, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.rc.GetBlock(ctx, &api.GetBlockRequest{RuntimeID: c.runtimeID, Round: round})
	if err != nil {
		return nil, callFailed(err)
	}

	return newBlockSnapshot(resp, c.store)
}

func (c *Client) GetTxn(ctx context.Context, round uint64, index uint32) (*TransactionSnapshot, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.rc.GetTxn(ctx, &api.GetTxnRequest{RuntimeID: c.runtimeID, Round: round, Index: index})
	if err != nil {
		return nil, callFailed(err)
	}

	resp.Index = index
	return newTransactionSnapshot(resp, c.store)
}

func (c *Client) GetTxnByBlockHash(ctx context.Context, blockHash hash.Hash, index uint32) (*TransactionSnapshot, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.rc.GetTxnByBlockHash(ctx, &api.GetTxnByBlockHashRequest{RuntimeID: c.runtimeID, BlockHash: blockHash, Index: index})
	if err != nil {
		return nil, callFailed(err)
	}

	resp.Index = index
	return newTransactionSnapshot(resp, c.store)
}

// GetTransactions returns the inputs of the transactions committed under root
func (c *Client) GetTransactions(ctx context.Context, root hash.Hash) (transaction.TxnBatch, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.rc.GetTransactions(ctx, &api.GetTransactionsRequest{RuntimeID: c.runtimeID, Root: root})
	if err != nil {
		return nil, callFailed(err)
	}

	return transaction.TxnBatch(resp.Txns), nil
}

// QueryBlock returns the latest block tagged with key and value
func (c *Client) QueryBlock(ctx context.Context, key, value []byte) (*BlockSnapshot, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.rc.QueryBlock(ctx, &api.QueryBlockRequest{RuntimeID: c.runtimeID, Key: key, Value: value})
	if err != nil {
		return nil, callFailed(err)
	}

	return newBlockSnapshot(resp, c.store)
}

// QueryTxn returns the latest transaction tagged with key and value
func (c *Client) QueryTxn(ctx context.Context, key, value []byte) (*TransactionSnapshot, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.rc.QueryTxn(ctx, &api.QueryTxnRequest{RuntimeID: c.runtimeID, Key: key, Value: value})
	if err != nil {
		return nil, callFailed(err)
	}

	return newTransactionSnapshot(resp, c.store)
}

// Close stops the block subscription. The underlying connection is left
// to its owner.
func (c *Client) Close() error {
	c.watcher.Close()
	return nil
}

// remoteObjects reads objects through the node's storage service
type remoteObjects struct {
	sc api.StorageClient
}

func (r *remoteObjects) GetObject(ctx context.Context, id hash.Hash) ([]byte, error) {
	resp, err := r.sc.GetObject(ctx, &api.GetObjectRequest{ID: id})
	if err != nil {
		return nil, callFailed(err)
	}

	return resp.Data, nil
}
