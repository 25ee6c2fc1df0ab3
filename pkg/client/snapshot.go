package client

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/tcfw/runtimed/api"
	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/hash"
	"github.com/tcfw/runtimed/pkg/storage"
	"github.com/tcfw/runtimed/pkg/transaction"
)

// BlockSnapshot is a committed block. Its transactions are only fetched
// from the store when first asked for.
type BlockSnapshot struct {
	Header    block.Header
	BlockHash hash.Hash

	store storage.ObjectReader

	sf   singleflight.Group
	mu   sync.Mutex
	txns []*transaction.Txn
}

// newBlockSnapshot decodes the header of resp. A decode error is returned
// as is so it is not mistaken for a transport failure.
func newBlockSnapshot(resp *api.BlockResponse, store storage.ObjectReader) (*BlockSnapshot, error) {
	h, err := block.Unmarshal(resp.Block)
	if err != nil {
		return nil, err
	}

	return &BlockSnapshot{
		Header:    *h,
		BlockHash: resp.BlockHash,
		store:     store,
	}, nil
}

// Round is the block's round number
func (b *BlockSnapshot) Round() uint64 {
	return b.Header.RoundNumber()
}

// Transactions resolves the transactions committed in the block. The result
// is kept for the lifetime of the snapshot once fetched successfully.
func (b *BlockSnapshot) Transactions(ctx context.Context) ([]*transaction.Txn, error) {
	b.mu.Lock()
	txns := b.txns
	b.mu.Unlock()

	if txns != nil {
		return txns, nil
	}

	v, err, _ := b.sf.Do("txns", func() (interface{}, error) {
		txns, err := storage.GetTxns(ctx, b.store, b.Header.TransactionHash)
		if err != nil {
			return nil, err
		}

		b.mu.Lock()
		b.txns = txns
		b.mu.Unlock()

		return txns, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]*transaction.Txn), nil
}

// TransactionSnapshot is a single committed transaction along with the
// block it was committed in
type TransactionSnapshot struct {
	Header    block.Header
	BlockHash hash.Hash
	Round     uint64
	Index     uint32
	Input     []byte
	Output    []byte

	store storage.ObjectReader
}

func newTransactionSnapshot(resp *api.TxnResponse, store storage.ObjectReader) (*TransactionSnapshot, error) {
	h, err := block.Unmarshal(resp.Block)
	if err != nil {
		return nil, err
	}

	return &TransactionSnapshot{
		Header:    *h,
		BlockHash: resp.BlockHash,
		Round:     h.RoundNumber(),
		Index:     resp.Index,
		Input:     resp.Input,
		Output:    resp.Output,
		store:     store,
	}, nil
}

// Call decodes the submitted call
func (t *TransactionSnapshot) Call() (*transaction.TxnCall, error) {
	return transaction.DecodeCall(t.Input)
}

// Result decodes the output of the call into out
func (t *TransactionSnapshot) Result(out interface{}) error {
	return ParseCallOutput(t.Output, out)
}

// Block returns a snapshot of the enclosing block
func (t *TransactionSnapshot) Block() *BlockSnapshot {
	return &BlockSnapshot{
		Header:    t.Header,
		BlockHash: t.BlockHash,
		store:     t.store,
	}
}
