package storage

import (
	"context"

	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/hash"
	"github.com/tcfw/runtimed/pkg/transaction"
)

const (
	MaxBlockTxCount = 1000
)

// ObjectReader resolves content addressed objects by their hash
type ObjectReader interface {
	GetObject(context.Context, hash.Hash) ([]byte, error)
}

// ObjectStore stores objects addressed by the hash of their content
type ObjectStore interface {
	ObjectReader
	PutObject(context.Context, []byte) (hash.Hash, error)
}

// BlockRecord is a committed block header along with its hash and the
// bloom of the transaction tags emitted in it
type BlockRecord struct {
	Header   block.Header `msgpack:"h"`
	Hash     hash.Hash    `msgpack:"i"`
	TagBloom []byte       `msgpack:"b,omitempty"`
}

func NewBlockRecord(h *block.Header, txnTags []transaction.Tags) (*BlockRecord, error) {
	bh, err := h.EncodedHash()
	if err != nil {
		return nil, err
	}

	bloom, err := MakeTagBloom(txnTags)
	if err != nil {
		return nil, err
	}

	return &BlockRecord{Header: *h, Hash: bh, TagBloom: bloom}, nil
}

// BlockIndex provides lookups of committed blocks. Tag lookups resolve
// to the most recently committed match.
type BlockIndex interface {
	PutBlock(ctx context.Context, b *BlockRecord, blockTags transaction.Tags, txnTags []transaction.Tags) error

	GetBlockByRound(context.Context, uint64) (*BlockRecord, error)
	GetBlockByHash(context.Context, hash.Hash) (*BlockRecord, error)
	GetLatestBlock(context.Context) (*BlockRecord, error)

	QueryBlock(ctx context.Context, key, value []byte) (*BlockRecord, error)
	QueryTxn(ctx context.Context, key, value []byte) (*BlockRecord, uint32, error)
}

type Store interface {
	ObjectStore
	BlockIndex
}
