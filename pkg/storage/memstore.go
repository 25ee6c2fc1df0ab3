package storage

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"

	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/hash"
	"github.com/tcfw/runtimed/pkg/transaction"
)

var (
	_ Store = (*MemStore)(nil)
)

type MemStore struct {
	mu     sync.RWMutex
	metaMu sync.RWMutex

	objects map[cid.Cid][]byte

	blocks    map[hash.Hash]*BlockRecord
	rounds    map[uint64]hash.Hash
	blockTags map[string]hash.Hash
	txnTags   map[hash.Hash][]transaction.Tags

	latest    hash.Hash
	hasLatest bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		objects:   make(map[cid.Cid][]byte),
		blocks:    make(map[hash.Hash]*BlockRecord),
		rounds:    make(map[uint64]hash.Hash),
		blockTags: make(map[string]hash.Hash),
		txnTags:   make(map[hash.Hash][]transaction.Tags),
	}
}

func (m *MemStore) PutObject(_ context.Context, d []byte) (hash.Hash, error) {
	id := hash.Digest(d)

	cpy := make([]byte, len(d))
	copy(cpy, d)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[id.CID()] = cpy

	return id, nil
}

func (m *MemStore) GetObject(_ context.Context, id hash.Hash) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.objects[id.CID()]
	if !ok {
		return nil, ErrNotFound
	}

	return d, nil
}

func (m *MemStore) PutBlock(_ context.Context, b *BlockRecord, blockTags transaction.Tags, txnTags []transaction.Tags) error {
	m.metaMu.Lock()
	defer m.metaMu.Unlock()

	round := b.Header.RoundNumber()
	if _, ok := m.rounds[round]; ok {
		return ErrBlockExists
	}

	if m.hasLatest {
		latest := m.blocks[m.latest]
		if latest.Header.RoundNumber()+1 != round {
			return ErrNotNextRound
		}
	}

	rec := *b
	m.blocks[b.Hash] = &rec
	m.rounds[round] = b.Hash
	m.txnTags[b.Hash] = txnTags

	for _, t := range blockTags {
		m.blockTags[string(t.Bytes())] = b.Hash
	}

	m.latest = b.Hash
	m.hasLatest = true

	return nil
}

func (m *MemStore) getBlock(id hash.Hash) (*BlockRecord, error) {
	b, ok := m.blocks[id]
	if !ok {
		return nil, ErrNotFound
	}

	rec := *b
	return &rec, nil
}

func (m *MemStore) GetBlockByRound(_ context.Context, round uint64) (*BlockRecord, error) {
	m.metaMu.RLock()
	defer m.metaMu.RUnlock()

	if round == block.RoundLatest {
		if !m.hasLatest {
			return nil, ErrNotFound
		}
		return m.getBlock(m.latest)
	}

	id, ok := m.rounds[round]
	if !ok {
		return nil, ErrNotFound
	}

	return m.getBlock(id)
}

func (m *MemStore) GetBlockByHash(_ context.Context, id hash.Hash) (*BlockRecord, error) {
	m.metaMu.RLock()
	defer m.metaMu.RUnlock()

	return m.getBlock(id)
}

func (m *MemStore) GetLatestBlock(ctx context.Context) (*BlockRecord, error) {
	return m.GetBlockByRound(ctx, block.RoundLatest)
}

func (m *MemStore) QueryBlock(_ context.Context, key, value []byte) (*BlockRecord, error) {
	m.metaMu.RLock()
	defer m.metaMu.RUnlock()

	id, ok := m.blockTags[string(transaction.Tag{Key: key, Value: value}.Bytes())]
	if !ok {
		return nil, ErrNotFound
	}

	return m.getBlock(id)
}

// QueryTxn walks blocks from the latest round back, skipping blocks whose
// tag bloom rules out the tag
func (m *MemStore) QueryTxn(ctx context.Context, key, value []byte) (*BlockRecord, uint32, error) {
	m.metaMu.RLock()
	defer m.metaMu.RUnlock()

	if !m.hasLatest {
		return nil, 0, ErrNotFound
	}

	tag := transaction.Tag{Key: key, Value: value}

	for round := m.blocks[m.latest].Header.RoundNumber(); ; round-- {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		id, ok := m.rounds[round]
		if ok {
			maybe, err := BloomContains(m.blocks[id].TagBloom, tag)
			if err != nil {
				return nil, 0, errors.Wrap(err, "decoding tag bloom")
			}

			if maybe {
				txns := m.txnTags[id]
				for i := len(txns) - 1; i >= 0; i-- {
					if txns[i].Contains(key, value) {
						b, err := m.getBlock(id)
						return b, uint32(i), err
					}
				}
			}
		}

		if round == 0 {
			break
		}
	}

	return nil, 0, ErrNotFound
}
