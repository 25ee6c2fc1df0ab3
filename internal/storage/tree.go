package storage

import (
	"context"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"

	"github.com/tcfw/runtimed/pkg/hash"
	"github.com/tcfw/runtimed/pkg/mkvs"
)

var (
	_ mkvs.Tree = (*PebbleTree)(nil)
)

// PebbleTree persists runtime state in pebble under its own key prefix
type PebbleTree struct {
	db *pebble.DB

	mu sync.RWMutex
}

func NewPebbleTree(db *pebble.DB) *PebbleTree {
	return &PebbleTree{db: db}
}

func stateKey(key []byte) []byte {
	k := make([]byte, 0, len(key)+1)
	k = append(k, byte(stateTPrefix))
	return append(k, key...)
}

func (t *PebbleTree) get(key []byte) ([]byte, error) {
	d, done, err := t.db.Get(stateKey(key))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading state")
	}
	defer done.Close()

	return append([]byte{}, d...), nil
}

func (t *PebbleTree) Get(_ context.Context, key []byte) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.get(key)
}

func (t *PebbleTree) Insert(_ context.Context, key, value []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, err := t.get(key)
	if err != nil {
		return nil, err
	}

	if err := t.db.Set(stateKey(key), value, pebble.Sync); err != nil {
		return nil, errors.Wrap(err, "writing state")
	}

	return prev, nil
}

func (t *PebbleTree) Remove(_ context.Context, key []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, err := t.get(key)
	if err != nil || prev == nil {
		return nil, err
	}

	if err := t.db.Delete(stateKey(key), pebble.Sync); err != nil {
		return nil, errors.Wrap(err, "removing state")
	}

	return prev, nil
}

func (t *PebbleTree) Entries(_ context.Context) (mkvs.WriteLog, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	iter := t.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{byte(stateTPrefix)},
		UpperBound: []byte{byte(stateTPrefix) + 1},
	})
	defer iter.Close()

	log := mkvs.WriteLog{}
	for iter.First(); iter.Valid(); iter.Next() {
		log = append(log, mkvs.LogEntry{
			Key:   append([]byte{}, iter.Key()[1:]...),
			Value: append([]byte{}, iter.Value()...),
		})
	}

	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "iterating state")
	}

	return log, nil
}

// ApplyWriteLog writes the whole log in a single batch
func (t *PebbleTree) ApplyWriteLog(_ context.Context, log mkvs.WriteLog) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	batch := t.db.NewBatch()
	defer batch.Close()

	for _, e := range log {
		var err error
		if e.Value == nil {
			err = batch.Delete(stateKey(e.Key), nil)
		} else {
			err = batch.Set(stateKey(e.Key), e.Value, nil)
		}
		if err != nil {
			return errors.Wrap(err, "batching state write")
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "applying state batch")
	}

	return nil
}

func (t *PebbleTree) Root(ctx context.Context) (hash.Hash, error) {
	entries, err := t.Entries(ctx)
	if err != nil {
		return hash.Hash{}, err
	}

	return mkvs.ComputeRoot(entries), nil
}

// Open opens the pebble database at repo, returning the block store and
// state tree backed by it
func Open(repo string, opts *pebble.Options) (*PebbleStore, *PebbleTree, error) {
	db, err := OpenPebble(repo, opts)
	if err != nil {
		return nil, nil, err
	}

	return NewPebbleStore(db), NewPebbleTree(db), nil
}
