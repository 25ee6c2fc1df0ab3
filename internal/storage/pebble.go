package storage

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"io"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/hash"
	"github.com/tcfw/runtimed/pkg/storage"
	"github.com/tcfw/runtimed/pkg/transaction"
)

var (
	_ storage.Store = (*PebbleStore)(nil)
	_ io.Closer     = (*PebbleStore)(nil)
)

const (
	cacheSize = 1 << 20 * 100

	tableSep byte = ':'
)

type metadataKeyType byte

const (
	objectTPrefix metadataKeyType = iota + 1
	blockTPrefix
	roundTPrefix
	blockTagTPrefix
	txnTagTPrefix
	latestBlockTPrefix
	stateTPrefix
)

// OpenPebble opens (or creates) the pebble database at repo
func OpenPebble(repo string, opts *pebble.Options) (*pebble.DB, error) {
	if opts == nil {
		c := pebble.NewCache(cacheSize)
		defer c.Unref()

		opts = &pebble.Options{Cache: c}
	}

	db, err := pebble.Open(repo, opts)
	if err != nil {
		return nil, errors.Wrap(err, "opening pebble")
	}

	return db, nil
}

// PebbleStore is a storage.Store keeping objects and block indexes in pebble
type PebbleStore struct {
	db *pebble.DB

	blockMu sync.Mutex
}

func NewPebbleStore(db *pebble.DB) *PebbleStore {
	return &PebbleStore{db: db}
}

func (s *PebbleStore) get(key []byte) ([]byte, error) {
	d, done, err := s.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	defer done.Close()

	cpy := make([]byte, len(d))
	copy(cpy, d)

	return cpy, nil
}

func (s *PebbleStore) PutObject(_ context.Context, d []byte) (hash.Hash, error) {
	id := hash.Digest(d)

	if err := s.db.Set(objectKey(id), d, pebble.NoSync); err != nil {
		return hash.Hash{}, errors.Wrap(err, "storing object")
	}

	return id, nil
}

func (s *PebbleStore) GetObject(_ context.Context, id hash.Hash) ([]byte, error) {
	return s.get(objectKey(id))
}

func (s *PebbleStore) PutBlock(ctx context.Context, b *storage.BlockRecord, blockTags transaction.Tags, txnTags []transaction.Tags) error {
	s.blockMu.Lock()
	defer s.blockMu.Unlock()

	round := b.Header.RoundNumber()

	if _, err := s.get(roundKey(round)); err == nil {
		return storage.ErrBlockExists
	} else if err != storage.ErrNotFound {
		return errors.Wrap(err, "checking round")
	}

	latest, err := s.GetLatestBlock(ctx)
	if err != nil && err != storage.ErrNotFound {
		return errors.Wrap(err, "getting latest block")
	}
	if latest != nil && latest.Header.RoundNumber()+1 != round {
		return storage.ErrNotNextRound
	}

	rec, err := msgpack.Marshal(b)
	if err != nil {
		return errors.Wrap(err, "marshaling block record")
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(typedKey(blockTPrefix, string(b.Hash[:])), rec, nil); err != nil {
		return errors.Wrap(err, "indexing block")
	}
	if err := batch.Set(roundKey(round), b.Hash[:], nil); err != nil {
		return errors.Wrap(err, "indexing round")
	}

	for _, t := range blockTags {
		if err := batch.Set(tagKey(blockTagTPrefix, t.Key, t.Value), b.Hash[:], nil); err != nil {
			return errors.Wrap(err, "indexing block tag")
		}
	}

	for i, tags := range txnTags {
		ref := make([]byte, hash.Size+4)
		copy(ref, b.Hash[:])
		binary.BigEndian.PutUint32(ref[hash.Size:], uint32(i))

		for _, t := range tags {
			if err := batch.Set(tagKey(txnTagTPrefix, t.Key, t.Value), ref, nil); err != nil {
				return errors.Wrap(err, "indexing txn tag")
			}
		}
	}

	if err := batch.Set(typedKey(latestBlockTPrefix), b.Hash[:], nil); err != nil {
		return errors.Wrap(err, "storing latest block ref")
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "applying block index batch")
	}

	return nil
}

func (s *PebbleStore) GetBlockByHash(_ context.Context, id hash.Hash) (*storage.BlockRecord, error) {
	d, err := s.get(typedKey(blockTPrefix, string(id[:])))
	if err != nil {
		return nil, err
	}

	b := &storage.BlockRecord{}
	if err := msgpack.Unmarshal(d, b); err != nil {
		return nil, errors.Wrap(err, "unmarshalling block record")
	}

	return b, nil
}

func (s *PebbleStore) blockByRef(ctx context.Context, key []byte) (*storage.BlockRecord, error) {
	ref, err := s.get(key)
	if err != nil {
		return nil, err
	}

	id, err := hash.FromBytes(ref)
	if err != nil {
		return nil, errors.Wrap(err, "casting block ref")
	}

	return s.GetBlockByHash(ctx, id)
}

func (s *PebbleStore) GetBlockByRound(ctx context.Context, round uint64) (*storage.BlockRecord, error) {
	if round == block.RoundLatest {
		return s.GetLatestBlock(ctx)
	}

	return s.blockByRef(ctx, roundKey(round))
}

func (s *PebbleStore) GetLatestBlock(ctx context.Context) (*storage.BlockRecord, error) {
	return s.blockByRef(ctx, typedKey(latestBlockTPrefix))
}

func (s *PebbleStore) QueryBlock(ctx context.Context, key, value []byte) (*storage.BlockRecord, error) {
	return s.blockByRef(ctx, tagKey(blockTagTPrefix, key, value))
}

func (s *PebbleStore) QueryTxn(ctx context.Context, key, value []byte) (*storage.BlockRecord, uint32, error) {
	ref, err := s.get(tagKey(txnTagTPrefix, key, value))
	if err != nil {
		return nil, 0, err
	}

	if len(ref) != hash.Size+4 {
		return nil, 0, errors.New("malformed txn tag ref")
	}

	id, _ := hash.FromBytes(ref[:hash.Size])
	b, err := s.GetBlockByHash(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	return b, binary.BigEndian.Uint32(ref[hash.Size:]), nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

func typedKey(kType metadataKeyType, parts ...string) []byte {
	n := 1
	for _, p := range parts {
		n += len(p) + 1 //add sep as well
	}

	k := make([]byte, 0, n)
	k = append(k, byte(kType))
	for _, p := range parts {
		k = append(k, []byte(p)...)
		k = append(k, tableSep)
	}

	if len(parts) == 0 {
		return k
	}

	return k[:len(k)-1]
}

func objectKey(id hash.Hash) []byte {
	return typedKey(objectTPrefix, string(id.CID().Bytes()))
}

func roundKey(round uint64) []byte {
	r := make([]byte, 8)
	binary.BigEndian.PutUint64(r, round)
	return typedKey(roundTPrefix, string(r))
}

// tag parts are hex encoded so the separator can't appear inside them
func tagKey(kType metadataKeyType, key, value []byte) []byte {
	return typedKey(kType, hex.EncodeToString(key), hex.EncodeToString(value))
}
