package storage

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"github.com/tcfw/runtimed/pkg/hash"
	"github.com/tcfw/runtimed/pkg/transaction"
)

// TxnSet is the ordered list of txns committed in a block. The hash of
// the encoded set is the block's transaction hash.
type TxnSet struct {
	Txns []cid.Cid `msgpack:"t"`
}

// PutTxns stores each txn and the set referencing them, returning the set root
func PutTxns(ctx context.Context, s ObjectStore, txns []*transaction.Txn) (hash.Hash, error) {
	if len(txns) > MaxBlockTxCount {
		return hash.Hash{}, ErrTooManyTxns
	}

	set := &TxnSet{Txns: make([]cid.Cid, 0, len(txns))}

	for i, t := range txns {
		d, err := t.Marshal()
		if err != nil {
			return hash.Hash{}, err
		}

		id, err := s.PutObject(ctx, d)
		if err != nil {
			return hash.Hash{}, errors.Wrapf(err, "storing txn %d", i)
		}

		set.Txns = append(set.Txns, id.CID())
	}

	d, err := msgpack.Marshal(set)
	if err != nil {
		return hash.Hash{}, errors.Wrap(err, "marshaling txn set")
	}

	return s.PutObject(ctx, d)
}

// GetVerifiedObject fetches an object and checks it hashes to id
func GetVerifiedObject(ctx context.Context, s ObjectReader, id hash.Hash) ([]byte, error) {
	d, err := s.GetObject(ctx, id)
	if err != nil {
		return nil, err
	}

	if hash.Digest(d) != id {
		return nil, errors.Wrap(ErrHashMismatch, id.String())
	}

	return d, nil
}

func GetTxnSet(ctx context.Context, s ObjectReader, root hash.Hash) (*TxnSet, error) {
	d, err := GetVerifiedObject(ctx, s, root)
	if err != nil {
		return nil, errors.Wrap(err, "getting txn set")
	}

	set := &TxnSet{}
	if err := msgpack.Unmarshal(d, set); err != nil {
		return nil, errors.Wrap(err, "unmarshalling txn set")
	}

	if len(set.Txns) > MaxBlockTxCount {
		return nil, ErrTooManyTxns
	}

	return set, nil
}

func getTxn(ctx context.Context, s ObjectReader, c cid.Cid) (*transaction.Txn, error) {
	id, err := hash.FromCID(c)
	if err != nil {
		return nil, err
	}

	d, err := GetVerifiedObject(ctx, s, id)
	if err != nil {
		return nil, err
	}

	t := &transaction.Txn{}
	if err := t.Unmarshal(d); err != nil {
		return nil, errors.Wrap(err, "unmarshalling txn")
	}

	return t, nil
}

// GetTxns resolves every txn in the set at root, in order
func GetTxns(ctx context.Context, s ObjectReader, root hash.Hash) ([]*transaction.Txn, error) {
	set, err := GetTxnSet(ctx, s, root)
	if err != nil {
		return nil, err
	}

	txns := make([]*transaction.Txn, len(set.Txns))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range set.Txns {
		i, c := i, c
		g.Go(func() error {
			t, err := getTxn(gctx, s, c)
			if err != nil {
				return errors.Wrapf(err, "getting txn %d", i)
			}
			txns[i] = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return txns, nil
}

// GetTxn resolves the txn at index in the set at root
func GetTxn(ctx context.Context, s ObjectReader, root hash.Hash, index uint32) (*transaction.Txn, error) {
	set, err := GetTxnSet(ctx, s, root)
	if err != nil {
		return nil, err
	}

	if int(index) >= len(set.Txns) {
		return nil, ErrIndexOutOfRange
	}

	return getTxn(ctx, s, set.Txns[index])
}
