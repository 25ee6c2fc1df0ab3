package node

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/mkvs"
	"github.com/tcfw/runtimed/pkg/storage"
	"github.com/tcfw/runtimed/pkg/transaction"
)

// sync loads the latest block, committing a genesis block if the store is
// empty
func (n *Node) sync(ctx context.Context) error {
	head, err := n.store.GetLatestBlock(ctx)
	if err == storage.ErrNotFound {
		head, err = n.commitGenesis(ctx)
	}
	if err != nil {
		return err
	}

	if head.Header.Namespace != n.runtimeID {
		return errors.Errorf("store belongs to runtime %s", head.Header.Namespace)
	}

	n.setHead(head)
	n.syncOnce.Do(func() { close(n.synced) })

	return nil
}

func (n *Node) commitGenesis(ctx context.Context) (*storage.BlockRecord, error) {
	stateRoot, err := n.tree.Root(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting state root")
	}

	txRoot, err := storage.PutTxns(ctx, n.store, nil)
	if err != nil {
		return nil, errors.Wrap(err, "storing genesis txns")
	}

	h := block.NewGenesisHeader(n.runtimeID, txRoot, stateRoot)

	rec, err := storage.NewBlockRecord(h, nil)
	if err != nil {
		return nil, err
	}

	tags := transaction.Tags{{Key: block.TagBlockHash, Value: rec.Hash[:]}}
	if err := n.store.PutBlock(ctx, rec, tags, nil); err != nil {
		return nil, errors.Wrap(err, "storing genesis block")
	}

	n.logger.WithField("hash", rec.Hash.String()).Info("committed genesis block")

	return rec, nil
}

// produceBlock executes the oldest pending calls and commits them as a
// child of the current head
func (n *Node) produceBlock(ctx context.Context) error {
	calls := n.pool.Take(n.maxBatchSize)
	if len(calls) == 0 {
		return nil
	}

	rec, outputs, err := n.commitBlock(ctx, calls)
	if err != nil {
		for _, c := range calls {
			c.resolve(nil, err)
		}
		return err
	}

	for i, c := range calls {
		c.resolve(outputs[i], nil)
	}

	n.events.Send(rec)

	return nil
}

func (n *Node) commitBlock(ctx context.Context, calls []*pendingCall) (*storage.BlockRecord, [][]byte, error) {
	head := n.Head()

	inputs := make([][]byte, 0, len(calls))
	for _, c := range calls {
		inputs = append(inputs, c.data)
	}

	overlay := mkvs.NewOverlay(n.tree)
	defer overlay.Discard()

	res, err := n.dispatcher.ExecuteBatch(ctx, overlay, inputs)
	if err != nil {
		return nil, nil, errors.Wrap(err, "executing batch")
	}

	stateRoot, err := overlay.Root(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "getting state root")
	}

	txns := make([]*transaction.Txn, 0, len(inputs))
	for i, in := range inputs {
		txns = append(txns, &transaction.Txn{Input: in, Output: res.Outputs[i]})
	}

	txRoot, err := storage.PutTxns(ctx, n.store, txns)
	if err != nil {
		return nil, nil, errors.Wrap(err, "storing txns")
	}

	h, err := block.NewChildHeader(&head.Header, txRoot, stateRoot)
	if err != nil {
		return nil, nil, err
	}

	rec, err := storage.NewBlockRecord(h, res.TxnTags)
	if err != nil {
		return nil, nil, err
	}

	blockTags := append(res.BlockTags, transaction.Tag{Key: block.TagBlockHash, Value: rec.Hash[:]})

	undo, err := n.undoLog(ctx, overlay.WriteLog())
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading previous state")
	}

	if err := overlay.Commit(ctx); err != nil {
		return nil, nil, errors.Wrap(err, "committing state")
	}

	if err := n.store.PutBlock(ctx, rec, blockTags, res.TxnTags); err != nil {
		// the block was never indexed so its state must not stay applied
		if uerr := n.tree.ApplyWriteLog(ctx, undo); uerr != nil {
			n.logger.WithError(uerr).Error("rolling back state of unindexed block")
		}
		return nil, nil, errors.Wrap(err, "storing block")
	}

	n.setHead(rec)

	n.logger.WithField("round", h.RoundNumber()).WithField("txns", len(txns)).Debug("committed block")

	return rec, res.Outputs, nil
}

// undoLog returns the writes restoring the current values of every key in log
func (n *Node) undoLog(ctx context.Context, log mkvs.WriteLog) (mkvs.WriteLog, error) {
	undo := make(mkvs.WriteLog, 0, len(log))

	for _, e := range log {
		prev, err := n.tree.Get(ctx, e.Key)
		if err != nil {
			return nil, err
		}
		undo = append(undo, mkvs.LogEntry{Key: e.Key, Value: prev})
	}

	return undo, nil
}
