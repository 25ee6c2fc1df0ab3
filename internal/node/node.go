package node

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tcfw/runtimed/internal/utils/logging"
	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/mkvs"
	"github.com/tcfw/runtimed/pkg/runtime"
	"github.com/tcfw/runtimed/pkg/storage"
)

const (
	defaultBlockInterval = time.Second
	defaultMaxBatchSize  = 100
)

var (
	ErrStopped = errors.New("node stopped")
)

// Node executes submitted calls of a single runtime, batching them into
// blocks on a fixed interval
type Node struct {
	store      storage.Store
	tree       mkvs.Tree
	dispatcher *runtime.TxnDispatcher
	runtimeID  block.Namespace

	blockInterval time.Duration
	maxBatchSize  int

	pool   *callPool
	events *blockEvents

	headMu sync.RWMutex
	head   *storage.BlockRecord

	synced   chan struct{}
	syncOnce sync.Once

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	closers []io.Closer

	logger *logrus.Entry
}

func NewNode(ctx context.Context, opts ...NodeOption) (*Node, error) {
	n := &Node{
		blockInterval: defaultBlockInterval,
		maxBatchSize:  defaultMaxBatchSize,
		pool:          newCallPool(),
		events:        newBlockEvents(),
		synced:        make(chan struct{}),
		logger:        logging.Named("node"),
	}

	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}

	if n.store == nil || n.tree == nil || n.dispatcher == nil {
		return nil, errors.New("node requires a store, state tree and dispatcher")
	}

	n.ctx, n.cancel = context.WithCancel(ctx)

	return n, nil
}

func (n *Node) Store() storage.Store {
	return n.store
}

func (n *Node) RuntimeID() block.Namespace {
	return n.runtimeID
}

// Head returns the latest committed block, nil before the node has synced
func (n *Node) Head() *storage.BlockRecord {
	n.headMu.RLock()
	defer n.headMu.RUnlock()

	return n.head
}

func (n *Node) setHead(b *storage.BlockRecord) {
	n.headMu.Lock()
	n.head = b
	n.headMu.Unlock()
}

func (n *Node) IsSynced() bool {
	select {
	case <-n.synced:
		return true
	default:
		return false
	}
}

// WaitSync blocks until the node has loaded or created its head block
func (n *Node) WaitSync(ctx context.Context) error {
	select {
	case <-n.synced:
		return nil
	case <-n.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit queues an encoded call and waits for the output it produced once
// included in a block
func (n *Node) Submit(ctx context.Context, data []byte) ([]byte, error) {
	if n.ctx.Err() != nil {
		return nil, ErrStopped
	}

	c := n.pool.Add(data)

	select {
	case res := <-c.res:
		return res.output, res.err
	case <-n.ctx.Done():
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Subscribe returns a channel of committed blocks and a func to stop the
// subscription. The channel is closed when the node stops.
func (n *Node) Subscribe() (<-chan *storage.BlockRecord, func()) {
	id := newSubscriptionID()
	ch := n.events.Acquire(id)

	return ch, func() {
		n.events.Release(id)
	}
}

// ListenAndServe syncs the head block then produces blocks until Stop
func (n *Node) ListenAndServe() error {
	if err := n.sync(n.ctx); err != nil {
		return errors.Wrap(err, "syncing head block")
	}

	head := n.Head()
	n.logger.WithField("round", head.Header.RoundNumber()).WithField("hash", head.Hash.String()).Info("Starting block production")

	t := time.NewTicker(n.blockInterval)
	defer t.Stop()

	for {
		select {
		case <-n.ctx.Done():
			return nil
		case <-t.C:
			if err := n.produceBlock(n.ctx); err != nil {
				n.logger.WithError(err).Error("producing block")
			}
		}
	}
}

func (n *Node) Stop() error {
	n.stopOnce.Do(func() {
		n.logger.Warn("Shutting down")

		n.cancel()
		n.events.Shutdown()

		for _, c := range n.pool.Take(n.pool.Len()) {
			c.resolve(nil, ErrStopped)
		}
	})

	var err error
	for _, c := range n.closers {
		if cerr := c.Close(); cerr != nil {
			err = cerr
		}
	}
	n.closers = nil

	return err
}
