package client

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/tcfw/runtimed/api"
	"github.com/tcfw/runtimed/pkg/storage"
)

const (
	stateNotStarted uint32 = iota
	stateStarting
	stateRunning
	stateClosed
)

// BlockSource yields blocks in commit order until it returns an error
type BlockSource interface {
	Recv() (*api.BlockResponse, error)
}

// BlockWatcher caches the latest block seen on a single shared block
// subscription. Only one subscription is active at a time; callers race
// with StartSpawn to decide who opens it.
type BlockWatcher struct {
	state atomic.Uint32

	ctx    context.Context
	cancel context.CancelFunc

	store storage.ObjectReader
	log   *logrus.Entry

	mu     sync.Mutex
	latest *BlockSnapshot
	// decode error that ended the last subscription
	failure error
	// closed once the current subscription produces a block or ends
	ready chan struct{}
}

func NewBlockWatcher(store storage.ObjectReader, log *logrus.Entry) *BlockWatcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &BlockWatcher{
		ctx:    ctx,
		cancel: cancel,
		store:  store,
		log:    log,
		ready:  make(chan struct{}),
	}
}

// Context is cancelled when the watcher is closed. Subscriptions feeding
// the watcher should be opened with it.
func (w *BlockWatcher) Context() context.Context {
	return w.ctx
}

// StartSpawn reports whether the caller won the right to open the
// subscription. Exactly one caller wins until the subscription ends.
func (w *BlockWatcher) StartSpawn() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.state.CompareAndSwap(stateNotStarted, stateStarting) {
		return false
	}
	w.failure = nil

	return true
}

// CancelSpawn is called by the StartSpawn winner when it failed to open
// the subscription. Anyone waiting on it is released.
func (w *BlockWatcher) CancelSpawn() {
	if w.state.CompareAndSwap(stateStarting, stateNotStarted) {
		w.wake()
	}
}

// Spawn drains src in the background, updating the latest block
func (w *BlockWatcher) Spawn(src BlockSource) {
	go w.run(src)
}

func (w *BlockWatcher) run(src BlockSource) {
	for {
		resp, err := src.Recv()
		if err != nil {
			w.log.WithError(err).Debug("block subscription ended")
			w.end(nil)
			return
		}

		snap, err := newBlockSnapshot(resp, w.store)
		if err != nil {
			w.log.WithError(err).Warn("malformed block on subscription")
			w.end(err)
			return
		}

		w.mu.Lock()
		w.latest = snap
		w.failure = nil
		if w.ready != nil {
			close(w.ready)
			w.ready = nil
		}
		w.mu.Unlock()

		w.state.CompareAndSwap(stateStarting, stateRunning)
	}
}

// end resets the subscription state after the stream stopped. failure is
// handed to waiters that have no block to return.
func (w *BlockWatcher) end(failure error) {
	w.mu.Lock()
	w.failure = failure
	w.mu.Unlock()

	if w.state.CompareAndSwap(stateRunning, stateNotStarted) ||
		w.state.CompareAndSwap(stateStarting, stateNotStarted) {
		w.wake()
	}
}

// wake releases every waiter of the current subscription
func (w *BlockWatcher) wake() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ready != nil {
		close(w.ready)
	}
	w.ready = make(chan struct{})
}

// GetLatestBlock returns the cached latest block, waiting for the first one
// if none has been seen yet. With no block cached and no subscription
// running it fails immediately instead of waiting.
func (w *BlockWatcher) GetLatestBlock(ctx context.Context) (*BlockSnapshot, error) {
	w.mu.Lock()
	latest, ready, state := w.latest, w.ready, w.state.Load()
	failure := w.failure
	w.mu.Unlock()

	if state == stateClosed {
		return nil, ErrWatcherClosed
	}

	if latest != nil {
		return latest, nil
	}

	if state == stateNotStarted {
		if failure != nil {
			return nil, failure
		}
		return nil, ErrWatcherClosed
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	w.mu.Lock()
	latest, failure = w.latest, w.failure
	w.mu.Unlock()

	if w.state.Load() == stateClosed {
		return nil, ErrWatcherClosed
	}

	if latest == nil {
		if failure != nil {
			return nil, failure
		}
		return nil, ErrWatcherClosed
	}

	return latest, nil
}

// Close stops the subscription and fails any waiters
func (w *BlockWatcher) Close() {
	if w.state.Swap(stateClosed) == stateClosed {
		return
	}

	w.cancel()
	w.wake()
}
