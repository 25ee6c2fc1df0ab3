package node

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tcfw/runtimed/pkg/storage"
)

// blockEvents fans committed blocks out to subscribers. Sends never block,
// a subscriber that falls too far behind misses blocks.
type blockEvents struct {
	m  map[string]chan *storage.BlockRecord
	mu sync.RWMutex
}

const eventBuffer = 100

func newBlockEvents() *blockEvents {
	return &blockEvents{m: make(map[string]chan *storage.BlockRecord)}
}

func (evt *blockEvents) Acquire(id string) <-chan *storage.BlockRecord {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	evt.m[id] = make(chan *storage.BlockRecord, eventBuffer)
	return evt.m[id]
}

func (evt *blockEvents) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return errors.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

func (evt *blockEvents) Send(b *storage.BlockRecord) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- b:
		default:
		}
	}
}

func (evt *blockEvents) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

func newSubscriptionID() string {
	return uuid.NewString()
}
