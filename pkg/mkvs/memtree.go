package mkvs

import (
	"context"
	"sync"

	"github.com/tcfw/runtimed/pkg/hash"
)

var (
	_ Tree = (*MemTree)(nil)
)

// MemTree is an in memory Tree
type MemTree struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemTree() *MemTree {
	return &MemTree{entries: make(map[string][]byte)}
}

func (t *MemTree) Get(_ context.Context, key []byte) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return clone(t.entries[string(key)]), nil
}

func (t *MemTree) Insert(_ context.Context, key, value []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.entries[string(key)]
	t.entries[string(key)] = append([]byte{}, value...)

	return prev, nil
}

func (t *MemTree) Remove(_ context.Context, key []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.entries[string(key)]
	delete(t.entries, string(key))

	return prev, nil
}

func (t *MemTree) Entries(_ context.Context) (WriteLog, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	log := make(WriteLog, 0, len(t.entries))
	for k, v := range t.entries {
		log = append(log, LogEntry{Key: []byte(k), Value: clone(v)})
	}
	log.sort()

	return log, nil
}

func (t *MemTree) ApplyWriteLog(_ context.Context, log WriteLog) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range log {
		if e.Value == nil {
			delete(t.entries, string(e.Key))
		} else {
			t.entries[string(e.Key)] = clone(e.Value)
		}
	}

	return nil
}

func (t *MemTree) Root(ctx context.Context) (hash.Hash, error) {
	entries, err := t.Entries(ctx)
	if err != nil {
		return hash.Hash{}, err
	}

	return ComputeRoot(entries), nil
}
