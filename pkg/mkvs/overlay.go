package mkvs

import (
	"bytes"
	"context"
	"sync"

	"github.com/tcfw/runtimed/pkg/hash"
)

var (
	_ Tree = (*Overlay)(nil)
)

// Overlay buffers writes on top of a parent Tree until Commit. Overlays are
// Trees themselves so they can be stacked.
type Overlay struct {
	parent Tree

	mu     sync.RWMutex
	writes map[string][]byte
}

func NewOverlay(parent Tree) *Overlay {
	return &Overlay{
		parent: parent,
		writes: make(map[string][]byte),
	}
}

func (o *Overlay) Get(ctx context.Context, key []byte) ([]byte, error) {
	o.mu.RLock()
	v, ok := o.writes[string(key)]
	o.mu.RUnlock()

	if ok {
		return clone(v), nil
	}

	return o.parent.Get(ctx, key)
}

func (o *Overlay) set(ctx context.Context, key, value []byte) ([]byte, error) {
	prev, err := o.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.writes[string(key)] = value
	o.mu.Unlock()

	return prev, nil
}

func (o *Overlay) Insert(ctx context.Context, key, value []byte) ([]byte, error) {
	return o.set(ctx, key, append([]byte{}, value...))
}

func (o *Overlay) Remove(ctx context.Context, key []byte) ([]byte, error) {
	return o.set(ctx, key, nil)
}

// WriteLog returns the buffered writes ordered by key
func (o *Overlay) WriteLog() WriteLog {
	o.mu.RLock()
	defer o.mu.RUnlock()

	log := make(WriteLog, 0, len(o.writes))
	for k, v := range o.writes {
		log = append(log, LogEntry{Key: []byte(k), Value: clone(v)})
	}
	log.sort()

	return log
}

func (o *Overlay) ApplyWriteLog(_ context.Context, log WriteLog) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, e := range log {
		o.writes[string(e.Key)] = clone(e.Value)
	}

	return nil
}

// Entries merges the parent's contents with the buffered writes
func (o *Overlay) Entries(ctx context.Context) (WriteLog, error) {
	base, err := o.parent.Entries(ctx)
	if err != nil {
		return nil, err
	}

	writes := o.WriteLog()
	merged := make(WriteLog, 0, len(base)+len(writes))

	i, j := 0, 0
	for i < len(base) || j < len(writes) {
		switch {
		case j == len(writes) || (i < len(base) && bytes.Compare(base[i].Key, writes[j].Key) < 0):
			merged = append(merged, base[i])
			i++
		case i == len(base) || bytes.Compare(base[i].Key, writes[j].Key) > 0:
			if writes[j].Value != nil {
				merged = append(merged, writes[j])
			}
			j++
		default:
			if writes[j].Value != nil {
				merged = append(merged, writes[j])
			}
			i++
			j++
		}
	}

	return merged, nil
}

func (o *Overlay) Root(ctx context.Context) (hash.Hash, error) {
	entries, err := o.Entries(ctx)
	if err != nil {
		return hash.Hash{}, err
	}

	return ComputeRoot(entries), nil
}

// Commit applies the buffered writes to the parent and resets the overlay
func (o *Overlay) Commit(ctx context.Context) error {
	log := o.WriteLog()
	if len(log) == 0 {
		return nil
	}

	if err := o.parent.ApplyWriteLog(ctx, log); err != nil {
		return err
	}

	o.Discard()
	return nil
}

// Discard drops every buffered write
func (o *Overlay) Discard() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.writes = make(map[string][]byte)
}
