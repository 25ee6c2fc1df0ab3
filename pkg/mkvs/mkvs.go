// Package mkvs provides the merkelized key value store runtime state is
// kept in, along with overlays for all-or-nothing application of writes
// and a deterministic encryption adapter.
package mkvs

import (
	"bytes"
	"context"
	"encoding/binary"
	"sort"

	"github.com/tcfw/runtimed/pkg/hash"
)

const (
	leafPrefix byte = 0x00
	nodePrefix byte = 0x01
)

// MKVS is the key value interface handlers operate on. Missing keys read
// as nil. Insert and Remove return the previous value, nil if there was none.
type MKVS interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Insert(ctx context.Context, key, value []byte) ([]byte, error)
	Remove(ctx context.Context, key []byte) ([]byte, error)
}

// LogEntry is a single write, a nil Value removes the key
type LogEntry struct {
	Key   []byte
	Value []byte
}

// WriteLog is a set of writes ordered by key
type WriteLog []LogEntry

// Tree is an MKVS whose contents can be summarised by a root hash
type Tree interface {
	MKVS

	// Entries returns the full contents ordered by key
	Entries(ctx context.Context) (WriteLog, error)

	// ApplyWriteLog atomically applies every write in the log
	ApplyWriteLog(ctx context.Context, log WriteLog) error

	Root(ctx context.Context) (hash.Hash, error)
}

func (l WriteLog) sort() {
	sort.Slice(l, func(i, j int) bool {
		return bytes.Compare(l[i].Key, l[j].Key) < 0
	})
}

func leafHash(e LogEntry) hash.Hash {
	kl := make([]byte, 4)
	binary.BigEndian.PutUint32(kl, uint32(len(e.Key)))

	return hash.DigestParts([]byte{leafPrefix}, kl, e.Key, e.Value)
}

// ComputeRoot hashes entries (ordered by key) into a binary merkle root.
// An empty set of entries has the zero hash as its root.
func ComputeRoot(entries WriteLog) hash.Hash {
	if len(entries) == 0 {
		return hash.Hash{}
	}

	level := make([]hash.Hash, 0, len(entries))
	for _, e := range entries {
		level = append(level, leafHash(e))
	}

	for len(level) > 1 {
		next := make([]hash.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hash.DigestParts([]byte{nodePrefix}, level[i][:], level[i+1][:]))
		}
		level = next
	}

	return level[0]
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}

	return append([]byte{}, b...)
}
