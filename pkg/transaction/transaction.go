package transaction

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// TxnBatch is an ordered list of raw transaction inputs
type TxnBatch [][]byte

// Txn is the stored record of one executed transaction
type Txn struct {
	Input  []byte `msgpack:"i"`
	Output []byte `msgpack:"o"`
}

func (t *Txn) Marshal() ([]byte, error) {
	b, err := msgpack.Marshal(t)
	if err != nil {
		return nil, errors.Wrap(err, "mashaling txn")
	}

	return b, nil
}

func (t *Txn) Unmarshal(b []byte) error {
	return msgpack.Unmarshal(b, t)
}

// Tag is a key/value pair emitted by a handler and indexed on commit
type Tag struct {
	Key   []byte `msgpack:"k"`
	Value []byte `msgpack:"v"`
}

type Tags []Tag

// Bytes is the flattened form used for bloom membership and index keys.
// The key is length prefixed so distinct tags never flatten to the same bytes.
func (t Tag) Bytes() []byte {
	b := make([]byte, binary.MaxVarintLen64, binary.MaxVarintLen64+len(t.Key)+len(t.Value))
	n := binary.PutUvarint(b, uint64(len(t.Key)))
	b = append(b[:n], t.Key...)
	return append(b, t.Value...)
}

func (t Tag) Matches(key, value []byte) bool {
	return bytes.Equal(t.Key, key) && bytes.Equal(t.Value, value)
}

func (t Tags) Contains(key, value []byte) bool {
	for _, tag := range t {
		if tag.Matches(key, value) {
			return true
		}
	}

	return false
}
