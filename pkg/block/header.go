package block

import (
	"math"

	"github.com/multiformats/go-multibase"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tcfw/runtimed/pkg/hash"
)

const (
	Version1 uint16 = 1

	// RoundLatest refers to the most recently finalized round. It is never
	// the round of a real block.
	RoundLatest uint64 = math.MaxUint64
)

var (
	// TagBlockHash is the block tag key each block's own hash is indexed under
	TagBlockHash = []byte("hblk")
)

// Namespace identifies the runtime a chain belongs to
type Namespace [32]byte

func (n Namespace) String() string {
	s, _ := multibase.Encode(multibase.Base58BTC, n[:])
	return s
}

func ParseNamespace(s string) (Namespace, error) {
	var n Namespace

	_, d, err := multibase.Decode(s)
	if err != nil {
		return n, errors.Wrap(err, "decoding namespace")
	}
	if len(d) != len(n) {
		return n, errors.Errorf("namespace must be %d bytes, got %d", len(n), len(d))
	}

	copy(n[:], d)
	return n, nil
}

func NamespaceFromBytes(b []byte) (Namespace, error) {
	var n Namespace
	if len(b) != len(n) {
		return n, errors.Errorf("namespace must be %d bytes, got %d", len(n), len(b))
	}

	copy(n[:], b)
	return n, nil
}

// Header is the consensus block header. Headers are never mutated
// once built.
type Header struct {
	Version         uint16    `msgpack:"v"`
	Namespace       Namespace `msgpack:"ns"`
	Round           U256      `msgpack:"r"`
	PreviousHash    hash.Hash `msgpack:"p"`
	GroupHash       hash.Hash `msgpack:"g"`
	TransactionHash hash.Hash `msgpack:"x"`
	StateRoot       hash.Hash `msgpack:"s"`
	CommitmentsHash hash.Hash `msgpack:"c"`
}

// NewGenesisHeader builds the round 0 header for a namespace
func NewGenesisHeader(ns Namespace, txRoot, stateRoot hash.Hash) *Header {
	return &Header{
		Version:         Version1,
		Namespace:       ns,
		Round:           NewU256(0),
		TransactionHash: txRoot,
		StateRoot:       stateRoot,
	}
}

// NewChildHeader builds the header that follows parent
func NewChildHeader(parent *Header, txRoot, stateRoot hash.Hash) (*Header, error) {
	prevHash, err := parent.EncodedHash()
	if err != nil {
		return nil, errors.Wrap(err, "hashing parent header")
	}

	round, ok := parent.Round.Uint64()
	if !ok || round+1 >= RoundLatest {
		return nil, errors.New("round overflow")
	}

	return &Header{
		Version:         parent.Version,
		Namespace:       parent.Namespace,
		Round:           NewU256(round + 1),
		PreviousHash:    prevHash,
		GroupHash:       parent.GroupHash,
		TransactionHash: txRoot,
		StateRoot:       stateRoot,
	}, nil
}

func (h *Header) Marshal() ([]byte, error) {
	b, err := msgpack.Marshal(h)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling header")
	}

	return b, nil
}

// Unmarshal decodes a header, the error from the decoder is returned as is
func Unmarshal(b []byte) (*Header, error) {
	h := &Header{}
	if err := msgpack.Unmarshal(b, h); err != nil {
		return nil, err
	}

	return h, nil
}

// EncodedHash is the content hash of the encoded header
func (h *Header) EncodedHash() (hash.Hash, error) {
	b, err := h.Marshal()
	if err != nil {
		return hash.Hash{}, err
	}

	return hash.Digest(b), nil
}

// RoundNumber returns the round as a u64, rounds beyond u64 map to RoundLatest
func (h *Header) RoundNumber() uint64 {
	r, ok := h.Round.Uint64()
	if !ok {
		return RoundLatest
	}

	return r
}

// IsParentOf reports whether child links directly to h, that is
// child.PreviousHash is the hash of h
func (h *Header) IsParentOf(child *Header) bool {
	if child == nil {
		return false
	}

	hh, err := h.EncodedHash()
	if err != nil {
		return false
	}

	return child.PreviousHash == hh
}
