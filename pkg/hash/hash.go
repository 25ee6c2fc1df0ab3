package hash

import (
	"bytes"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

const (
	Size = 32

	// CIDEncoding is the codec used when addressing raw stored objects
	CIDEncoding = cid.Raw
)

var (
	ErrMalformedHash = errors.New("malformed hash")
)

// Hash is a SHA3-256 digest
type Hash [Size]byte

// Digest hashes the given bytes
func Digest(data []byte) Hash {
	return Hash(sha3.Sum256(data))
}

// DigestParts hashes the concatenation of all parts
func DigestParts(parts ...[]byte) Hash {
	h := sha3.New256()
	for _, p := range parts {
		h.Write(p)
	}

	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func FromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != Size {
		return h, errors.Wrapf(ErrMalformedHash, "expected %d bytes, got %d", Size, len(b))
	}

	copy(h[:], b)
	return h, nil
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) IsEmpty() bool {
	return h == Hash{}
}

func (h Hash) Equal(o Hash) bool {
	return bytes.Equal(h[:], o[:])
}

func (h Hash) String() string {
	s, _ := multibase.Encode(multibase.Base58BTC, h[:])
	return s
}

// Parse decodes a multibase encoded hash
func Parse(s string) (Hash, error) {
	_, d, err := multibase.Decode(s)
	if err != nil {
		return Hash{}, errors.Wrap(err, "decoding multibase")
	}

	return FromBytes(d)
}

// CID wraps the digest in a CIDv1 so objects can be addressed
// the same way stored content is
func (h Hash) CID() cid.Cid {
	mh, _ := multihash.Encode(h[:], multihash.SHA3_256)
	return cid.NewCidV1(CIDEncoding, mh)
}

// FromCID extracts the digest from a CID, only SHA3-256 CIDs are accepted
func FromCID(c cid.Cid) (Hash, error) {
	if !c.Defined() {
		return Hash{}, errors.Wrap(ErrMalformedHash, "undefined cid")
	}

	dec, err := multihash.Decode(c.Hash())
	if err != nil {
		return Hash{}, errors.Wrap(err, "decoding multihash")
	}

	if dec.Code != multihash.SHA3_256 {
		return Hash{}, errors.Wrapf(ErrMalformedHash, "unsupported hash function 0x%x", dec.Code)
	}

	return FromBytes(dec.Digest)
}
