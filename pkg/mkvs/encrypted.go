package mkvs

import (
	"context"
	"crypto/cipher"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/tcfw/runtimed/pkg/hash"
)

const (
	StateKeySize = 32
)

var (
	_ MKVS = (*Encrypted)(nil)

	encKeyInfo   = []byte("runtimed/mkvs: encryption key")
	nonceKeyInfo = []byte("runtimed/mkvs: nonce key")

	ErrDecrypt = errors.New("failed to decrypt state value")
)

// Encrypted transparently encrypts keys and values written to the wrapped
// MKVS. Encryption is deterministic: a key always maps to the same
// ciphertext so it can be looked up, and a value's nonce is derived from
// its key and content.
type Encrypted struct {
	inner    MKVS
	aead     cipher.AEAD
	nonceKey []byte
}

func deriveKey(stateKey, info []byte) ([]byte, error) {
	k := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha3.New256, stateKey, nil, info), k); err != nil {
		return nil, err
	}

	return k, nil
}

func NewEncrypted(inner MKVS, stateKey []byte) (*Encrypted, error) {
	if len(stateKey) != StateKeySize {
		return nil, errors.Errorf("state key must be %d bytes", StateKeySize)
	}

	ek, err := deriveKey(stateKey, encKeyInfo)
	if err != nil {
		return nil, errors.Wrap(err, "deriving encryption key")
	}

	nk, err := deriveKey(stateKey, nonceKeyInfo)
	if err != nil {
		return nil, errors.Wrap(err, "deriving nonce key")
	}

	aead, err := chacha20poly1305.NewX(ek)
	if err != nil {
		return nil, err
	}

	return &Encrypted{inner: inner, aead: aead, nonceKey: nk}, nil
}

// WithEncryptionKey runs fn against inner wrapped with the state key
func WithEncryptionKey(inner MKVS, stateKey []byte, fn func(MKVS) error) error {
	e, err := NewEncrypted(inner, stateKey)
	if err != nil {
		return err
	}

	return fn(e)
}

func (e *Encrypted) nonce(parts ...[]byte) []byte {
	h := hash.DigestParts(append([][]byte{e.nonceKey}, parts...)...)
	return h[:chacha20poly1305.NonceSizeX]
}

func (e *Encrypted) encryptKey(key []byte) []byte {
	n := e.nonce([]byte{leafPrefix}, key)
	return e.aead.Seal(nil, n, key, nil)
}

func (e *Encrypted) encryptValue(key, value []byte) []byte {
	kl := make([]byte, 4)
	binary.BigEndian.PutUint32(kl, uint32(len(key)))

	n := e.nonce([]byte{nodePrefix}, kl, key, value)

	out := make([]byte, 0, len(n)+len(value)+e.aead.Overhead())
	out = append(out, n...)
	return e.aead.Seal(out, n, value, key)
}

func (e *Encrypted) decryptValue(key, ct []byte) ([]byte, error) {
	if ct == nil {
		return nil, nil
	}

	if len(ct) < chacha20poly1305.NonceSizeX+e.aead.Overhead() {
		return nil, ErrDecrypt
	}

	n := ct[:chacha20poly1305.NonceSizeX]
	v, err := e.aead.Open(nil, n, ct[chacha20poly1305.NonceSizeX:], key)
	if err != nil {
		return nil, ErrDecrypt
	}
	if v == nil {
		v = []byte{}
	}

	return v, nil
}

func (e *Encrypted) Get(ctx context.Context, key []byte) ([]byte, error) {
	ct, err := e.inner.Get(ctx, e.encryptKey(key))
	if err != nil {
		return nil, err
	}

	return e.decryptValue(key, ct)
}

func (e *Encrypted) Insert(ctx context.Context, key, value []byte) ([]byte, error) {
	prev, err := e.inner.Insert(ctx, e.encryptKey(key), e.encryptValue(key, value))
	if err != nil {
		return nil, err
	}

	return e.decryptValue(key, prev)
}

func (e *Encrypted) Remove(ctx context.Context, key []byte) ([]byte, error) {
	prev, err := e.inner.Remove(ctx, e.encryptKey(key))
	if err != nil {
		return nil, err
	}

	return e.decryptValue(key, prev)
}
