package keymanager

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/tcfw/runtimed/pkg/hash"
)

const (
	KeySize = 32

	inputKeyInfo = "runtimed/keymanager/input"
	stateKeyInfo = "runtimed/keymanager/state"
)

var (
	ErrBadMasterSecret = errors.New("master secret must be 32 bytes")

	_ Client = (*LocalClient)(nil)
)

// ContractID identifies the holder of a set of confidential keys
type ContractID [32]byte

func (id ContractID) String() string {
	return hash.Hash(id).String()
}

// KeyPair is an X25519 keypair
type KeyPair struct {
	Public  [KeySize]byte
	Private [KeySize]byte
}

// ContractKey is the key material issued for a single contract
type ContractKey struct {
	InputKeypair KeyPair
	StateKey     [KeySize]byte
}

// Client issues per contract keys
type Client interface {
	GetOrCreateKeys(ctx context.Context, id ContractID) (*ContractKey, error)
	GetPublicKey(ctx context.Context, id ContractID) ([KeySize]byte, error)
}

// LocalClient derives every contract's keys from a single master secret, so
// the same secret always issues the same keys
type LocalClient struct {
	master []byte

	mu    sync.RWMutex
	cache map[ContractID]*ContractKey
}

func NewLocalClient(masterSecret []byte) (*LocalClient, error) {
	if len(masterSecret) != KeySize {
		return nil, ErrBadMasterSecret
	}

	return &LocalClient{
		master: append([]byte{}, masterSecret...),
		cache:  make(map[ContractID]*ContractKey),
	}, nil
}

func (c *LocalClient) derive(id ContractID, info string) ([KeySize]byte, error) {
	var k [KeySize]byte

	r := hkdf.New(sha3.New256, c.master, id[:], []byte(info))
	if _, err := io.ReadFull(r, k[:]); err != nil {
		return k, errors.Wrap(err, "deriving key")
	}

	return k, nil
}

func (c *LocalClient) generate(id ContractID) (*ContractKey, error) {
	priv, err := c.derive(id, inputKeyInfo)
	if err != nil {
		return nil, err
	}

	// clamp per RFC 7748
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, errors.Wrap(err, "computing public key")
	}

	state, err := c.derive(id, stateKeyInfo)
	if err != nil {
		return nil, err
	}

	k := &ContractKey{StateKey: state}
	k.InputKeypair.Private = priv
	copy(k.InputKeypair.Public[:], pub)

	return k, nil
}

func (c *LocalClient) GetOrCreateKeys(ctx context.Context, id ContractID) (*ContractKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	k, ok := c.cache[id]
	c.mu.RUnlock()

	if ok {
		cpy := *k
		return &cpy, nil
	}

	k, err := c.generate(id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[id] = k
	c.mu.Unlock()

	cpy := *k
	return &cpy, nil
}

func (c *LocalClient) GetPublicKey(ctx context.Context, id ContractID) ([KeySize]byte, error) {
	k, err := c.GetOrCreateKeys(ctx, id)
	if err != nil {
		return [KeySize]byte{}, err
	}

	return k.InputKeypair.Public, nil
}
