package runtime

import (
	"github.com/pkg/errors"

	"github.com/tcfw/runtimed/pkg/hash"
	"github.com/tcfw/runtimed/pkg/keymanager"
	"github.com/tcfw/runtimed/pkg/mkvs"
)

// ContractIDFromKey derives the contract a logical state key belongs to
func ContractIDFromKey(key []byte) keymanager.ContractID {
	return keymanager.ContractID(hash.Digest(key))
}

// WithEncryption runs fn against the invocation state wrapped with the state
// key issued for key's contract. The wrapper does not outlive fn.
func WithEncryption[R any](ctx *Context, km keymanager.Client, key []byte, fn func(mkvs.MKVS) (R, error)) (R, error) {
	var res R

	if km == nil {
		return res, errors.New("no key manager available")
	}

	keys, err := km.GetOrCreateKeys(ctx.Context(), ContractIDFromKey(key))
	if err != nil {
		return res, errors.Wrap(err, "getting contract keys")
	}

	err = mkvs.WithEncryptionKey(ctx.State(), keys.StateKey[:], func(m mkvs.MKVS) error {
		var ferr error
		res, ferr = fn(m)
		return ferr
	})

	return res, err
}
