package block

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
)

// U256 is an unsigned 256 bit integer stored big-endian
type U256 [32]byte

func NewU256(v uint64) U256 {
	var u U256
	binary.BigEndian.PutUint64(u[24:], v)
	return u
}

func U256FromBig(b *big.Int) (U256, error) {
	var u U256
	if b.Sign() < 0 || b.BitLen() > 256 {
		return u, errors.New("value out of range for u256")
	}

	b.FillBytes(u[:])
	return u, nil
}

func (u U256) Big() *big.Int {
	return new(big.Int).SetBytes(u[:])
}

// Uint64 returns the value if it fits in 64 bits
func (u U256) Uint64() (uint64, bool) {
	for _, b := range u[:24] {
		if b != 0 {
			return 0, false
		}
	}

	return binary.BigEndian.Uint64(u[24:]), true
}

func (u U256) String() string {
	return u.Big().String()
}
