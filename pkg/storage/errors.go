package storage

import "github.com/pkg/errors"

var (
	ErrNotFound = errors.New("not found")

	ErrBlockExists     = errors.New("block already committed for round")
	ErrNotNextRound    = errors.New("block does not follow latest block")
	ErrTooManyTxns     = errors.New("txn set contains too many txns")
	ErrHashMismatch    = errors.New("object does not match hash")
	ErrIndexOutOfRange = errors.New("txn index out of range")
)
