package client

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrWatcherClosed is returned to waiters when the block subscription
	// ends before a block is available
	ErrWatcherClosed = errors.New("block watcher closed")
)

// CallFailedError is a transport level failure of a node call
type CallFailedError struct {
	Reason string
}

func (e *CallFailedError) Error() string {
	return fmt.Sprintf("call failed: %s", e.Reason)
}

func callFailed(err error) error {
	return &CallFailedError{Reason: err.Error()}
}

// TxnFailedError is the error message of a transaction the runtime rejected
type TxnFailedError struct {
	Message string
}

func (e *TxnFailedError) Error() string {
	return e.Message
}

func IsCallFailed(err error) bool {
	var e *CallFailedError
	return errors.As(err, &e)
}

func IsTxnFailed(err error) bool {
	var e *TxnFailedError
	return errors.As(err, &e)
}
