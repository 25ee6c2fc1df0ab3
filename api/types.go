package api

import (
	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/hash"
)

type SubmitTxRequest struct {
	RuntimeID block.Namespace `msgpack:"runtime_id"`
	Data      []byte          `msgpack:"data"`
}

type SubmitTxResponse struct {
	Output []byte `msgpack:"output"`
}

type WaitSyncRequest struct{}

type WaitSyncResponse struct{}

type IsSyncedRequest struct{}

type IsSyncedResponse struct {
	Synced bool `msgpack:"synced"`
}

type WatchBlocksRequest struct {
	RuntimeID block.Namespace `msgpack:"runtime_id"`
}

type GetBlockRequest struct {
	RuntimeID block.Namespace `msgpack:"runtime_id"`
	Round     uint64          `msgpack:"round"`
}

// BlockResponse is a committed block header along with its hash. Block
// holds the msgpack encoded header and is decoded by the receiver.
type BlockResponse struct {
	Block     []byte    `msgpack:"block"`
	BlockHash hash.Hash `msgpack:"block_hash"`
}

type GetTxnRequest struct {
	RuntimeID block.Namespace `msgpack:"runtime_id"`
	Round     uint64          `msgpack:"round"`
	Index     uint32          `msgpack:"index"`
}

type GetTxnByBlockHashRequest struct {
	RuntimeID block.Namespace `msgpack:"runtime_id"`
	BlockHash hash.Hash       `msgpack:"block_hash"`
	Index     uint32          `msgpack:"index"`
}

// TxnResponse is a committed transaction and the block it is in
type TxnResponse struct {
	Block     []byte    `msgpack:"block"`
	BlockHash hash.Hash `msgpack:"block_hash"`
	Index     uint32    `msgpack:"txn_index"`
	Input     []byte    `msgpack:"input"`
	Output    []byte    `msgpack:"output"`
}

type GetTransactionsRequest struct {
	RuntimeID block.Namespace `msgpack:"runtime_id"`
	Root      hash.Hash       `msgpack:"root"`
}

type GetTransactionsResponse struct {
	Txns [][]byte `msgpack:"txns"`
}

type QueryBlockRequest struct {
	RuntimeID block.Namespace `msgpack:"runtime_id"`
	Key       []byte          `msgpack:"key"`
	Value     []byte          `msgpack:"value"`
}

type QueryTxnRequest struct {
	RuntimeID block.Namespace `msgpack:"runtime_id"`
	Key       []byte          `msgpack:"key"`
	Value     []byte          `msgpack:"value"`
}

type GetObjectRequest struct {
	ID hash.Hash `msgpack:"id"`
}

type GetObjectResponse struct {
	Data []byte `msgpack:"data"`
}
