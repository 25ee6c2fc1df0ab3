package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apipb "github.com/tcfw/runtimed/api"
	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/storage"
)

func init() {
	reg = append(reg, &runtimeHandler{})
}

var (
	_ apipb.RuntimeClientServer = (*runtimeHandler)(nil)
)

// runtimeHandler serves the runtime client service from the node
type runtimeHandler struct {
	BaseHandler
}

func (h *runtimeHandler) Desc() *grpc.ServiceDesc {
	return &apipb.RuntimeClient_ServiceDesc
}

func (h *runtimeHandler) checkRuntime(id block.Namespace) error {
	if id != h.a.n.RuntimeID() {
		return status.Errorf(codes.NotFound, "unknown runtime %s", id)
	}

	return nil
}

func blockResponse(b *storage.BlockRecord) (*apipb.BlockResponse, error) {
	hdr, err := b.Header.Marshal()
	if err != nil {
		return nil, toStatus(err)
	}

	return &apipb.BlockResponse{Block: hdr, BlockHash: b.Hash}, nil
}

func (h *runtimeHandler) sendBlock(stream apipb.RuntimeClient_WatchBlocksServer, b *storage.BlockRecord) error {
	resp, err := blockResponse(b)
	if err != nil {
		return err
	}

	return stream.Send(resp)
}

func (h *runtimeHandler) SubmitTx(ctx context.Context, req *apipb.SubmitTxRequest) (*apipb.SubmitTxResponse, error) {
	if err := h.checkRuntime(req.RuntimeID); err != nil {
		return nil, err
	}

	out, err := h.a.n.Submit(ctx, req.Data)
	if err != nil {
		return nil, toStatus(err)
	}

	return &apipb.SubmitTxResponse{Output: out}, nil
}

func (h *runtimeHandler) WaitSync(ctx context.Context, _ *apipb.WaitSyncRequest) (*apipb.WaitSyncResponse, error) {
	if err := h.a.n.WaitSync(ctx); err != nil {
		return nil, toStatus(err)
	}

	return &apipb.WaitSyncResponse{}, nil
}

func (h *runtimeHandler) IsSynced(_ context.Context, _ *apipb.IsSyncedRequest) (*apipb.IsSyncedResponse, error) {
	return &apipb.IsSyncedResponse{Synced: h.a.n.IsSynced()}, nil
}

// WatchBlocks sends the current head then every block committed after it
func (h *runtimeHandler) WatchBlocks(req *apipb.WatchBlocksRequest, stream apipb.RuntimeClient_WatchBlocksServer) error {
	if err := h.checkRuntime(req.RuntimeID); err != nil {
		return err
	}

	ctx := stream.Context()

	blocks, release := h.a.n.Subscribe()
	defer release()

	if err := h.a.n.WaitSync(ctx); err != nil {
		return toStatus(err)
	}

	head := h.a.n.Head()
	if err := h.sendBlock(stream, head); err != nil {
		return err
	}
	last := head.Header.RoundNumber()

	for {
		select {
		case <-ctx.Done():
			return toStatus(ctx.Err())
		case b, ok := <-blocks:
			if !ok {
				return status.Error(codes.Unavailable, "node stopped")
			}

			if b.Header.RoundNumber() <= last {
				continue
			}
			last = b.Header.RoundNumber()

			if err := h.sendBlock(stream, b); err != nil {
				return err
			}
		}
	}
}

func (h *runtimeHandler) GetBlock(ctx context.Context, req *apipb.GetBlockRequest) (*apipb.BlockResponse, error) {
	if err := h.checkRuntime(req.RuntimeID); err != nil {
		return nil, err
	}

	b, err := h.a.n.Store().GetBlockByRound(ctx, req.Round)
	if err != nil {
		return nil, toStatus(err)
	}

	return blockResponse(b)
}

func (h *runtimeHandler) txnResponse(ctx context.Context, b *storage.BlockRecord, index uint32) (*apipb.TxnResponse, error) {
	txn, err := storage.GetTxn(ctx, h.a.n.Store(), b.Header.TransactionHash, index)
	if err != nil {
		return nil, toStatus(err)
	}

	hdr, err := b.Header.Marshal()
	if err != nil {
		return nil, toStatus(err)
	}

	return &apipb.TxnResponse{
		Block:     hdr,
		BlockHash: b.Hash,
		Index:     index,
		Input:     txn.Input,
		Output:    txn.Output,
	}, nil
}

func (h *runtimeHandler) GetTxn(ctx context.Context, req *apipb.GetTxnRequest) (*apipb.TxnResponse, error) {
	if err := h.checkRuntime(req.RuntimeID); err != nil {
		return nil, err
	}

	b, err := h.a.n.Store().GetBlockByRound(ctx, req.Round)
	if err != nil {
		return nil, toStatus(err)
	}

	return h.txnResponse(ctx, b, req.Index)
}

func (h *runtimeHandler) GetTxnByBlockHash(ctx context.Context, req *apipb.GetTxnByBlockHashRequest) (*apipb.TxnResponse, error) {
	if err := h.checkRuntime(req.RuntimeID); err != nil {
		return nil, err
	}

	b, err := h.a.n.Store().GetBlockByHash(ctx, req.BlockHash)
	if err != nil {
		return nil, toStatus(err)
	}

	return h.txnResponse(ctx, b, req.Index)
}

func (h *runtimeHandler) GetTransactions(ctx context.Context, req *apipb.GetTransactionsRequest) (*apipb.GetTransactionsResponse, error) {
	if err := h.checkRuntime(req.RuntimeID); err != nil {
		return nil, err
	}

	txns, err := storage.GetTxns(ctx, h.a.n.Store(), req.Root)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &apipb.GetTransactionsResponse{Txns: make([][]byte, 0, len(txns))}
	for _, t := range txns {
		resp.Txns = append(resp.Txns, t.Input)
	}

	return resp, nil
}

func (h *runtimeHandler) QueryBlock(ctx context.Context, req *apipb.QueryBlockRequest) (*apipb.BlockResponse, error) {
	if err := h.checkRuntime(req.RuntimeID); err != nil {
		return nil, err
	}

	b, err := h.a.n.Store().QueryBlock(ctx, req.Key, req.Value)
	if err != nil {
		return nil, toStatus(err)
	}

	return blockResponse(b)
}

func (h *runtimeHandler) QueryTxn(ctx context.Context, req *apipb.QueryTxnRequest) (*apipb.TxnResponse, error) {
	if err := h.checkRuntime(req.RuntimeID); err != nil {
		return nil, err
	}

	b, index, err := h.a.n.Store().QueryTxn(ctx, req.Key, req.Value)
	if err != nil {
		return nil, toStatus(err)
	}

	return h.txnResponse(ctx, b, index)
}
