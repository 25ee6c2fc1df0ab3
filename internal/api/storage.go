package api

import (
	"context"

	"google.golang.org/grpc"

	apipb "github.com/tcfw/runtimed/api"
)

func init() {
	reg = append(reg, &storageHandler{})
}

var (
	_ apipb.StorageServer = (*storageHandler)(nil)
)

// storageHandler exposes the node's content addressed objects
type storageHandler struct {
	BaseHandler
}

func (h *storageHandler) Desc() *grpc.ServiceDesc {
	return &apipb.Storage_ServiceDesc
}

func (h *storageHandler) GetObject(ctx context.Context, req *apipb.GetObjectRequest) (*apipb.GetObjectResponse, error) {
	d, err := h.a.n.Store().GetObject(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}

	return &apipb.GetObjectResponse{Data: d}, nil
}
