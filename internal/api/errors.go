package api

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tcfw/runtimed/internal/node"
	"github.com/tcfw/runtimed/pkg/storage"
)

// toStatus maps node and store errors onto grpc status codes
func toStatus(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrIndexOutOfRange):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, node.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
