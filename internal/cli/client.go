package cli

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/tcfw/runtimed/internal/api"
	"github.com/tcfw/runtimed/internal/config"
	"github.com/tcfw/runtimed/internal/utils/logging"
	"github.com/tcfw/runtimed/pkg/client"
)

// runtimeConn is a daemon connection plus a client for the configured runtime
type runtimeConn struct {
	cfg *config.Config
	api *api.Client
	*client.Client
}

func (c *runtimeConn) Close() error {
	c.Client.Close()
	return c.api.Close()
}

// connect dials the configured daemon. The connection is lazy so no
// context is needed here.
func connect() (*runtimeConn, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, errors.Wrap(err, "loading config")
	}

	a, err := api.Dial(context.Background(), cfg.Client().DaemonAddr)
	if err != nil {
		return nil, err
	}

	c, err := a.TxnClient(cfg.Runtime().ID,
		client.WithTimeout(cfg.Client().Timeout),
		client.WithLogger(logging.Named("client")),
	)
	if err != nil {
		a.Close()
		return nil, errors.Wrap(err, "constructing client")
	}

	return &runtimeConn{cfg: cfg, api: a, Client: c}, nil
}

// ctx bounds a single command by the configured client timeout
func (c *runtimeConn) ctx() (context.Context, context.CancelFunc) {
	if c.cfg.Client().Timeout == 0 {
		return context.WithCancel(context.Background())
	}

	return context.WithTimeout(context.Background(), c.cfg.Client().Timeout)
}

func parseRound(s string) (uint64, error) {
	r, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parsing round")
	}

	return r, nil
}

func parseIndex(s string) (uint32, error) {
	i, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrap(err, "parsing txn index")
	}

	return uint32(i), nil
}
