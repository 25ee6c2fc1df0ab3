package cli

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tcfw/runtimed/internal/api"
	"github.com/tcfw/runtimed/internal/config"
	"github.com/tcfw/runtimed/internal/node"
	"github.com/tcfw/runtimed/internal/utils/logging"
)

const (
	shutdownGrace = 10 * time.Second
)

var (
	daemonCmd = &cobra.Command{
		Use:   "daemon",
		RunE:  runDaemon,
		Short: "run the daemon",
	}
)

func init() {
	daemonCmd.Flags().StringP("listen", "l", "", "api listen address")
	viper.BindPFlag(config.Cfg_node_listenAddr, daemonCmd.Flags().Lookup("listen"))

	daemonCmd.Flags().String("store", "", "storage backend (memory|pebble)")
	viper.BindPFlag(config.Cfg_node_store, daemonCmd.Flags().Lookup("store"))

	daemonCmd.Flags().String("repo", "", "pebble data directory")
	viper.BindPFlag(config.Cfg_node_repo, daemonCmd.Flags().Lookup("repo"))

	daemonCmd.Flags().Duration("block-interval", 0, "how often pending calls are batched into a block")
	viper.BindPFlag(config.Cfg_node_blockInterval, daemonCmd.Flags().Lookup("block-interval"))
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.GetConfig()
	if err != nil {
		return errors.Wrap(err, "loading config")
	}

	n, err := node.NewNode(ctx,
		node.WithDefaultOptions(ctx, cfg),
	)
	if err != nil {
		return errors.Wrap(err, "initing node")
	}

	a, err := api.NewAPI(n)
	if err != nil {
		n.Stop()
		return errors.Wrap(err, "initing api")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(n.ListenAndServe)

	g.Go(func() error {
		addr := cfg.Node().ListenAddr
		logging.WithField("addr", addr).WithField("runtime", n.RuntimeID().String()).Info("Starting API")

		if err := a.ListenAndServe(addr); err != nil {
			return errors.Wrap(err, "serving api")
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-waitExit(gctx):
		case <-gctx.Done():
		}

		sctx, scancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer scancel()

		a.Shutdown(sctx)
		return n.Stop()
	})

	return g.Wait()
}
