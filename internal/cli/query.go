package cli

import (
	"github.com/spf13/cobra"

	"github.com/tcfw/runtimed/internal/utils/logging"
)

var (
	queryCmd = &cobra.Command{
		Use:   "query",
		Short: "Look up blocks and transactions by emitted tags",
	}

	query_blockCmd = &cobra.Command{
		Use:   "block KEY VALUE",
		Short: "Find the latest block tagged KEY=VALUE",
		Args:  cobra.ExactArgs(2),
		Run:   runQueryBlock,
	}

	query_txnCmd = &cobra.Command{
		Use:   "txn KEY VALUE",
		Short: "Find the latest transaction tagged KEY=VALUE",
		Args:  cobra.ExactArgs(2),
		Run:   runQueryTxn,
	}
)

func runQueryBlock(cmd *cobra.Command, args []string) {
	c, err := connect()
	if err != nil {
		logging.WithError(err).Error("constructing client")
		return
	}
	defer c.Close()

	ctx, cancel := c.ctx()
	defer cancel()

	b, err := c.QueryBlock(ctx, []byte(args[0]), []byte(args[1]))
	if err != nil {
		logging.WithError(err).Error("querying block")
		return
	}

	if err := printOutput(newBlockView(&b.Header, b.BlockHash)); err != nil {
		logging.WithError(err).Error("printing block")
	}
}

func runQueryTxn(cmd *cobra.Command, args []string) {
	c, err := connect()
	if err != nil {
		logging.WithError(err).Error("constructing client")
		return
	}
	defer c.Close()

	ctx, cancel := c.ctx()
	defer cancel()

	t, err := c.QueryTxn(ctx, []byte(args[0]), []byte(args[1]))
	if err != nil {
		logging.WithError(err).Error("querying transaction")
		return
	}

	if err := printOutput(newTxnView(t)); err != nil {
		logging.WithError(err).Error("printing transaction")
	}
}
