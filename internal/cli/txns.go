package cli

import (
	"github.com/spf13/cobra"

	"github.com/tcfw/runtimed/internal/utils/logging"
	"github.com/tcfw/runtimed/pkg/hash"
)

var (
	txnCmd = &cobra.Command{
		Use:   "txn",
		Short: "Transaction commands",
	}

	txn_getCmd = &cobra.Command{
		Use:   "get ROUND INDEX",
		Short: "Get a transaction by round and index",
		Args:  cobra.ExactArgs(2),
		Run:   runTxnGet,
	}

	txn_byHashCmd = &cobra.Command{
		Use:   "by-hash BLOCK_HASH INDEX",
		Short: "Get a transaction by block hash and index",
		Args:  cobra.ExactArgs(2),
		Run:   runTxnByHash,
	}
)

func runTxnGet(cmd *cobra.Command, args []string) {
	round, err := parseRound(args[0])
	if err != nil {
		logging.WithError(err).Error("invalid round")
		return
	}

	index, err := parseIndex(args[1])
	if err != nil {
		logging.WithError(err).Error("invalid index")
		return
	}

	c, err := connect()
	if err != nil {
		logging.WithError(err).Error("constructing client")
		return
	}
	defer c.Close()

	ctx, cancel := c.ctx()
	defer cancel()

	t, err := c.GetTxn(ctx, round, index)
	if err != nil {
		logging.WithError(err).Error("getting transaction")
		return
	}

	if err := printOutput(newTxnView(t)); err != nil {
		logging.WithError(err).Error("printing transaction")
	}
}

func runTxnByHash(cmd *cobra.Command, args []string) {
	id, err := hash.Parse(args[0])
	if err != nil {
		logging.WithError(err).Error("invalid block hash")
		return
	}

	index, err := parseIndex(args[1])
	if err != nil {
		logging.WithError(err).Error("invalid index")
		return
	}

	c, err := connect()
	if err != nil {
		logging.WithError(err).Error("constructing client")
		return
	}
	defer c.Close()

	ctx, cancel := c.ctx()
	defer cancel()

	t, err := c.GetTxnByBlockHash(ctx, id, index)
	if err != nil {
		logging.WithError(err).Error("getting transaction")
		return
	}

	if err := printOutput(newTxnView(t)); err != nil {
		logging.WithError(err).Error("printing transaction")
	}
}
