package cli

import (
	"context"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	apipb "github.com/tcfw/runtimed/api"
	"github.com/tcfw/runtimed/internal/utils/logging"
	"github.com/tcfw/runtimed/pkg/block"
)

var (
	errMalformedBlock = errors.New("malformed block")

	blockCmd = &cobra.Command{
		Use:   "block",
		Short: "Block commands",
	}

	block_getCmd = &cobra.Command{
		Use:   "get ROUND",
		Short: "Get the block at a round",
		Args:  cobra.ExactArgs(1),
		Run:   runBlockGet,
	}

	block_latestCmd = &cobra.Command{
		Use:   "latest",
		Short: "Get the latest block",
		Run:   runBlockLatest,
	}

	block_watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print blocks as they are committed",
		Run:   runBlockWatch,
	}

	block_txnsCmd = &cobra.Command{
		Use:   "txns ROUND",
		Short: "List the transactions of the block at a round",
		Args:  cobra.ExactArgs(1),
		Run:   runBlockTxns,
	}
)

func runBlockGet(cmd *cobra.Command, args []string) {
	round, err := parseRound(args[0])
	if err != nil {
		logging.WithError(err).Error("invalid round")
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

	b, err := c.GetBlock(ctx, round)
	if err != nil {
		logging.WithError(err).Error("getting block")
		return
	}

	if err := printOutput(newBlockView(&b.Header, b.BlockHash)); err != nil {
		logging.WithError(err).Error("printing block")
	}
}

func runBlockLatest(cmd *cobra.Command, args []string) {
	c, err := connect()
	if err != nil {
		logging.WithError(err).Error("constructing client")
		return
	}
	defer c.Close()

	ctx, cancel := c.ctx()
	defer cancel()

	b, err := c.GetLatestBlock(ctx)
	if err != nil {
		logging.WithError(err).Error("getting latest block")
		return
	}

	if err := printOutput(newBlockView(&b.Header, b.BlockHash)); err != nil {
		logging.WithError(err).Error("printing block")
	}
}

func runBlockTxns(cmd *cobra.Command, args []string) {
	round, err := parseRound(args[0])
	if err != nil {
		logging.WithError(err).Error("invalid round")
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

	b, err := c.GetBlock(ctx, round)
	if err != nil {
		logging.WithError(err).Error("getting block")
		return
	}

	txns, err := b.Transactions(ctx)
	if err != nil {
		logging.WithError(err).Error("getting transactions")
		return
	}

	views := make([]*txnView, 0, len(txns))
	for i, t := range txns {
		method, callArgs := decodeCall(t.Input)
		v := &txnView{
			Round:     b.Round(),
			Index:     uint32(i),
			BlockHash: b.BlockHash.String(),
			Method:    method,
			Args:      callArgs,
		}
		v.Result, v.Error = decodeResult(t.Output)

		views = append(views, v)
	}

	if err := printOutput(views); err != nil {
		logging.WithError(err).Error("printing transactions")
	}
}

func runBlockWatch(cmd *cobra.Command, args []string) {
	c, err := connect()
	if err != nil {
		logging.WithError(err).Error("constructing client")
		return
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-waitExit(ctx)
		cancel()
	}()

	bo := &backoff.Backoff{
		Min: 500 * time.Millisecond,
		Max: 30 * time.Second,
	}

	var (
		seen     bool
		lastSeen uint64
	)

	for ctx.Err() == nil {
		err := watchBlocks(ctx, c.api.Runtime(), &apipb.WatchBlocksRequest{RuntimeID: c.cfg.Runtime().ID}, func(resp *apipb.BlockResponse) error {
			bo.Reset()

			h, err := block.Unmarshal(resp.Block)
			if err != nil {
				return errors.Wrap(errMalformedBlock, err.Error())
			}

			r := h.RoundNumber()
			if seen && r <= lastSeen {
				return nil
			}
			seen, lastSeen = true, r

			return printOutput(newBlockView(h, resp.BlockHash))
		})
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, errMalformedBlock) {
			logging.WithError(err).Error("decoding block")
			return
		}

		d := bo.Duration()
		logging.WithError(err).WithField("retry", d).Warn("block subscription ended")

		select {
		case <-ctx.Done():
			return
		case <-time.After(d):
		}
	}
}

// watchBlocks subscribes once and feeds every received block to fn until
// the stream fails
func watchBlocks(ctx context.Context, rc apipb.RuntimeClientClient, req *apipb.WatchBlocksRequest, fn func(*apipb.BlockResponse) error) error {
	stream, err := rc.WatchBlocks(ctx, req)
	if err != nil {
		return err
	}

	for {
		resp, err := stream.Recv()
		if err != nil {
			return err
		}

		if err := fn(resp); err != nil {
			return err
		}
	}
}

