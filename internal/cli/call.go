package cli

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tcfw/runtimed/internal/utils/logging"
	"github.com/tcfw/runtimed/pkg/client"
)

var (
	callCmd = &cobra.Command{
		Use:   "call METHOD [ARGS]",
		Short: "Submit a call to the runtime and print its result",
		Long:  "Submit a call to the runtime and print its result. ARGS is parsed as YAML (or JSON).",
		Args:  cobra.RangeArgs(1, 2),
		Run:   runCall,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show whether the daemon has synced its head block",
		Run:   runStatus,
	}
)

func init() {
	callCmd.Flags().BoolP("string", "s", false, "send ARGS as a plain string")
}

func parseArgs(raw string, asString bool) (interface{}, error) {
	if asString {
		return raw, nil
	}

	var v interface{}
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, errors.Wrap(err, "parsing call args")
	}

	return v, nil
}

func runCall(cmd *cobra.Command, args []string) {
	var callArgs interface{}
	if len(args) == 2 {
		asString, _ := cmd.Flags().GetBool("string")

		v, err := parseArgs(args[1], asString)
		if err != nil {
			logging.WithError(err).Error("invalid args")
			return
		}
		callArgs = v
	}

	c, err := connect()
	if err != nil {
		logging.WithError(err).Error("constructing client")
		return
	}
	defer c.Close()

	ctx, cancel := c.ctx()
	defer cancel()

	var res interface{}
	if err := c.Call(ctx, args[0], callArgs, &res); err != nil {
		if client.IsTxnFailed(err) {
			logging.WithField("method", args[0]).WithError(err).Error("call rejected by runtime")
			return
		}
		logging.WithError(err).Error("submitting call")
		return
	}

	if err := printOutput(res); err != nil {
		logging.WithError(err).Error("printing result")
	}
}

func runStatus(cmd *cobra.Command, args []string) {
	c, err := connect()
	if err != nil {
		logging.WithError(err).Error("constructing client")
		return
	}
	defer c.Close()

	ctx, cancel := c.ctx()
	defer cancel()

	synced, err := c.IsSynced(ctx)
	if err != nil {
		logging.WithError(err).Error("getting sync status")
		return
	}

	out := map[string]interface{}{
		"runtime": c.cfg.Runtime().ID.String(),
		"synced":  synced,
	}

	if synced {
		b, err := c.GetLatestBlock(ctx)
		if err != nil {
			logging.WithError(err).Error("getting latest block")
			return
		}
		out["latest"] = newBlockView(&b.Header, b.BlockHash)
	}

	if err := printOutput(out); err != nil {
		logging.WithError(err).Error("printing status")
	}
}
