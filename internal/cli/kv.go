package cli

import (
	"github.com/spf13/cobra"

	"github.com/tcfw/runtimed/internal/runtime/keyvalue"
	"github.com/tcfw/runtimed/internal/utils/logging"
)

var (
	kvCmd = &cobra.Command{
		Use:   "kv",
		Short: "Key value runtime commands",
	}

	kv_insertCmd = &cobra.Command{
		Use:   "insert KEY VALUE",
		Short: "Insert a value, printing the previous one",
		Args:  cobra.ExactArgs(2),
		Run:   runKV,
	}

	kv_getCmd = &cobra.Command{
		Use:   "get KEY",
		Short: "Get a value",
		Args:  cobra.ExactArgs(1),
		Run:   runKV,
	}

	kv_removeCmd = &cobra.Command{
		Use:   "remove KEY",
		Short: "Remove a value, printing the removed one",
		Args:  cobra.ExactArgs(1),
		Run:   runKV,
	}
)

func init() {
	for _, c := range []*cobra.Command{kv_insertCmd, kv_getCmd, kv_removeCmd} {
		c.Flags().BoolP("encrypted", "e", false, "use the confidential variant")
	}
}

// kvMethod maps a kv subcommand to its runtime method
func kvMethod(op string, encrypted bool) string {
	switch op {
	case "insert":
		if encrypted {
			return keyvalue.MethodEncInsert
		}
		return keyvalue.MethodInsert
	case "get":
		if encrypted {
			return keyvalue.MethodEncGet
		}
		return keyvalue.MethodGet
	default:
		if encrypted {
			return keyvalue.MethodEncRemove
		}
		return keyvalue.MethodRemove
	}
}

func runKV(cmd *cobra.Command, args []string) {
	encrypted, _ := cmd.Flags().GetBool("encrypted")
	method := kvMethod(cmd.Name(), encrypted)

	var callArgs interface{} = args[0]
	if len(args) == 2 {
		callArgs = &keyvalue.KeyValue{Key: args[0], Value: args[1]}
	}

	c, err := connect()
	if err != nil {
		logging.WithError(err).Error("constructing client")
		return
	}
	defer c.Close()

	ctx, cancel := c.ctx()
	defer cancel()

	var res *string
	if err := c.Call(ctx, method, callArgs, &res); err != nil {
		logging.WithField("method", method).WithError(err).Error("calling runtime")
		return
	}

	if err := printOutput(map[string]interface{}{"key": args[0], "value": res}); err != nil {
		logging.WithError(err).Error("printing result")
	}
}
