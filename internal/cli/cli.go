package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tcfw/runtimed/internal/config"
)

var (
	rootCmd = &cobra.Command{
		Use:   "runtimed",
		Short: "confidential runtime node and client",
	}
)

func Execute() error {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase verbosity")
	viper.BindPFlag(config.Cfg_verbose, rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.PersistentFlags().String("addr", "", "daemon address")
	viper.BindPFlag(config.Cfg_daemonAddr, rootCmd.PersistentFlags().Lookup("addr"))

	rootCmd.PersistentFlags().String("runtime", "", "runtime id, hex encoded")
	viper.BindPFlag(config.Cfg_runtime_id, rootCmd.PersistentFlags().Lookup("runtime"))

	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (yaml|json)")
	viper.BindPFlag(config.Cfg_client_output, rootCmd.PersistentFlags().Lookup("output"))

	regCommands()

	return rootCmd.Execute()
}

func waitExit(ctx context.Context) <-chan os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	return sigs
}
