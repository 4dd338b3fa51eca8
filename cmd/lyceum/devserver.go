package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lyceum-io/lyceum/server/devserver"
)

var flagAddr string

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run an in-memory stand-in for the Lyceum backend",
	Long: `Runs a local HTTP server that mimics the backend's session and
assistant endpoints with fixture data. Useful for development and for
demoing the client without a real backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return devserver.New().Run(ctx, flagAddr)
	},
}

func init() {
	devserverCmd.Flags().StringVar(&flagAddr, "addr", "127.0.0.1:8787", "listen address")
	rootCmd.AddCommand(devserverCmd)
}
