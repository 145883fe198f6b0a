package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "qrgate",
		Short:         "QR access-control station",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (QRGATE_* env vars override it)")

	root.AddCommand(newServeCmd(&configPath), newMigrateCmd(&configPath))
	return root
}
