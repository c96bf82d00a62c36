// Package cli holds the cobra commands of the single shop binary. Each
// service runs as its own subcommand.
package cli

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "shop",
		Short:         "E-commerce back end: product service, order service and API gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"path to a YAML config file (SHOP_* environment variables override it)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newProductServiceCmd(opts))
	cmd.AddCommand(newOrderServiceCmd(opts))
	cmd.AddCommand(newGatewayCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	return cmd
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}
