package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "shop %s (%s)\n", version.Version, version.Commit)
			return nil
		},
	}
}
