package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/repository"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var (
		seed         bool
		fixturesFile string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema, optionally seeding product fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(opts, "migrate")
			if err != nil {
				return err
			}
			if cfg.Database.Driver == "memory" {
				return errors.New("migrate needs a sqlite or postgres database")
			}

			ctx := cmd.Context()
			db, err := openDatabase(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			if seed {
				path := fixturesFile
				if path == "" {
					path = cfg.Catalog.FixturesFile
				}
				if err := seedProducts(ctx, repository.NewSQLProductRepository(db), path, log); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "schema applied (%s)\n", db.Dialect)
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "load product fixtures after migrating")
	cmd.Flags().StringVar(&fixturesFile, "fixtures", "", "fixtures YAML file (default: built-in set)")
	return cmd
}
