package cli

import (
	"github.com/spf13/cobra"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/handlers"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/server"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/service"
)

const productServiceName = "product-service"

func newProductServiceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   productServiceName,
		Short: "Run the product catalog service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(opts, productServiceName)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			repo, closeRepo, err := openProductRepository(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer closeRepo()

			if cfg.Catalog.SeedFixtures {
				if err := seedProducts(ctx, repo, cfg.Catalog.FixturesFile, log); err != nil {
					return err
				}
			}

			productService := service.NewProductService(repo, log)
			productHandler := handlers.NewProductHandler(productService, log)

			log.Info("starting product service",
				"port", cfg.Server.Port,
				"host", cfg.Server.Host,
				"log_level", cfg.Log.Level,
				"database", cfg.Database.Driver,
			)

			router := server.NewRouter(productServiceName, cfg, log, server.ProductRoutes(productHandler))
			return server.Run(ctx, cfg.Server, router, log)
		},
	}
}
