package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/catalog"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/handlers"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/repository"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/server"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/service"
)

const orderServiceName = "order-service"

func newOrderServiceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   orderServiceName,
		Short: "Run the order service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(opts, orderServiceName)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			db, err := openDatabase(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			prices := catalog.NewClient(cfg.Catalog.BaseURL, time.Duration(cfg.Catalog.RequestTimeout)*time.Second, log)
			orderService := service.NewOrderService(repository.NewSQLOrderRepository(db), prices, log)
			orderHandler := handlers.NewOrderHandler(orderService, log)

			log.Info("starting order service",
				"port", cfg.Server.Port,
				"host", cfg.Server.Host,
				"log_level", cfg.Log.Level,
				"database", cfg.Database.Driver,
				"catalog", cfg.Catalog.BaseURL,
			)

			router := server.NewRouter(orderServiceName, cfg, log, server.OrderRoutes(orderHandler))
			return server.Run(ctx, cfg.Server, router, log)
		},
	}
}
