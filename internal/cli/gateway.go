package cli

import (
	"github.com/spf13/cobra"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/gateway"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/server"
)

const gatewayName = "gateway"

func newGatewayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   gatewayName,
		Short: "Run the API gateway in front of the product and order services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(opts, gatewayName)
			if err != nil {
				return err
			}

			upstreams, err := gateway.DefaultUpstreams(cfg.Gateway)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			log.Info("starting api gateway",
				"port", cfg.Server.Port,
				"host", cfg.Server.Host,
				"product_service", cfg.Gateway.ProductServiceURL,
				"order_service", cfg.Gateway.OrderServiceURL,
			)

			router := server.NewRouter(gatewayName, cfg, log, server.GatewayRoutes(gateway.New(upstreams, log)))
			return server.Run(ctx, cfg.Server, router, log)
		},
	}
}
