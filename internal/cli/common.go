package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/config"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/database"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/repository"
	"github.com/Lixing-Zhang/ecommerce-backend/pkg/logger"
)

// bootstrap loads configuration and installs the service logger as default
func bootstrap(opts *rootOptions, service string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logOpts := []logger.Option{logger.WithService(service)}
	if cfg.Log.File != "" {
		logOpts = append(logOpts, logger.WithFile(cfg.Log.File))
	}
	log := logger.New(cfg.Log.Level, logOpts...)
	slog.SetDefault(log)

	return cfg, log, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// openDatabase opens and migrates the configured SQL store. The memory
// driver gets a private in-memory SQLite database.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*database.DB, error) {
	if cfg.Driver == "memory" {
		cfg = config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("database ready", "driver", cfg.Driver)
	return db, nil
}

// openProductRepository returns the in-memory repository for the memory
// driver and the SQL repository otherwise. close releases the database.
func openProductRepository(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (repo repository.ProductRepository, closeFn func(), err error) {
	if cfg.Driver == "memory" {
		return repository.NewInMemoryProductRepository(), func() {}, nil
	}

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewSQLProductRepository(db), func() { _ = db.Close() }, nil
}

// seedProducts loads fixtures into repo, skipping products already present
func seedProducts(ctx context.Context, repo repository.ProductRepository, path string, log *slog.Logger) error {
	products, err := repository.LoadFixtures(path)
	if err != nil {
		return err
	}

	added, err := repository.Seed(ctx, repo, products)
	if err != nil {
		return err
	}
	log.Info("product fixtures loaded", "added", added, "total", len(products))
	return nil
}
