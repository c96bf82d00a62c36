package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, nested keys use "__"
// e.g. SHOP_SERVER__PORT, SHOP_CATALOG__BASE_URL
const EnvPrefix = "SHOP_"

// Config holds all configuration shared by the order, product and gateway services.
// Values come from defaults, then an optional YAML file, then environment variables.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Gateway  GatewayConfig  `koanf:"gateway"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

type ServerConfig struct {
	Port            string `koanf:"port"`
	Host            string `koanf:"host"`
	ReadTimeout     int    `koanf:"read_timeout"`
	WriteTimeout    int    `koanf:"write_timeout"`
	ShutdownTimeout int    `koanf:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"` // optional rotated log file
}

type DatabaseConfig struct {
	Driver       string `koanf:"driver"` // sqlite, postgres or memory
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// CatalogConfig describes how the order service reaches the product service
// and how the product service seeds itself
type CatalogConfig struct {
	BaseURL        string `koanf:"base_url"`
	RequestTimeout int    `koanf:"request_timeout"` // seconds, applied by the HTTP client
	SeedFixtures   bool   `koanf:"seed_fixtures"`
	FixturesFile   string `koanf:"fixtures_file"` // empty means the embedded fixtures
}

type GatewayConfig struct {
	ProductServiceURL string `koanf:"product_service_url"`
	OrderServiceURL   string `koanf:"order_service_url"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

var validDrivers = map[string]bool{"sqlite": true, "postgres": true, "memory": true}

func defaults() map[string]any {
	return map[string]any{
		"server.port":                 "8080",
		"server.host":                 "0.0.0.0",
		"server.read_timeout":         15,
		"server.write_timeout":        15,
		"server.shutdown_timeout":     30,
		"log.level":                   "info",
		"log.file":                    "",
		"database.driver":             "sqlite",
		"database.dsn":                "data/shop.db",
		"database.max_open_conns":     10,
		"catalog.base_url":            "http://product-service",
		"catalog.request_timeout":     30,
		"catalog.seed_fixtures":       false,
		"catalog.fixtures_file":       "",
		"gateway.product_service_url": "http://product-service",
		"gateway.order_service_url":   "http://order-service",
		"metrics.enabled":             true,
	}
}

// Load reads configuration from defaults, the YAML file at path (skipped when
// path is empty) and SHOP_ environment variables, in that order
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// envKey turns SHOP_CATALOG__BASE_URL into catalog.base_url
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ReplaceAll(s, "__", ".")
	return strings.ToLower(s)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}

	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("invalid database driver: %s (must be sqlite, postgres, or memory)", c.Database.Driver)
	}
	if c.Database.Driver != "memory" && c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}

	if c.Catalog.RequestTimeout <= 0 {
		return errors.New("catalog.request_timeout must be positive")
	}

	for name, raw := range map[string]string{
		"catalog.base_url":            c.Catalog.BaseURL,
		"gateway.product_service_url": c.Gateway.ProductServiceURL,
		"gateway.order_service_url":   c.Gateway.OrderServiceURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}

	return nil
}
