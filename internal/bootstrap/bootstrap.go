// Package bootstrap wires configuration into loggers, providers and the prediction service.
package bootstrap

import (
	"context"
	"fmt"

	"stockDecoder/config"
	"stockDecoder/internal/adapters/alphavantage"
	"stockDecoder/internal/adapters/binanceclient"
	"stockDecoder/internal/adapters/logger"
	"stockDecoder/internal/adapters/provider"
	"stockDecoder/internal/adapters/sqlite"
	"stockDecoder/internal/adapters/yahoo"
	"stockDecoder/internal/app"
	"stockDecoder/internal/classifier"
	"stockDecoder/internal/ports"
)

// NewLogger returns the logger selected by cfg.LogFormat.
func NewLogger(cfg *config.Config) ports.Logger {
	if cfg.LogFormat == "json" {
		return logger.NewZapLogger(cfg.LogLevel)
	}
	return logger.NewStdLogger(cfg.LogLevel)
}

// SyncLogger flushes buffered log entries when the logger supports it.
func SyncLogger(l ports.Logger) {
	if s, ok := l.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}

// NewRegistry registers every market data provider; cfg.DataProvider becomes the default.
func NewRegistry(cfg *config.Config, log ports.Logger) (*provider.Registry, error) {
	registry := provider.NewRegistry(cfg.DataProvider)

	av, err := alphavantage.New(alphavantage.Config{
		BaseURL:    cfg.AlphaVantageBaseURL,
		APIKey:     cfg.AlphaVantageAPIKey,
		Timeout:    cfg.RequestTimeout,
		MaxRetries: cfg.MaxRetries,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Alpha Vantage client: %w", err)
	}
	registry.Register(av)

	bc, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.BinanceAPIKey,
		SecretKey:  cfg.BinanceSecretKey,
		UseTestnet: cfg.BinanceTestnet,
		KlineLimit: cfg.BinanceKlineLimit,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Binance client: %w", err)
	}
	registry.Register(bc)

	yc, err := yahoo.New(yahoo.Config{Logger: log})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Yahoo client: %w", err)
	}
	registry.Register(yc)

	log.Info(context.Background(), "Market data providers registered", map[string]interface{}{
		"providers": registry.Names(),
		"default":   cfg.DataProvider,
	})
	return registry, nil
}

// Components holds the wired application graph.
type Components struct {
	Registry *provider.Registry
	Repo     *sqlite.Repository // Nil when opened without persistence
	Service  *app.PredictionService
}

// Close releases the repository, if any.
func (c *Components) Close() error {
	if c.Repo == nil {
		return nil
	}
	return c.Repo.Close()
}

// Build wires providers, the trainer and the service. The SQLite repository is opened
// only when withRepo is set.
func Build(cfg *config.Config, log ports.Logger, withRepo bool) (*Components, error) {
	registry, err := NewRegistry(cfg, log)
	if err != nil {
		return nil, err
	}

	trainer, err := classifier.NewTrainer(classifier.Config{MaxDepth: cfg.MaxTreeDepth})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tree trainer: %w", err)
	}

	c := &Components{Registry: registry}
	svcCfg := app.Config{
		Logger:        log,
		Providers:     registry,
		Trainer:       trainer,
		DefaultSeries: cfg.DefaultSeries,
	}
	if withRepo {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: log})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database repository: %w", err)
		}
		c.Repo = repo
		svcCfg.Repository = repo
	}

	svc, err := app.NewPredictionService(svcCfg)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize prediction service: %w", err)
	}
	c.Service = svc
	return c, nil
}
