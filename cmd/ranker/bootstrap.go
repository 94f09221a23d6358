package main

import (
	"context"
	"fmt"
	"os"

	"fundamentals-ranker/internal/api"
	"fundamentals-ranker/internal/datasource"
	"fundamentals-ranker/internal/holdings"
	"fundamentals-ranker/internal/interfaces"
	"fundamentals-ranker/internal/logger"
	"fundamentals-ranker/internal/research/fundamentals"
	"fundamentals-ranker/internal/research/fundamentals/fundobs"
	"fundamentals-ranker/internal/runlog"
	"fundamentals-ranker/internal/store"
	"fundamentals-ranker/internal/trace"

	"github.com/joho/godotenv"
)

// initializeSystem loads .env and initializes logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig reads path, or falls back to defaults when the file is absent
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn(ctx, "Config file not found, using defaults", "path", path)
		return store.Default()
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs gzips run logs past the retention window
func compressOldLogs(ctx context.Context, log *runlog.Log, retentionDays int) {
	if err := log.CompressOlder(retentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}
}

// sources bundles the fetchers for one data source
type sources struct {
	statements fundamentals.StatementFetcher
	holders    fundamentals.HoldingsFetcher
}

// initializeSources picks live Yahoo clients or the deterministic mocks
func initializeSources(ctx context.Context, cfg *store.Config) sources {
	if cfg.DataSource == store.DataSourceMock {
		logger.Info(ctx, "Using MOCK statement data")
		return sources{
			statements: fundamentals.NewMockStatementFetcher(),
			holders:    fundamentals.MockHoldingsFetcher{},
		}
	}

	client := api.NewClient(
		api.WithTimeout(cfg.ProviderTimeout()),
		api.WithRateLimit(cfg.Provider.RateLimit),
		api.WithRetry(&api.RetryConfig{
			MaxAttempts: cfg.Provider.MaxAttempts,
			InitialWait: api.DefaultRetryConfig().InitialWait,
			MaxWait:     api.DefaultRetryConfig().MaxWait,
		}),
		api.WithHeaders(api.YahooFinanceHeaders()),
		api.WithCookieJar(),
		api.WithLogging(logger.IsDebugEnabled()),
	)
	opts := []datasource.YahooOption{}
	if cfg.Provider.BaseURL != "" {
		opts = append(opts, datasource.WithYahooBaseURL(cfg.Provider.BaseURL))
	}
	yahoo := datasource.NewYahooClient(client, opts...)
	logger.Info(ctx, "Using LIVE statement data", "rate_limit", cfg.Provider.RateLimit)
	return sources{statements: yahoo, holders: yahoo}
}

// loadUniverse returns the static list if configured, else scrapes it
func loadUniverse(ctx context.Context, cfg *store.Config) ([]string, error) {
	if len(cfg.Universe.Static) > 0 {
		return cfg.Universe.Static, nil
	}
	if cfg.DataSource == store.DataSourceMock && cfg.Universe.SourceURL == "" {
		return mockUniverse, nil
	}
	scraper := datasource.NewUniverseScraper(cfg.Universe.SourceURL, cfg.Provider.UserAgent, cfg.ProviderTimeout())
	return scraper.Symbols(ctx)
}

var mockUniverse = []string{"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "AVGO", "TSLA", "COST", "NFLX"}

// initializeRanker builds the observable engine for one granularity
func initializeRanker(cfg *store.Config, g fundamentals.Granularity, src sources) interfaces.Ranker {
	opts := []fundamentals.Option{}
	if cfg.HoldingsEnabled() {
		opts = append(opts, fundamentals.WithHoldings(holdings.NewReporter(src.holders, cfg.Holdings.Organizations)))
	}
	return fundobs.Wrap(fundamentals.NewEngine(cfg.EngineConfig(g), src.statements, opts...))
}
