package main

import (
	"context"
	"errors"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"

	"fxFeedLab/config"
	"fxFeedLab/internal/adapters/echarts"
	"fxFeedLab/internal/adapters/fetcher"
	"fxFeedLab/internal/adapters/logger"
	"fxFeedLab/internal/adapters/postgres"
	"fxFeedLab/internal/adapters/redisstore"
	"fxFeedLab/internal/adapters/sqlite"
	"fxFeedLab/internal/app"
	"fxFeedLab/internal/engine"
	"fxFeedLab/internal/ports"
	"fxFeedLab/internal/strategy"
)

func main() {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Output: os.Stderr, Console: cfg.LogConsole})
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (run history, default object store)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing database repository")
		}
	}()
	appLogger.Info(ctx, "Database repository initialized")

	// 4. Select Object Store
	var store ports.ObjectStore = repo
	switch cfg.ObjectStore {
	case config.StoreRedis:
		rs, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to connect to Redis object store")
			log.Fatalf("FATAL: Failed to connect to Redis object store: %v", err)
		}
		defer rs.Close()
		store = rs
	case config.StorePostgres:
		ps, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to connect to Postgres object store")
			log.Fatalf("FATAL: Failed to connect to Postgres object store: %v", err)
		}
		defer ps.Close()
		store = ps
	}
	appLogger.Info(ctx, "Object store initialized", map[string]interface{}{"backend": cfg.ObjectStore})

	// 5. Initialize Host Collaborators
	resourceFetcher := fetcher.New(cfg.DataDir, cfg.FetchTimeout, cfg.FetchProxy)
	surface := echarts.New("EUR/USD feed comparison")

	replay, err := engine.New(engine.Config{
		Start:           cfg.Start,
		End:             cfg.End,
		Store:           store,
		Logger:          appLogger,
		ForexKeyPattern: cfg.ForexKeyPattern,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize replay engine")
		log.Fatalf("FATAL: Failed to initialize replay engine: %v", err)
	}

	// 6. Initialize Strategy
	strat, err := strategy.New(strategy.Config{
		PrimaryTicker:  cfg.PrimaryTicker,
		Custom:         strategy.FeedConfig(cfg.Custom),
		TradingView:    strategy.FeedConfig(cfg.TradingView),
		OfficialTicker: cfg.OfficialTicker,
		Resolution:     cfg.Resolution,
		PipSize:        cfg.PipSize,
		Analyzer: strategy.AnalyzerConfig{
			ReportEvery:     cfg.ReportEvery,
			WickToBodyRatio: cfg.WickToBodyRatio,
			MinimumWickPips: cfg.MinimumWickPips,
			MaximumBodyPips: cfg.MaximumBodyPips,
		},
	}, strategy.Deps{
		Logger:  appLogger,
		Store:   store,
		Fetcher: resourceFetcher,
		Charts:  surface,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize feed comparison strategy")
		log.Fatalf("FATAL: Failed to initialize feed comparison strategy: %v", err)
	}
	appLogger.Info(ctx, "Feed comparison strategy initialized")

	// 7. Initialize Application Service
	backtestService, err := app.NewBacktestService(cfg, appLogger, replay, strat, surface, repo)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize backtest service")
		log.Fatalf("FATAL: Failed to initialize backtest service: %v", err)
	}

	// 8. Run the Backtest
	if _, err := backtestService.Start(ctx); err != nil {
		if errors.Is(err, ports.ErrContextCanceled) {
			appLogger.Warn(ctx, "Backtest interrupted")
			return
		}
		appLogger.Error(ctx, err, "Backtest exited with error")
		log.Fatalf("FATAL: Backtest exited with error: %v", err)
	}

	appLogger.Info(ctx, "Application finished gracefully.")
}
