package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fxFeedLab/config"
	"fxFeedLab/internal/adapters/binanceclient"
	"fxFeedLab/internal/adapters/logger"
	"fxFeedLab/internal/utils"
)

// fetch_klines downloads 1m spot klines and writes them in the TradingView export
// layout, so the file can stand in for the TradingView feed.
func main() {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Output: os.Stderr, Console: cfg.LogConsole})

	// 3. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	if err := binanceClient.Ping(ctx); err != nil {
		log.Fatalf("FATAL: Binance API unreachable: %v", err)
	}

	// 4. Download the window ending at END_DATE
	end := cfg.End
	start := end.AddDate(0, 0, -cfg.KlineDays)
	appLogger.Info(ctx, "Fetching klines", map[string]interface{}{
		"symbol":   cfg.KlineSymbol,
		"interval": cfg.KlineInterval,
		"start":    start.Format(time.RFC3339),
		"end":      end.Format(time.RFC3339),
	})
	bars, err := binanceClient.GetKlinesRange(ctx, cfg.KlineSymbol, cfg.KlineInterval, start, end)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching klines")
		log.Fatalf("Error fetching klines: %v", err)
	}
	appLogger.Info(ctx, "Fetched klines", map[string]interface{}{"count": len(bars)})

	// 5. Write where the strategy looks for the TradingView source
	filename := cfg.TradingView.Source
	if strings.Contains(filename, "://") || filename == "" {
		filename = cfg.TradingView.Key
	}
	if !filepath.IsAbs(filename) {
		filename = filepath.Join(cfg.DataDir, filename)
	}
	if err := utils.WriteTradingViewFile(bars, filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": filename})
}
