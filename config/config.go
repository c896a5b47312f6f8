package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"fxFeedLab/internal/adapters/logger" // Import the logger package for LogLevel
	"fxFeedLab/internal/domain"
	"fxFeedLab/internal/strategy"
)

const dateLayout = "2006-01-02"

// Object store backends.
const (
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// FeedConfig locates one custom feed file.
type FeedConfig struct {
	Ticker string
	Key    string // Object store key
	Source string // Local path (relative to DataDir) or URL
}

// Config holds all application configuration.
type Config struct {
	// Backtest window; End is exclusive (END_DATE plus one day)
	Start      time.Time
	End        time.Time
	Resolution domain.Resolution

	// Feeds
	PrimaryTicker   string
	Custom          FeedConfig
	TradingView     FeedConfig
	OfficialTicker  string
	ForexKeyPattern string
	DataDir         string

	// Analyzer Parameters
	PipSize         decimal.Decimal
	ReportEvery     int
	WickToBodyRatio float64
	MinimumWickPips float64
	MaximumBodyPips float64 // 0 means no limit

	// Output
	ChartOutput string

	// Storage
	DBPath        string
	ObjectStore   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	PostgresDSN   string

	// Logging
	LogLevel   logger.LogLevel
	LogConsole bool // LOG_FORMAT=console (default) or json

	// Downloads
	FetchTimeout time.Duration
	FetchProxy   string

	// Binance API (kline download tool)
	APIKey        string
	SecretKey     string
	IsTestnet     bool
	KlineSymbol   string
	KlineInterval string
	KlineDays     int
}

// LoadConfig loads configuration from an optional YAML file (CONFIG_FILE, default config.yaml)
// overridden by environment variables (.env file included).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	src, err := newSource(getEnvDefault("CONFIG_FILE", "config.yaml"))
	if err != nil {
		return nil, err
	}
	return load(src)
}

func load(src *source) (*Config, error) {
	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Backtest window
	cfg.Start, err = src.getDate("START_DATE", "2025-07-05")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid START_DATE: %v", err))
	}
	endDate, err := src.getDate("END_DATE", "2025-07-15")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid END_DATE: %v", err))
	} else {
		cfg.End = endDate.AddDate(0, 0, 1)
	}
	if !cfg.Start.IsZero() && !endDate.IsZero() && endDate.Before(cfg.Start) {
		errs = append(errs, "END_DATE must not be before START_DATE")
	}

	cfg.Resolution, err = domain.ParseResolution(src.get("RESOLUTION", "minute"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RESOLUTION: %v", err))
	}

	// Feeds
	cfg.PrimaryTicker = src.get("PRIMARY_TICKER", "EURUSD")
	cfg.Custom = FeedConfig{
		Ticker: src.get("CUSTOM_TICKER", "EURUSD_CUSTOM"),
		Key:    src.get("CUSTOM_KEY", "EUR_USD.csv"),
		Source: src.get("CUSTOM_SOURCE", "EUR_USD.csv"),
	}
	cfg.TradingView = FeedConfig{
		Ticker: src.get("TRADINGVIEW_TICKER", "EURUSD_TRADINGVIEW"),
		Key:    src.get("TRADINGVIEW_KEY", "FX_EURUSD, 1.csv"),
		Source: src.get("TRADINGVIEW_SOURCE", "FX_EURUSD, 1.csv"),
	}
	cfg.OfficialTicker = src.get("OFFICIAL_TICKER", "EURUSD")
	cfg.ForexKeyPattern = src.get("FOREX_KEY_PATTERN", "forex/%s_%s.csv")
	cfg.DataDir = src.get("DATA_DIR", "./data")

	tickers := map[string]string{
		"CUSTOM_TICKER":      cfg.Custom.Ticker,
		"TRADINGVIEW_TICKER": cfg.TradingView.Ticker,
		"OFFICIAL_TICKER":    cfg.OfficialTicker,
	}
	seen := make(map[string]string, len(tickers))
	for _, key := range []string{"CUSTOM_TICKER", "TRADINGVIEW_TICKER", "OFFICIAL_TICKER"} {
		t := tickers[key]
		if t == "" {
			errs = append(errs, key+" must be set")
			continue
		}
		if other, ok := seen[t]; ok {
			errs = append(errs, fmt.Sprintf("%s duplicates %s (%s)", key, other, t))
		}
		seen[t] = key
	}
	if cfg.Custom.Key == "" || cfg.TradingView.Key == "" {
		errs = append(errs, "CUSTOM_KEY and TRADINGVIEW_KEY must be set")
	}
	if strings.Count(cfg.ForexKeyPattern, "%s") != 2 {
		errs = append(errs, "FOREX_KEY_PATTERN must contain exactly two %s verbs (ticker, resolution)")
	}

	// Analyzer Parameters
	cfg.PipSize, err = decimal.NewFromString(src.get("PIP_SIZE", "0.0001"))
	if err != nil || !cfg.PipSize.IsPositive() {
		errs = append(errs, "PIP_SIZE must be a positive decimal")
	}
	cfg.ReportEvery, err = src.getIntRequired("ANALYZER_REPORT_EVERY", strategy.DefaultReportEvery)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ANALYZER_REPORT_EVERY: %v", err))
	} else if cfg.ReportEvery <= 0 {
		errs = append(errs, "ANALYZER_REPORT_EVERY must be positive")
	}
	thresholds := []struct {
		key          string
		defaultValue float64
		dst          *float64
	}{
		{"WICK_TO_BODY_RATIO", strategy.DefaultWickToBodyRatio, &cfg.WickToBodyRatio},
		{"MINIMUM_WICK_PIPS", strategy.DefaultMinimumWickPips, &cfg.MinimumWickPips},
		{"MAXIMUM_BODY_PIPS", strategy.DefaultMaximumBodyPips, &cfg.MaximumBodyPips},
	}
	for _, th := range thresholds {
		*th.dst, err = src.getFloat(th.key, th.defaultValue)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", th.key, err))
		}
	}
	if cfg.WickToBodyRatio < 0 || cfg.MinimumWickPips < 0 || cfg.MaximumBodyPips < 0 {
		errs = append(errs, "candle thresholds cannot be negative")
	}

	// Output
	cfg.ChartOutput = src.get("CHART_OUTPUT", "./data/charts/eurusd_feeds.html")

	// Storage
	cfg.DBPath = src.get("DB_PATH", "./data/fxfeedlab.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}
	cfg.ObjectStore = strings.ToLower(src.get("OBJECT_STORE", StoreSQLite))
	cfg.RedisAddr = src.get("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = src.get("REDIS_PASSWORD", "")
	cfg.RedisDB = src.getInt("REDIS_DB", 0)
	cfg.RedisPrefix = src.get("REDIS_PREFIX", "fxfeedlab")
	cfg.PostgresDSN = src.get("POSTGRES_DSN", "")
	switch cfg.ObjectStore {
	case StoreSQLite, StoreRedis:
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			errs = append(errs, "POSTGRES_DSN must be set when OBJECT_STORE=postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("OBJECT_STORE must be one of sqlite, redis, postgres (got %q)", cfg.ObjectStore))
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(src.get("LOG_LEVEL", "INFO"))
	cfg.LogConsole = !strings.EqualFold(src.get("LOG_FORMAT", "console"), "json")

	// Downloads
	fetchTimeoutSeconds := src.getInt("FETCH_TIMEOUT_SECONDS", 30)
	if fetchTimeoutSeconds <= 0 {
		errs = append(errs, "FETCH_TIMEOUT_SECONDS must be positive")
	}
	cfg.FetchTimeout = time.Duration(fetchTimeoutSeconds) * time.Second
	cfg.FetchProxy = src.get("FETCH_PROXY", "")
	if cfg.FetchProxy != "" {
		if u, err := url.Parse(cfg.FetchProxy); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("FETCH_PROXY must be an absolute URL such as http://host:port (got %q)", cfg.FetchProxy))
		}
	}

	// Binance API
	cfg.APIKey = src.get("BINANCE_API_KEY", "")
	cfg.SecretKey = src.get("BINANCE_API_SECRET", "")
	cfg.IsTestnet = src.getBool("IS_TESTNET", false)
	cfg.KlineSymbol = src.get("KLINE_SYMBOL", "EURUSDT")
	cfg.KlineInterval = src.get("KLINE_INTERVAL", "1m")
	cfg.KlineDays = src.getInt("KLINE_DAYS", 10)
	if cfg.KlineDays <= 0 {
		errs = append(errs, "KLINE_DAYS must be positive")
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Value Sources ---

// source resolves a key from the environment first, then the YAML file, then the default.
type source struct {
	file map[string]string
}

// newSource reads the YAML file at path. A missing file is not an error.
// File keys match the environment names, case-insensitively.
func newSource(path string) (*source, error) {
	src := &source{file: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return src, nil
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	for k, v := range raw {
		switch tv := v.(type) {
		case nil:
			continue
		case time.Time:
			src.file[strings.ToUpper(k)] = tv.Format(dateLayout)
		default:
			src.file[strings.ToUpper(k)] = fmt.Sprint(tv)
		}
	}
	return src, nil
}

func (s *source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := s.file[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (s *source) getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(s.get(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *source) getIntRequired(key string, defaultValue int) (int, error) {
	valueStr := s.get(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func (s *source) getFloat(key string, defaultValue float64) (float64, error) {
	valueStr := s.get(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func (s *source) getBool(key string, defaultValue bool) bool {
	valueStr := s.get(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *source) getDate(key, defaultValue string) (time.Time, error) {
	valueStr := s.get(key, defaultValue)
	t, err := time.ParseInLocation(dateLayout, valueStr, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s' for key %s (want YYYY-MM-DD): %w", valueStr, key, err)
	}
	return t, nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
