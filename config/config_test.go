package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxFeedLab/internal/adapters/logger"
	"fxFeedLab/internal/domain"
)

func emptySource() *source { return &source{file: map[string]string{}} }

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(emptySource())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC), cfg.Start)
	assert.Equal(t, time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC), cfg.End, "END_DATE is inclusive")
	assert.Equal(t, domain.ResolutionMinute, cfg.Resolution)
	assert.Equal(t, "EURUSD_CUSTOM", cfg.Custom.Ticker)
	assert.Equal(t, "EUR_USD.csv", cfg.Custom.Key)
	assert.Equal(t, "EURUSD_TRADINGVIEW", cfg.TradingView.Ticker)
	assert.Equal(t, "FX_EURUSD, 1.csv", cfg.TradingView.Key)
	assert.Equal(t, "EURUSD", cfg.OfficialTicker)
	assert.Equal(t, "0.0001", cfg.PipSize.String())
	assert.Equal(t, 10, cfg.ReportEvery)
	assert.Equal(t, 2.0, cfg.WickToBodyRatio)
	assert.Equal(t, 5.0, cfg.MinimumWickPips)
	assert.Equal(t, 0.5, cfg.MaximumBodyPips)
	assert.Empty(t, cfg.FetchProxy)
	assert.Equal(t, StoreSQLite, cfg.ObjectStore)
	assert.True(t, cfg.LogConsole)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "EURUSDT", cfg.KlineSymbol)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("START_DATE", "2025-07-06")
	t.Setenv("END_DATE", "2025-07-06")
	t.Setenv("RESOLUTION", "Hour")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("OBJECT_STORE", "REDIS")
	t.Setenv("ANALYZER_REPORT_EVERY", "5")
	t.Setenv("MAXIMUM_BODY_PIPS", "3.5")
	t.Setenv("MINIMUM_WICK_PIPS", "0")
	t.Setenv("FETCH_PROXY", "http://127.0.0.1:8080")

	cfg, err := load(emptySource())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC), cfg.End)
	assert.Equal(t, domain.ResolutionHour, cfg.Resolution)
	assert.Equal(t, logger.LevelDebug, cfg.LogLevel)
	assert.False(t, cfg.LogConsole)
	assert.Equal(t, StoreRedis, cfg.ObjectStore)
	assert.Equal(t, 5, cfg.ReportEvery)
	assert.Equal(t, 3.5, cfg.MaximumBodyPips)
	assert.Equal(t, 0.0, cfg.MinimumWickPips)
	assert.Equal(t, 2.0, cfg.WickToBodyRatio)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.FetchProxy)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad start date", env: map[string]string{"START_DATE": "07/05/2025"}},
		{name: "end before start", env: map[string]string{"START_DATE": "2025-07-10", "END_DATE": "2025-07-01"}},
		{name: "bad resolution", env: map[string]string{"RESOLUTION": "weekly"}},
		{name: "duplicate tickers", env: map[string]string{"TRADINGVIEW_TICKER": "EURUSD_CUSTOM"}},
		{name: "bad pip size", env: map[string]string{"PIP_SIZE": "-1"}},
		{name: "bad report stride", env: map[string]string{"ANALYZER_REPORT_EVERY": "ten"}},
		{name: "zero report stride", env: map[string]string{"ANALYZER_REPORT_EVERY": "0"}},
		{name: "unknown store", env: map[string]string{"OBJECT_STORE": "s3"}},
		{name: "postgres without dsn", env: map[string]string{"OBJECT_STORE": "postgres"}},
		{name: "bad wick ratio", env: map[string]string{"WICK_TO_BODY_RATIO": "abc"}},
		{name: "bad minimum wick", env: map[string]string{"MINIMUM_WICK_PIPS": "five"}},
		{name: "bad maximum body", env: map[string]string{"MAXIMUM_BODY_PIPS": "0.5pips"}},
		{name: "negative threshold", env: map[string]string{"MINIMUM_WICK_PIPS": "-1"}},
		{name: "proxy without scheme", env: map[string]string{"FETCH_PROXY": "127.0.0.1:8080"}},
		{name: "proxy unparsable", env: map[string]string{"FETCH_PROXY": "http://[::1"}},
		{name: "bad forex pattern", env: map[string]string{"FOREX_KEY_PATTERN": "forex/%s.csv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := load(emptySource())
			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "configuration validation failed")
		})
	}
}

func TestNewSource_YAMLFileBelowEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "start_date: 2025-07-06\nend_date: 2025-07-08\nreport_every_ignored: true\nANALYZER_REPORT_EVERY: 20\nobject_store: postgres\npostgres_dsn: postgres://localhost/fx\npip_size: 0.0001\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	src, err := newSource(path)
	require.NoError(t, err)

	t.Setenv("ANALYZER_REPORT_EVERY", "30")
	cfg, err := load(src)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 7, 6, 0, 0, 0, 0, time.UTC), cfg.Start)
	assert.Equal(t, time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC), cfg.End)
	assert.Equal(t, StorePostgres, cfg.ObjectStore)
	assert.Equal(t, "postgres://localhost/fx", cfg.PostgresDSN)
	assert.Equal(t, 30, cfg.ReportEvery, "environment wins over the file")
}

func TestNewSource_MissingAndInvalidFile(t *testing.T) {
	src, err := newSource(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, src.file)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("key: [unterminated"), 0644))
	_, err = newSource(path)
	assert.Error(t, err)
}
