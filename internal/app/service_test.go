package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxFeedLab/config"
	"fxFeedLab/internal/domain"
	"fxFeedLab/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockReplayer struct {
	summary *domain.RunSummary
	err     error
}

func (m *mockReplayer) Run(ctx context.Context, alg ports.Algorithm) (*domain.RunSummary, error) {
	return m.summary, m.err
}

type mockAlgorithm struct{}

func (m *mockAlgorithm) Initialize(ctx context.Context, subs ports.SubscriptionRegistry) error {
	return nil
}
func (m *mockAlgorithm) OnData(ctx context.Context, slice *domain.Slice) {}

type mockCharts struct {
	paths []string
	err   error
}

func (m *mockCharts) WriteFile(path string) error {
	m.paths = append(m.paths, path)
	return m.err
}

type mockRecorder struct {
	runs []*domain.RunSummary
	err  error
}

func (m *mockRecorder) RecordRun(ctx context.Context, run *domain.RunSummary) error {
	if m.err != nil {
		return m.err
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockRecorder) ListRuns(ctx context.Context, limit int) ([]*domain.RunSummary, error) {
	return m.runs, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Start:       time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC),
		Resolution:  domain.ResolutionMinute,
		ChartOutput: "data/charts/test.html",
	}
}

func testSummary() *domain.RunSummary {
	return &domain.RunSummary{
		ID:    "run-1",
		Ticks: 42,
		Feeds: []domain.FeedStats{
			{Symbol: "EURUSD_CUSTOM", Decoded: 40},
			{Symbol: "EURUSD_TRADINGVIEW", Decoded: 40, Rejected: 2},
			{Symbol: "EURUSD", Error: "object not found"},
		},
	}
}

func TestNewBacktestService(t *testing.T) {
	deps := func() (*mockLogger, *mockReplayer, *mockAlgorithm, *mockCharts, *mockRecorder) {
		return &mockLogger{}, &mockReplayer{}, &mockAlgorithm{}, &mockCharts{}, &mockRecorder{}
	}

	l, r, a, c, rec := deps()
	svc, err := NewBacktestService(testConfig(), l, r, a, c, rec)
	require.NoError(t, err)
	assert.NotNil(t, svc)

	_, err = NewBacktestService(nil, l, r, a, c, rec)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)

	_, err = NewBacktestService(testConfig(), l, nil, a, c, rec)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)

	cfg := testConfig()
	cfg.ChartOutput = ""
	_, err = NewBacktestService(cfg, l, r, a, c, rec)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestStart_Success(t *testing.T) {
	logger := &mockLogger{}
	charts := &mockCharts{}
	recorder := &mockRecorder{}
	svc, err := NewBacktestService(testConfig(), logger, &mockReplayer{summary: testSummary()}, &mockAlgorithm{}, charts, recorder)
	require.NoError(t, err)

	summary, err := svc.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, summary.Ticks)
	assert.Equal(t, []string{"data/charts/test.html"}, charts.paths)
	require.Len(t, recorder.runs, 1)
	assert.Equal(t, "run-1", recorder.runs[0].ID)
	assert.Equal(t, []string{"Feed had malformed lines", "Feed unavailable"}, logger.warnMsgs)
	assert.Contains(t, logger.infoMsgs, "Backtest finished")
}

func TestStart_InterruptedRunIsStillRecorded(t *testing.T) {
	charts := &mockCharts{}
	recorder := &mockRecorder{}
	replayer := &mockReplayer{summary: testSummary(), err: fmt.Errorf("stopped: %w", ports.ErrContextCanceled)}
	svc, err := NewBacktestService(testConfig(), &mockLogger{}, replayer, &mockAlgorithm{}, charts, recorder)
	require.NoError(t, err)

	_, err = svc.Start(context.Background())
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
	assert.Len(t, charts.paths, 1)
	assert.Len(t, recorder.runs, 1)
}

func TestStart_ReplayFailure(t *testing.T) {
	charts := &mockCharts{}
	recorder := &mockRecorder{}
	logger := &mockLogger{}
	replayer := &mockReplayer{err: ports.ErrConfigurationError}
	svc, err := NewBacktestService(testConfig(), logger, replayer, &mockAlgorithm{}, charts, recorder)
	require.NoError(t, err)

	summary, err := svc.Start(context.Background())
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
	assert.Nil(t, summary)
	assert.Empty(t, charts.paths)
	assert.Empty(t, recorder.runs)
	assert.Equal(t, []string{"Backtest failed"}, logger.errorMsgs)
}

func TestStart_OutputFailuresAreLogged(t *testing.T) {
	logger := &mockLogger{}
	charts := &mockCharts{err: errors.New("disk full")}
	recorder := &mockRecorder{err: ports.ErrUpdateFailed}
	svc, err := NewBacktestService(testConfig(), logger, &mockReplayer{summary: testSummary()}, &mockAlgorithm{}, charts, recorder)
	require.NoError(t, err)

	_, err = svc.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Failed to write charts", "Failed to record run"}, logger.errorMsgs)
}
