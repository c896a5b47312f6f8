package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fxFeedLab/config"
	"fxFeedLab/internal/domain"
	"fxFeedLab/internal/ports"
)

// Replayer drives an algorithm over recorded data.
type Replayer interface {
	Run(ctx context.Context, alg ports.Algorithm) (*domain.RunSummary, error)
}

// ChartWriter persists the rendered charts.
type ChartWriter interface {
	WriteFile(path string) error
}

// BacktestService orchestrates one feed comparison backtest.
type BacktestService struct {
	cfg      *config.Config
	logger   ports.Logger
	replayer Replayer
	alg      ports.Algorithm
	charts   ChartWriter
	recorder ports.RunRecorder
}

// NewBacktestService creates a new application service instance.
func NewBacktestService(
	cfg *config.Config,
	logger ports.Logger,
	replayer Replayer,
	alg ports.Algorithm,
	charts ChartWriter,
	recorder ports.RunRecorder,
) (*BacktestService, error) {
	if cfg == nil || logger == nil || replayer == nil || alg == nil || charts == nil || recorder == nil {
		return nil, fmt.Errorf("missing required dependencies for BacktestService: %w", ports.ErrConfigurationError)
	}
	if cfg.ChartOutput == "" {
		return nil, fmt.Errorf("configuration ChartOutput must be set: %w", ports.ErrConfigurationError)
	}
	return &BacktestService{
		cfg:      cfg,
		logger:   logger,
		replayer: replayer,
		alg:      alg,
		charts:   charts,
		recorder: recorder,
	}, nil
}

// Start runs the backtest until the data is exhausted or a shutdown signal arrives.
// Charts and the run record are written even for an interrupted run.
func (s *BacktestService) Start(ctx context.Context) (*domain.RunSummary, error) {
	s.logger.Info(ctx, "Starting backtest", map[string]interface{}{
		"start":      s.cfg.Start.Format(time.RFC3339),
		"end":        s.cfg.End.Format(time.RFC3339),
		"resolution": string(s.cfg.Resolution),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	summary, runErr := s.replayer.Run(ctx, s.alg)
	if summary == nil {
		if runErr == nil {
			runErr = fmt.Errorf("replay returned no summary: %w", ports.ErrUnknown)
		}
		s.logger.Error(ctx, runErr, "Backtest failed")
		return nil, runErr
	}
	if runErr != nil && !errors.Is(runErr, ports.ErrContextCanceled) {
		s.logger.Error(ctx, runErr, "Backtest failed", map[string]interface{}{"run": summary.ID})
		return summary, runErr
	}

	if err := s.charts.WriteFile(s.cfg.ChartOutput); err != nil {
		s.logger.Error(ctx, err, "Failed to write charts", map[string]interface{}{"path": s.cfg.ChartOutput})
	} else {
		s.logger.Info(ctx, "Charts written", map[string]interface{}{"path": s.cfg.ChartOutput})
	}

	// The run context may already be canceled; persist with a fresh one.
	recordCtx, recordCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer recordCancel()
	if err := s.recorder.RecordRun(recordCtx, summary); err != nil {
		s.logger.Error(ctx, err, "Failed to record run", map[string]interface{}{"run": summary.ID})
	}

	s.logSummary(ctx, summary)
	return summary, runErr
}

func (s *BacktestService) logSummary(ctx context.Context, summary *domain.RunSummary) {
	for _, f := range summary.Feeds {
		fields := map[string]interface{}{
			"run":         summary.ID,
			"symbol":      f.Symbol.String(),
			"source":      f.Source,
			"decoded":     f.Decoded,
			"skipped":     f.Skipped,
			"rejected":    f.Rejected,
			"outOfWindow": f.OutOfWindow,
		}
		if f.Error != "" {
			fields["error"] = f.Error
			s.logger.Warn(ctx, "Feed unavailable", fields)
			continue
		}
		if f.Rejected > 0 {
			s.logger.Warn(ctx, "Feed had malformed lines", fields)
			continue
		}
		s.logger.Info(ctx, "Feed summary", fields)
	}
	s.logger.Info(ctx, "Backtest finished", map[string]interface{}{"run": summary.ID, "ticks": summary.Ticks})
}
