package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fxFeedLab/internal/domain"
	"fxFeedLab/internal/feeds"
	"fxFeedLab/internal/ports"
)

// Sampling strides for the orchestrator's own diagnostics.
const (
	statusEvery      = 20
	missingEvery     = 50
	tradingViewEvery = 100
	previewLines     = 5
)

// FeedConfig describes a custom feed file.
type FeedConfig struct {
	Ticker string // Subscription ticker, e.g. "EURUSD_CUSTOM"
	Key    string // Object store key
	Source string // Where to download the file from when the key is missing
}

// Config holds parameters for the feed comparison strategy.
type Config struct {
	PrimaryTicker  string // e.g., "EURUSD"
	Custom         FeedConfig
	TradingView    FeedConfig
	OfficialTicker string // Host forex ticker, e.g. "EURUSD"
	Resolution     domain.Resolution
	PipSize        decimal.Decimal
	Analyzer       AnalyzerConfig
}

// Deps are the host collaborators the strategy uses.
type Deps struct {
	Logger  ports.Logger
	Store   ports.ObjectStore
	Fetcher ports.ResourceFetcher
	Charts  ports.ChartSurface
}

// FeedComparison subscribes the custom, TradingView and official EUR/USD feeds,
// analyzes every bar and plots the three feeds side by side.
type FeedComparison struct {
	cfg     Config
	logger  ports.Logger
	store   ports.ObjectStore
	fetcher ports.ResourceFetcher
	charts  ports.ChartSurface

	customSym      domain.Symbol
	officialSym    domain.Symbol
	tradingViewSym domain.Symbol

	customAnalyzer      *PairAnalyzer
	officialAnalyzer    *PairAnalyzer
	tradingViewAnalyzer *PairAnalyzer
	chartManager        *ChartManager

	dataCount int
}

// New creates the strategy. Subscriptions happen in Initialize.
func New(cfg Config, deps Deps) (*FeedComparison, error) {
	if deps.Logger == nil || deps.Store == nil || deps.Fetcher == nil || deps.Charts == nil {
		return nil, fmt.Errorf("missing required dependencies for FeedComparison: %w", ports.ErrConfigurationError)
	}
	if cfg.Custom.Ticker == "" || cfg.TradingView.Ticker == "" || cfg.OfficialTicker == "" {
		return nil, fmt.Errorf("feed tickers must be set: %w", ports.ErrConfigurationError)
	}
	if cfg.Custom.Key == "" || cfg.TradingView.Key == "" {
		return nil, fmt.Errorf("feed object store keys must be set: %w", ports.ErrConfigurationError)
	}
	if cfg.Resolution == "" {
		cfg.Resolution = domain.ResolutionMinute
	}
	if cfg.PrimaryTicker == "" {
		cfg.PrimaryTicker = cfg.OfficialTicker
	}
	return &FeedComparison{
		cfg:     cfg,
		logger:  deps.Logger,
		store:   deps.Store,
		fetcher: deps.Fetcher,
		charts:  deps.Charts,
	}, nil
}

// Initialize loads the feed files, registers the subscriptions, builds the analyzers and sets up charts.
// A feed that cannot be loaded or registered is disabled; the others carry on.
func (s *FeedComparison) Initialize(ctx context.Context, subs ports.SubscriptionRegistry) error {
	s.logger.Info(ctx, "Initializing feed comparison", map[string]interface{}{"primary": s.cfg.PrimaryTicker})

	customReady := s.ensureResource(ctx, s.cfg.Custom, false)
	tradingViewReady := s.ensureResource(ctx, s.cfg.TradingView, true)

	if customReady {
		s.customSym = s.addData(ctx, subs, feeds.BidAskFeed(s.cfg.Custom.Key), s.cfg.Custom.Ticker, "custom")
	}
	if tradingViewReady {
		s.tradingViewSym = s.addData(ctx, subs, feeds.OHLCVFeed(s.cfg.TradingView.Key), s.cfg.TradingView.Ticker, "TradingView")
	}

	official, err := subs.AddForex(s.cfg.OfficialTicker, s.cfg.Resolution)
	if err != nil {
		s.logger.Error(ctx, err, "Error adding official forex data", map[string]interface{}{"ticker": s.cfg.OfficialTicker})
	} else {
		s.officialSym = official.Symbol
		s.logger.Debug(ctx, "Official data added", map[string]interface{}{"symbol": s.officialSym.String()})
	}

	if s.customSym.IsZero() && s.tradingViewSym.IsZero() && s.officialSym.IsZero() {
		return fmt.Errorf("no feed could be subscribed: %w", ports.ErrConfigurationError)
	}

	analyzerPair := func(name string) domain.PairConfig {
		return domain.PairConfig{Name: name, PipSize: s.cfg.PipSize}
	}
	s.customAnalyzer = NewPairAnalyzer(analyzerPair(s.cfg.Custom.Ticker), s.cfg.Analyzer, s.logger)
	s.officialAnalyzer = NewPairAnalyzer(analyzerPair(s.cfg.OfficialTicker+"_OFFICIAL"), s.cfg.Analyzer, s.logger)
	s.tradingViewAnalyzer = NewPairAnalyzer(analyzerPair(s.cfg.TradingView.Ticker), s.cfg.Analyzer, s.logger)

	s.chartManager = NewChartManager(s.charts, s.logger, s.customSym, s.officialSym, s.tradingViewSym)
	if err := s.chartManager.SetupCharts(ctx); err != nil {
		return fmt.Errorf("failed to set up charts: %w", err)
	}

	s.logger.Info(ctx, "Initialization complete", map[string]interface{}{
		"custom":      s.customSym.String(),
		"official":    s.officialSym.String(),
		"tradingView": s.tradingViewSym.String(),
	})
	return nil
}

// ensureResource makes sure the feed file is in the object store, downloading it once if needed.
func (s *FeedComparison) ensureResource(ctx context.Context, feed FeedConfig, preview bool) bool {
	fields := map[string]interface{}{"key": feed.Key}

	exists, err := s.store.ContainsKey(ctx, feed.Key)
	if err != nil {
		s.logger.Error(ctx, err, "Error checking object store", fields)
		return false
	}
	if exists {
		s.logger.Debug(ctx, "Feed file already exists in object store", fields)
		return true
	}

	source := feed.Source
	if source == "" {
		source = feed.Key
	}
	content, err := s.fetcher.Fetch(ctx, source)
	if err != nil {
		s.logger.Error(ctx, err, "Error loading feed file into object store", fields)
		return false
	}
	if err := s.store.Save(ctx, feed.Key, content); err != nil {
		s.logger.Error(ctx, err, "Error saving feed file into object store", fields)
		return false
	}
	s.logger.Debug(ctx, "Feed file loaded into object store", map[string]interface{}{"key": feed.Key, "bytes": len(content)})

	if preview {
		lines := strings.SplitN(strings.TrimRight(string(content), "\r\n"), "\n", previewLines+1)
		for i := 0; i < len(lines) && i < previewLines; i++ {
			s.logger.Debug(ctx, "Feed preview", map[string]interface{}{"key": feed.Key, "line": i, "content": lines[i]})
		}
	}
	return true
}

func (s *FeedComparison) addData(ctx context.Context, subs ports.SubscriptionRegistry, def ports.CustomData, ticker, label string) domain.Symbol {
	sub, err := subs.AddData(def, ticker, s.cfg.Resolution, ports.WithTimeZone(time.UTC), ports.WithFillForward(false))
	if err != nil {
		s.logger.Error(ctx, err, "Error adding "+label+" data", map[string]interface{}{"ticker": ticker})
		return ""
	}
	s.logger.Debug(ctx, "Data added", map[string]interface{}{"feed": label, "symbol": sub.Symbol.String()})
	return sub.Symbol
}

// OnData routes every bar of the tick to its analyzer and plots the tick.
func (s *FeedComparison) OnData(ctx context.Context, slice *domain.Slice) {
	if slice == nil || s.chartManager == nil {
		return
	}
	s.dataCount++

	if s.dataCount%statusEvery == 0 {
		s.logger.Debug(ctx, "Processing tick", map[string]interface{}{"tick": s.dataCount, "time": slice.Time})
	}

	customBar, hasCustom := slice.QuoteBar(s.customSym)
	if hasCustom {
		s.customAnalyzer.AnalyzeBar(ctx, customBar)
	}

	officialBar, hasOfficial := slice.QuoteBar(s.officialSym)
	if hasOfficial {
		s.officialAnalyzer.AnalyzeBar(ctx, officialBar)
	} else if s.dataCount%missingEvery == 0 {
		s.logger.Debug(ctx, "No official QuoteBar data", map[string]interface{}{"symbol": s.officialSym.String()})
	}

	tradingViewBar, hasTradingView := slice.TradeBar(s.tradingViewSym)
	if hasTradingView {
		s.tradingViewAnalyzer.AnalyzeBar(ctx, tradingViewBar)
		if s.dataCount%tradingViewEvery == 0 {
			s.logger.Debug(ctx, "TradingView data received", map[string]interface{}{
				"time":  tradingViewBar.Time,
				"close": tradingViewBar.Close.StringFixed(5),
			})
		}
	} else if s.dataCount%missingEvery == 0 {
		s.logger.Debug(ctx, "No TradingView TradeBar data", map[string]interface{}{
			"symbol":    s.tradingViewSym.String(),
			"available": slice.BarSymbols(),
		})
		if _, misrouted := slice.QuoteBar(s.tradingViewSym); misrouted {
			s.logger.Warn(ctx, "TradingView symbol found in quote bars instead of trade bars")
		}
	}

	if hasCustom || hasOfficial || hasTradingView {
		s.chartManager.PlotData(ctx, slice.Time, customBar, officialBar, tradingViewBar)
	}
}

// Analyzers exposes the per-feed analyzers (custom, official, TradingView).
func (s *FeedComparison) Analyzers() (custom, official, tradingView *PairAnalyzer) {
	return s.customAnalyzer, s.officialAnalyzer, s.tradingViewAnalyzer
}

// Symbols returns the subscribed symbols; a zero symbol means the feed is disabled.
func (s *FeedComparison) Symbols() (custom, official, tradingView domain.Symbol) {
	return s.customSym, s.officialSym, s.tradingViewSym
}

var _ ports.Algorithm = (*FeedComparison)(nil)

