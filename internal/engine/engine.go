// Package engine replays custom and forex feeds from an object store and drives an algorithm tick by tick.
package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"fxFeedLab/internal/domain"
	"fxFeedLab/internal/feeds"
	"fxFeedLab/internal/ports"
)

// DefaultForexKeyPattern locates the host's forex quote files: lower-case ticker, then resolution.
const DefaultForexKeyPattern = "forex/%s_%s.csv"

const maxLineSize = 1024 * 1024

// Config holds the replay window and the host collaborators.
type Config struct {
	Start           time.Time // Inclusive
	End             time.Time // Exclusive; zero means no upper bound
	Store           ports.ObjectStore
	Logger          ports.Logger
	ForexKeyPattern string            // fmt pattern taking ticker and resolution
	ForexDecoder    ports.LineDecoder // Decoder for official forex files; bid/ask format by default
}

type subscription struct {
	config ports.SubscriptionConfig
	key    string
	name   string
	decode ports.LineDecoder
}

// Engine is a single-use replay host. It implements ports.SubscriptionRegistry.
type Engine struct {
	cfg           Config
	subscriptions []*subscription
	tickers       map[string]bool
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("engine requires a store and a logger: %w", ports.ErrConfigurationError)
	}
	if !cfg.End.IsZero() && !cfg.End.After(cfg.Start) {
		return nil, fmt.Errorf("end %s must be after start %s: %w", cfg.End.Format(time.RFC3339), cfg.Start.Format(time.RFC3339), ports.ErrConfigurationError)
	}
	if cfg.ForexKeyPattern == "" {
		cfg.ForexKeyPattern = DefaultForexKeyPattern
	}
	if cfg.ForexDecoder == nil {
		cfg.ForexDecoder = feeds.DecodeBidAsk
	}
	return &Engine{cfg: cfg, tickers: make(map[string]bool)}, nil
}

// AddData subscribes a custom feed.
func (e *Engine) AddData(def ports.CustomData, ticker string, res domain.Resolution, opts ...ports.SubscriptionOption) (ports.SubscriptionConfig, error) {
	if def.Decode == nil || def.Key == "" {
		return ports.SubscriptionConfig{}, fmt.Errorf("custom data %q needs a key and a decoder: %w", def.Name, ports.ErrInvalidRequest)
	}
	return e.subscribe(def.Name, def.Key, def.Decode, ticker, res, opts)
}

// AddForex subscribes the host's forex quotes for ticker.
func (e *Engine) AddForex(ticker string, res domain.Resolution) (ports.SubscriptionConfig, error) {
	key := fmt.Sprintf(e.cfg.ForexKeyPattern, strings.ToLower(ticker), res)
	return e.subscribe("forex", key, e.cfg.ForexDecoder, ticker, res, nil)
}

func (e *Engine) subscribe(name, key string, decode ports.LineDecoder, ticker string, res domain.Resolution, opts []ports.SubscriptionOption) (ports.SubscriptionConfig, error) {
	if ticker == "" {
		return ports.SubscriptionConfig{}, fmt.Errorf("empty ticker: %w", ports.ErrInvalidRequest)
	}
	if e.tickers[ticker] {
		return ports.SubscriptionConfig{}, fmt.Errorf("ticker %s: %w", ticker, ports.ErrDuplicateSubscription)
	}

	cfg := ports.SubscriptionConfig{
		Symbol:      domain.Symbol(ticker),
		Resolution:  res,
		Increment:   res.Duration(),
		TimeZone:    time.UTC,
		FillForward: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	e.tickers[ticker] = true
	e.subscriptions = append(e.subscriptions, &subscription{config: cfg, key: key, name: name, decode: decode})
	return cfg, nil
}

// Run initializes the algorithm, replays every subscribed feed in time order and returns the run summary.
func (e *Engine) Run(ctx context.Context, alg ports.Algorithm) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{
		ID:          uuid.NewString(),
		StartedAt:   time.Now().UTC(),
		WindowStart: e.cfg.Start,
		WindowEnd:   e.cfg.End,
	}
	logFields := map[string]interface{}{"run": summary.ID}

	if err := alg.Initialize(ctx, e); err != nil {
		return nil, fmt.Errorf("algorithm initialization failed: %w", err)
	}
	e.cfg.Logger.Info(ctx, "Replay starting", map[string]interface{}{
		"run":           summary.ID,
		"subscriptions": len(e.subscriptions),
		"start":         e.cfg.Start.Format(time.RFC3339),
		"end":           e.cfg.End.Format(time.RFC3339),
	})

	var bars []domain.Bar
	for _, sub := range e.subscriptions {
		feedBars, stats := e.load(ctx, sub)
		bars = append(bars, feedBars...)
		summary.Feeds = append(summary.Feeds, stats)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].EndTime().Before(bars[j].EndTime())
	})

	for _, slice := range groupSlices(bars) {
		if err := ctx.Err(); err != nil {
			summary.FinishedAt = time.Now().UTC()
			e.cfg.Logger.Warn(ctx, "Replay interrupted", logFields)
			return summary, fmt.Errorf("replay interrupted after %d ticks: %w", summary.Ticks, ports.ErrContextCanceled)
		}
		alg.OnData(ctx, slice)
		summary.Ticks++
	}

	summary.FinishedAt = time.Now().UTC()
	e.cfg.Logger.Info(ctx, "Replay finished", map[string]interface{}{
		"run":      summary.ID,
		"ticks":    summary.Ticks,
		"bars":     len(bars),
		"duration": summary.FinishedAt.Sub(summary.StartedAt).String(),
	})
	return summary, nil
}

// load reads and decodes one feed. Read failures are recorded in the stats, never returned.
func (e *Engine) load(ctx context.Context, sub *subscription) ([]domain.Bar, domain.FeedStats) {
	stats := domain.FeedStats{Symbol: sub.config.Symbol, Source: sub.key}
	fields := map[string]interface{}{"symbol": sub.config.Symbol.String(), "key": sub.key}

	content, err := e.cfg.Store.Read(ctx, sub.key)
	if err != nil {
		stats.Error = err.Error()
		e.cfg.Logger.Error(ctx, err, "Failed to read feed source", fields)
		return nil, stats
	}

	var bars []domain.Bar
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		bar, err := sub.decode(sub.config, scanner.Text())
		switch {
		case errors.Is(err, ports.ErrSkipLine), err == nil && bar == nil:
			stats.Skipped++
			continue
		case err != nil:
			stats.Rejected++
			continue
		}
		if !e.inWindow(bar.Meta().Time) {
			stats.OutOfWindow++
			continue
		}
		stats.Decoded++
		bars = append(bars, bar)
	}
	if err := scanner.Err(); err != nil {
		stats.Error = err.Error()
		e.cfg.Logger.Error(ctx, err, "Failed to scan feed source", fields)
	}

	e.cfg.Logger.Debug(ctx, "Feed loaded", map[string]interface{}{
		"symbol":      sub.config.Symbol.String(),
		"key":         sub.key,
		"decoded":     stats.Decoded,
		"skipped":     stats.Skipped,
		"rejected":    stats.Rejected,
		"outOfWindow": stats.OutOfWindow,
	})
	return bars, stats
}

func (e *Engine) inWindow(t time.Time) bool {
	if t.Before(e.cfg.Start) {
		return false
	}
	return e.cfg.End.IsZero() || t.Before(e.cfg.End)
}

// groupSlices groups bars sorted by end time into ticks. A symbol seen twice at
// the same time opens a new tick with that time.
func groupSlices(bars []domain.Bar) []*domain.Slice {
	var slices []*domain.Slice
	var current *domain.Slice
	for _, bar := range bars {
		end := bar.EndTime()
		if current == nil || !current.Time.Equal(end) || current.Contains(bar.Meta().Symbol) {
			current = domain.NewSlice(end)
			slices = append(slices, current)
		}
		current.Add(bar)
	}
	return slices
}

var _ ports.SubscriptionRegistry = (*Engine)(nil)
