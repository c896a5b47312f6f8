package strategy

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fxFeedLab/internal/domain"
	"fxFeedLab/internal/ports"
)

// DefaultReportEvery is the analyzer's reporting stride in bars.
const DefaultReportEvery = 10

// Default wick-rejection thresholds.
const (
	DefaultWickToBodyRatio = 2.0
	DefaultMinimumWickPips = 5.0
	DefaultMaximumBodyPips = 0.5
)

// AnalyzerConfig holds the candle-shape thresholds and reporting stride of a PairAnalyzer.
type AnalyzerConfig struct {
	ReportEvery     int     // Report on every Nth bar (<= 0 means DefaultReportEvery)
	WickToBodyRatio float64 // Minimum wick/body ratio for a rejection candle
	MinimumWickPips float64 // Minimum wick length in pips
	MaximumBodyPips float64 // Maximum body length in pips (0 means no limit)
}

// Report is the periodic derived-metrics snapshot of an analyzer.
type Report struct {
	Pair      string
	Kind      string // Custom, Official, TradingView or Unknown
	BarNumber int
	Time      time.Time
	Close     decimal.Decimal

	// Quote bars only
	HasSpread  bool
	SpreadPips decimal.Decimal

	// Trade bars only
	HasVolume bool
	Volume    int64

	Shape CandleShape
}

// CandleShape measures a candle in pips.
type CandleShape struct {
	BodyPips      decimal.Decimal
	UpperWickPips decimal.Decimal
	LowerWickPips decimal.Decimal
	Bias          string // "bullish", "bearish" or empty
}

// PairAnalyzer counts the bars of one instrument and periodically reports derived metrics.
type PairAnalyzer struct {
	pair     domain.PairConfig
	cfg      AnalyzerConfig
	logger   ports.Logger
	barCount int
}

// NewPairAnalyzer creates an analyzer for one pair.
func NewPairAnalyzer(pair domain.PairConfig, cfg AnalyzerConfig, logger ports.Logger) *PairAnalyzer {
	if cfg.ReportEvery <= 0 {
		cfg.ReportEvery = DefaultReportEvery
	}
	return &PairAnalyzer{pair: pair, cfg: cfg, logger: logger}
}

// Pair returns the analyzer's pair configuration.
func (a *PairAnalyzer) Pair() domain.PairConfig { return a.pair }

// BarCount returns the number of bars analyzed so far.
func (a *PairAnalyzer) BarCount() int { return a.barCount }

// AnalyzeBar counts the bar and, on every ReportEvery-th call, builds and logs a report.
// The second return value reports whether a report was produced.
func (a *PairAnalyzer) AnalyzeBar(ctx context.Context, bar domain.Bar) (Report, bool) {
	a.barCount++
	if a.barCount%a.cfg.ReportEvery != 0 {
		return Report{}, false
	}

	report := Report{
		Pair:      a.pair.Name,
		BarNumber: a.barCount,
		Time:      bar.Meta().Time,
		Close:     bar.Value(),
	}
	pip := a.pair.Pip()

	switch b := bar.(type) {
	case *domain.QuoteBar:
		report.Kind = a.kind("CUSTOM", "Custom", "Official")
		report.HasSpread = true
		report.SpreadPips = b.Spread().Div(pip)
		report.Shape = a.measure(b.Mid(), pip)
		a.logger.Info(ctx, report.Kind+" QuoteBar report", map[string]interface{}{
			"bar":        report.BarNumber,
			"time":       report.Time.Format(time.RFC3339),
			"close":      report.Close.StringFixed(5),
			"spreadPips": report.SpreadPips.StringFixed(1),
			"bias":       report.Shape.Bias,
		})
	case *domain.TradeBar:
		report.Kind = a.kind("TRADINGVIEW", "TradingView", "Unknown")
		report.HasVolume = true
		report.Volume = b.Volume
		report.Shape = a.measure(b.OHLC, pip)
		a.logger.Info(ctx, report.Kind+" TradeBar report", map[string]interface{}{
			"bar":    report.BarNumber,
			"time":   report.Time.Format(time.RFC3339),
			"close":  report.Close.StringFixed(5),
			"volume": report.Volume,
			"bias":   report.Shape.Bias,
		})
	default:
		report.Kind = "Unknown"
		a.logger.Info(ctx, "Bar report", map[string]interface{}{
			"bar":   report.BarNumber,
			"time":  report.Time.Format(time.RFC3339),
			"close": report.Close.StringFixed(5),
		})
	}
	return report, true
}

func (a *PairAnalyzer) kind(token, match, fallback string) string {
	if strings.Contains(strings.ToUpper(a.pair.Name), token) {
		return match
	}
	return fallback
}

// measure computes the candle shape and the wick-rejection bias.
// A long lower wick is a bullish rejection, a long upper wick a bearish one.
func (a *PairAnalyzer) measure(c domain.OHLC, pip decimal.Decimal) CandleShape {
	top := decimal.Max(c.Open, c.Close)
	bottom := decimal.Min(c.Open, c.Close)
	shape := CandleShape{
		BodyPips:      top.Sub(bottom).Div(pip),
		UpperWickPips: c.High.Sub(top).Div(pip),
		LowerWickPips: bottom.Sub(c.Low).Div(pip),
	}

	wick, bias := shape.LowerWickPips, "bullish"
	if shape.UpperWickPips.GreaterThan(shape.LowerWickPips) {
		wick, bias = shape.UpperWickPips, "bearish"
	}

	if !wick.IsPositive() || wick.LessThan(decimal.NewFromFloat(a.cfg.MinimumWickPips)) {
		return shape
	}
	if a.cfg.MaximumBodyPips > 0 && shape.BodyPips.GreaterThan(decimal.NewFromFloat(a.cfg.MaximumBodyPips)) {
		return shape
	}
	if shape.BodyPips.IsPositive() && wick.Div(shape.BodyPips).LessThan(decimal.NewFromFloat(a.cfg.WickToBodyRatio)) {
		return shape
	}

	if a.pair.InvertSignals {
		bias = invertBias(bias)
	}
	shape.Bias = bias
	return shape
}

func invertBias(bias string) string {
	switch bias {
	case "bullish":
		return "bearish"
	case "bearish":
		return "bullish"
	}
	return bias
}
