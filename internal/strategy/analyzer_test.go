package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxFeedLab/internal/domain"
)

func TestPairAnalyzer_ReportStride(t *testing.T) {
	a := NewPairAnalyzer(domain.PairConfig{Name: "EURUSD_CUSTOM"}, AnalyzerConfig{}, &mockLogger{})
	bar := quoteBar("EURUSD_CUSTOM", "1.17359", "1.17369")

	var reported []int
	for i := 1; i <= 31; i++ {
		if r, ok := a.AnalyzeBar(context.Background(), bar); ok {
			reported = append(reported, r.BarNumber)
		}
	}

	assert.Equal(t, []int{10, 20, 30}, reported)
	assert.Equal(t, 31, a.BarCount())
}

func TestPairAnalyzer_CustomStride(t *testing.T) {
	a := NewPairAnalyzer(domain.PairConfig{Name: "EURUSD_CUSTOM"}, AnalyzerConfig{ReportEvery: 3}, &mockLogger{})
	bar := quoteBar("EURUSD_CUSTOM", "1.17359", "1.17369")

	count := 0
	for i := 0; i < 9; i++ {
		if _, ok := a.AnalyzeBar(context.Background(), bar); ok {
			count++
		}
	}
	assert.Equal(t, 3, count)
}

func TestPairAnalyzer_Kinds(t *testing.T) {
	tests := []struct {
		name       string
		pair       string
		bar        domain.Bar
		wantKind   string
		wantSpread bool
		wantVolume bool
	}{
		{name: "custom quote bar", pair: "EURUSD_CUSTOM", bar: quoteBar("EURUSD_CUSTOM", "1.17359", "1.17369"), wantKind: "Custom", wantSpread: true},
		{name: "official quote bar", pair: "EURUSD_OFFICIAL", bar: quoteBar("EURUSD", "1.17359", "1.17369"), wantKind: "Official", wantSpread: true},
		{name: "tradingview trade bar", pair: "EURUSD_TRADINGVIEW", bar: tradeBar("EURUSD_TRADINGVIEW", "1.1737", 42), wantKind: "TradingView", wantVolume: true},
		{name: "unknown trade bar", pair: "EURUSD", bar: tradeBar("EURUSD", "1.1737", 42), wantKind: "Unknown", wantVolume: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &mockLogger{}
			a := NewPairAnalyzer(domain.PairConfig{Name: tt.pair}, AnalyzerConfig{ReportEvery: 1}, logger)

			r, ok := a.AnalyzeBar(context.Background(), tt.bar)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, r.Kind)
			assert.Equal(t, tt.pair, r.Pair)
			assert.Equal(t, tt.wantSpread, r.HasSpread)
			assert.Equal(t, tt.wantVolume, r.HasVolume)
			assert.Equal(t, testTime, r.Time)
			assert.Len(t, logger.infoMsgs, 1)
		})
	}
}

func TestPairAnalyzer_SpreadAndVolume(t *testing.T) {
	a := NewPairAnalyzer(domain.PairConfig{Name: "EURUSD_CUSTOM"}, AnalyzerConfig{ReportEvery: 1}, &mockLogger{})
	r, ok := a.AnalyzeBar(context.Background(), quoteBar("EURUSD_CUSTOM", "1.17359", "1.17369"))
	require.True(t, ok)
	assert.True(t, d("1").Equal(r.SpreadPips), "spread pips: %s", r.SpreadPips)
	assert.True(t, d("1.17364").Equal(r.Close))

	tv := NewPairAnalyzer(domain.PairConfig{Name: "EURUSD_TRADINGVIEW"}, AnalyzerConfig{ReportEvery: 1}, &mockLogger{})
	r, ok = tv.AnalyzeBar(context.Background(), tradeBar("EURUSD_TRADINGVIEW", "1.1737", 42))
	require.True(t, ok)
	assert.Equal(t, int64(42), r.Volume)
	assert.True(t, d("1.1737").Equal(r.Close))
}

func TestPairAnalyzer_CandleBias(t *testing.T) {
	// Body 1 pip, upper wick 1 pip, lower wick 10 pips.
	hammer := &domain.TradeBar{
		BarHeader: domain.BarHeader{Symbol: "EURUSD_TRADINGVIEW", Time: testTime, Period: time.Minute},
		OHLC:      domain.OHLC{Open: d("1.1000"), High: d("1.1002"), Low: d("1.0990"), Close: d("1.1001")},
	}
	cfg := AnalyzerConfig{ReportEvery: 1, WickToBodyRatio: 2, MinimumWickPips: 3, MaximumBodyPips: 5}

	tests := []struct {
		name     string
		invert   bool
		cfg      AnalyzerConfig
		wantBias string
	}{
		{name: "long lower wick", cfg: cfg, wantBias: "bullish"},
		{name: "inverted signals", invert: true, cfg: cfg, wantBias: "bearish"},
		{name: "wick below minimum", cfg: AnalyzerConfig{ReportEvery: 1, WickToBodyRatio: 2, MinimumWickPips: 20}, wantBias: ""},
		{name: "ratio not met", cfg: AnalyzerConfig{ReportEvery: 1, WickToBodyRatio: 50, MinimumWickPips: 3}, wantBias: ""},
		{name: "body too large", cfg: AnalyzerConfig{ReportEvery: 1, WickToBodyRatio: 2, MinimumWickPips: 3, MaximumBodyPips: 0.5}, wantBias: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewPairAnalyzer(domain.PairConfig{Name: "EURUSD_TRADINGVIEW", InvertSignals: tt.invert}, tt.cfg, &mockLogger{})
			r, ok := a.AnalyzeBar(context.Background(), hammer)
			require.True(t, ok)
			assert.True(t, d("1").Equal(r.Shape.BodyPips))
			assert.True(t, d("1").Equal(r.Shape.UpperWickPips))
			assert.True(t, d("10").Equal(r.Shape.LowerWickPips))
			assert.Equal(t, tt.wantBias, r.Shape.Bias)
		})
	}
}

func TestPairAnalyzer_DefaultThresholds(t *testing.T) {
	cfg := AnalyzerConfig{
		ReportEvery:     1,
		WickToBodyRatio: DefaultWickToBodyRatio,
		MinimumWickPips: DefaultMinimumWickPips,
		MaximumBodyPips: DefaultMaximumBodyPips,
	}
	bar := func(open, high, low, closePrice string) *domain.TradeBar {
		return &domain.TradeBar{
			BarHeader: domain.BarHeader{Symbol: "EURUSD_TRADINGVIEW", Time: testTime, Period: time.Minute},
			OHLC:      domain.OHLC{Open: d(open), High: d(high), Low: d(low), Close: d(closePrice)},
		}
	}

	tests := []struct {
		name     string
		bar      *domain.TradeBar
		wantBias string
	}{
		// Body 3 pips, lower wick 0.1 pip.
		{name: "ordinary candle", bar: bar("1.10000", "1.10030", "1.09999", "1.10030"), wantBias: ""},
		// Body 0.3 pip, lower wick 8 pips.
		{name: "pin bar", bar: bar("1.10000", "1.10003", "1.09920", "1.10003"), wantBias: "bullish"},
		// Body 0.3 pip, upper wick 8 pips.
		{name: "shooting star", bar: bar("1.10003", "1.10083", "1.10000", "1.10000"), wantBias: "bearish"},
		// Body 0.3 pip, lower wick 4 pips.
		{name: "wick under five pips", bar: bar("1.10000", "1.10003", "1.09960", "1.10003"), wantBias: ""},
		// Body 1 pip, lower wick 10 pips.
		{name: "body over half a pip", bar: bar("1.10000", "1.10010", "1.09900", "1.10010"), wantBias: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewPairAnalyzer(domain.PairConfig{Name: "EURUSD_TRADINGVIEW"}, cfg, &mockLogger{})
			r, ok := a.AnalyzeBar(context.Background(), tt.bar)
			require.True(t, ok)
			assert.Equal(t, tt.wantBias, r.Shape.Bias)
		})
	}
}
