package strategy

import (
	"context"
	"time"

	"fxFeedLab/internal/domain"
	"fxFeedLab/internal/ports"
)

// Chart and series names registered on the surface.
const (
	CustomChart       = "Custom_EURUSD_Chart"
	CustomSeries      = "Custom_Price"
	OfficialChart     = "Official_EURUSD_Chart"
	OfficialSeries    = "Official_Price"
	TradingViewChart  = "TradingView_EURUSD_Chart"
	TradingViewSeries = "TradingView_Price"
	SpreadChart       = "Spread_Comparison_Chart"
	CustomSpread      = "Custom_Spread"
	OfficialSpread    = "Official_Spread"
)

// ChartManager forwards bars and spreads to a chart surface on a best-effort basis.
type ChartManager struct {
	surface     ports.ChartSurface
	logger      ports.Logger
	primary     domain.Symbol
	official    domain.Symbol
	tradingView domain.Symbol
}

// NewChartManager creates a chart manager for the three tracked feeds.
func NewChartManager(surface ports.ChartSurface, logger ports.Logger, primary, official, tradingView domain.Symbol) *ChartManager {
	return &ChartManager{
		surface:     surface,
		logger:      logger,
		primary:     primary,
		official:    official,
		tradingView: tradingView,
	}
}

// SetupCharts registers the candlestick charts and the spread comparison chart.
func (m *ChartManager) SetupCharts(ctx context.Context) error {
	defs := []ports.ChartDef{
		{Name: CustomChart, Series: []ports.SeriesDef{{Name: CustomSeries, Type: ports.SeriesCandlestick, Unit: "$"}}},
		{Name: OfficialChart, Series: []ports.SeriesDef{{Name: OfficialSeries, Type: ports.SeriesCandlestick, Unit: "$"}}},
		{Name: TradingViewChart, Series: []ports.SeriesDef{{Name: TradingViewSeries, Type: ports.SeriesCandlestick, Unit: "$"}}},
		{Name: SpreadChart, Series: []ports.SeriesDef{
			{Name: CustomSpread, Type: ports.SeriesLine, Unit: "$"},
			{Name: OfficialSpread, Type: ports.SeriesLine, Unit: "$"},
		}},
	}
	for _, def := range defs {
		if err := m.surface.AddChart(def); err != nil {
			return err
		}
	}
	m.logger.Debug(ctx, "Charts registered", map[string]interface{}{
		"charts":      len(defs),
		"primary":     m.primary.String(),
		"official":    m.official.String(),
		"tradingView": m.tradingView.String(),
	})
	return nil
}

// PlotData sends the bars present in a tick to their charts. Nil bars are skipped.
func (m *ChartManager) PlotData(ctx context.Context, t time.Time, custom, official *domain.QuoteBar, tradingView *domain.TradeBar) {
	if custom != nil {
		m.plotBar(ctx, CustomChart, CustomSeries, custom.Collapse())
		m.plotValue(ctx, SpreadChart, CustomSpread, t, custom)
	}
	if official != nil {
		m.plotBar(ctx, OfficialChart, OfficialSeries, official.Collapse())
		m.plotValue(ctx, SpreadChart, OfficialSpread, t, official)
	}
	if tradingView != nil {
		m.plotBar(ctx, TradingViewChart, TradingViewSeries, tradingView)
	}
}

func (m *ChartManager) plotBar(ctx context.Context, chart, series string, bar *domain.TradeBar) {
	if err := m.surface.PlotBar(chart, series, bar); err != nil {
		m.logger.Warn(ctx, "Failed to plot bar", map[string]interface{}{"chart": chart, "series": series, "error": err.Error()})
	}
}

func (m *ChartManager) plotValue(ctx context.Context, chart, series string, t time.Time, q *domain.QuoteBar) {
	if err := m.surface.PlotValue(chart, series, t, q.Spread()); err != nil {
		m.logger.Warn(ctx, "Failed to plot value", map[string]interface{}{"chart": chart, "series": series, "error": err.Error()})
	}
}
