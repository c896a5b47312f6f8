package ports

import (
	"time"

	"github.com/shopspring/decimal"

	"fxFeedLab/internal/domain"
)

// SeriesType is the rendering style of a chart series.
type SeriesType string

const (
	SeriesCandlestick SeriesType = "candlestick"
	SeriesLine        SeriesType = "line"
)

// SeriesDef declares one named series on a chart.
type SeriesDef struct {
	Name string
	Type SeriesType
	Unit string
}

// ChartDef declares a chart and its series.
type ChartDef struct {
	Name   string
	Series []SeriesDef
}

// ChartSurface is the external visualization surface.
type ChartSurface interface {
	AddChart(chart ChartDef) error
	// PlotBar appends a candle to a candlestick series.
	PlotBar(chart, series string, bar *domain.TradeBar) error
	// PlotValue appends a point to a line series.
	PlotValue(chart, series string, t time.Time, value decimal.Decimal) error
}
