// Package echarts renders the strategy's charts as a single HTML page.
package echarts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/shopspring/decimal"

	"fxFeedLab/internal/domain"
	"fxFeedLab/internal/ports"
)

const (
	colorBull   = "#34d399"
	colorBear   = "#f87171"
	chartWidth  = "1400px"
	chartHeight = "480px"
	axisLayout  = "01-02 15:04"
)

type candle struct {
	t    time.Time
	ohlc [4]float64 // open, close, low, high
}

type point struct {
	t time.Time
	v float64
}

type series struct {
	def     ports.SeriesDef
	candles []candle
	points  []point
}

type chart struct {
	def    ports.ChartDef
	series []*series
	byName map[string]*series
}

// Surface implements ports.ChartSurface and keeps every plotted point in memory until rendered.
type Surface struct {
	mu     sync.Mutex
	title  string
	charts []*chart
	byName map[string]*chart
}

// New creates an empty surface. title prefixes every chart title.
func New(title string) *Surface {
	return &Surface{title: title, byName: make(map[string]*chart)}
}

// AddChart registers a chart and its series.
func (s *Surface) AddChart(def ports.ChartDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if def.Name == "" {
		return fmt.Errorf("chart name is empty: %w", ports.ErrInvalidRequest)
	}
	if _, ok := s.byName[def.Name]; ok {
		return fmt.Errorf("chart %s already registered: %w", def.Name, ports.ErrInvalidRequest)
	}
	c := &chart{def: def, byName: make(map[string]*series)}
	for _, sd := range def.Series {
		sr := &series{def: sd}
		c.series = append(c.series, sr)
		c.byName[sd.Name] = sr
	}
	s.charts = append(s.charts, c)
	s.byName[def.Name] = c
	return nil
}

func (s *Surface) lookup(chartName, seriesName string, want ports.SeriesType) (*series, error) {
	c, ok := s.byName[chartName]
	if !ok {
		return nil, fmt.Errorf("chart %s: %w", chartName, ports.ErrNotFound)
	}
	sr, ok := c.byName[seriesName]
	if !ok {
		return nil, fmt.Errorf("series %s/%s: %w", chartName, seriesName, ports.ErrNotFound)
	}
	if sr.def.Type != want {
		return nil, fmt.Errorf("series %s/%s is %s, not %s: %w", chartName, seriesName, sr.def.Type, want, ports.ErrInvalidRequest)
	}
	return sr, nil
}

// PlotBar appends a candle to a candlestick series.
func (s *Surface) PlotBar(chartName, seriesName string, bar *domain.TradeBar) error {
	if bar == nil {
		return fmt.Errorf("nil bar: %w", ports.ErrInvalidRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sr, err := s.lookup(chartName, seriesName, ports.SeriesCandlestick)
	if err != nil {
		return err
	}
	sr.candles = append(sr.candles, candle{
		t: bar.EndTime(),
		ohlc: [4]float64{
			bar.Open.InexactFloat64(),
			bar.Close.InexactFloat64(),
			bar.Low.InexactFloat64(),
			bar.High.InexactFloat64(),
		},
	})
	return nil
}

// PlotValue appends a point to a line series.
func (s *Surface) PlotValue(chartName, seriesName string, t time.Time, value decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr, err := s.lookup(chartName, seriesName, ports.SeriesLine)
	if err != nil {
		return err
	}
	sr.points = append(sr.points, point{t: t, v: value.InexactFloat64()})
	return nil
}

// Points returns how many values were plotted on a series.
func (s *Surface) Points(chartName, seriesName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byName[chartName]
	if !ok {
		return 0
	}
	sr, ok := c.byName[seriesName]
	if !ok {
		return 0
	}
	return len(sr.candles) + len(sr.points)
}

// Render writes every registered chart, in registration order, as one HTML page.
func (s *Surface) Render(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	page := components.NewPage()
	page.PageTitle = s.title
	page.SetLayout(components.PageFlexLayout)
	for _, c := range s.charts {
		page.AddCharts(s.build(c))
	}
	return page.Render(w)
}

// WriteFile renders the page to path, creating parent directories.
func (s *Surface) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file %s: %w", path, err)
	}
	if err := s.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render charts: %w", err)
	}
	return f.Close()
}

func (s *Surface) globalOpts(c *chart) []charts.GlobalOpts {
	title := c.def.Name
	if s.title != "" {
		title = s.title + " | " + c.def.Name
	}
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: title, Left: "left"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	}
}

// build turns one chart into a candlestick chart (when its first series is one) or a line chart.
// Series share an x axis made of every plotted time; missing points are left empty.
func (s *Surface) build(c *chart) components.Charter {
	axis, index := timeAxis(c.series)

	if len(c.series) > 0 && c.series[0].def.Type == ports.SeriesCandlestick {
		kline := charts.NewKLine()
		kline.SetGlobalOptions(s.globalOpts(c)...)
		kline.SetSeriesOptions(charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorBull,
			Color0:       colorBear,
			BorderColor:  colorBull,
			BorderColor0: colorBear,
		}))
		kline.SetXAxis(axis)
		for _, sr := range c.series {
			if sr.def.Type == ports.SeriesCandlestick {
				kline.AddSeries(sr.def.Name, klineData(sr, index, len(axis)))
			}
		}
		if line := lineOverlay(c.series, axis, index); line != nil {
			kline.Overlap(line)
		}
		return kline
	}

	line := charts.NewLine()
	line.SetGlobalOptions(s.globalOpts(c)...)
	line.SetXAxis(axis)
	for _, sr := range c.series {
		if sr.def.Type == ports.SeriesLine {
			line.AddSeries(sr.def.Name, lineData(sr, index, len(axis)), charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
		}
	}
	return line
}

func lineOverlay(all []*series, axis []string, index map[time.Time]int) *charts.Line {
	var line *charts.Line
	for _, sr := range all {
		if sr.def.Type != ports.SeriesLine {
			continue
		}
		if line == nil {
			line = charts.NewLine()
			line.SetXAxis(axis)
		}
		line.AddSeries(sr.def.Name, lineData(sr, index, len(axis)))
	}
	return line
}

func timeAxis(all []*series) ([]string, map[time.Time]int) {
	seen := make(map[time.Time]bool)
	var times []time.Time
	add := func(t time.Time) {
		t = t.UTC()
		if !seen[t] {
			seen[t] = true
			times = append(times, t)
		}
	}
	for _, sr := range all {
		for _, c := range sr.candles {
			add(c.t)
		}
		for _, p := range sr.points {
			add(p.t)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	axis := make([]string, len(times))
	index := make(map[time.Time]int, len(times))
	for i, t := range times {
		axis[i] = t.Format(axisLayout)
		index[t] = i
	}
	return axis, index
}

func klineData(sr *series, index map[time.Time]int, n int) []opts.KlineData {
	data := make([]opts.KlineData, n)
	for _, c := range sr.candles {
		data[index[c.t.UTC()]] = opts.KlineData{Value: c.ohlc}
	}
	return data
}

func lineData(sr *series, index map[time.Time]int, n int) []opts.LineData {
	data := make([]opts.LineData, n)
	for _, p := range sr.points {
		data[index[p.t.UTC()]] = opts.LineData{Value: p.v}
	}
	return data
}

var _ ports.ChartSurface = (*Surface)(nil)
