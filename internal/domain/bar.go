package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// BarHeader carries the identity and time span shared by every bar type.
type BarHeader struct {
	Symbol Symbol        // Feed the bar belongs to
	Time   time.Time     // Start of the interval (UTC)
	Period time.Duration // Length of the interval
}

// Meta returns the header itself.
func (h BarHeader) Meta() BarHeader { return h }

// EndTime is the start time plus the period.
func (h BarHeader) EndTime() time.Time { return h.Time.Add(h.Period) }

// Bar is a normalized record for a single time interval of market data.
type Bar interface {
	Meta() BarHeader
	EndTime() time.Time
	// Value is the representative price of the bar (its close).
	Value() decimal.Decimal
}

// OHLC holds open/high/low/close prices.
type OHLC struct {
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// QuoteBar is a bid/ask range bar.
type QuoteBar struct {
	BarHeader
	Bid OHLC
	Ask OHLC
}

// Mid returns the midpoint of the bid and ask sides for every price.
func (q *QuoteBar) Mid() OHLC {
	return OHLC{
		Open:  midpoint(q.Bid.Open, q.Ask.Open),
		High:  midpoint(q.Bid.High, q.Ask.High),
		Low:   midpoint(q.Bid.Low, q.Ask.Low),
		Close: midpoint(q.Bid.Close, q.Ask.Close),
	}
}

// Close is the average of the bid close and ask close.
func (q *QuoteBar) Close() decimal.Decimal {
	return midpoint(q.Bid.Close, q.Ask.Close)
}

// Value implements Bar.
func (q *QuoteBar) Value() decimal.Decimal { return q.Close() }

// Spread is the ask close minus the bid close, in price units.
func (q *QuoteBar) Spread() decimal.Decimal {
	return q.Ask.Close.Sub(q.Bid.Close)
}

// Collapse converts the quote bar into a trade bar built from midpoint prices.
func (q *QuoteBar) Collapse() *TradeBar {
	return &TradeBar{
		BarHeader: q.BarHeader,
		OHLC:      q.Mid(),
	}
}

// TradeBar is an OHLCV bar.
type TradeBar struct {
	BarHeader
	OHLC
	Volume int64
}

// Value implements Bar.
func (t *TradeBar) Value() decimal.Decimal { return t.Close }

func midpoint(a, b decimal.Decimal) decimal.Decimal {
	return a.Add(b).Div(two)
}
