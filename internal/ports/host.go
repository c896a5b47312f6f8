package ports

import (
	"context"
	"time"

	"fxFeedLab/internal/domain"
)

// SubscriptionConfig is the context handed to a decoder for every line.
type SubscriptionConfig struct {
	Symbol      domain.Symbol
	Resolution  domain.Resolution
	Increment   time.Duration  // Bar period
	TimeZone    *time.Location // Zone the feed's wall-clock timestamps are written in
	FillForward bool
}

// Location returns the feed time zone, UTC when unset.
func (c SubscriptionConfig) Location() *time.Location {
	if c.TimeZone == nil {
		return time.UTC
	}
	return c.TimeZone
}

// LineDecoder turns one raw line into a bar. Any error means "no data" for that line;
// decoders wrap ErrSkipLine or ErrMalformedLine so the host can count them.
type LineDecoder func(cfg SubscriptionConfig, line string) (domain.Bar, error)

// CustomData binds an object store key to the decoder reading it.
type CustomData struct {
	Name   string
	Key    string
	Decode LineDecoder
}

// SubscriptionOption adjusts a subscription before it is registered.
type SubscriptionOption func(*SubscriptionConfig)

// WithTimeZone sets the feed time zone.
func WithTimeZone(loc *time.Location) SubscriptionOption {
	return func(c *SubscriptionConfig) { c.TimeZone = loc }
}

// WithFillForward toggles fill-forward of missing bars.
func WithFillForward(enabled bool) SubscriptionOption {
	return func(c *SubscriptionConfig) { c.FillForward = enabled }
}

// SubscriptionRegistry registers feeds with the host.
type SubscriptionRegistry interface {
	// AddData subscribes a custom feed read through def.Decode.
	AddData(def CustomData, ticker string, res domain.Resolution, opts ...SubscriptionOption) (SubscriptionConfig, error)
	// AddForex subscribes the host's own forex quote data for ticker.
	AddForex(ticker string, res domain.Resolution) (SubscriptionConfig, error)
}

// Algorithm is the plugin the host drives.
type Algorithm interface {
	// Initialize runs once before any data is delivered.
	Initialize(ctx context.Context, subs SubscriptionRegistry) error
	// OnData is called once per scheduling tick.
	OnData(ctx context.Context, slice *domain.Slice)
}
