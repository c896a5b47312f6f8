package domain

import "github.com/shopspring/decimal"

// DefaultPipSize is the quoted pip unit for EUR/USD.
var DefaultPipSize = decimal.New(1, -4)

// PairConfig is the static identity of one tracked instrument.
type PairConfig struct {
	Name          string          // e.g., "EURUSD_CUSTOM"
	InvertSignals bool            // Flip the direction of any derived signal
	PipSize       decimal.Decimal // Zero means DefaultPipSize
}

// Pip returns the configured pip size or the default.
func (p PairConfig) Pip() decimal.Decimal {
	if p.PipSize.IsPositive() {
		return p.PipSize
	}
	return DefaultPipSize
}
