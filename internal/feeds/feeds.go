// Package feeds decodes raw EUR/USD feed lines into normalized bars.
//
// Two formats are supported:
//
//	bid/ask:  Timestamp,BidOpen,BidHigh,BidLow,BidClose,AskOpen,AskHigh,AskLow,AskClose[,Volume]
//	OHLCV:    UnixEpochSeconds,Open,High,Low,Close,Volume
//
// Decoders are pure functions of (subscription config, line). They never panic
// and never return a partially filled bar; every rejection wraps either
// ports.ErrSkipLine or ports.ErrMalformedLine.
package feeds

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fxFeedLab/internal/ports"
)

// startsWithDigit reports whether the first byte of line is an ASCII digit.
// Blank, whitespace-prefixed, header and comment lines all fail this check.
func startsWithDigit(line string) bool {
	return len(line) > 0 && line[0] >= '0' && line[0] <= '9'
}

func splitFields(line string) []string {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// parsePrice parses a strictly positive decimal price.
func parsePrice(field, name string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(field)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s %q is not a number", ports.ErrMalformedLine, name, field)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %s %q must be positive", ports.ErrMalformedLine, name, field)
	}
	return d, nil
}

func parsePrices(fields []string, names []string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(names))
	for i, name := range names {
		p, err := parsePrice(fields[i], name)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
