package feeds

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fxFeedLab/internal/domain"
	"fxFeedLab/internal/ports"
)

// OHLCVHeaderToken is the first column name of the TradingView export header.
const OHLCVHeaderToken = "time"

const ohlcvFields = 6

var ohlcvNames = []string{"open", "high", "low", "close"}

// OHLCVFeed returns the custom data definition for a TradingView OHLCV CSV stored under key.
func OHLCVFeed(key string) ports.CustomData {
	return ports.CustomData{Name: "ohlcv", Key: key, Decode: DecodeOHLCV}
}

// DecodeOHLCV is the host-facing decoder for the OHLCV format.
func DecodeOHLCV(cfg ports.SubscriptionConfig, line string) (domain.Bar, error) {
	bar, err := ParseOHLCVLine(cfg, line)
	if err != nil {
		return nil, err
	}
	return bar, nil
}

// ParseOHLCVLine parses one OHLCV line into a TradeBar.
// The timestamp is Unix epoch seconds and is always interpreted as UTC.
func ParseOHLCVLine(cfg ports.SubscriptionConfig, line string) (*domain.TradeBar, error) {
	if strings.HasPrefix(line, OHLCVHeaderToken) || !startsWithDigit(line) {
		return nil, ports.ErrSkipLine
	}

	fields := splitFields(line)
	if len(fields) != ohlcvFields {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ports.ErrMalformedLine, ohlcvFields, len(fields))
	}

	epoch, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: epoch %q", ports.ErrMalformedLine, fields[0])
	}

	prices, err := parsePrices(fields[1:5], ohlcvNames)
	if err != nil {
		return nil, err
	}

	volume, err := strconv.ParseInt(fields[5], 10, 64)
	if err != nil || volume < 0 {
		return nil, fmt.Errorf("%w: volume %q", ports.ErrMalformedLine, fields[5])
	}

	return &domain.TradeBar{
		BarHeader: domain.BarHeader{
			Symbol: cfg.Symbol,
			Time:   time.Unix(epoch, 0).UTC(),
			Period: cfg.Increment,
		},
		OHLC:   domain.OHLC{Open: prices[0], High: prices[1], Low: prices[2], Close: prices[3]},
		Volume: volume,
	}, nil
}
