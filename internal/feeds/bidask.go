package feeds

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fxFeedLab/internal/domain"
	"fxFeedLab/internal/ports"
)

// BidAskTimeLayout is the timestamp layout of the bid/ask feed.
const BidAskTimeLayout = "2006-01-02 15:04:05"

const (
	bidAskFields           = 9
	bidAskFieldsWithVolume = 10
)

var bidAskNames = []string{"bid open", "bid high", "bid low", "bid close", "ask open", "ask high", "ask low", "ask close"}

// BidAskFeed returns the custom data definition for a bid/ask CSV stored under key.
func BidAskFeed(key string) ports.CustomData {
	return ports.CustomData{Name: "bid/ask", Key: key, Decode: DecodeBidAsk}
}

// DecodeBidAsk is the host-facing decoder for the bid/ask format.
func DecodeBidAsk(cfg ports.SubscriptionConfig, line string) (domain.Bar, error) {
	bar, err := ParseBidAskLine(cfg, line)
	if err != nil {
		return nil, err
	}
	return bar, nil
}

// ParseBidAskLine parses one bid/ask line into a QuoteBar.
// The trailing volume column is optional; when present it must be a non-negative number.
func ParseBidAskLine(cfg ports.SubscriptionConfig, line string) (*domain.QuoteBar, error) {
	if !startsWithDigit(line) {
		return nil, ports.ErrSkipLine
	}

	fields := splitFields(line)
	if n := len(fields); n != bidAskFields && n != bidAskFieldsWithVolume {
		return nil, fmt.Errorf("%w: expected %d or %d fields, got %d", ports.ErrMalformedLine, bidAskFields, bidAskFieldsWithVolume, n)
	}

	start, err := time.ParseInLocation(BidAskTimeLayout, fields[0], cfg.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp %q: %v", ports.ErrMalformedLine, fields[0], err)
	}

	prices, err := parsePrices(fields[1:bidAskFields], bidAskNames)
	if err != nil {
		return nil, err
	}

	if len(fields) == bidAskFieldsWithVolume {
		vol, err := decimal.NewFromString(fields[9])
		if err != nil || vol.IsNegative() {
			return nil, fmt.Errorf("%w: volume %q", ports.ErrMalformedLine, fields[9])
		}
	}

	return &domain.QuoteBar{
		BarHeader: domain.BarHeader{
			Symbol: cfg.Symbol,
			Time:   start.UTC(),
			Period: cfg.Increment,
		},
		Bid: domain.OHLC{Open: prices[0], High: prices[1], Low: prices[2], Close: prices[3]},
		Ask: domain.OHLC{Open: prices[4], High: prices[5], Low: prices[6], Close: prices[7]},
	}, nil
}
