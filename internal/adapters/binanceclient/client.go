package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"

	"fxFeedLab/internal/domain"
	"fxFeedLab/internal/ports"
)

const (
	// Base URLs
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"

	maxKlinesPerRequest = 1000
)

// Client implements the ports.KlineSource interface on the Binance spot REST API.
type Client struct {
	spotClient *binance.Client
	logger     ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a new Binance client adapter. Kline endpoints are public, so keys are optional.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
	} else {
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Debug(context.Background(), "Binance spot client configured", map[string]interface{}{"baseURL": client.BaseURL})

	return &Client{spotClient: client, logger: cfg.Logger}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Signature for this request is not valid
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1121, -1125, -1127, -1128, -1130: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		case -2014, -2015: // API-key format invalid; invalid key, IP or permissions
			mappedErr = ports.ErrInvalidAPIKeys
		default:
			mappedErr = ports.ErrExchangeUnavailable
		}
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// Ping checks connectivity to the REST API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	if err := c.spotClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, fmt.Errorf("ping failed: %w", err), op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// GetServerTime retrieves the current server time from the exchange.
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	op := "GetServerTime"
	serverTimeMs, err := c.spotClient.NewServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, c.handleError(ctx, err, op)
	}
	return time.UnixMilli(serverTimeMs).UTC(), nil
}

// GetKlinesRange fetches all klines for a symbol/interval whose open time is in [start, end).
func (c *Client) GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.TradeBar, error) {
	op := "GetKlinesRange"
	if !end.After(start) {
		return nil, fmt.Errorf("%s: end must be after start: %w", op, ports.ErrInvalidRequest)
	}

	var bars []*domain.TradeBar
	from := start
	for {
		klines, err := c.spotClient.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli() - 1).
			Limit(maxKlinesPerRequest).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(klines) == 0 {
			break
		}
		for _, bk := range klines {
			bar, err := translateBinanceKline(bk, symbol)
			if err != nil {
				return nil, c.handleError(ctx, fmt.Errorf("failed to translate historical kline range: %w", err), op)
			}
			bars = append(bars, bar)
		}
		c.logger.Debug(ctx, "Fetched kline page", map[string]interface{}{"symbol": symbol, "count": len(klines), "from": from.Format(time.RFC3339)})

		from = time.UnixMilli(klines[len(klines)-1].CloseTime + 1)
		if !from.Before(end) || len(klines) < maxKlinesPerRequest {
			break
		}
	}
	return bars, nil
}

// translateBinanceKline converts a spot kline into a TradeBar. Volume is rounded to whole units.
func translateBinanceKline(bk *binance.Kline, symbol string) (*domain.TradeBar, error) {
	if bk == nil {
		return nil, errors.New("received nil historical kline")
	}
	prices := make([]decimal.Decimal, 0, 4)
	for _, f := range []struct{ name, value string }{
		{"open", bk.Open}, {"high", bk.High}, {"low", bk.Low}, {"close", bk.Close},
	} {
		p, err := decimal.NewFromString(f.value)
		if err != nil {
			return nil, fmt.Errorf("parsing %s price '%s': %w", f.name, f.value, err)
		}
		prices = append(prices, p)
	}
	vol, err := decimal.NewFromString(bk.Volume)
	if err != nil {
		return nil, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	open := time.UnixMilli(bk.OpenTime).UTC()
	closeTime := time.UnixMilli(bk.CloseTime + 1).UTC()
	return &domain.TradeBar{
		BarHeader: domain.BarHeader{
			Symbol: domain.Symbol(symbol),
			Time:   open,
			Period: closeTime.Sub(open),
		},
		OHLC:   domain.OHLC{Open: prices[0], High: prices[1], Low: prices[2], Close: prices[3]},
		Volume: vol.Round(0).IntPart(),
	}, nil
}

var _ ports.KlineSource = (*Client)(nil)
