package ports

import (
	"context"
	"time"

	"fxFeedLab/internal/domain"
)

// KlineSource provides historical OHLCV bars from an exchange.
type KlineSource interface {
	// GetKlinesRange fetches all bars for symbol/interval between start and end.
	GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.TradeBar, error)
}
