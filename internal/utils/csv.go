package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"fxFeedLab/internal/domain"
)

// TradingViewHeader is the header row of a TradingView OHLCV export.
var TradingViewHeader = []string{"time", "open", "high", "low", "close", "Volume"}

// WriteTradingViewCSV writes bars in TradingView export format: epoch seconds, prices, integer volume.
func WriteTradingViewCSV(w io.Writer, bars []*domain.TradeBar) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(TradingViewHeader); err != nil {
		return err
	}
	for _, b := range bars {
		if b == nil {
			continue
		}
		if err := writer.Write([]string{
			strconv.FormatInt(b.Time.Unix(), 10),
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			strconv.FormatInt(b.Volume, 10),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTradingViewFile writes bars to filename, creating parent directories.
func WriteTradingViewFile(bars []*domain.TradeBar, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", filename, err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteTradingViewCSV(file, bars); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
