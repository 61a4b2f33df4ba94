// Package marketdata supplies daily OHLCV candle series for tickers. The
// detection core only consumes the Fetcher contract; sourcing concerns
// (providers, retries across sources, ADR listings trading on their own
// volume history) stay behind it.
package marketdata

import (
	"context"
	"errors"

	"legend-scanner/scanner"
)

// ErrNoData marks a provider response that contained no usable candles.
var ErrNoData = errors.New("no candle data returned")

// Fetcher defines the interface for fetching daily candle history.
type Fetcher interface {
	FetchDailyCandles(ctx context.Context, ticker string, lookbackDays int) ([]scanner.Candle, error)
	Name() string
}
