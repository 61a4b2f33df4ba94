// Package scanner implements Volatility Contraction Pattern (VCP) detection
// over daily OHLCV candle series.
//
// The detection pipeline runs in three stages:
//   - swing/contraction scan: find local swing highs and lows and measure
//     successive pullback magnitudes (swings.go)
//   - volume profile: dry-up and breakout volume confirmation (volume.go)
//   - classification: validate the contraction sequence and emit a
//     confidence-scored detection with a pivot price (detector.go)
//
// All stages are pure functions over an immutable candle slice; the package
// holds no state and is safe to use concurrently across tickers.
package scanner

import (
	"errors"
	"fmt"
	"time"
)

// ErrDataAnomaly marks malformed input series: empty data, non-monotonic
// dates, non-positive prices, or split-contaminated closes. It aborts the
// evaluation of that ticker only; callers log it and move on.
var ErrDataAnomaly = errors.New("data anomaly")

// Candle is one daily OHLCV bar. Immutable once received from the provider.
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// ValidateSeries checks the structural contract of a candle series before
// scanning: non-empty, strictly increasing dates, positive prices and
// non-negative volume. Violations are data-sourcing faults, not detector
// bugs, so they surface as ErrDataAnomaly.
func ValidateSeries(candles []Candle) error {
	if len(candles) == 0 {
		return fmt.Errorf("%w: empty candle series", ErrDataAnomaly)
	}

	for i, c := range candles {
		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
			return fmt.Errorf("%w: non-positive price at bar %d (%s)", ErrDataAnomaly, i, c.Date.Format("2006-01-02"))
		}
		if c.Volume < 0 {
			return fmt.Errorf("%w: negative volume at bar %d (%s)", ErrDataAnomaly, i, c.Date.Format("2006-01-02"))
		}
		if i > 0 && !c.Date.After(candles[i-1].Date) {
			return fmt.Errorf("%w: non-monotonic date sequence at bar %d (%s)", ErrDataAnomaly, i, c.Date.Format("2006-01-02"))
		}
	}

	return nil
}
