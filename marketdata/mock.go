package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"legend-scanner/scanner"
)

// MockFetcher generates deterministic synthetic candle series for running
// without a market data source. Each ticker seeds its own random walk, so
// repeated fetches of the same ticker return the same series.
type MockFetcher struct{}

// NewMockFetcher creates a synthetic data fetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{}
}

func (f *MockFetcher) Name() string { return "mock" }

// FetchDailyCandles produces lookbackDays bars of a gently trending,
// noisy series ending today.
func (f *MockFetcher) FetchDailyCandles(_ context.Context, ticker string, lookbackDays int) ([]scanner.Candle, error) {
	if lookbackDays <= 0 {
		return nil, ErrNoData
	}

	h := fnv.New64a()
	h.Write([]byte(ticker))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	price := 40 + rng.Float64()*160
	drift := 0.0005 + rng.Float64()*0.002
	baseVolume := 500_000 + rng.Int63n(4_500_000)

	start := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -lookbackDays)
	candles := make([]scanner.Candle, 0, lookbackDays)
	for i := 0; i < lookbackDays; i++ {
		noise := (rng.Float64() - 0.5) * 0.03
		price *= 1 + drift + noise
		if price < 1 {
			price = 1
		}

		spread := price * (0.002 + rng.Float64()*0.01)
		open := price - spread/2
		candles = append(candles, scanner.Candle{
			Date:   start.AddDate(0, 0, i),
			Open:   open,
			High:   price + spread,
			Low:    math.Min(open, price) - spread,
			Close:  price,
			Volume: baseVolume + rng.Int63n(baseVolume),
		})
	}

	return candles, nil
}
