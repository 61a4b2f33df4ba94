package scanner

import "sort"

// VolumeDryUp reports whether volume over the tail of the given window has
// dried up: the mean of the last DryUpBars non-zero volumes must be at or
// below the 10th percentile of volume observed over the BaseLookback
// window. Ties count as dried up.
func VolumeDryUp(candles []Candle, cfg Config) bool {
	n := len(candles)
	if n == 0 || cfg.DryUpBars <= 0 {
		return false
	}

	look := cfg.BaseLookback
	if look > n {
		look = n
	}
	base := nonZeroVolumes(candles[n-look:])
	if len(base) == 0 {
		return false
	}
	threshold := percentile(base, 10)

	tailStart := n - cfg.DryUpBars
	if tailStart < 0 {
		tailStart = 0
	}
	tail := nonZeroVolumes(candles[tailStart:])
	if len(tail) == 0 {
		return false
	}

	var sum float64
	for _, v := range tail {
		sum += v
	}
	return sum/float64(len(tail)) <= threshold
}

// BreakoutVolumeConfirmed reports whether the bar at index i carries
// breakout-grade volume: at least BreakoutVolumeMult times the simple
// moving average of volume over the BaseLookback bars ending at the prior
// bar. The breakout bar itself is excluded from the average to avoid
// self-reference.
func BreakoutVolumeConfirmed(candles []Candle, i int, cfg Config) bool {
	if i < 1 || i >= len(candles) {
		return false
	}

	start := i - cfg.BaseLookback
	if start < 0 {
		start = 0
	}
	prior := nonZeroVolumes(candles[start:i])
	if len(prior) == 0 {
		return false
	}

	var sum float64
	for _, v := range prior {
		sum += v
	}
	avg := sum / float64(len(prior))
	return float64(candles[i].Volume) >= cfg.BreakoutVolumeMult*avg
}

// averageDollarVolume is mean close*volume over the last BaseLookback bars,
// used for the liquidity sub-score.
func averageDollarVolume(candles []Candle, cfg Config) float64 {
	n := len(candles)
	if n == 0 {
		return 0
	}
	start := n - cfg.BaseLookback
	if start < 0 {
		start = 0
	}

	var sum float64
	var count int
	for _, c := range candles[start:] {
		if c.Volume == 0 {
			continue
		}
		sum += c.Close * float64(c.Volume)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func nonZeroVolumes(candles []Candle) []float64 {
	out := make([]float64, 0, len(candles))
	for _, c := range candles {
		if c.Volume > 0 {
			out = append(out, float64(c.Volume))
		}
	}
	return out
}

// percentile returns the fixed-bucket pct-th percentile of values: the
// element at index floor(len*pct/100) of the ascending sort.
func percentile(values []float64, pct float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)) * pct / 100.0)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
