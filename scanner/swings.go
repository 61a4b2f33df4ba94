package scanner

import "fmt"

// Contraction is one pullback from a local swing high to the next swing
// low. Derived per scan from a candle window; never persisted on its own.
type Contraction struct {
	StartIndex int     `json:"start_index"`
	EndIndex   int     `json:"end_index"`
	HighPrice  float64 `json:"high_price"`
	LowPrice   float64 `json:"low_price"`
	DepthPct   float64 `json:"depth_pct"`
	AvgVolume  float64 `json:"avg_volume"`
}

// Span returns the contraction length in bars.
func (c Contraction) Span() int {
	return c.EndIndex - c.StartIndex
}

// gapFlags marks bars whose close moved more than the gap threshold versus
// the prior close. A close that roughly halves or doubles without a split
// adjustment is a data-quality fault and aborts the scan.
func gapFlags(candles []Candle, thresholdPct float64) ([]bool, error) {
	flags := make([]bool, len(candles))
	for i := 1; i < len(candles); i++ {
		ratio := candles[i].Close / candles[i-1].Close
		if ratio < 0.5 || ratio > 2.0 {
			return nil, fmt.Errorf("%w: close ratio %.2f at bar %d looks like an unadjusted split", ErrDataAnomaly, ratio, i)
		}
		move := ratio - 1
		if move < 0 {
			move = -move
		}
		if move*100 > thresholdPct {
			flags[i] = true
		}
	}
	return flags, nil
}

// FindContractions walks the series and produces the ordered list of
// contraction candidates: each swing high paired with the next swing low.
// Candidates shorter than MinSpanBars are dropped. Gap bars invalidate any
// swing window containing them. The scan is a pure function of its inputs,
// so rescanning restarts it from scratch.
func FindContractions(candles []Candle, cfg Config) ([]Contraction, error) {
	if err := ValidateSeries(candles); err != nil {
		return nil, err
	}

	gapped, err := gapFlags(candles, cfg.GapThresholdPct)
	if err != nil {
		return nil, err
	}

	swingHighs, swingLows := findSwingPoints(candles, gapped, cfg.SwingRadius)

	var contractions []Contraction
	for _, h := range swingHighs {
		low := -1
		for _, l := range swingLows {
			if l > h {
				low = l
				break
			}
		}
		if low < 0 {
			break
		}
		if low-h < cfg.MinSpanBars {
			continue
		}

		high := candles[h].High
		lowPrice := candles[low].Low
		contractions = append(contractions, Contraction{
			StartIndex: h,
			EndIndex:   low,
			HighPrice:  high,
			LowPrice:   lowPrice,
			DepthPct:   (high - lowPrice) / high * 100,
			AvgVolume:  averageVolume(candles[h : low+1]),
		})
	}

	return contractions, nil
}

// findSwingPoints locates indices that are the extreme of their centered
// window. Windows touching a gap bar are skipped entirely.
func findSwingPoints(candles []Candle, gapped []bool, radius int) (highs, lows []int) {
	n := len(candles)
	for i := radius; i < n-radius; i++ {
		windowOK := true
		isHigh := true
		isLow := true
		for j := i - radius; j <= i+radius; j++ {
			if gapped[j] {
				windowOK = false
				break
			}
			if candles[j].High > candles[i].High {
				isHigh = false
			}
			if candles[j].Low < candles[i].Low {
				isLow = false
			}
		}
		if !windowOK {
			continue
		}
		if isHigh {
			highs = append(highs, i)
		}
		if isLow {
			lows = append(lows, i)
		}
	}
	return highs, lows
}

// averageVolume computes the mean volume over a window. Thin zero-volume
// bars stay in the series for price structure but are excluded here.
func averageVolume(window []Candle) float64 {
	var sum float64
	var count int
	for _, c := range window {
		if c.Volume == 0 {
			continue
		}
		sum += float64(c.Volume)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
