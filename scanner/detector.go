package scanner

import (
	"math"
	"time"
)

// Confidence weights for the fixed linear scoring model. The score is an
// auditable pure function of its normalized sub-scores, deliberately not a
// learned model.
const (
	weightSymmetry   = 0.35
	weightBaseLength = 0.20
	weightRS         = 0.30
	weightLiquidity  = 0.15
)

// Detection is a validated VCP candidate for one ticker as of the last
// evaluated bar. Immutable after creation; a later run for the same ticker
// supersedes it through the store, never mutates it.
type Detection struct {
	Ticker        string        `json:"ticker"`
	AsOf          time.Time     `json:"as_of"`
	Contractions  []Contraction `json:"contractions"`
	PivotPrice    float64       `json:"pivot_price"`
	Confidence    float64       `json:"confidence"`
	BaseDepthPct  float64       `json:"base_depth_pct"`
	RS            float64       `json:"rs"`
	Triggered     bool          `json:"triggered"`
	VolumeDryUp   bool          `json:"volume_dry_up"`
	TrendStrength float64       `json:"trend_strength"`

	// Sub-scores kept for auditability of the confidence weighting.
	SymmetryScore   float64 `json:"symmetry_score"`
	BaseLengthScore float64 `json:"base_length_score"`
	LiquidityScore  float64 `json:"liquidity_score"`
}

// Detect classifies a candle series as a VCP candidate. rs is the
// externally computed relative-strength rating (0-100); the detector does
// not derive it. A nil detection with a nil error is the normal "no
// pattern" outcome. ErrDataAnomaly wraps malformed input.
func Detect(ticker string, candles []Candle, rs float64, cfg Config) (*Detection, error) {
	if err := ValidateSeries(candles); err != nil {
		return nil, err
	}
	if len(candles) < cfg.MinWindow {
		return nil, nil
	}

	trendStrength, trendOK := TrendTemplate(candles)
	if cfg.CheckTrendTemplate && !trendOK {
		return nil, nil
	}

	candidates, err := FindContractions(candles, cfg)
	if err != nil {
		return nil, err
	}

	chain := selectChain(candidates, cfg.MaxContractions)
	if len(chain) < 3 {
		return nil, nil
	}
	if !validChain(chain, cfg) {
		return nil, nil
	}

	n := len(candles)
	// Dry-up is judged on the base tail, excluding the evaluation bar so a
	// high-volume breakout day cannot mask its own dry-up.
	if !VolumeDryUp(candles[:n-1], cfg) {
		return nil, nil
	}

	last := chain[len(chain)-1]
	pivot := last.HighPrice * (1 + cfg.PivotBufferPct/100)

	closePrice := candles[n-1].Close
	triggered := false
	if closePrice > pivot {
		// A close above the pivot is only a valid terminal state when the
		// breakout bar carries confirming volume.
		if !BreakoutVolumeConfirmed(candles, n-1, cfg) {
			return nil, nil
		}
		triggered = true
	}

	symmetry := symmetryScore(chain)
	baseLen := baseLengthScore(last.EndIndex-chain[0].StartIndex, cfg)
	liquidity := clamp01(averageDollarVolume(candles, cfg) / cfg.LiquidityFloor)
	rsScore := clamp01(rs / 100)

	confidence := clamp01(
		weightSymmetry*symmetry +
			weightBaseLength*baseLen +
			weightRS*rsScore +
			weightLiquidity*liquidity,
	)

	return &Detection{
		Ticker:          ticker,
		AsOf:            candles[n-1].Date,
		Contractions:    chain,
		PivotPrice:      pivot,
		Confidence:      confidence,
		BaseDepthPct:    baseDepth(chain),
		RS:              rs,
		Triggered:       triggered,
		VolumeDryUp:     true,
		TrendStrength:   trendStrength,
		SymmetryScore:   symmetry,
		BaseLengthScore: baseLen,
		LiquidityScore:  liquidity,
	}, nil
}

// selectChain reduces raw candidates to a chronological, non-overlapping
// sequence and keeps the most recent max elements.
func selectChain(candidates []Contraction, max int) []Contraction {
	var chain []Contraction
	lastEnd := -1
	for _, c := range candidates {
		if c.StartIndex < lastEnd {
			continue
		}
		chain = append(chain, c)
		lastEnd = c.EndIndex
	}
	if max > 0 && len(chain) > max {
		chain = chain[len(chain)-max:]
	}
	return chain
}

// validChain enforces the monotone contraction law and the absolute depth
// bands. Each depth must shrink by at least MinDecayRatio relative to the
// previous one; the first len(DepthBands) contractions must also sit inside
// their band.
func validChain(chain []Contraction, cfg Config) bool {
	for i, c := range chain {
		if i > 0 {
			ceiling := chain[i-1].DepthPct * (1 - cfg.MinDecayRatio)
			if c.DepthPct > ceiling {
				return false
			}
		}
		if i < len(cfg.DepthBands) {
			band := cfg.DepthBands[i]
			if c.DepthPct < band.Min || c.DepthPct > band.Max {
				return false
			}
		}
	}
	return true
}

// symmetryScore measures how closely successive depth ratios track an
// idealized geometric decay: low dispersion of the ratios scores high.
func symmetryScore(chain []Contraction) float64 {
	ratios := make([]float64, 0, len(chain)-1)
	for i := 1; i < len(chain); i++ {
		if chain[i-1].DepthPct <= 0 {
			return 0
		}
		ratios = append(ratios, chain[i].DepthPct/chain[i-1].DepthPct)
	}
	if len(ratios) == 0 {
		return 0
	}

	var mean float64
	for _, r := range ratios {
		mean += r
	}
	mean /= float64(len(ratios))

	var variance float64
	for _, r := range ratios {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(ratios))

	return clamp01(1 - math.Sqrt(variance)/0.25)
}

// baseLengthScore scores the base duration against the ideal 7-15 week
// range: flat 1.0 inside, linear falloff outside.
func baseLengthScore(bars int, cfg Config) float64 {
	switch {
	case bars >= cfg.IdealBaseMinBars && bars <= cfg.IdealBaseMaxBars:
		return 1
	case bars < cfg.IdealBaseMinBars:
		return clamp01(float64(bars) / float64(cfg.IdealBaseMinBars))
	default:
		over := float64(bars-cfg.IdealBaseMaxBars) / float64(cfg.IdealBaseMaxBars)
		return clamp01(1 - over)
	}
}

// baseDepth is the percent drop from the highest contraction high to the
// lowest contraction low across the whole base.
func baseDepth(chain []Contraction) float64 {
	high := chain[0].HighPrice
	low := chain[0].LowPrice
	for _, c := range chain {
		if c.HighPrice > high {
			high = c.HighPrice
		}
		if c.LowPrice < low {
			low = c.LowPrice
		}
	}
	if high <= 0 {
		return 0
	}
	return (high - low) / high * 100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
