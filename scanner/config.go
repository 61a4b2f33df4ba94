package scanner

// DepthBand is an allowed [min, max] percent-drop range for a contraction
// at a fixed position in the validated sequence.
type DepthBand struct {
	Min float64
	Max float64
}

// Config holds all tunable detection thresholds. Zero values are not
// usable; start from DefaultConfig and override.
type Config struct {
	// MinWindow is the minimum number of bars required before a series is
	// worth scanning at all. Shorter series yield "no pattern", not an error.
	MinWindow int

	// SwingRadius is the half-width of the centered window used for swing
	// point detection: bar i is a swing high if it is the maximum of
	// [i-SwingRadius, i+SwingRadius].
	SwingRadius int

	// MinSpanBars drops contraction candidates shorter than this many bars;
	// they are noise, not structural pullbacks.
	MinSpanBars int

	// GapThresholdPct excludes any bar whose close moved more than this
	// percent versus the prior close (earnings gaps) from swing detection.
	GapThresholdPct float64

	// DryUpBars is the tail length averaged for the volume dry-up check.
	DryUpBars int

	// BaseLookback is the window over which the dry-up decile and the
	// breakout volume SMA are computed. Kept configurable: the source
	// material never pins whether the base window is fixed-length or grows
	// with the pattern.
	BaseLookback int

	// BreakoutVolumeMult is the required multiple of the prior-bar volume
	// SMA for a breakout bar to count as confirmed.
	BreakoutVolumeMult float64

	// MinDecayRatio is the minimum relative shrink between successive
	// contraction depths (0.10 = each depth at most 90% of the previous).
	MinDecayRatio float64

	// MaxContractions caps the validated chain at the most recent N.
	MaxContractions int

	// DepthBands are absolute percent-drop bands applied per contraction
	// index; contractions beyond the last band only need to keep shrinking.
	DepthBands []DepthBand

	// PivotBufferPct optionally nudges the pivot above the tightest
	// contraction high. Default 0 (exact level).
	PivotBufferPct float64

	// LiquidityFloor is the average dollar volume at which the liquidity
	// sub-score saturates at 1.0.
	LiquidityFloor float64

	// IdealBaseMinBars / IdealBaseMaxBars bound the base-length sub-score
	// plateau (7-15 weeks of trading days).
	IdealBaseMinBars int
	IdealBaseMaxBars int

	// CheckTrendTemplate gates detection on the 8-point trend template when
	// the series carries enough history (200+ bars).
	CheckTrendTemplate bool
}

// DefaultConfig returns the stock detection parameters.
func DefaultConfig() Config {
	return Config{
		MinWindow:          60,
		SwingRadius:        5,
		MinSpanBars:        5,
		GapThresholdPct:    8.0,
		DryUpBars:          10,
		BaseLookback:       50,
		BreakoutVolumeMult: 1.4,
		MinDecayRatio:      0.10,
		MaxContractions:    6,
		DepthBands: []DepthBand{
			{Min: 25.0, Max: 35.0},
			{Min: 15.0, Max: 20.0},
			{Min: 8.0, Max: 12.0},
		},
		PivotBufferPct:     0.0,
		LiquidityFloor:     5_000_000,
		IdealBaseMinBars:   35,
		IdealBaseMaxBars:   75,
		CheckTrendTemplate: true,
	}
}
