package scanner

import (
	"errors"
	"testing"
	"time"
)

func seriesDate(i int) time.Time {
	return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func candlesFrom(closes, highs, lows []float64, volumes []int64) []Candle {
	candles := make([]Candle, len(closes))
	for i := range closes {
		candles[i] = Candle{
			Date:   seriesDate(i),
			Open:   closes[i] - 0.1,
			High:   highs[i],
			Low:    lows[i],
			Close:  closes[i],
			Volume: volumes[i],
		}
	}
	return candles
}

// makeVCPSeries builds a 90-bar series carrying three contractions of depth
// 30%, 17% and 10% (pivot 84.00), a 10-bar volume dry-up before the final
// bar, and a configurable final bar for the forming/triggered variants.
func makeVCPSeries(finalClose float64, finalVolume int64) []Candle {
	closes := make([]float64, 90)
	for i := 0; i <= 9; i++ {
		closes[i] = 70 + 3.0*float64(i)
	}
	closes[10] = 99
	for i := 11; i <= 19; i++ {
		closes[i] = 96 - 3.0*float64(i-11)
	}
	closes[20] = 70.5
	for i := 21; i <= 29; i++ {
		closes[i] = 72 + 1.75*float64(i-21)
	}
	closes[30] = 87
	for i := 31; i <= 39; i++ {
		closes[i] = 85.5 - 1.4375*float64(i-31)
	}
	closes[40] = 73.5
	for i := 41; i <= 49; i++ {
		closes[i] = 74.5 + 1.0*float64(i-41)
	}
	closes[50] = 83
	for i := 51; i <= 59; i++ {
		closes[i] = 82.5 - 0.7875*float64(i-51)
	}
	closes[60] = 76.0
	for i := 61; i <= 88; i++ {
		closes[i] = 76.3 + 0.25*float64(i-61)
	}
	closes[89] = finalClose

	highs := make([]float64, 90)
	lows := make([]float64, 90)
	for i := range closes {
		highs[i] = closes[i] + 0.4
		lows[i] = closes[i] - 0.4
	}
	highs[10] = 100
	highs[30] = 88
	highs[50] = 84
	lows[20] = 70
	lows[40] = 73.04
	lows[60] = 75.6

	volumes := make([]int64, 90)
	for i := range volumes {
		switch {
		case i >= 89:
			volumes[i] = finalVolume
		case i >= 79:
			volumes[i] = 200_000
		default:
			volumes[i] = 1_000_000
		}
	}

	return candlesFrom(closes, highs, lows, volumes)
}

func TestDetectTriggeredVCP(t *testing.T) {
	// Breakout close above the 84.00 pivot with volume at ~1.67x the
	// 50-bar average (and well above the 1.4x requirement).
	candles := makeVCPSeries(86.0, 1_400_000)

	det, err := Detect("TEST", candles, 80, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det == nil {
		t.Fatal("expected a detection, got none")
	}

	if len(det.Contractions) < 3 {
		t.Fatalf("expected >=3 contractions, got %d", len(det.Contractions))
	}
	for i := 1; i < len(det.Contractions); i++ {
		if det.Contractions[i].DepthPct >= det.Contractions[i-1].DepthPct {
			t.Errorf("contraction depths not strictly decreasing: %.2f -> %.2f",
				det.Contractions[i-1].DepthPct, det.Contractions[i].DepthPct)
		}
	}

	wantDepths := []float64{30.0, 17.0, 10.0}
	for i, want := range wantDepths {
		got := det.Contractions[i].DepthPct
		if got < want-0.2 || got > want+0.2 {
			t.Errorf("contraction %d depth = %.2f, want ~%.1f", i+1, got, want)
		}
	}

	if !det.Triggered {
		t.Error("expected triggered terminal state")
	}
	if det.Confidence <= 0.7 {
		t.Errorf("confidence = %.3f, want > 0.7", det.Confidence)
	}
	if det.PivotPrice != 84.0 {
		t.Errorf("pivot = %.2f, want 84.00 (high of tightest contraction)", det.PivotPrice)
	}
	if !det.VolumeDryUp {
		t.Error("expected volume dry-up flag")
	}
	if !det.AsOf.Equal(candles[len(candles)-1].Date) {
		t.Errorf("as_of = %v, want last bar date %v", det.AsOf, candles[len(candles)-1].Date)
	}
}

func TestDetectFormingVCP(t *testing.T) {
	// Quiet final bar below the pivot: pattern still forming.
	candles := makeVCPSeries(83.5, 200_000)

	det, err := Detect("TEST", candles, 80, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det == nil {
		t.Fatal("expected a forming detection, got none")
	}
	if det.Triggered {
		t.Error("close below pivot must not be triggered")
	}
}

func TestDetectBreakoutWithoutVolumeRejected(t *testing.T) {
	// Close crosses the pivot but volume is far below the confirmation
	// threshold: neither permitted terminal state holds.
	candles := makeVCPSeries(86.0, 300_000)

	det, err := Detect("TEST", candles, 80, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det != nil {
		t.Fatal("breakout without confirming volume must yield no detection")
	}
}

func TestDetectTwoContractionsRejected(t *testing.T) {
	closes := make([]float64, 90)
	for i := 0; i <= 9; i++ {
		closes[i] = 70 + 3.0*float64(i)
	}
	closes[10] = 99
	for i := 11; i <= 19; i++ {
		closes[i] = 96 - 3.0*float64(i-11)
	}
	closes[20] = 70.5
	for i := 21; i <= 29; i++ {
		closes[i] = 72 + 1.75*float64(i-21)
	}
	closes[30] = 87
	for i := 31; i <= 39; i++ {
		closes[i] = 85.5 - 1.4375*float64(i-31)
	}
	closes[40] = 73.5
	for i := 41; i <= 89; i++ {
		closes[i] = 74.5 + 0.18*float64(i-41)
	}

	highs := make([]float64, 90)
	lows := make([]float64, 90)
	for i := range closes {
		highs[i] = closes[i] + 0.4
		lows[i] = closes[i] - 0.4
	}
	highs[10] = 100
	highs[30] = 88
	lows[20] = 70
	lows[40] = 73.04

	volumes := make([]int64, 90)
	for i := range volumes {
		volumes[i] = 1_000_000
	}

	det, err := Detect("TEST", candlesFrom(closes, highs, lows, volumes), 80, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det != nil {
		t.Fatal("two contractions must not classify as VCP")
	}
}

func TestDetectMonotoneRiseNoDetection(t *testing.T) {
	closes := make([]float64, 90)
	highs := make([]float64, 90)
	lows := make([]float64, 90)
	volumes := make([]int64, 90)
	for i := range closes {
		closes[i] = 100 + 0.5*float64(i)
		highs[i] = closes[i] + 0.3
		lows[i] = closes[i] - 0.3
		volumes[i] = 900_000
	}

	det, err := Detect("TEST", candlesFrom(closes, highs, lows, volumes), 90, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det != nil {
		t.Fatal("monotonically rising series must yield no detection")
	}
}

func TestDetectGapBarExcludedNotFatal(t *testing.T) {
	// One 15% overnight gap with no matching volume anomaly: the bar is
	// excluded from swing detection but the evaluation must not error.
	closes := make([]float64, 90)
	for i := range closes {
		closes[i] = 100 + 0.3*float64(i)
	}
	closes[45] = closes[44] * 1.15
	for i := 46; i < 90; i++ {
		closes[i] = closes[45] + 0.3*float64(i-45)
	}

	highs := make([]float64, 90)
	lows := make([]float64, 90)
	volumes := make([]int64, 90)
	for i := range closes {
		highs[i] = closes[i] + 0.3
		lows[i] = closes[i] - 0.3
		volumes[i] = 900_000
	}

	det, err := Detect("TEST", candlesFrom(closes, highs, lows, volumes), 70, DefaultConfig())
	if err != nil {
		t.Fatalf("gap bar must not be fatal, got: %v", err)
	}
	if det != nil {
		t.Fatal("gapped uptrend has no contraction structure, expected no detection")
	}
}

func TestDetectSplitAborts(t *testing.T) {
	closes := make([]float64, 90)
	for i := range closes {
		closes[i] = 50 + 0.2*float64(i)
	}
	// Unadjusted split: close more than doubles overnight.
	for i := 45; i < 90; i++ {
		closes[i] = closes[i] * 2.2
	}

	highs := make([]float64, 90)
	lows := make([]float64, 90)
	volumes := make([]int64, 90)
	for i := range closes {
		highs[i] = closes[i] + 0.2
		lows[i] = closes[i] - 0.2
		volumes[i] = 900_000
	}

	_, err := Detect("TEST", candlesFrom(closes, highs, lows, volumes), 70, DefaultConfig())
	if !errors.Is(err, ErrDataAnomaly) {
		t.Fatalf("expected ErrDataAnomaly for split-contaminated series, got: %v", err)
	}
}

func TestDetectShortSeriesIsNormalNone(t *testing.T) {
	candles := makeVCPSeries(83.5, 200_000)[:40]

	det, err := Detect("TEST", candles, 80, DefaultConfig())
	if err != nil {
		t.Fatalf("short series is not an anomaly: %v", err)
	}
	if det != nil {
		t.Fatal("series below the minimum window must yield no detection")
	}
}

func TestValidateSeriesAnomalies(t *testing.T) {
	tests := []struct {
		name    string
		candles []Candle
	}{
		{"empty", nil},
		{
			"non-monotonic dates",
			[]Candle{
				{Date: seriesDate(1), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
				{Date: seriesDate(0), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
			},
		},
		{
			"non-positive price",
			[]Candle{{Date: seriesDate(0), Open: 1, High: 1, Low: 1, Close: 0, Volume: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateSeries(tt.candles); !errors.Is(err, ErrDataAnomaly) {
				t.Errorf("expected ErrDataAnomaly, got: %v", err)
			}
		})
	}
}

func TestSelectChainKeepsMostRecent(t *testing.T) {
	candidates := []Contraction{
		{StartIndex: 0, EndIndex: 10, DepthPct: 40},
		{StartIndex: 5, EndIndex: 12, DepthPct: 39}, // overlaps, dropped
		{StartIndex: 12, EndIndex: 20, DepthPct: 30},
		{StartIndex: 22, EndIndex: 30, DepthPct: 20},
		{StartIndex: 32, EndIndex: 40, DepthPct: 12},
	}

	chain := selectChain(candidates, 3)
	if len(chain) != 3 {
		t.Fatalf("expected chain of 3, got %d", len(chain))
	}
	if chain[0].StartIndex != 12 || chain[2].EndIndex != 40 {
		t.Errorf("expected the most recent non-overlapping chain, got %+v", chain)
	}
}

func TestValidChainDecayAndBands(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name   string
		depths []float64
		want   bool
	}{
		{"textbook", []float64{30, 17, 10}, true},
		{"insufficient decay", []float64{30, 28, 10}, false},
		{"first band violated", []float64{40, 17, 10}, false},
		{"third band violated", []float64{30, 17, 14}, false},
		{"fourth keeps shrinking", []float64{30, 17, 10, 6}, true},
		{"fourth grows", []float64{30, 17, 10, 11}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := make([]Contraction, len(tt.depths))
			for i, d := range tt.depths {
				chain[i] = Contraction{DepthPct: d}
			}
			if got := validChain(chain, cfg); got != tt.want {
				t.Errorf("validChain(%v) = %v, want %v", tt.depths, got, tt.want)
			}
		})
	}
}
