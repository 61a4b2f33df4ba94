package scanner

import "testing"

func flatVolumeSeries(volumes []int64) []Candle {
	candles := make([]Candle, len(volumes))
	for i, v := range volumes {
		candles[i] = Candle{
			Date:   seriesDate(i),
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100,
			Volume: v,
		}
	}
	return candles
}

func TestVolumeDryUp(t *testing.T) {
	cfg := DefaultConfig()

	// The base window (last 50 bars) carries a ten-bar low stratum at 100k
	// that pins the 10th-percentile bucket, independent of the tail.
	makeVolumes := func(tail int64) []int64 {
		volumes := make([]int64, 60)
		for i := range volumes {
			volumes[i] = 1_000_000
		}
		for i := 10; i < 20; i++ {
			volumes[i] = 100_000
		}
		for i := 50; i < 60; i++ {
			volumes[i] = tail
		}
		return volumes
	}

	tests := []struct {
		name string
		tail int64
		want bool
	}{
		{"tail well below decile", 50_000, true},
		{"tail at decile threshold counts", 100_000, true},
		{"tail above decile", 900_000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VolumeDryUp(flatVolumeSeries(makeVolumes(tt.tail)), cfg)
			if got != tt.want {
				t.Errorf("VolumeDryUp = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVolumeDryUpIgnoresZeroBars(t *testing.T) {
	volumes := make([]int64, 60)
	for i := range volumes {
		switch {
		case i >= 50:
			volumes[i] = 100_000
		case i%7 == 0:
			volumes[i] = 0 // thin bars stay out of the distribution
		default:
			volumes[i] = 1_000_000
		}
	}

	if !VolumeDryUp(flatVolumeSeries(volumes), DefaultConfig()) {
		t.Error("zero-volume bars must not distort the dry-up decile")
	}
}

func TestBreakoutVolumeConfirmed(t *testing.T) {
	volumes := make([]int64, 60)
	for i := range volumes {
		volumes[i] = 1_000_000
	}

	tests := []struct {
		name     string
		breakout int64
		want     bool
	}{
		{"1.6x average confirms", 1_600_000, true},
		{"exactly 1.4x confirms", 1_400_000, true},
		{"1.2x average rejected", 1_200_000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vols := append(append([]int64{}, volumes...), tt.breakout)
			candles := flatVolumeSeries(vols)
			got := BreakoutVolumeConfirmed(candles, len(candles)-1, DefaultConfig())
			if got != tt.want {
				t.Errorf("BreakoutVolumeConfirmed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBreakoutExcludesSelfFromAverage(t *testing.T) {
	// A huge breakout bar must not inflate its own reference average.
	volumes := make([]int64, 51)
	for i := range volumes {
		volumes[i] = 1_000_000
	}
	volumes[50] = 100_000_000

	candles := flatVolumeSeries(volumes)
	if !BreakoutVolumeConfirmed(candles, 50, DefaultConfig()) {
		t.Error("breakout bar volume leaked into its own reference average")
	}
}

func TestPercentileFixedBucket(t *testing.T) {
	values := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}

	if got := percentile(values, 10); got != 2 {
		t.Errorf("10th percentile = %.1f, want 2", got)
	}
	if got := percentile(values, 50); got != 6 {
		t.Errorf("50th percentile = %.1f, want 6", got)
	}
}
