package scanner

// trendTemplateMinBars is the history needed for the full 8-point template
// (200-day MA plus a month of its slope). Shorter series skip the filter.
const trendTemplateMinBars = 220

// TrendTemplate evaluates the 8-point stage-2 uptrend checklist against the
// series and returns the fraction of criteria passed plus the pass/fail
// gate (at least 6 of 8):
//
//  1. price above the 150-day and 200-day MAs
//  2. 150-day MA above 200-day MA
//  3. 200-day MA rising over the last month
//  4. 50-day MA above the 150-day and 200-day MAs
//  5. price above the 50-day MA
//  6. price at least 30% above the 52-week low
//  7. price within 25% of the 52-week high
//  8. at least 10% price performance over 6 months
func TrendTemplate(candles []Candle) (strength float64, pass bool) {
	n := len(candles)
	if n < trendTemplateMinBars {
		return trendStrengthShort(candles), true
	}

	price := candles[n-1].Close
	ma50 := smaClose(candles, 50)
	ma150 := smaClose(candles, 150)
	ma200 := smaClose(candles, 200)
	ma200Prior := smaClose(candles[:n-20], 200)

	week52 := candles
	if n > 252 {
		week52 = candles[n-252:]
	}
	high52 := week52[0].High
	low52 := week52[0].Low
	for _, c := range week52 {
		if c.High > high52 {
			high52 = c.High
		}
		if c.Low < low52 {
			low52 = c.Low
		}
	}

	checks := []bool{
		price > ma150 && price > ma200,
		ma150 > ma200,
		ma200 > ma200Prior,
		ma50 > ma150 && ma50 > ma200,
		price > ma50,
		(price-low52)/low52 >= 0.30,
		(high52-price)/high52 <= 0.25,
	}

	if n >= 126 {
		prior := candles[n-126].Close
		checks = append(checks, (price-prior)/prior > 0.10)
	} else {
		checks = append(checks, true)
	}

	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}

	return float64(passed) / float64(len(checks)), passed >= 6
}

// trendStrengthShort is a coarse trend score for series too short for the
// full template: price vs short MAs, 10-day momentum, and volume trend.
func trendStrengthShort(candles []Candle) float64 {
	n := len(candles)
	if n < 50 {
		return 0.5
	}

	price := candles[n-1].Close
	score := 0.0
	if price > smaClose(candles, 20) {
		score += 0.3
	}
	if price > smaClose(candles, 50) {
		score += 0.3
	}
	if price > candles[n-10].Close {
		score += 0.2
	}

	recent := averageVolume(candles[n-10:])
	older := averageVolume(candles[n-30 : n-10])
	if older > 0 && recent > older {
		score += 0.2
	}

	if score > 1 {
		score = 1
	}
	return score
}

// smaClose is the simple moving average of closes over the last period bars.
func smaClose(candles []Candle, period int) float64 {
	n := len(candles)
	if period <= 0 || n == 0 {
		return 0
	}
	if period > n {
		period = n
	}
	var sum float64
	for _, c := range candles[n-period:] {
		sum += c.Close
	}
	return sum / float64(period)
}
