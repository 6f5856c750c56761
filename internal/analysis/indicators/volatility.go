package indicators

import (
	"maxpain-pro/internal/analysis"
)

// Default Bollinger Bands parameters.
const (
	DefaultBollingerPeriod = 20
	DefaultBollingerStdDev = 2.0
)

// BollingerBands calculates the bands over the trailing period prices using
// the population standard deviation. With fewer than period prices it
// returns a zeroed result with position NEUTRAL.
func BollingerBands(prices []float64, period int, stdDevMul float64) analysis.BollingerResult {
	if period <= 0 || len(prices) < period {
		return analysis.BollingerResult{Position: analysis.BandNeutral}
	}

	window := prices[len(prices)-period:]
	sma := mean(window)
	sd := stdDev(window)

	upper := sma + stdDevMul*sd
	lower := sma - stdDevMul*sd

	var bandwidth float64
	if sma != 0 {
		bandwidth = (upper - lower) / sma * 100
	}

	current := prices[len(prices)-1]
	position := analysis.BandMiddle
	if current > upper {
		position = analysis.BandAboveUpper
	} else if current < lower {
		position = analysis.BandBelowLower
	}

	return analysis.BollingerResult{
		Upper:        upper,
		Middle:       sma,
		Lower:        lower,
		BandwidthPct: bandwidth,
		Position:     position,
	}
}
