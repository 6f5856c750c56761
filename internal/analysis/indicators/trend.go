package indicators

import (
	"maxpain-pro/internal/analysis"
)

// Default MACD periods.
const (
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// MACDMode selects how the MACD crossover is derived.
type MACDMode string

const (
	// SignCrossover reads the crossover straight off the sign of the MACD line.
	// This is the dashboard's scoring mode; Signal and Histogram stay zero.
	SignCrossover MACDMode = "sign"
	// SignalLineCrossover compares the MACD line with an EMA of itself.
	SignalLineCrossover MACDMode = "signal_line"
)

// EMA returns the latest exponential moving average of prices.
// With fewer than period points the newest price is returned unchanged.
func EMA(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return last(prices)
	}
	series := EMASeries(prices, period)
	return series[len(series)-1]
}

// EMASeries calculates the EMA for every point of prices.
// The first period-1 entries are zero; the seed at period-1 is the SMA of
// the earliest period points. Returns nil when there is not enough data.
func EMASeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}

	result := make([]float64, len(prices))
	multiplier := 2.0 / float64(period+1)

	// First EMA is SMA
	result[period-1] = mean(prices[:period])

	for i := period; i < len(prices); i++ {
		result[i] = (prices[i]-result[i-1])*multiplier + result[i-1]
	}

	return result
}

// MACD calculates the MACD line in SignCrossover mode.
// With fewer than slow prices it returns the zero NEUTRAL fallback.
func MACD(prices []float64, fast, slow int) analysis.MACDResult {
	return MACDWithMode(prices, fast, slow, DefaultMACDSignal, SignCrossover)
}

// MACDWithMode calculates the MACD using the requested crossover mode.
// SignalLineCrossover needs slow+signal-1 prices; with fewer it degrades to
// SignCrossover.
func MACDWithMode(prices []float64, fast, slow, signal int, mode MACDMode) analysis.MACDResult {
	if fast <= 0 || slow <= 0 || len(prices) < slow {
		return analysis.MACDResult{Crossover: analysis.CrossoverNeutral}
	}

	macd := EMA(prices, fast) - EMA(prices, slow)

	longest := max(fast, slow)
	if mode == SignalLineCrossover && signal > 0 && len(prices) >= longest+signal-1 {
		return macdWithSignalLine(prices, fast, slow, signal)
	}

	return analysis.MACDResult{
		MACD:      macd,
		Crossover: signCrossover(macd),
	}
}

func macdWithSignalLine(prices []float64, fast, slow, signal int) analysis.MACDResult {
	fastEMA := EMASeries(prices, fast)
	slowEMA := EMASeries(prices, slow)

	start := slow - 1
	if fast > slow {
		start = fast - 1
	}
	line := make([]float64, 0, len(prices)-start)
	for i := start; i < len(prices); i++ {
		line = append(line, fastEMA[i]-slowEMA[i])
	}

	signalLine := EMASeries(line, signal)
	if signalLine == nil {
		macd := last(line)
		return analysis.MACDResult{MACD: macd, Crossover: signCrossover(macd)}
	}

	macd := last(line)
	sig := last(signalLine)
	hist := macd - sig

	return analysis.MACDResult{
		MACD:      macd,
		Signal:    sig,
		Histogram: hist,
		Crossover: signCrossover(hist),
	}
}

func signCrossover(v float64) analysis.Crossover {
	switch {
	case v > 0:
		return analysis.CrossoverBullish
	case v < 0:
		return analysis.CrossoverBearish
	default:
		return analysis.CrossoverNeutral
	}
}
