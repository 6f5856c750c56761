package indicators

import (
	"maxpain-pro/internal/analysis"
)

// DefaultRSIPeriod is the standard RSI lookback.
const DefaultRSIPeriod = 14

// RSI calculates the Relative Strength Index over the trailing period deltas.
//
// With fewer than period+1 prices it returns the neutral fallback {50, NEUTRAL}.
// Losses are averaged with a floor so a run of pure gains reads as ~100.
// The value is rounded to one decimal place.
func RSI(prices []float64, period int) analysis.RSIResult {
	if period <= 0 || len(prices) < period+1 {
		return analysis.RSIResult{Value: 50, Signal: analysis.SignalNeutral}
	}

	n := len(prices)
	var gains, losses float64
	for i := n - period; i < n; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss < lossFloor {
		avgLoss = lossFloor
	}

	rs := avgGain / avgLoss
	rsi := clamp(100-(100/(1+rs)), 0, 100)

	return analysis.RSIResult{
		Value:  round(rsi, 1),
		Signal: RSISignal(rsi),
	}
}

// RSISignal buckets an RSI value. Buckets are evaluated in priority order.
func RSISignal(rsi float64) analysis.Signal {
	switch {
	case rsi < 20:
		return analysis.SignalExtremeBuy
	case rsi < 30:
		return analysis.SignalStrongBuy
	case rsi < 40:
		return analysis.SignalBuy
	case rsi > 80:
		return analysis.SignalExtremeSell
	case rsi > 70:
		return analysis.SignalStrongSell
	case rsi > 60:
		return analysis.SignalSell
	default:
		return analysis.SignalNeutral
	}
}
