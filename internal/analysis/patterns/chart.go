package patterns

import (
	"math"
	"sort"

	"maxpain-pro/internal/analysis"
)

// Pattern names.
const (
	NameHeadAndShoulders    = "Head & Shoulders"
	NameDoubleBottom        = "Double Bottom"
	NameUptrendContinuation = "Uptrend Continuation"
)

const (
	headAndShouldersPoints    = 7
	uptrendContinuationPoints = 10
)

// detectHeadAndShoulders checks the trailing seven points p1..p7 for a left
// shoulder p2, a higher head p4 and a right shoulder p6 of similar height.
func (d *Detector) detectHeadAndShoulders(prices []float64) *analysis.Pattern {
	if len(prices) < headAndShouldersPoints {
		return nil
	}

	w := prices[len(prices)-headAndShouldersPoints:]
	p1, p2, p3, p4, p5, p6, p7 := w[0], w[1], w[2], w[3], w[4], w[5], w[6]

	leftShoulder := p2 > p1 && p2 > p3
	head := p4 > p2 && p4 > p3 && p4 > p5
	rightShoulder := p6 > p5 && p6 > p7
	if !leftShoulder || !head || !rightShoulder {
		return nil
	}

	// Shoulders should be approximately equal
	if math.Abs(p2-p6)/p2 >= d.cfg.ShoulderTolerance {
		return nil
	}

	return &analysis.Pattern{
		Name:        NameHeadAndShoulders,
		Type:        analysis.PatternBearish,
		Confidence:  d.confidence(80, 15),
		TargetPrice: p7 * d.cfg.HSTargetFactor,
		StopPrice:   p4 * d.cfg.HSStopFactor,
		Description: "Classic reversal - expect downward move",
	}
}

// detectDoubleBottom checks whether the two lowest points of the trailing
// lookback window sit within tolerance of each other.
func (d *Detector) detectDoubleBottom(prices []float64) *analysis.Pattern {
	lookback := d.cfg.DoubleBottomLookback
	if lookback < 2 || len(prices) < lookback {
		return nil
	}

	lows := make([]float64, lookback)
	copy(lows, prices[len(prices)-lookback:])
	sort.Float64s(lows)

	if lows[0] == 0 || math.Abs(lows[0]-lows[1])/lows[0] >= d.cfg.DoubleBottomTolerance {
		return nil
	}

	return &analysis.Pattern{
		Name:        NameDoubleBottom,
		Type:        analysis.PatternBullish,
		Confidence:  d.confidence(75, 20),
		TargetPrice: lows[0] * d.cfg.DBTargetFactor,
		StopPrice:   lows[0] * d.cfg.DBStopFactor,
		Description: "Strong support - bullish reversal",
	}
}

// detectUptrendContinuation fires when the latest price is above the price
// four steps back, which is itself above the price nine steps back.
func (d *Detector) detectUptrendContinuation(prices []float64) *analysis.Pattern {
	n := len(prices)
	if n < uptrendContinuationPoints {
		return nil
	}

	latest := prices[n-1]
	if !(latest > prices[n-5] && prices[n-5] > prices[n-10]) {
		return nil
	}

	return &analysis.Pattern{
		Name:        NameUptrendContinuation,
		Type:        analysis.PatternBullish,
		Confidence:  d.confidence(70, 15),
		TargetPrice: latest * d.cfg.UptrendTargetFactor,
		StopPrice:   latest * d.cfg.UptrendStopFactor,
		Description: "Higher highs across the window - trend likely to continue",
	}
}
