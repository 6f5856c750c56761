package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: for any positive price series, indicator readings stay within
// their mathematical bounds:
// - RSI: [0, 100]
// - Bollinger: lower <= middle <= upper
// - EMA of a constant series equals the constant

// priceSliceGen generates price series of positive values, padded to minLen.
func priceSliceGen(minLen int) gopter.Gen {
	return gen.SliceOf(gen.Float64Range(1.0, 1000.0)).Map(func(prices []float64) []float64 {
		for len(prices) < minLen {
			prices = append(prices, 100.0)
		}
		return prices
	})
}

func TestProperty_RSIWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())
	parameters.MaxShrinkCount = 0

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI values are within [0, 100]", prop.ForAll(
		func(prices []float64) bool {
			r := RSI(prices, DefaultRSIPeriod)
			return r.Value >= 0 && r.Value <= 100
		},
		priceSliceGen(1),
	))

	properties.TestingRun(t)
}

func TestProperty_BollingerOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())
	parameters.MaxShrinkCount = 0

	properties := gopter.NewProperties(parameters)

	properties.Property("lower <= middle <= upper", prop.ForAll(
		func(prices []float64) bool {
			bb := BollingerBands(prices, DefaultBollingerPeriod, DefaultBollingerStdDev)
			return bb.Lower <= bb.Middle && bb.Middle <= bb.Upper
		},
		priceSliceGen(1),
	))

	properties.TestingRun(t)
}

func TestProperty_EMAOfConstantSeries(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("EMA of a constant series is the constant", prop.ForAll(
		func(value float64, n int, period int) bool {
			prices := make([]float64, n)
			for i := range prices {
				prices[i] = value
			}
			got := EMA(prices, period)
			return math.Abs(got-value) <= 1e-9*value
		},
		gen.Float64Range(1.0, 1000.0),
		gen.IntRange(1, 80),
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}
