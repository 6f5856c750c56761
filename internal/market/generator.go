// Package market produces the synthetic market inputs the analysis pipeline
// consumes: price series, max pain levels, option expirations and quotes.
//
// Every series returned here is chronological: index 0 is the oldest point
// and the last element is the newest.
package market

import (
	"maxpain-pro/internal/rng"
)

// Series generation defaults.
const (
	DefaultVolatility   = 0.05
	DefaultSeriesLength = 50

	// MaxVolatility is the largest step GenerateSeries applies. A step of 1
	// or more could take a price to zero or below.
	MaxVolatility = 0.99
)

// GenerateSeries builds a random-walk history ending at currentPrice.
//
// Starting from currentPrice as the newest point, length-1 older points are
// prepended, each a uniform relative perturbation of at most volatility of
// the point after it. Volatility must lie in [0, 1) for every point to stay
// positive: a length below 1 is treated as 1, a negative volatility as 0 and
// a volatility of 1 or more as MaxVolatility.
func GenerateSeries(src rng.Source, currentPrice float64, length int, volatility float64) []float64 {
	if length < 1 {
		length = 1
	}
	if volatility < 0 {
		volatility = 0
	}
	if volatility >= 1 {
		volatility = MaxVolatility
	}

	prices := make([]float64, length)
	prices[length-1] = currentPrice

	for i := length - 2; i >= 0; i-- {
		change := (src.Next() - 0.5) * 2 * volatility
		prices[i] = prices[i+1] * (1 + change)
	}

	return prices
}

// Reverse returns a newest-first copy of prices for presentation.
func Reverse(prices []float64) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[len(prices)-1-i] = p
	}
	return out
}
