package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"maxpain-pro/internal/rng"
)

// DefaultExpirationCount is the number of weekly expirations tracked per symbol.
const DefaultExpirationCount = 12

// Max pain variance parameters.
const (
	minVariance   = 0.02
	varianceRange = 0.03
	weeklyDecay   = 0.08
	decayFloor    = 0.3
)

// Expiration is a weekly option expiration.
type Expiration struct {
	Label string    `json:"label" yaml:"label"`
	Key   string    `json:"key" yaml:"key"`
	Date  time.Time `json:"date" yaml:"date"`
	Weeks int       `json:"weeks" yaml:"weeks"`
}

// EstimateMaxPain returns a synthetic max pain level for an expiration
// weeksOut weeks away.
//
// A base variance in [2%, 5%) is scaled by max(0.3, 1 - weeksOut*0.08), so
// later expirations sit closer to the current price, and applied with a
// random sign. The result is rounded to cents. Two values are drawn from src.
func EstimateMaxPain(src rng.Source, currentPrice float64, weeksOut int) float64 {
	base := minVariance + src.Next()*varianceRange
	decay := max(decayFloor, 1-float64(weeksOut)*weeklyDecay)

	sign := -1.0
	if src.Next() > 0.5 {
		sign = 1.0
	}

	return RoundCents(currentPrice * (1 + base*decay*sign))
}

// Expirations returns count weekly expirations starting one week after now.
func Expirations(now time.Time, count int) []Expiration {
	if count <= 0 {
		count = DefaultExpirationCount
	}

	exps := make([]Expiration, 0, count)
	for i := 1; i <= count; i++ {
		label := fmt.Sprintf("%d Weeks", i)
		if i == 1 {
			label = "This Week"
		}
		exps = append(exps, Expiration{
			Label: label,
			Key:   ExpirationKey(i),
			Date:  now.AddDate(0, 0, 7*i),
			Weeks: i,
		})
	}
	return exps
}

// ExpirationKey returns the curve key for an expiration weeks away, e.g. "1w".
func ExpirationKey(weeks int) string {
	return fmt.Sprintf("%dw", weeks)
}

// MaxPainCurve estimates max pain for every expiration, keyed by Expiration.Key.
func MaxPainCurve(src rng.Source, currentPrice float64, exps []Expiration) map[string]float64 {
	curve := make(map[string]float64, len(exps))
	for _, e := range exps {
		curve[e.Key] = EstimateMaxPain(src, currentPrice, e.Weeks)
	}
	return curve
}

// RoundCents rounds a price half away from zero to two decimal places.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
