// Package analysis provides the shared result types for indicators,
// pattern detection, fractal matching and scoring.
//
// Every price series handled by the analysis packages is chronological:
// index 0 is the oldest point and the last element is the newest.
package analysis

// Signal represents the bucketed RSI recommendation.
type Signal string

const (
	SignalExtremeBuy  Signal = "EXTREME BUY"
	SignalStrongBuy   Signal = "STRONG BUY"
	SignalBuy         Signal = "BUY"
	SignalNeutral     Signal = "NEUTRAL"
	SignalSell        Signal = "SELL"
	SignalStrongSell  Signal = "STRONG SELL"
	SignalExtremeSell Signal = "EXTREME SELL"
)

// Crossover represents the MACD momentum direction.
type Crossover string

const (
	CrossoverBullish Crossover = "BULLISH"
	CrossoverBearish Crossover = "BEARISH"
	CrossoverNeutral Crossover = "NEUTRAL"
)

// BandPosition represents where the latest price sits relative to the Bollinger Bands.
type BandPosition string

const (
	BandAboveUpper BandPosition = "ABOVE_UPPER"
	BandBelowLower BandPosition = "BELOW_LOWER"
	BandMiddle     BandPosition = "MIDDLE"
	// BandNeutral is only reported when there is not enough data for the bands.
	BandNeutral BandPosition = "NEUTRAL"
)

// RSIResult holds the latest RSI reading.
type RSIResult struct {
	Value  float64 `json:"value" yaml:"value"`
	Signal Signal  `json:"signal" yaml:"signal"`
}

// MACDResult holds the latest MACD reading.
// Signal and Histogram stay zero unless the signal-line mode is used.
type MACDResult struct {
	MACD      float64   `json:"macd" yaml:"macd"`
	Signal    float64   `json:"signal" yaml:"signal"`
	Histogram float64   `json:"histogram" yaml:"histogram"`
	Crossover Crossover `json:"crossover" yaml:"crossover"`
}

// BollingerResult holds the latest Bollinger Bands reading.
type BollingerResult struct {
	Upper        float64      `json:"upper" yaml:"upper"`
	Middle       float64      `json:"middle" yaml:"middle"`
	Lower        float64      `json:"lower" yaml:"lower"`
	BandwidthPct float64      `json:"bandwidth_pct" yaml:"bandwidth_pct"`
	Position     BandPosition `json:"position" yaml:"position"`
}

// PatternDirection represents the expected direction of a pattern.
type PatternDirection string

const (
	PatternBullish PatternDirection = "bullish"
	PatternBearish PatternDirection = "bearish"
)

// Pattern represents a detected chart pattern.
type Pattern struct {
	Name        string           `json:"name" yaml:"name"`
	Type        PatternDirection `json:"type" yaml:"type"`
	Confidence  float64          `json:"confidence" yaml:"confidence"`
	TargetPrice float64          `json:"target_price" yaml:"target_price"`
	StopPrice   float64          `json:"stop_price" yaml:"stop_price"`
	Description string           `json:"description" yaml:"description"`
}

// Direction represents the directional call of a composite analysis.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
)

// Quality represents the qualitative label attached to a composite score.
type Quality string

const (
	QualityPoor      Quality = "POOR"
	QualityFair      Quality = "FAIR"
	QualityGood      Quality = "GOOD"
	QualityExcellent Quality = "EXCELLENT"
)
