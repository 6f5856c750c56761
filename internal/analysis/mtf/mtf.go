// Package mtf provides multi-timeframe analysis functionality.
//
// Timeframes are simulated as trailing slices of one series: the shorter the
// timeframe, the fewer of the most recent points it sees.
package mtf

import (
	"maxpain-pro/internal/analysis"
	"maxpain-pro/internal/analysis/indicators"
)

// Timeframe represents a simulated chart timeframe.
type Timeframe string

const (
	Timeframe5Min  Timeframe = "5m"
	Timeframe15Min Timeframe = "15m"
	Timeframe1Hour Timeframe = "1h"
	Timeframe4Hour Timeframe = "4h"
	Timeframe1Day  Timeframe = "1d"
)

// DefaultSeriesLength is the series length the dashboard feeds the analyzer.
const DefaultSeriesLength = 100

// StrongSignalThreshold is the number of agreeing timeframes that makes a
// strong multi-timeframe signal.
const StrongSignalThreshold = 3

// Window maps a timeframe to the number of trailing points it uses.
// Zero means the full series.
type Window struct {
	Timeframe Timeframe
	Points    int
}

// DefaultWindows returns the standard timeframe windows, shortest first.
func DefaultWindows() []Window {
	return []Window{
		{Timeframe5Min, 20},
		{Timeframe15Min, 30},
		{Timeframe1Hour, 40},
		{Timeframe4Hour, 60},
		{Timeframe1Day, 0},
	}
}

// ConfluenceLevel represents how many timeframes agree on MACD direction.
type ConfluenceLevel string

const (
	ConfluenceStrong   ConfluenceLevel = "STRONG"   // all agree
	ConfluenceModerate ConfluenceLevel = "MODERATE" // 4/5 agree
	ConfluenceWeak     ConfluenceLevel = "WEAK"     // 3/5 agree
	ConfluenceNone     ConfluenceLevel = "NONE"
)

// TimeframeAnalysis contains the readings for a single timeframe.
type TimeframeAnalysis struct {
	Timeframe Timeframe           `json:"timeframe" yaml:"timeframe"`
	Points    int                 `json:"points" yaml:"points"`
	RSI       analysis.RSIResult  `json:"rsi" yaml:"rsi"`
	MACD      analysis.MACDResult `json:"macd" yaml:"macd"`
}

// Result contains the complete multi-timeframe analysis. StrongSignal is set
// when at least three timeframes are oversold; StrongBearishSignal is its
// overbought counterpart.
type Result struct {
	Timeframes          []TimeframeAnalysis `json:"timeframes" yaml:"timeframes"`
	OversoldCount       int                 `json:"oversold_count" yaml:"oversold_count"`
	OverboughtCount     int                 `json:"overbought_count" yaml:"overbought_count"`
	StrongSignal        bool                `json:"strong_signal" yaml:"strong_signal"`
	StrongBearishSignal bool                `json:"strong_bearish_signal" yaml:"strong_bearish_signal"`
	BullishCount        int                 `json:"bullish_count" yaml:"bullish_count"`
	BearishCount        int                 `json:"bearish_count" yaml:"bearish_count"`
	NeutralCount        int                 `json:"neutral_count" yaml:"neutral_count"`
	Confluence          ConfluenceLevel     `json:"confluence" yaml:"confluence"`
}

// Analyzer performs multi-timeframe analysis.
type Analyzer struct {
	engine  *indicators.Engine
	windows []Window
}

// NewAnalyzer creates an analyzer with the default windows. A nil engine
// uses the default indicator periods.
func NewAnalyzer(engine *indicators.Engine) *Analyzer {
	return NewAnalyzerWithWindows(engine, DefaultWindows())
}

// NewAnalyzerWithWindows creates an analyzer with custom windows.
func NewAnalyzerWithWindows(engine *indicators.Engine, windows []Window) *Analyzer {
	if engine == nil {
		engine = indicators.NewEngine(indicators.DefaultConfig())
	}
	return &Analyzer{engine: engine, windows: windows}
}

// Analyze computes RSI and MACD on every timeframe window of prices.
func (a *Analyzer) Analyze(prices []float64) Result {
	result := Result{Timeframes: make([]TimeframeAnalysis, 0, len(a.windows))}

	for _, w := range a.windows {
		slice := trailing(prices, w.Points)
		result.Timeframes = append(result.Timeframes, TimeframeAnalysis{
			Timeframe: w.Timeframe,
			Points:    len(slice),
			RSI:       a.engine.RSI(slice),
			MACD:      a.engine.MACD(slice),
		})
	}

	calculateConfluence(&result)
	return result
}

// Analyze runs the default analyzer over prices.
func Analyze(prices []float64) Result {
	return NewAnalyzer(nil).Analyze(prices)
}

// calculateConfluence fills the oversold/overbought and MACD agreement counts.
func calculateConfluence(result *Result) {
	for _, tf := range result.Timeframes {
		if tf.RSI.Value < 30 {
			result.OversoldCount++
		}
		if tf.RSI.Value > 70 {
			result.OverboughtCount++
		}

		switch tf.MACD.Crossover {
		case analysis.CrossoverBullish:
			result.BullishCount++
		case analysis.CrossoverBearish:
			result.BearishCount++
		default:
			result.NeutralCount++
		}
	}

	result.StrongSignal = result.OversoldCount >= StrongSignalThreshold
	result.StrongBearishSignal = result.OverboughtCount >= StrongSignalThreshold

	total := len(result.Timeframes)
	agreement := max(result.BullishCount, result.BearishCount)

	switch {
	case total == 0 || agreement < StrongSignalThreshold:
		result.Confluence = ConfluenceNone
	case agreement == total:
		result.Confluence = ConfluenceStrong
	case agreement == total-1:
		result.Confluence = ConfluenceModerate
	default:
		result.Confluence = ConfluenceWeak
	}
}

// Get returns the analysis for a specific timeframe, or nil.
func (r *Result) Get(tf Timeframe) *TimeframeAnalysis {
	for i := range r.Timeframes {
		if r.Timeframes[i].Timeframe == tf {
			return &r.Timeframes[i]
		}
	}
	return nil
}

// trailing returns the last n points, or all of them when n is zero or too large.
func trailing(prices []float64, n int) []float64 {
	if n <= 0 || n >= len(prices) {
		return prices
	}
	return prices[len(prices)-n:]
}
