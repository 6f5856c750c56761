// Package scoring combines max pain, indicators, patterns and Bollinger
// position into a composite analysis, and ranks symbols in batch scans.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"maxpain-pro/internal/analysis"
	"maxpain-pro/internal/analysis/patterns"
)

// Score caps and quality thresholds.
const (
	MaxScore      = 100
	MaxConfidence = 95

	excellentThreshold = 85
	goodThreshold      = 70
	fairThreshold      = 55
)

// Component names in AIAnalysis.Components.
const (
	ComponentMaxPain   = "max_pain"
	ComponentRSI       = "rsi"
	ComponentMACD      = "macd"
	ComponentPatterns  = "patterns"
	ComponentBollinger = "bollinger"
)

// Input holds everything the composite score is derived from.
type Input struct {
	CurrentPrice float64
	MaxPain      float64
	RSI          analysis.RSIResult
	MACD         analysis.MACDResult
	Patterns     []analysis.Pattern
	Bollinger    analysis.BollingerResult
}

// AIAnalysis is the composite verdict for one symbol. Delta is the signed
// fractional distance from price to max pain.
type AIAnalysis struct {
	Score      int                `json:"score" yaml:"score"`
	Confidence int                `json:"confidence" yaml:"confidence"`
	Quality    analysis.Quality   `json:"quality" yaml:"quality"`
	Direction  analysis.Direction `json:"direction" yaml:"direction"`
	Entry      float64            `json:"entry" yaml:"entry"`
	Targets    [3]float64         `json:"targets" yaml:"targets"`
	Stop       float64            `json:"stop" yaml:"stop"`
	RiskReward string             `json:"risk_reward" yaml:"risk_reward"`
	Rationale  string             `json:"rationale" yaml:"rationale"`
	Delta      float64            `json:"delta" yaml:"delta"`
	Components map[string]float64 `json:"components" yaml:"components"`
}

// Score derives the composite analysis from in. It never fails: a
// non-positive price is treated as zero delta.
func Score(in Input) AIAnalysis {
	delta := Delta(in.CurrentPrice, in.MaxPain)
	absDelta := math.Abs(delta)
	rsi := in.RSI.Value

	components := make(map[string]float64, 5)

	components[ComponentMaxPain] = math.Min(absDelta*100, 25)

	strongRSI := strongRSIAlignment(rsi, delta)
	switch {
	case strongRSI:
		components[ComponentRSI] = 20
	case (rsi < 40 && delta > 0) || (rsi > 60 && delta < 0):
		components[ComponentRSI] = 10
	default:
		components[ComponentRSI] = 0
	}

	components[ComponentMACD] = 0
	if macdAligned(in.MACD.Crossover, delta) {
		components[ComponentMACD] = 15
	}

	summary := patterns.Summarize(in.Patterns)
	components[ComponentPatterns] = 5 * math.Abs(float64(summary.Net()))

	var bb float64
	if in.Bollinger.Position == analysis.BandBelowLower && delta > 0 {
		bb += 10
	}
	if in.Bollinger.Position == analysis.BandAboveUpper && delta < 0 {
		bb += 10
	}
	components[ComponentBollinger] = bb

	raw := 50 + components[ComponentMaxPain] + components[ComponentRSI] + components[ComponentMACD] +
		components[ComponentPatterns] + components[ComponentBollinger]
	score := int(clamp(math.Round(raw), 0, MaxScore))

	conf := 60 + absDelta*80
	if strongRSI {
		conf += 15
	}
	conf += 5 * float64(len(in.Patterns))
	confidence := int(clamp(math.Round(conf), 0, MaxConfidence))

	direction := analysis.Bearish
	if delta > 0 {
		direction = analysis.Bullish
	}

	price := in.CurrentPrice
	targets := [3]float64{
		price * (1 + delta*0.5),
		price * (1 + delta*0.7),
		price * (1 + delta*0.9),
	}
	stop := price * (1 - absDelta*0.4)

	return AIAnalysis{
		Score:      score,
		Confidence: confidence,
		Quality:    QualityFor(score),
		Direction:  direction,
		Entry:      price,
		Targets:    targets,
		Stop:       stop,
		RiskReward: RiskReward(price, targets[1], stop),
		Rationale:  rationale(in, delta),
		Delta:      delta,
		Components: components,
	}
}

// Delta returns (maxPain - price) / price, or 0 for a non-positive price.
func Delta(price, maxPain float64) float64 {
	if price <= 0 {
		return 0
	}
	return (maxPain - price) / price
}

// QualityFor maps a score to its quality label.
func QualityFor(score int) analysis.Quality {
	switch {
	case score >= excellentThreshold:
		return analysis.QualityExcellent
	case score >= goodThreshold:
		return analysis.QualityGood
	case score >= fairThreshold:
		return analysis.QualityFair
	default:
		return analysis.QualityPoor
	}
}

// RiskReward formats reward/risk as "1:x.xx", or "N/A" when risk is zero.
func RiskReward(entry, target, stop float64) string {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return "N/A"
	}
	reward := math.Abs(target - entry)
	return fmt.Sprintf("1:%.2f", reward/risk)
}

func strongRSIAlignment(rsi, delta float64) bool {
	return (rsi < 30 && delta > 0) || (rsi > 70 && delta < 0)
}

func macdAligned(c analysis.Crossover, delta float64) bool {
	return (c == analysis.CrossoverBullish && delta > 0) || (c == analysis.CrossoverBearish && delta < 0)
}

// rationale builds the fixed-order explanation. The max pain sentence is
// always present.
func rationale(in Input, delta float64) string {
	pressure := "downward"
	if delta > 0 {
		pressure = "upward"
	}

	reasons := []string{
		fmt.Sprintf("Max pain at %.2f creates %s pressure (%.1f%% delta)", in.MaxPain, pressure, math.Abs(delta)*100),
	}

	if in.RSI.Value < 35 {
		reasons = append(reasons, fmt.Sprintf("RSI %.0f indicates oversold conditions", math.Round(in.RSI.Value)))
	}
	if in.RSI.Value > 65 {
		reasons = append(reasons, fmt.Sprintf("RSI %.0f shows overbought territory", math.Round(in.RSI.Value)))
	}
	if in.MACD.Crossover != analysis.CrossoverNeutral && in.MACD.Crossover != "" {
		reasons = append(reasons, fmt.Sprintf("MACD %s crossover confirms direction", strings.ToLower(string(in.MACD.Crossover))))
	}
	if n := len(in.Patterns); n > 0 {
		reasons = append(reasons, fmt.Sprintf("%d technical pattern(s) detected supporting the move", n))
	}
	if in.Bollinger.Position != analysis.BandMiddle {
		reasons = append(reasons, fmt.Sprintf("Price at %s of Bollinger Bands", bandPhrase(in.Bollinger.Position)))
	}

	return strings.Join(reasons, ". ") + "."
}

func bandPhrase(p analysis.BandPosition) string {
	if p == "" {
		p = analysis.BandNeutral
	}
	return strings.ToLower(strings.ReplaceAll(string(p), "_", " "))
}

func clamp(value, minVal, maxVal float64) float64 {
	if value < minVal {
		return minVal
	}
	if value > maxVal {
		return maxVal
	}
	return value
}
