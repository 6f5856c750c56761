// Package patterns detects a small fixed set of geometric chart patterns in
// the trailing window of a price series.
package patterns

import (
	"maxpain-pro/internal/analysis"
	"maxpain-pro/internal/rng"
)

// Config holds the pattern tolerances and the target/stop factors.
type Config struct {
	// ShoulderTolerance is the maximum relative gap between the two
	// head-and-shoulders shoulder peaks.
	ShoulderTolerance float64
	// DoubleBottomLookback is the trailing window searched for a double bottom.
	DoubleBottomLookback int
	// DoubleBottomTolerance is the maximum relative gap between the two lows.
	DoubleBottomTolerance float64

	HSTargetFactor      float64
	HSStopFactor        float64
	DBTargetFactor      float64
	DBStopFactor        float64
	UptrendTargetFactor float64
	UptrendStopFactor   float64

	EnableUptrend bool

	// FixedConfidence, when set, replaces the random confidence draw.
	FixedConfidence *float64
}

// DefaultConfig returns the standard detection rules.
func DefaultConfig() Config {
	return Config{
		ShoulderTolerance:     0.03,
		DoubleBottomLookback:  10,
		DoubleBottomTolerance: 0.02,
		HSTargetFactor:        0.88,
		HSStopFactor:          1.02,
		DBTargetFactor:        1.12,
		DBStopFactor:          0.96,
		UptrendTargetFactor:   1.08,
		UptrendStopFactor:     0.95,
		EnableUptrend:         true,
	}
}

// Detector scans price series for chart patterns.
type Detector struct {
	cfg Config
	src rng.Source
}

// NewDetector creates a detector drawing confidence jitter from src.
func NewDetector(cfg Config, src rng.Source) *Detector {
	return &Detector{cfg: cfg, src: src}
}

// Config returns the detector configuration.
func (d *Detector) Config() Config {
	return d.cfg
}

// Detect runs every check in fixed order and returns the patterns found.
// Checks are independent, so several patterns may co-occur.
func (d *Detector) Detect(prices []float64) []analysis.Pattern {
	var patterns []analysis.Pattern

	if p := d.detectHeadAndShoulders(prices); p != nil {
		patterns = append(patterns, *p)
	}
	if p := d.detectDoubleBottom(prices); p != nil {
		patterns = append(patterns, *p)
	}
	if d.cfg.EnableUptrend {
		if p := d.detectUptrendContinuation(prices); p != nil {
			patterns = append(patterns, *p)
		}
	}

	return patterns
}

// confidence returns base + u*spread clamped to [0, 100], or the fixed override.
func (d *Detector) confidence(base, spread float64) float64 {
	if d.cfg.FixedConfidence != nil {
		return clamp(*d.cfg.FixedConfidence, 0, 100)
	}
	var u float64
	if d.src != nil {
		u = d.src.Next()
	}
	return clamp(base+u*spread, 0, 100)
}

// Summary counts detected patterns by direction.
type Summary struct {
	Bullish int `json:"bullish" yaml:"bullish"`
	Bearish int `json:"bearish" yaml:"bearish"`
}

// Net returns bullish minus bearish.
func (s Summary) Net() int {
	return s.Bullish - s.Bearish
}

// Summarize counts patterns by direction.
func Summarize(patterns []analysis.Pattern) Summary {
	var s Summary
	for _, p := range patterns {
		switch p.Type {
		case analysis.PatternBullish:
			s.Bullish++
		case analysis.PatternBearish:
			s.Bearish++
		}
	}
	return s
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
