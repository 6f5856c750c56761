// Package fractal matches the most recent stretch of a price series against
// fixed-length historical windows and projects a move from the closest ones.
package fractal

import (
	"math"
	"sort"

	"maxpain-pro/internal/errors"
)

// Extraction defaults.
const (
	DefaultPatternLength = 10
	DefaultForwardWindow = 10
	DefaultStride        = 5
)

// Options controls fractal extraction.
type Options struct {
	PatternLength int
	ForwardWindow int
	Stride        int
}

// DefaultOptions returns the standard extraction options.
func DefaultOptions() Options {
	return Options{
		PatternLength: DefaultPatternLength,
		ForwardWindow: DefaultForwardWindow,
		Stride:        DefaultStride,
	}
}

func (o Options) withDefaults() Options {
	if o.PatternLength <= 0 {
		o.PatternLength = DefaultPatternLength
	}
	if o.ForwardWindow <= 0 {
		o.ForwardWindow = DefaultForwardWindow
	}
	if o.Stride <= 0 {
		o.Stride = DefaultStride
	}
	return o
}

// Fractal is a historical window tagged with its realized forward outcome.
type Fractal struct {
	Start      int       `json:"start" yaml:"start"`
	Pattern    []float64 `json:"pattern" yaml:"pattern"`
	OutcomePct float64   `json:"outcome_pct" yaml:"outcome_pct"`
	Duration   int       `json:"duration" yaml:"duration"`
	// Age is the number of periods from the window start to the series end.
	Age int `json:"age" yaml:"age"`
}

// Match is a fractal scored against a query window.
type Match struct {
	Fractal
	Similarity       float64 `json:"similarity" yaml:"similarity"`
	PredictedMovePct float64 `json:"predicted_move_pct" yaml:"predicted_move_pct"`
	Confidence       int     `json:"confidence" yaml:"confidence"`
	CompletionPct    float64 `json:"completion_pct" yaml:"completion_pct"`
}

// Result bundles a full fractal analysis of one series.
type Result struct {
	Fractals []Fractal `json:"fractals" yaml:"fractals"`
	Current  []float64 `json:"current" yaml:"current"`
	Matches  []Match   `json:"matches" yaml:"matches"`
}

// Extract slides a PatternLength window over prices in Stride steps and
// records each window with the percentage change from its last point to the
// point ForwardWindow steps later. A window is kept only while its forward
// point exists, so exactly PatternLength+ForwardWindow prices yield one fractal.
func Extract(prices []float64, opts Options) []Fractal {
	opts = opts.withDefaults()

	var fractals []Fractal
	for i := 0; i+opts.PatternLength+opts.ForwardWindow <= len(prices); i += opts.Stride {
		pattern := make([]float64, opts.PatternLength)
		copy(pattern, prices[i:i+opts.PatternLength])

		anchor := pattern[len(pattern)-1]
		future := prices[i+opts.PatternLength+opts.ForwardWindow-1]

		var outcome float64
		if anchor != 0 {
			outcome = (future - anchor) / anchor * 100
		}

		fractals = append(fractals, Fractal{
			Start:      i,
			Pattern:    pattern,
			OutcomePct: outcome,
			Duration:   opts.ForwardWindow,
			Age:        len(prices) - i,
		})
	}

	return fractals
}

// CurrentPattern returns a copy of the trailing length points of prices.
func CurrentPattern(prices []float64, length int) []float64 {
	if length > len(prices) {
		length = len(prices)
	}
	if length <= 0 {
		return nil
	}
	out := make([]float64, length)
	copy(out, prices[len(prices)-length:])
	return out
}

// Normalize min-max scales values into [0, 1]. A constant series maps to zeros.
func Normalize(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	span := hi - lo
	if span == 0 {
		span = 1
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out
}

// Similarity compares the shapes of two equal-length series as a percentage.
// Each series is normalized independently; the score is
// max(0, (1 - mean absolute difference) * 100). Mismatched or empty input
// scores 0.
func Similarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	na, nb := Normalize(a), Normalize(b)

	var diff float64
	for i := range na {
		diff += math.Abs(na[i] - nb[i])
	}

	return math.Max(0, (1-diff/float64(len(na)))*100)
}

// MatchAll scores query against every fractal and returns the matches ordered
// by similarity, highest first. Ties keep extraction order.
func MatchAll(query []float64, fractals []Fractal) []Match {
	matches := make([]Match, 0, len(fractals))
	for _, f := range fractals {
		sim := Similarity(query, f.Pattern)

		var completion float64
		if len(f.Pattern) > 0 {
			completion = float64(len(query)) / float64(len(f.Pattern)) * 100
		}

		matches = append(matches, Match{
			Fractal:          f,
			Similarity:       sim,
			PredictedMovePct: f.OutcomePct * sim / 100,
			Confidence:       int(math.Round(sim)),
			CompletionPct:    completion,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	return matches
}

// Best returns the highest-similarity match, or ErrNoMatch when there is none.
func Best(matches []Match) (Match, error) {
	if len(matches) == 0 {
		return Match{}, errors.ErrNoMatch
	}
	return matches[0], nil
}

// Analyze extracts fractals from prices and matches the trailing window
// against them.
func Analyze(prices []float64, opts Options) Result {
	opts = opts.withDefaults()
	fractals := Extract(prices, opts)
	current := CurrentPattern(prices, opts.PatternLength)

	return Result{
		Fractals: fractals,
		Current:  current,
		Matches:  MatchAll(current, fractals),
	}
}

// Best returns the top match of the analysis.
func (r Result) Best() (Match, error) {
	return Best(r.Matches)
}
