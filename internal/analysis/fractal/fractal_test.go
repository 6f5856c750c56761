package fractal

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"maxpain-pro/internal/errors"
)

func ramp(n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = float64(i + 1)
	}
	return prices
}

func TestExtract_ExactWindow(t *testing.T) {
	got := Extract(ramp(20), DefaultOptions())
	if len(got) != 1 {
		t.Fatalf("got %d fractals, want 1", len(got))
	}

	f := got[0]
	if f.Start != 0 || f.Age != 20 || f.Duration != 10 || len(f.Pattern) != 10 {
		t.Errorf("fractal = %+v", f)
	}
	// Anchor is 10, the point ten steps later is 20.
	if math.Abs(f.OutcomePct-100) > 1e-9 {
		t.Errorf("outcome = %f, want 100", f.OutcomePct)
	}
}

func TestExtract_Counts(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{19, 0},
		{20, 1},
		{25, 2},
		{200, 37},
	}

	for _, tt := range tests {
		if got := len(Extract(ramp(tt.n), Options{})); got != tt.want {
			t.Errorf("Extract(%d points) = %d fractals, want %d", tt.n, got, tt.want)
		}
	}
}

func TestExtract_PatternIsCopied(t *testing.T) {
	prices := ramp(20)
	f := Extract(prices, DefaultOptions())[0]
	prices[0] = 999
	if f.Pattern[0] != 1 {
		t.Error("fractal pattern aliases the input series")
	}
}

func TestCurrentPattern(t *testing.T) {
	got := CurrentPattern(ramp(15), 10)
	if len(got) != 10 || got[0] != 6 || got[9] != 15 {
		t.Errorf("CurrentPattern = %v", got)
	}
	if got := CurrentPattern(ramp(3), 10); len(got) != 3 {
		t.Errorf("short CurrentPattern len = %d, want 3", len(got))
	}
}

func TestNormalize(t *testing.T) {
	for i, v := range Normalize([]float64{7, 7, 7, 7}) {
		if v != 0 {
			t.Errorf("constant normalize[%d] = %f, want 0", i, v)
		}
	}

	got := Normalize([]float64{2, 4, 6})
	want := []float64{0, 0.5, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Normalize = %v, want %v", got, want)
		}
	}

	if Normalize(nil) != nil {
		t.Error("Normalize(nil) should be nil")
	}
}

func TestSimilarity(t *testing.T) {
	a := []float64{1, 3, 2, 5, 4}
	scaled := []float64{7, 11, 9, 15, 13}

	if got := Similarity(a, a); got != 100 {
		t.Errorf("self similarity = %f, want 100", got)
	}
	if got := Similarity(a, scaled); math.Abs(got-100) > 1e-9 {
		t.Errorf("similarity with scaled copy = %f, want 100", got)
	}
	if got := Similarity([]float64{0, 1}, []float64{1, 0}); got != 0 {
		t.Errorf("inverted similarity = %f, want 0", got)
	}
	if got := Similarity(a, a[:4]); got != 0 {
		t.Errorf("mismatched similarity = %f, want 0", got)
	}
	if got := Similarity(nil, nil); got != 0 {
		t.Errorf("empty similarity = %f, want 0", got)
	}
}

func TestMatchAll_OrderingAndFields(t *testing.T) {
	query := []float64{1, 2, 3}
	fractals := []Fractal{
		{Start: 0, Pattern: []float64{3, 2, 1}, OutcomePct: 10},
		{Start: 5, Pattern: []float64{10, 20, 30}, OutcomePct: 4},
		{Start: 10, Pattern: []float64{1, 2, 3}, OutcomePct: -8},
	}

	got := MatchAll(query, fractals)
	if len(got) != 3 {
		t.Fatalf("got %d matches", len(got))
	}

	// The two perfect matches tie and keep extraction order.
	if got[0].Start != 5 || got[1].Start != 10 || got[2].Start != 0 {
		t.Errorf("order = %d,%d,%d want 5,10,0", got[0].Start, got[1].Start, got[2].Start)
	}

	best, err := Best(got)
	if err != nil {
		t.Fatalf("Best: %v", err)
	}
	if best.Confidence != 100 || best.CompletionPct != 100 {
		t.Errorf("best = %+v", best)
	}
	if math.Abs(best.PredictedMovePct-4) > 1e-9 {
		t.Errorf("predicted move = %f, want 4", best.PredictedMovePct)
	}

	// Reversed shape: normalized diffs 1, 0, 1.
	worst := got[2]
	if math.Abs(worst.Similarity-100.0/3) > 1e-9 || worst.Confidence != 33 {
		t.Errorf("worst = %+v", worst)
	}
}

func TestBest_Empty(t *testing.T) {
	if _, err := Best(nil); !errors.Is(err, errors.ErrNoMatch) {
		t.Errorf("Best(nil) err = %v, want ErrNoMatch", err)
	}
	if _, err := Analyze(ramp(5), DefaultOptions()).Best(); !errors.Is(err, errors.ErrNoMatch) {
		t.Errorf("short analysis err = %v, want ErrNoMatch", err)
	}
}

func TestAnalyze(t *testing.T) {
	r := Analyze(ramp(50), DefaultOptions())
	if len(r.Fractals) != 7 || len(r.Matches) != 7 {
		t.Fatalf("fractals/matches = %d/%d, want 7/7", len(r.Fractals), len(r.Matches))
	}
	if len(r.Current) != 10 || r.Current[9] != 50 {
		t.Errorf("current = %v", r.Current)
	}

	// Every window of a ramp has the same shape.
	for _, m := range r.Matches {
		if m.Similarity != 100 {
			t.Errorf("ramp window at %d similarity = %f", m.Start, m.Similarity)
		}
	}
	if r.Matches[0].Start != 0 {
		t.Errorf("tie order lost, first start = %d", r.Matches[0].Start)
	}
}

func TestProperty_Similarity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())
	parameters.MaxShrinkCount = 0

	properties := gopter.NewProperties(parameters)
	series := gen.SliceOfN(10, gen.Float64Range(1, 1000))

	properties.Property("similarity is symmetric", prop.ForAll(
		func(a, b []float64) bool {
			return Similarity(a, b) == Similarity(b, a)
		},
		series, series,
	))

	properties.Property("self similarity is 100", prop.ForAll(
		func(a []float64) bool {
			return Similarity(a, a) == 100
		},
		series,
	))

	properties.Property("similarity is within [0, 100]", prop.ForAll(
		func(a, b []float64) bool {
			s := Similarity(a, b)
			return s >= 0 && s <= 100
		},
		series, series,
	))

	properties.Property("normalized values are within [0, 1]", prop.ForAll(
		func(a []float64) bool {
			for _, v := range Normalize(a) {
				if v < 0 || v > 1 {
					return false
				}
			}
			return true
		},
		series,
	))

	properties.TestingRun(t)
}
