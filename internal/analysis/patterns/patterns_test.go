package patterns

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"maxpain-pro/internal/analysis"
	"maxpain-pro/internal/rng"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDetect_HeadAndShoulders(t *testing.T) {
	d := NewDetector(DefaultConfig(), rng.Constant(0.5))
	got := d.Detect([]float64{100, 110, 105, 120, 104, 111, 100})

	if len(got) != 1 {
		t.Fatalf("got %d patterns, want 1: %+v", len(got), got)
	}
	p := got[0]
	if p.Name != NameHeadAndShoulders || p.Type != analysis.PatternBearish {
		t.Errorf("pattern = %s/%s", p.Name, p.Type)
	}
	if !approx(p.Confidence, 87.5) {
		t.Errorf("confidence = %f, want 87.5", p.Confidence)
	}
	if !approx(p.TargetPrice, 88) || !approx(p.StopPrice, 122.4) {
		t.Errorf("target/stop = %f/%f, want 88/122.4", p.TargetPrice, p.StopPrice)
	}
}

func TestDetect_HeadAndShouldersUnevenShoulders(t *testing.T) {
	d := NewDetector(DefaultConfig(), rng.Constant(0.5))
	// Right shoulder 10% below the left one.
	if got := d.Detect([]float64{100, 110, 105, 120, 95, 99, 90}); len(got) != 0 {
		t.Errorf("uneven shoulders detected %+v", got)
	}
}

func TestDetect_DoubleBottom(t *testing.T) {
	d := NewDetector(DefaultConfig(), rng.Constant(0))
	got := d.Detect([]float64{100, 95, 90, 96, 101, 97, 90.5, 98, 103, 99})

	if len(got) != 1 {
		t.Fatalf("got %d patterns, want 1: %+v", len(got), got)
	}
	p := got[0]
	if p.Name != NameDoubleBottom || p.Type != analysis.PatternBullish {
		t.Errorf("pattern = %s/%s", p.Name, p.Type)
	}
	if !approx(p.Confidence, 75) {
		t.Errorf("confidence = %f, want 75", p.Confidence)
	}
	if !approx(p.TargetPrice, 100.8) || !approx(p.StopPrice, 86.4) {
		t.Errorf("target/stop = %f/%f, want 100.8/86.4", p.TargetPrice, p.StopPrice)
	}
}

func TestDetect_UptrendContinuation(t *testing.T) {
	prices := make([]float64, 10)
	for i := range prices {
		prices[i] = 100 + float64(i)*5
	}

	d := NewDetector(DefaultConfig(), rng.Constant(0.5))
	got := d.Detect(prices)
	if len(got) != 1 || got[0].Name != NameUptrendContinuation {
		t.Fatalf("got %+v, want a single uptrend continuation", got)
	}
	if !approx(got[0].TargetPrice, 145*1.08) || !approx(got[0].StopPrice, 145*0.95) {
		t.Errorf("target/stop = %f/%f", got[0].TargetPrice, got[0].StopPrice)
	}

	cfg := DefaultConfig()
	cfg.EnableUptrend = false
	if got := NewDetector(cfg, rng.Constant(0.5)).Detect(prices); len(got) != 0 {
		t.Errorf("disabled uptrend check still detected %+v", got)
	}
}

func TestDetect_ShortSeries(t *testing.T) {
	d := NewDetector(DefaultConfig(), rng.Constant(0.5))
	if got := d.Detect([]float64{100, 101, 99}); len(got) != 0 {
		t.Errorf("short series detected %+v", got)
	}
	if got := d.Detect(nil); len(got) != 0 {
		t.Errorf("empty series detected %+v", got)
	}
}

func TestDetect_FixedConfidence(t *testing.T) {
	fixed := 150.0
	cfg := DefaultConfig()
	cfg.FixedConfidence = &fixed

	got := NewDetector(cfg, nil).Detect([]float64{100, 110, 105, 120, 104, 111, 100})
	if len(got) != 1 || got[0].Confidence != 100 {
		t.Errorf("fixed confidence not applied and clamped: %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]analysis.Pattern{
		{Type: analysis.PatternBullish},
		{Type: analysis.PatternBearish},
		{Type: analysis.PatternBullish},
	})
	if s.Bullish != 2 || s.Bearish != 1 || s.Net() != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestProperty_NoHeadAndShouldersOnMonotonicSeries(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())
	parameters.MaxShrinkCount = 0

	properties := gopter.NewProperties(parameters)
	d := NewDetector(DefaultConfig(), rng.New(1))

	properties.Property("monotonic 7-point series has no head and shoulders", prop.ForAll(
		func(prices []float64) bool {
			sort.Float64s(prices)
			return d.detectHeadAndShoulders(prices) == nil
		},
		gen.SliceOfN(7, gen.Float64Range(1, 1000)),
	))

	properties.Property("pattern confidence stays within [0, 100]", prop.ForAll(
		func(prices []float64) bool {
			for _, p := range d.Detect(prices) {
				if p.Confidence < 0 || p.Confidence > 100 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(12, gen.Float64Range(90, 110)),
	))

	properties.TestingRun(t)
}
