package scoring

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"maxpain-pro/internal/analysis"
	"maxpain-pro/internal/logging"
	"maxpain-pro/internal/market"
	"maxpain-pro/internal/rng"
)

func TestScore_BullishScenario(t *testing.T) {
	a := Score(Input{
		CurrentPrice: 100,
		MaxPain:      105,
		RSI:          analysis.RSIResult{Value: 25, Signal: analysis.SignalStrongBuy},
		MACD:         analysis.MACDResult{Crossover: analysis.CrossoverBullish},
		Bollinger:    analysis.BollingerResult{Position: analysis.BandBelowLower},
	})

	if a.Score != 100 || a.Quality != analysis.QualityExcellent || a.Direction != analysis.Bullish {
		t.Fatalf("score/quality/direction = %d/%s/%s, want 100/EXCELLENT/BULLISH", a.Score, a.Quality, a.Direction)
	}
	if a.Confidence != 79 {
		t.Errorf("confidence = %d, want 79", a.Confidence)
	}
	if a.Entry != 100 || math.Abs(a.Stop-98) > 1e-9 {
		t.Errorf("entry/stop = %f/%f, want 100/98", a.Entry, a.Stop)
	}
	wantTargets := [3]float64{102.5, 103.5, 104.5}
	for i, want := range wantTargets {
		if math.Abs(a.Targets[i]-want) > 1e-9 {
			t.Errorf("target %d = %f, want %f", i+1, a.Targets[i], want)
		}
	}
	if a.RiskReward != "1:1.75" {
		t.Errorf("risk/reward = %s, want 1:1.75", a.RiskReward)
	}

	want := "Max pain at 105.00 creates upward pressure (5.0% delta). " +
		"RSI 25 indicates oversold conditions. " +
		"MACD bullish crossover confirms direction. " +
		"Price at below lower of Bollinger Bands."
	if a.Rationale != want {
		t.Errorf("rationale =\n%q\nwant\n%q", a.Rationale, want)
	}

	if a.Components[ComponentRSI] != 20 || a.Components[ComponentMACD] != 15 || a.Components[ComponentBollinger] != 10 {
		t.Errorf("components = %v", a.Components)
	}
}

func TestScore_BearishScenario(t *testing.T) {
	a := Score(Input{
		CurrentPrice: 100,
		MaxPain:      90,
		RSI:          analysis.RSIResult{Value: 75},
		MACD:         analysis.MACDResult{Crossover: analysis.CrossoverBearish},
		Patterns:     patternsOf(1, 1),
		Bollinger:    analysis.BollingerResult{Position: analysis.BandAboveUpper},
	})

	// 50 + 10 + 20 + 15 + 0 + 10 caps at 100.
	if a.Score != 100 || a.Direction != analysis.Bearish {
		t.Errorf("score/direction = %d/%s", a.Score, a.Direction)
	}
	// 60 + 8 + 15 + 10
	if a.Confidence != 93 {
		t.Errorf("confidence = %d, want 93", a.Confidence)
	}
	if a.Components[ComponentPatterns] != 0 {
		t.Errorf("offsetting patterns scored %f", a.Components[ComponentPatterns])
	}

	want := "Max pain at 90.00 creates downward pressure (10.0% delta). " +
		"RSI 75 shows overbought territory. " +
		"MACD bearish crossover confirms direction. " +
		"2 technical pattern(s) detected supporting the move. " +
		"Price at above upper of Bollinger Bands."
	if a.Rationale != want {
		t.Errorf("rationale =\n%q\nwant\n%q", a.Rationale, want)
	}
}

func TestScore_RationaleRoundsRSIHalfUp(t *testing.T) {
	tests := []struct {
		rsi  float64
		want string
	}{
		{34.5, "RSI 35 indicates oversold conditions"},
		{65.5, "RSI 66 shows overbought territory"},
		{33.4, "RSI 33 indicates oversold conditions"},
	}
	for _, tt := range tests {
		a := Score(Input{
			CurrentPrice: 100,
			MaxPain:      102,
			RSI:          analysis.RSIResult{Value: tt.rsi},
		})
		if !strings.Contains(a.Rationale, tt.want) {
			t.Errorf("RSI %v: rationale = %q, want it to contain %q", tt.rsi, a.Rationale, tt.want)
		}
	}
}

func TestScore_ZeroDelta(t *testing.T) {
	a := Score(Input{
		CurrentPrice: 100,
		MaxPain:      100,
		RSI:          analysis.RSIResult{Value: 50},
		MACD:         analysis.MACDResult{Crossover: analysis.CrossoverNeutral},
		Bollinger:    analysis.BollingerResult{Position: analysis.BandMiddle},
	})

	if a.RiskReward != "N/A" {
		t.Errorf("risk/reward = %s, want N/A", a.RiskReward)
	}
	if a.Score != 50 || a.Quality != analysis.QualityPoor || a.Direction != analysis.Bearish {
		t.Errorf("score/quality/direction = %d/%s/%s", a.Score, a.Quality, a.Direction)
	}
	if a.Confidence != 60 {
		t.Errorf("confidence = %d, want 60", a.Confidence)
	}
	if a.Rationale != "Max pain at 100.00 creates downward pressure (0.0% delta)." {
		t.Errorf("rationale = %q", a.Rationale)
	}
}

func TestScore_WeakRSIAndPatternBias(t *testing.T) {
	a := Score(Input{
		CurrentPrice: 200,
		MaxPain:      204,
		RSI:          analysis.RSIResult{Value: 35},
		MACD:         analysis.MACDResult{Crossover: analysis.CrossoverBearish},
		Patterns:     patternsOf(3, 0),
		Bollinger:    analysis.BollingerResult{Position: analysis.BandNeutral},
	})

	// 50 + 2 + 10 + 0 + 15 + 0
	if a.Score != 77 || a.Quality != analysis.QualityGood {
		t.Errorf("score/quality = %d/%s, want 77/GOOD", a.Score, a.Quality)
	}
	// 60 + 1.6 + 15 rounds to 77.
	if a.Confidence != 77 {
		t.Errorf("confidence = %d, want 77", a.Confidence)
	}
}

func TestScore_ConfidenceCap(t *testing.T) {
	a := Score(Input{
		CurrentPrice: 100,
		MaxPain:      130,
		RSI:          analysis.RSIResult{Value: 10},
		Patterns:     patternsOf(4, 0),
	})
	if a.Confidence != MaxConfidence {
		t.Errorf("confidence = %d, want %d", a.Confidence, MaxConfidence)
	}
	if a.Components[ComponentMaxPain] != 25 {
		t.Errorf("max pain component = %f, want capped 25", a.Components[ComponentMaxPain])
	}
}

func TestQualityFor(t *testing.T) {
	tests := []struct {
		score int
		want  analysis.Quality
	}{
		{100, analysis.QualityExcellent},
		{85, analysis.QualityExcellent},
		{84, analysis.QualityGood},
		{70, analysis.QualityGood},
		{69, analysis.QualityFair},
		{55, analysis.QualityFair},
		{54, analysis.QualityPoor},
		{0, analysis.QualityPoor},
	}
	for _, tt := range tests {
		if got := QualityFor(tt.score); got != tt.want {
			t.Errorf("QualityFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestRiskReward(t *testing.T) {
	if got := RiskReward(100, 110, 95); got != "1:2.00" {
		t.Errorf("RiskReward = %s, want 1:2.00", got)
	}
	if got := RiskReward(100, 110, 100); got != "N/A" {
		t.Errorf("RiskReward with zero risk = %s, want N/A", got)
	}
}

func TestScanScore(t *testing.T) {
	tests := []struct {
		name      string
		deltaPct  float64
		rsi       float64
		crossover analysis.Crossover
		want      int
	}{
		{"fully aligned bullish", 5, 25, analysis.CrossoverBullish, 95},
		{"fully aligned bearish", -4, 80, analysis.CrossoverBearish, 93},
		{"misaligned", 3, 75, analysis.CrossoverBearish, 66},
		{"capped", 30, 20, analysis.CrossoverBullish, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScanScore(tt.deltaPct, tt.rsi, tt.crossover); got != tt.want {
				t.Errorf("ScanScore = %d, want %d", got, tt.want)
			}
		})
	}
}

// stubQuotes serves fixed prices and fails for unknown symbols.
type stubQuotes map[string]float64

func (s stubQuotes) Quote(_ context.Context, symbol string) (*market.Quote, error) {
	price, ok := s[symbol]
	if !ok {
		return nil, fmt.Errorf("no quote for %s", symbol)
	}
	return &market.Quote{Symbol: symbol, Price: price}, nil
}

func TestScanner_SkipsFailuresAndPausesBetweenSymbols(t *testing.T) {
	quotes := stubQuotes{"AAA": 100, "BBB": 200, "CCC": 300}
	s := NewScanner(quotes, nil, rng.Constant(0.5), DefaultScannerConfig())

	var pauses []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}

	report, err := s.Scan(context.Background(), []string{"AAA", "BAD", "BBB", "CCC"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if report.ID == "" || report.Requested != 4 {
		t.Errorf("report header = %+v", report)
	}
	if len(report.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(report.Results))
	}
	if len(pauses) != 3 || pauses[0] != DefaultScanDelay {
		t.Errorf("pauses = %v, want 3 x %v", pauses, DefaultScanDelay)
	}

	// Every symbol scores the same under a constant source, so input order holds.
	for i, want := range []string{"AAA", "BBB", "CCC"} {
		r := report.Results[i]
		if r.Symbol != want {
			t.Errorf("result %d = %s, want %s", i, r.Symbol, want)
		}
		if r.Direction != analysis.Bearish || r.DeltaPct >= 0 {
			t.Errorf("%s: direction %s delta %f", r.Symbol, r.Direction, r.DeltaPct)
		}
		if r.Score != ScanScore(r.DeltaPct, r.RSI, r.Crossover) {
			t.Errorf("%s: score %d inconsistent", r.Symbol, r.Score)
		}
	}
}

func TestScanner_LogsSkippedSymbol(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), zerolog.New(&buf))

	cfg := DefaultScannerConfig()
	cfg.Delay = 0
	s := NewScanner(stubQuotes{"AAA": 100}, nil, rng.Constant(0.5), cfg)

	report, err := s.Scan(ctx, []string{"BAD", "AAA"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(report.Results) != 1 || report.Results[0].Symbol != "AAA" {
		t.Fatalf("results = %+v", report.Results)
	}

	var skipped string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "Skipping symbol") {
			skipped = line
		}
	}
	if !strings.Contains(skipped, `"symbol":"BAD"`) || !strings.Contains(skipped, `"level":"warn"`) {
		t.Errorf("skip log line = %q", skipped)
	}
}

func TestScanner_Cancellation(t *testing.T) {
	s := NewScanner(stubQuotes{"AAA": 100, "BBB": 200}, nil, rng.New(3), DefaultScannerConfig())

	ctx, cancel := context.WithCancel(context.Background())
	s.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	if _, err := s.Scan(ctx, []string{"AAA", "BBB"}); !stderrors.Is(err, context.Canceled) {
		t.Errorf("Scan err = %v, want context.Canceled", err)
	}
}

func TestSortResultsByScore(t *testing.T) {
	results := []ScanResult{
		{Symbol: "A", Score: 70},
		{Symbol: "B", Score: 90},
		{Symbol: "C", Score: 70},
		{Symbol: "D", Score: 95},
	}
	sortResultsByScore(results)

	want := []string{"D", "B", "A", "C"}
	for i, sym := range want {
		if results[i].Symbol != sym {
			t.Fatalf("order = %v, want %v", results, want)
		}
	}
}
