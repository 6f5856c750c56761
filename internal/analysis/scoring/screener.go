package scoring

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"maxpain-pro/internal/analysis"
	"maxpain-pro/internal/analysis/indicators"
	"maxpain-pro/internal/logging"
	"maxpain-pro/internal/market"
	"maxpain-pro/internal/rng"
)

// DefaultScanDelay is the pause between symbols in a scan.
const DefaultScanDelay = 200 * time.Millisecond

// ScanResult is the ranking entry for one scanned symbol.
type ScanResult struct {
	Symbol    string             `json:"symbol" yaml:"symbol"`
	Price     float64            `json:"price" yaml:"price"`
	MaxPain   float64            `json:"max_pain" yaml:"max_pain"`
	DeltaPct  float64            `json:"delta_pct" yaml:"delta_pct"`
	RSI       float64            `json:"rsi" yaml:"rsi"`
	Crossover analysis.Crossover `json:"crossover" yaml:"crossover"`
	Score     int                `json:"score" yaml:"score"`
	Direction analysis.Direction `json:"direction" yaml:"direction"`
}

// ScanReport is the outcome of one scan run.
type ScanReport struct {
	ID        string        `json:"id" yaml:"id"`
	Requested int           `json:"requested" yaml:"requested"`
	Results   []ScanResult  `json:"results" yaml:"results"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// ScannerConfig holds the scan parameters.
type ScannerConfig struct {
	Delay        time.Duration
	SeriesLength int
	Volatility   float64
}

// DefaultScannerConfig returns the standard scan parameters.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		Delay:        DefaultScanDelay,
		SeriesLength: market.DefaultSeriesLength,
		Volatility:   market.DefaultVolatility,
	}
}

// Scanner ranks a list of symbols by max pain opportunity.
type Scanner struct {
	quotes market.QuoteProvider
	engine *indicators.Engine
	src    rng.Source
	cfg    ScannerConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewScanner creates a scanner. A nil engine uses the default indicator periods.
func NewScanner(quotes market.QuoteProvider, engine *indicators.Engine, src rng.Source, cfg ScannerConfig) *Scanner {
	if engine == nil {
		engine = indicators.NewEngine(indicators.DefaultConfig())
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.SeriesLength <= 0 {
		cfg.SeriesLength = market.DefaultSeriesLength
	}
	if cfg.Volatility < 0 {
		cfg.Volatility = market.DefaultVolatility
	}
	return &Scanner{
		quotes: quotes,
		engine: engine,
		src:    src,
		cfg:    cfg,
		sleep:  sleepContext,
	}
}

// Scan processes symbols strictly in order, pausing Delay between consecutive
// symbols. Symbols whose quote cannot be fetched are logged and skipped.
// Results are sorted once at the end, highest score first, keeping input
// order on ties.
// A cancelled context stops the scan and returns the error.
func (s *Scanner) Scan(ctx context.Context, symbols []string) (*ScanReport, error) {
	start := time.Now()
	report := &ScanReport{
		ID:        uuid.NewString(),
		Requested: len(symbols),
		Results:   make([]ScanResult, 0, len(symbols)),
	}

	logger := logging.WithOperation(logging.FromContext(ctx), "scan").
		With().Str("scan_id", report.ID).Logger()

	for i, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := s.scanSymbol(ctx, symbol)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			symLogger := logging.WithSymbol(logger, symbol)
			symLogger.Warn().Err(err).Msg("Skipping symbol")
		} else {
			report.Results = append(report.Results, result)
		}

		if i < len(symbols)-1 && s.cfg.Delay > 0 {
			if err := s.sleep(ctx, s.cfg.Delay); err != nil {
				return nil, err
			}
		}
	}

	sortResultsByScore(report.Results)
	report.Duration = time.Since(start)

	logging.LogScan(logger, report.ID, report.Requested, len(report.Results), report.Duration)
	return report, nil
}

func (s *Scanner) scanSymbol(ctx context.Context, symbol string) (ScanResult, error) {
	q, err := s.quotes.Quote(ctx, symbol)
	if err != nil {
		return ScanResult{}, err
	}

	prices := market.GenerateSeries(s.src, q.Price, s.cfg.SeriesLength, s.cfg.Volatility)
	mp := market.EstimateMaxPain(s.src, q.Price, 1)
	rsi := s.engine.RSI(prices)
	macd := s.engine.MACD(prices)

	deltaPct := Delta(q.Price, mp) * 100

	direction := analysis.Bearish
	if deltaPct > 0 {
		direction = analysis.Bullish
	}

	return ScanResult{
		Symbol:    q.Symbol,
		Price:     q.Price,
		MaxPain:   mp,
		DeltaPct:  deltaPct,
		RSI:       rsi.Value,
		Crossover: macd.Crossover,
		Score:     ScanScore(deltaPct, rsi.Value, macd.Crossover),
		Direction: direction,
	}, nil
}

// ScanScore is the lighter scanner heuristic:
// 60 + |delta%|*2, +15 for strong RSI alignment, +10 for MACD alignment,
// capped at 100 and rounded.
func ScanScore(deltaPct, rsi float64, crossover analysis.Crossover) int {
	score := 60 + math.Abs(deltaPct)*2
	if strongRSIAlignment(rsi, deltaPct) {
		score += 15
	}
	if macdAligned(crossover, deltaPct) {
		score += 10
	}
	return int(clamp(math.Round(score), 0, MaxScore))
}

// sortResultsByScore sorts results by score in descending order.
func sortResultsByScore(results []ScanResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
