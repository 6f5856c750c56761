// Package dashboard runs the per-symbol analysis pipeline: quote, synthetic
// history, max pain curve, indicators, patterns and the composite score.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"maxpain-pro/internal/alerts"
	"maxpain-pro/internal/analysis"
	"maxpain-pro/internal/analysis/fractal"
	"maxpain-pro/internal/analysis/indicators"
	"maxpain-pro/internal/analysis/mtf"
	"maxpain-pro/internal/analysis/patterns"
	"maxpain-pro/internal/analysis/scoring"
	"maxpain-pro/internal/errors"
	"maxpain-pro/internal/logging"
	"maxpain-pro/internal/market"
	"maxpain-pro/internal/rng"
	"maxpain-pro/pkg/utils"
)

// Series lengths used by the fractal and multi-timeframe views.
const (
	DefaultFractalSeriesLength = 200
	DefaultChartSeriesLength   = 50
)

// Config holds the pipeline parameters.
type Config struct {
	SeriesLength        int
	FractalSeriesLength int
	MTFSeriesLength     int
	Volatility          float64
	ExpirationCount     int
	AlertThresholdPct   float64
	Fractal             fractal.Options
	Scanner             scoring.ScannerConfig
	Retry               utils.RetryConfig
}

// DefaultConfig returns the standard pipeline parameters.
func DefaultConfig() Config {
	retry := utils.DefaultRetryConfig()
	retry.RetryableErrors = []error{errors.ErrQuoteUnavailable}

	return Config{
		SeriesLength:        market.DefaultSeriesLength,
		FractalSeriesLength: DefaultFractalSeriesLength,
		MTFSeriesLength:     mtf.DefaultSeriesLength,
		Volatility:          market.DefaultVolatility,
		ExpirationCount:     market.DefaultExpirationCount,
		AlertThresholdPct:   alerts.DefaultThresholdPct,
		Fractal:             fractal.DefaultOptions(),
		Scanner:             scoring.DefaultScannerConfig(),
		Retry:               retry,
	}
}

// Report is the full analysis of one symbol.
type Report struct {
	Symbol      string              `json:"symbol" yaml:"symbol"`
	Quote       *market.Quote       `json:"quote" yaml:"quote"`
	Prices      []float64           `json:"prices" yaml:"prices"`
	Expirations []market.Expiration `json:"expirations" yaml:"expirations"`
	MaxPain     map[string]float64  `json:"max_pain" yaml:"max_pain"`
	Indicators  indicators.Snapshot `json:"indicators" yaml:"indicators"`
	Patterns    []analysis.Pattern  `json:"patterns" yaml:"patterns"`
	Summary     patterns.Summary    `json:"pattern_summary" yaml:"pattern_summary"`
	Analysis    scoring.AIAnalysis  `json:"analysis" yaml:"analysis"`
	Alert       *alerts.Alert       `json:"alert,omitempty" yaml:"alert,omitempty"`
	GeneratedAt time.Time           `json:"generated_at" yaml:"generated_at"`
}

// WeeklyMaxPain returns the max pain of the nearest expiration.
func (r *Report) WeeklyMaxPain() float64 {
	return r.MaxPain[market.ExpirationKey(1)]
}

// FractalReport pairs a symbol's quote with its fractal analysis.
type FractalReport struct {
	Symbol string         `json:"symbol" yaml:"symbol"`
	Price  float64        `json:"price" yaml:"price"`
	Result fractal.Result `json:"result" yaml:"result"`
}

// MTFReport pairs a symbol's quote with its multi-timeframe analysis.
type MTFReport struct {
	Symbol string     `json:"symbol" yaml:"symbol"`
	Price  float64    `json:"price" yaml:"price"`
	Result mtf.Result `json:"result" yaml:"result"`
}

// MaxPainReport is the max pain curve of one symbol.
type MaxPainReport struct {
	Symbol      string              `json:"symbol" yaml:"symbol"`
	Price       float64             `json:"price" yaml:"price"`
	Expirations []market.Expiration `json:"expirations" yaml:"expirations"`
	Curve       map[string]float64  `json:"curve" yaml:"curve"`
}

// ChartData is the price line and flat max pain line of a chart.
type ChartData struct {
	Symbol  string    `json:"symbol" yaml:"symbol"`
	Labels  []string  `json:"labels" yaml:"labels"`
	Prices  []float64 `json:"prices" yaml:"prices"`
	MaxPain []float64 `json:"max_pain" yaml:"max_pain"`
}

// Service wires the analysis packages together.
type Service struct {
	cfg      Config
	quotes   market.QuoteProvider
	src      rng.Source
	engine   *indicators.Engine
	detector *patterns.Detector
	mtf      *mtf.Analyzer
	scanner  *scoring.Scanner
	alerts   *alerts.Book
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEngine overrides the indicator engine.
func WithEngine(e *indicators.Engine) Option {
	return func(s *Service) {
		s.engine = e
	}
}

// WithDetector overrides the pattern detector.
func WithDetector(d *patterns.Detector) Option {
	return func(s *Service) {
		s.detector = d
	}
}

// WithAlerts sets the alert book analyses record into.
func WithAlerts(b *alerts.Book) Option {
	return func(s *Service) {
		s.alerts = b
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a service reading quotes from quotes and drawing every
// random number from src.
func NewService(cfg Config, quotes market.QuoteProvider, src rng.Source, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.SeriesLength <= 0 {
		cfg.SeriesLength = def.SeriesLength
	}
	if cfg.FractalSeriesLength <= 0 {
		cfg.FractalSeriesLength = def.FractalSeriesLength
	}
	if cfg.MTFSeriesLength <= 0 {
		cfg.MTFSeriesLength = def.MTFSeriesLength
	}
	if cfg.Volatility < 0 {
		cfg.Volatility = def.Volatility
	}
	if cfg.ExpirationCount <= 0 {
		cfg.ExpirationCount = def.ExpirationCount
	}
	if cfg.AlertThresholdPct < 0 {
		cfg.AlertThresholdPct = def.AlertThresholdPct
	}

	s := &Service{
		cfg:    cfg,
		quotes: quotes,
		src:    src,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.engine == nil {
		s.engine = indicators.NewEngine(indicators.DefaultConfig())
	}
	if s.detector == nil {
		s.detector = patterns.NewDetector(patterns.DefaultConfig(), src)
	}
	if s.alerts == nil {
		s.alerts = alerts.NewBook(alerts.DefaultCapacity)
	}
	s.mtf = mtf.NewAnalyzer(s.engine)
	s.scanner = scoring.NewScanner(quotes, s.engine, src, cfg.Scanner)

	return s
}

// Alerts returns the alert book.
func (s *Service) Alerts() *alerts.Book {
	return s.alerts
}

// Quote fetches a quote, retrying transient failures.
func (s *Service) Quote(ctx context.Context, symbol string) (*market.Quote, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	q, err := utils.RetryWithResult(ctx, s.cfg.Retry, func() (*market.Quote, error) {
		return s.quotes.Quote(ctx, symbol)
	})
	logging.LogQuote(logger, symbol, time.Since(start), err)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewDataError("quote", symbol, "fetch failed", err)
	}
	return q, nil
}

// Analyze runs the full pipeline for symbol. An alert is recorded when the
// weekly max pain is further than AlertThresholdPct from the price.
func (s *Service) Analyze(ctx context.Context, symbol string) (*Report, error) {
	q, err := s.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	logger := logging.WithOperation(logging.FromContext(ctx), "analyze")
	now := s.now()

	prices := market.GenerateSeries(s.src, q.Price, s.cfg.SeriesLength, s.cfg.Volatility)
	exps := market.Expirations(now, s.cfg.ExpirationCount)
	curve := market.MaxPainCurve(s.src, q.Price, exps)

	snapshot := s.engine.Calculate(prices)
	found := s.detector.Detect(prices)

	report := &Report{
		Symbol:      q.Symbol,
		Quote:       q,
		Prices:      prices,
		Expirations: exps,
		MaxPain:     curve,
		Indicators:  snapshot,
		Patterns:    found,
		Summary:     patterns.Summarize(found),
		GeneratedAt: now,
	}

	report.Analysis = scoring.Score(scoring.Input{
		CurrentPrice: q.Price,
		MaxPain:      report.WeeklyMaxPain(),
		RSI:          snapshot.RSI,
		MACD:         snapshot.MACD,
		Patterns:     found,
		Bollinger:    snapshot.Bollinger,
	})

	if alerts.Exceeds(report.Analysis.Delta*100, s.cfg.AlertThresholdPct) {
		a := alerts.New(q.Symbol, q.Price, report.WeeklyMaxPain(), report.Analysis.Confidence, now)
		s.alerts.Add(a)
		report.Alert = &a
		logging.LogAlert(logger, a.ID, a.Symbol, a.Message, a.DeltaPct)
	}

	logging.LogAnalysis(logger, q.Symbol, report.Analysis.Score, report.Analysis.Confidence, string(report.Analysis.Direction))
	return report, nil
}

// Fractals matches the latest window of a long synthetic history against
// its own past.
func (s *Service) Fractals(ctx context.Context, symbol string) (*FractalReport, error) {
	q, err := s.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	prices := market.GenerateSeries(s.src, q.Price, s.cfg.FractalSeriesLength, s.cfg.Volatility)
	return &FractalReport{
		Symbol: q.Symbol,
		Price:  q.Price,
		Result: fractal.Analyze(prices, s.cfg.Fractal),
	}, nil
}

// MultiTimeframe reads RSI and MACD across the simulated timeframes.
func (s *Service) MultiTimeframe(ctx context.Context, symbol string) (*MTFReport, error) {
	q, err := s.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	prices := market.GenerateSeries(s.src, q.Price, s.cfg.MTFSeriesLength, s.cfg.Volatility)
	return &MTFReport{
		Symbol: q.Symbol,
		Price:  q.Price,
		Result: s.mtf.Analyze(prices),
	}, nil
}

// Chart returns a price line labelled T-n (oldest first) and the weekly max
// pain as a flat line.
func (s *Service) Chart(ctx context.Context, symbol string) (*ChartData, error) {
	q, err := s.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	prices := market.GenerateSeries(s.src, q.Price, DefaultChartSeriesLength, s.cfg.Volatility)
	mp := market.EstimateMaxPain(s.src, q.Price, 1)

	data := &ChartData{
		Symbol:  q.Symbol,
		Labels:  make([]string, len(prices)),
		Prices:  prices,
		MaxPain: make([]float64, len(prices)),
	}
	for i := range prices {
		data.Labels[i] = fmt.Sprintf("T-%d", len(prices)-i)
		data.MaxPain[i] = mp
	}
	return data, nil
}

// MaxPain estimates max pain over every tracked expiration.
func (s *Service) MaxPain(ctx context.Context, symbol string) (*MaxPainReport, error) {
	q, err := s.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	exps := market.Expirations(s.now(), s.cfg.ExpirationCount)
	return &MaxPainReport{
		Symbol:      q.Symbol,
		Price:       q.Price,
		Expirations: exps,
		Curve:       market.MaxPainCurve(s.src, q.Price, exps),
	}, nil
}

// Scan ranks symbols, or the default watchlist when none are given.
func (s *Service) Scan(ctx context.Context, symbols []string) (*scoring.ScanReport, error) {
	if len(symbols) == 0 {
		symbols = market.DefaultWatchlist()
	}
	return s.scanner.Scan(ctx, symbols)
}
