package market

import (
	"context"
	"strings"
	"time"

	"maxpain-pro/internal/errors"
	"maxpain-pro/internal/rng"
)

// DefaultQuoteLatency is the simulated round trip of the mock quote source.
const DefaultQuoteLatency = 400 * time.Millisecond

// MockSource names the mock engine in Quote.Source.
const MockSource = "Mock Engine"

// Quote is a point-in-time price snapshot for one symbol.
type Quote struct {
	Symbol    string    `json:"symbol" yaml:"symbol"`
	Price     float64   `json:"price" yaml:"price"`
	PrevClose float64   `json:"prev_close" yaml:"prev_close"`
	Change    float64   `json:"change" yaml:"change"`
	ChangePct float64   `json:"change_pct" yaml:"change_pct"`
	Volume    int64     `json:"volume" yaml:"volume"`
	High      float64   `json:"high" yaml:"high"`
	Low       float64   `json:"low" yaml:"low"`
	Open      float64   `json:"open" yaml:"open"`
	Source    string    `json:"source" yaml:"source"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// QuoteProvider fetches the current quote for a symbol.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
}

// priceBand is a base price and the width of its random spread.
type priceBand struct {
	base   float64
	spread float64
}

var basePrices = map[string]priceBand{
	"AAPL":    {225, 15},
	"MSFT":    {415, 15},
	"GOOGL":   {170, 10},
	"AMZN":    {185, 10},
	"TSLA":    {230, 30},
	"NVDA":    {120, 15},
	"META":    {510, 15},
	"GME":     {25, 8},
	"SPY":     {530, 10},
	"QQQ":     {460, 10},
	"BTC-USD": {65000, 8000},
	"ETH-USD": {3500, 600},
}

// unknownBand prices symbols missing from the table.
var unknownBand = priceBand{100, 400}

// DefaultWatchlist returns the symbols scanned when none are given.
func DefaultWatchlist() []string {
	return []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META", "GME", "SPY", "QQQ"}
}

// MockQuoteProvider fabricates quotes from a fixed base price table.
type MockQuoteProvider struct {
	src         rng.Source
	latency     time.Duration
	failureRate float64
	now         func() time.Time
}

// MockOption configures a MockQuoteProvider.
type MockOption func(*MockQuoteProvider)

// WithLatency overrides the simulated latency. Zero disables it.
func WithLatency(d time.Duration) MockOption {
	return func(p *MockQuoteProvider) {
		p.latency = d
	}
}

// WithFailureRate makes a share of quotes fail with ErrQuoteUnavailable to
// simulate a flaky feed. Zero, the default, never fails and draws nothing
// from the source.
func WithFailureRate(rate float64) MockOption {
	return func(p *MockQuoteProvider) {
		p.failureRate = min(max(rate, 0), 1)
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) MockOption {
	return func(p *MockQuoteProvider) {
		p.now = now
	}
}

// NewMockQuoteProvider creates a mock provider drawing from src.
func NewMockQuoteProvider(src rng.Source, opts ...MockOption) *MockQuoteProvider {
	p := &MockQuoteProvider{
		src:     src,
		latency: DefaultQuoteLatency,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Quote returns a fabricated quote after the simulated latency.
// Symbols are upper-cased; an empty symbol yields ErrSymbolNotFound.
func (p *MockQuoteProvider) Quote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.ErrSymbolNotFound
	}

	if p.latency > 0 {
		timer := time.NewTimer(p.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.failureRate > 0 && p.src.Next() < p.failureRate {
		return nil, errors.Wrapf(errors.ErrQuoteUnavailable, "%s", symbol)
	}

	band, ok := basePrices[symbol]
	if !ok {
		band = unknownBand
	}

	price := RoundCents(band.base + p.src.Next()*band.spread)
	prevClose := RoundCents(price * (0.97 + p.src.Next()*0.06))
	change := price - prevClose

	var changePct float64
	if prevClose != 0 {
		changePct = change / prevClose * 100
	}

	return &Quote{
		Symbol:    symbol,
		Price:     price,
		PrevClose: prevClose,
		Change:    change,
		ChangePct: changePct,
		Volume:    int64(5_000_000 + p.src.Next()*50_000_000),
		High:      price * (1 + p.src.Next()*0.03),
		Low:       price * (0.97 + p.src.Next()*0.03),
		Open:      prevClose + change*0.3,
		Source:    MockSource,
		Timestamp: p.now(),
	}, nil
}
