// Package alerts keeps the bounded, newest-first list of max pain alerts
// raised while analyzing symbols.
package alerts

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Alert defaults.
const (
	DefaultCapacity     = 20
	DefaultThresholdPct = 3.0
)

// Alert records a symbol whose max pain sits far from its price.
type Alert struct {
	ID         string    `json:"id" yaml:"id"`
	Symbol     string    `json:"symbol" yaml:"symbol"`
	Message    string    `json:"message" yaml:"message"`
	Price      float64   `json:"price" yaml:"price"`
	MaxPain    float64   `json:"max_pain" yaml:"max_pain"`
	DeltaPct   float64   `json:"delta_pct" yaml:"delta_pct"`
	Confidence int       `json:"confidence" yaml:"confidence"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// New builds an alert for symbol with a fresh ID.
func New(symbol string, price, maxPain float64, confidence int, now time.Time) Alert {
	var deltaPct float64
	if price > 0 {
		deltaPct = (maxPain - price) / price * 100
	}

	side := "below"
	if deltaPct > 0 {
		side = "above"
	}

	return Alert{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Message:    fmt.Sprintf("Max pain %.2f%% %s price", math.Abs(deltaPct), side),
		Price:      price,
		MaxPain:    maxPain,
		DeltaPct:   deltaPct,
		Confidence: confidence,
		CreatedAt:  now,
	}
}

// Exceeds reports whether a max pain delta is large enough to alert on.
func Exceeds(deltaPct, thresholdPct float64) bool {
	return math.Abs(deltaPct) > thresholdPct
}

// Handler is called for every alert added to a Book.
type Handler func(a Alert)

// Book is the alert list owned by the presentation layer. It is safe for
// concurrent use.
type Book struct {
	mu       sync.RWMutex
	alerts   []Alert
	capacity int
	handlers []Handler
}

// NewBook creates a book holding at most capacity alerts.
func NewBook(capacity int) *Book {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Book{capacity: capacity}
}

// Capacity returns the maximum number of alerts kept.
func (b *Book) Capacity() int {
	return b.capacity
}

// AddHandler registers a handler called after each Add.
func (b *Book) AddHandler(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Add prepends a and drops the oldest alerts beyond capacity.
func (b *Book) Add(a Alert) {
	b.mu.Lock()
	b.alerts = append([]Alert{a}, b.alerts...)
	if len(b.alerts) > b.capacity {
		b.alerts = b.alerts[:b.capacity]
	}
	handlers := b.handlers
	b.mu.Unlock()

	for _, h := range handlers {
		h(a)
	}
}

// List returns a newest-first copy of the alerts.
func (b *Book) List() []Alert {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Alert, len(b.alerts))
	copy(out, b.alerts)
	return out
}

// Len returns the number of alerts held.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.alerts)
}

// Clear removes every alert.
func (b *Book) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alerts = nil
}
