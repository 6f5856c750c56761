// Package rng provides the pluggable random source threaded through every generator.
package rng

import (
	"math/rand"
	"sync"
	"time"
)

// Source yields uniformly distributed values in [0, 1).
type Source interface {
	Next() float64
}

// Seeded is a Source backed by math/rand with a fixed seed.
type Seeded struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New creates a seeded source. The same seed always yields the same sequence.
func New(seed int64) *Seeded {
	return &Seeded{r: rand.New(rand.NewSource(seed))}
}

// NewFromClock creates a source seeded from the wall clock.
func NewFromClock() *Seeded {
	return New(time.Now().UnixNano())
}

// Next returns the next value in [0, 1).
func (s *Seeded) Next() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// Sequence cycles through a fixed list of values. Used for deterministic tests.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	pos    int
}

// NewSequence creates a source that returns values in order and wraps around.
// An empty sequence always returns 0.
func NewSequence(values ...float64) *Sequence {
	vs := make([]float64, len(values))
	for i, v := range values {
		vs[i] = clampUnit(v)
	}
	return &Sequence{values: vs}
}

// Next returns the next value of the sequence.
func (s *Sequence) Next() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}

// Constant returns a source that always yields v.
func Constant(v float64) *Sequence {
	return NewSequence(v)
}

// clampUnit keeps v inside [0, 1).
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v >= 1 {
		return 0.9999999999
	}
	return v
}
