// Package indicators provides the technical indicator calculations used by
// the dashboard: RSI, EMA, MACD and Bollinger Bands.
//
// All functions are pure. Insufficient history never produces an error;
// each indicator has a documented neutral fallback instead.
package indicators

import (
	"maxpain-pro/internal/analysis"
)

// Config holds the indicator periods.
type Config struct {
	RSIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	MACDMode        MACDMode
	BollingerPeriod int
	BollingerStdDev float64
}

// DefaultConfig returns the standard indicator periods.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:       DefaultRSIPeriod,
		MACDFast:        DefaultMACDFast,
		MACDSlow:        DefaultMACDSlow,
		MACDSignal:      DefaultMACDSignal,
		MACDMode:        SignCrossover,
		BollingerPeriod: DefaultBollingerPeriod,
		BollingerStdDev: DefaultBollingerStdDev,
	}
}

// Snapshot holds the latest reading of every indicator for one series.
type Snapshot struct {
	RSI       analysis.RSIResult       `json:"rsi" yaml:"rsi"`
	MACD      analysis.MACDResult      `json:"macd" yaml:"macd"`
	Bollinger analysis.BollingerResult `json:"bollinger" yaml:"bollinger"`
}

// Engine calculates indicator snapshots with a fixed configuration.
type Engine struct {
	cfg Config
}

// NewEngine creates a new indicator engine. Zero fields fall back to defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = def.RSIPeriod
	}
	if cfg.MACDFast <= 0 {
		cfg.MACDFast = def.MACDFast
	}
	if cfg.MACDSlow <= 0 {
		cfg.MACDSlow = def.MACDSlow
	}
	if cfg.MACDSignal <= 0 {
		cfg.MACDSignal = def.MACDSignal
	}
	if cfg.MACDMode == "" {
		cfg.MACDMode = def.MACDMode
	}
	if cfg.BollingerPeriod <= 0 {
		cfg.BollingerPeriod = def.BollingerPeriod
	}
	if cfg.BollingerStdDev <= 0 {
		cfg.BollingerStdDev = def.BollingerStdDev
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// RSI calculates the RSI with the configured period.
func (e *Engine) RSI(prices []float64) analysis.RSIResult {
	return RSI(prices, e.cfg.RSIPeriod)
}

// MACD calculates the MACD with the configured periods and mode.
func (e *Engine) MACD(prices []float64) analysis.MACDResult {
	return MACDWithMode(prices, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal, e.cfg.MACDMode)
}

// Bollinger calculates the Bollinger Bands with the configured parameters.
func (e *Engine) Bollinger(prices []float64) analysis.BollingerResult {
	return BollingerBands(prices, e.cfg.BollingerPeriod, e.cfg.BollingerStdDev)
}

// Calculate computes every indicator for prices.
func (e *Engine) Calculate(prices []float64) Snapshot {
	return Snapshot{
		RSI:       e.RSI(prices),
		MACD:      e.MACD(prices),
		Bollinger: e.Bollinger(prices),
	}
}
