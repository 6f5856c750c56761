// Package config provides configuration management for maxpain-pro.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"maxpain-pro/internal/alerts"
	"maxpain-pro/internal/analysis/fractal"
	"maxpain-pro/internal/analysis/indicators"
	"maxpain-pro/internal/analysis/patterns"
	"maxpain-pro/internal/analysis/scoring"
	"maxpain-pro/internal/dashboard"
	"maxpain-pro/internal/errors"
	"maxpain-pro/internal/logging"
	"maxpain-pro/internal/market"
	"maxpain-pro/internal/resilience"
)

// Environment variables read on top of the config file.
const (
	EnvLogLevel = "MAXPAIN_LOG_LEVEL"
	EnvSeed     = "MAXPAIN_SEED"
)

// Config holds all application configuration.
type Config struct {
	Market     MarketConfig    `mapstructure:"market" json:"market" yaml:"market"`
	Indicators IndicatorConfig `mapstructure:"indicators" json:"indicators" yaml:"indicators"`
	Patterns   PatternConfig   `mapstructure:"patterns" json:"patterns" yaml:"patterns"`
	Fractal    FractalConfig   `mapstructure:"fractal" json:"fractal" yaml:"fractal"`
	Scanner    ScannerConfig   `mapstructure:"scanner" json:"scanner" yaml:"scanner"`
	Alerts     AlertConfig     `mapstructure:"alerts" json:"alerts" yaml:"alerts"`
	Watch      WatchConfig     `mapstructure:"watch" json:"watch" yaml:"watch"`
	Logging    LoggingConfig   `mapstructure:"logging" json:"logging" yaml:"logging"`
	UI         UIConfig        `mapstructure:"ui" json:"ui" yaml:"ui"`
}

// MarketConfig holds the synthetic market parameters.
type MarketConfig struct {
	// Seed fixes the random source. Zero seeds from the clock.
	Seed            int64         `mapstructure:"seed" json:"seed" yaml:"seed"`
	Volatility      float64       `mapstructure:"volatility" json:"volatility" yaml:"volatility"`
	SeriesLength    int           `mapstructure:"series_length" json:"series_length" yaml:"series_length"`
	ExpirationCount int           `mapstructure:"expiration_count" json:"expiration_count" yaml:"expiration_count"`
	QuoteLatency    time.Duration `mapstructure:"quote_latency" json:"quote_latency" yaml:"quote_latency"`
	// Share of quotes that fail as if the feed were down
	FailureRate     float64       `mapstructure:"failure_rate" json:"failure_rate" yaml:"failure_rate"`
	// Consecutive quote failures before the quote circuit opens
	BreakerFailures int           `mapstructure:"breaker_failures" json:"breaker_failures" yaml:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown" json:"breaker_cooldown" yaml:"breaker_cooldown"`
}

// IndicatorConfig holds the indicator periods.
type IndicatorConfig struct {
	RSIPeriod       int     `mapstructure:"rsi_period" json:"rsi_period" yaml:"rsi_period"`
	MACDFast        int     `mapstructure:"macd_fast" json:"macd_fast" yaml:"macd_fast"`
	MACDSlow        int     `mapstructure:"macd_slow" json:"macd_slow" yaml:"macd_slow"`
	MACDSignal      int     `mapstructure:"macd_signal" json:"macd_signal" yaml:"macd_signal"`
	MACDMode        string  `mapstructure:"macd_mode" json:"macd_mode" yaml:"macd_mode"` // sign, signal_line
	BollingerPeriod int     `mapstructure:"bollinger_period" json:"bollinger_period" yaml:"bollinger_period"`
	BollingerStdDev float64 `mapstructure:"bollinger_stddev" json:"bollinger_stddev" yaml:"bollinger_stddev"`
}

// PatternConfig holds the pattern detection tolerances.
type PatternConfig struct {
	ShoulderTolerance     float64 `mapstructure:"shoulder_tolerance" json:"shoulder_tolerance" yaml:"shoulder_tolerance"`
	DoubleBottomLookback  int     `mapstructure:"double_bottom_lookback" json:"double_bottom_lookback" yaml:"double_bottom_lookback"`
	DoubleBottomTolerance float64 `mapstructure:"double_bottom_tolerance" json:"double_bottom_tolerance" yaml:"double_bottom_tolerance"`
	EnableUptrend         bool    `mapstructure:"enable_uptrend" json:"enable_uptrend" yaml:"enable_uptrend"`
}

// FractalConfig holds the fractal extraction options.
type FractalConfig struct {
	SeriesLength  int `mapstructure:"series_length" json:"series_length" yaml:"series_length"`
	PatternLength int `mapstructure:"pattern_length" json:"pattern_length" yaml:"pattern_length"`
	ForwardWindow int `mapstructure:"forward_window" json:"forward_window" yaml:"forward_window"`
	Stride        int `mapstructure:"stride" json:"stride" yaml:"stride"`
}

// ScannerConfig holds the batch scan parameters.
type ScannerConfig struct {
	Delay     time.Duration `mapstructure:"delay" json:"delay" yaml:"delay"`
	Watchlist []string      `mapstructure:"watchlist" json:"watchlist" yaml:"watchlist"`
}

// AlertConfig holds the alert book parameters.
type AlertConfig struct {
	ThresholdPct float64 `mapstructure:"threshold_pct" json:"threshold_pct" yaml:"threshold_pct"`
	Capacity     int     `mapstructure:"capacity" json:"capacity" yaml:"capacity"`
}

// WatchConfig holds the periodic re-scan schedule.
type WatchConfig struct {
	Schedule string `mapstructure:"schedule" json:"schedule" yaml:"schedule"` // standard 5-field cron
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level    string `mapstructure:"level" json:"level" yaml:"level"`
	File     bool   `mapstructure:"file" json:"file" yaml:"file"`
	FilePath string `mapstructure:"file_path" json:"file_path" yaml:"file_path"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled" json:"color_enabled" yaml:"color_enabled"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/maxpain-pro"
	}
	return filepath.Join(home, ".config", "maxpain-pro")
}

// ConfigFile returns the path of config.toml inside configDir.
func ConfigFile(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is created from the template and the defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	if err := loadDotEnv(configDir); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config.toml: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("market.seed", 0)
	v.SetDefault("market.volatility", market.DefaultVolatility)
	v.SetDefault("market.series_length", market.DefaultSeriesLength)
	v.SetDefault("market.expiration_count", market.DefaultExpirationCount)
	v.SetDefault("market.quote_latency", market.DefaultQuoteLatency)
	v.SetDefault("market.failure_rate", 0.0)
	bc := resilience.DefaultBreakerConfig()
	v.SetDefault("market.breaker_failures", bc.FailureThreshold)
	v.SetDefault("market.breaker_cooldown", bc.Cooldown)

	v.SetDefault("indicators.rsi_period", indicators.DefaultRSIPeriod)
	v.SetDefault("indicators.macd_fast", indicators.DefaultMACDFast)
	v.SetDefault("indicators.macd_slow", indicators.DefaultMACDSlow)
	v.SetDefault("indicators.macd_signal", indicators.DefaultMACDSignal)
	v.SetDefault("indicators.macd_mode", string(indicators.SignCrossover))
	v.SetDefault("indicators.bollinger_period", indicators.DefaultBollingerPeriod)
	v.SetDefault("indicators.bollinger_stddev", indicators.DefaultBollingerStdDev)

	pc := patterns.DefaultConfig()
	v.SetDefault("patterns.shoulder_tolerance", pc.ShoulderTolerance)
	v.SetDefault("patterns.double_bottom_lookback", pc.DoubleBottomLookback)
	v.SetDefault("patterns.double_bottom_tolerance", pc.DoubleBottomTolerance)
	v.SetDefault("patterns.enable_uptrend", pc.EnableUptrend)

	v.SetDefault("fractal.series_length", dashboard.DefaultFractalSeriesLength)
	v.SetDefault("fractal.pattern_length", fractal.DefaultPatternLength)
	v.SetDefault("fractal.forward_window", fractal.DefaultForwardWindow)
	v.SetDefault("fractal.stride", fractal.DefaultStride)

	v.SetDefault("scanner.delay", scoring.DefaultScanDelay)
	v.SetDefault("scanner.watchlist", market.DefaultWatchlist())

	v.SetDefault("alerts.threshold_pct", alerts.DefaultThresholdPct)
	v.SetDefault("alerts.capacity", alerts.DefaultCapacity)

	v.SetDefault("watch.schedule", "*/5 * * * *")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", logging.DefaultLogConfig().FilePath)

	v.SetDefault("ui.color_enabled", true)
}

// loadDotEnv loads .env from configDir and then the working directory.
// Variables already set in the environment win.
func loadDotEnv(configDir string) error {
	for _, path := range []string{filepath.Join(configDir, ".env"), ".env"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return errors.NewValidationError(EnvSeed, v, "must be an integer")
		}
		cfg.Market.Seed = seed
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrConfigInvalid, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Market.Volatility < 0 || c.Market.Volatility >= 1 {
		return errors.NewValidationError("market.volatility", c.Market.Volatility, "must be in [0, 1)")
	}
	if c.Market.SeriesLength <= 0 {
		return errors.NewValidationError("market.series_length", c.Market.SeriesLength, "must be positive")
	}
	if c.Market.ExpirationCount <= 0 {
		return errors.NewValidationError("market.expiration_count", c.Market.ExpirationCount, "must be positive")
	}
	if c.Market.QuoteLatency < 0 {
		return errors.NewValidationError("market.quote_latency", c.Market.QuoteLatency, "must be non-negative")
	}
	if c.Market.FailureRate < 0 || c.Market.FailureRate >= 1 {
		return errors.NewValidationError("market.failure_rate", c.Market.FailureRate, "must be in [0, 1)")
	}
	if c.Market.BreakerFailures <= 0 {
		return errors.NewValidationError("market.breaker_failures", c.Market.BreakerFailures, "must be positive")
	}
	if c.Market.BreakerCooldown < 0 {
		return errors.NewValidationError("market.breaker_cooldown", c.Market.BreakerCooldown, "must be non-negative")
	}

	periods := map[string]int{
		"indicators.rsi_period":       c.Indicators.RSIPeriod,
		"indicators.macd_fast":        c.Indicators.MACDFast,
		"indicators.macd_slow":        c.Indicators.MACDSlow,
		"indicators.macd_signal":      c.Indicators.MACDSignal,
		"indicators.bollinger_period": c.Indicators.BollingerPeriod,
	}
	for field, p := range periods {
		if p <= 0 {
			return errors.NewValidationError(field, p, "must be positive")
		}
	}
	if c.Indicators.MACDFast >= c.Indicators.MACDSlow {
		return errors.NewValidationError("indicators.macd_fast", c.Indicators.MACDFast, "must be below macd_slow")
	}
	if c.Indicators.BollingerStdDev <= 0 {
		return errors.NewValidationError("indicators.bollinger_stddev", c.Indicators.BollingerStdDev, "must be positive")
	}
	switch indicators.MACDMode(c.Indicators.MACDMode) {
	case indicators.SignCrossover, indicators.SignalLineCrossover:
	default:
		return errors.NewValidationError("indicators.macd_mode", c.Indicators.MACDMode, "must be 'sign' or 'signal_line'")
	}

	if !inUnitInterval(c.Patterns.ShoulderTolerance) {
		return errors.NewValidationError("patterns.shoulder_tolerance", c.Patterns.ShoulderTolerance, "must be in (0, 1)")
	}
	if !inUnitInterval(c.Patterns.DoubleBottomTolerance) {
		return errors.NewValidationError("patterns.double_bottom_tolerance", c.Patterns.DoubleBottomTolerance, "must be in (0, 1)")
	}
	if c.Patterns.DoubleBottomLookback < 2 {
		return errors.NewValidationError("patterns.double_bottom_lookback", c.Patterns.DoubleBottomLookback, "must be at least 2")
	}

	if c.Fractal.SeriesLength <= 0 || c.Fractal.PatternLength <= 0 || c.Fractal.ForwardWindow <= 0 || c.Fractal.Stride <= 0 {
		return errors.NewValidationError("fractal", c.Fractal, "lengths and stride must be positive")
	}

	if c.Scanner.Delay < 0 {
		return errors.NewValidationError("scanner.delay", c.Scanner.Delay, "must be non-negative")
	}

	if c.Alerts.ThresholdPct < 0 {
		return errors.NewValidationError("alerts.threshold_pct", c.Alerts.ThresholdPct, "must be non-negative")
	}
	if c.Alerts.Capacity <= 0 {
		return errors.NewValidationError("alerts.capacity", c.Alerts.Capacity, "must be positive")
	}

	if _, err := cron.ParseStandard(c.Watch.Schedule); err != nil {
		return errors.NewValidationError("watch.schedule", c.Watch.Schedule, err.Error())
	}

	return nil
}

func inUnitInterval(v float64) bool {
	return v > 0 && v < 1
}

// IndicatorEngineConfig converts the indicator section for indicators.NewEngine.
func (c *Config) IndicatorEngineConfig() indicators.Config {
	return indicators.Config{
		RSIPeriod:       c.Indicators.RSIPeriod,
		MACDFast:        c.Indicators.MACDFast,
		MACDSlow:        c.Indicators.MACDSlow,
		MACDSignal:      c.Indicators.MACDSignal,
		MACDMode:        indicators.MACDMode(c.Indicators.MACDMode),
		BollingerPeriod: c.Indicators.BollingerPeriod,
		BollingerStdDev: c.Indicators.BollingerStdDev,
	}
}

// PatternDetectorConfig converts the pattern section for patterns.NewDetector.
func (c *Config) PatternDetectorConfig() patterns.Config {
	pc := patterns.DefaultConfig()
	pc.ShoulderTolerance = c.Patterns.ShoulderTolerance
	pc.DoubleBottomLookback = c.Patterns.DoubleBottomLookback
	pc.DoubleBottomTolerance = c.Patterns.DoubleBottomTolerance
	pc.EnableUptrend = c.Patterns.EnableUptrend
	return pc
}

// DashboardConfig converts the pipeline sections for dashboard.NewService.
func (c *Config) DashboardConfig() dashboard.Config {
	dc := dashboard.DefaultConfig()
	dc.SeriesLength = c.Market.SeriesLength
	dc.FractalSeriesLength = c.Fractal.SeriesLength
	dc.Volatility = c.Market.Volatility
	dc.ExpirationCount = c.Market.ExpirationCount
	dc.AlertThresholdPct = c.Alerts.ThresholdPct
	dc.Fractal = fractal.Options{
		PatternLength: c.Fractal.PatternLength,
		ForwardWindow: c.Fractal.ForwardWindow,
		Stride:        c.Fractal.Stride,
	}
	dc.Scanner = scoring.ScannerConfig{
		Delay:        c.Scanner.Delay,
		SeriesLength: c.Market.SeriesLength,
		Volatility:   c.Market.Volatility,
	}
	return dc
}

// BreakerConfig converts the quote circuit settings for resilience.NewBreaker.
func (c *Config) BreakerConfig() resilience.BreakerConfig {
	bc := resilience.DefaultBreakerConfig()
	bc.FailureThreshold = c.Market.BreakerFailures
	bc.Cooldown = c.Market.BreakerCooldown
	return bc
}

// LogConfig converts the logging section for logging.NewLoggerWithConfig.
func (c *Config) LogConfig() logging.LogConfig {
	lc := logging.DefaultLogConfig()
	lc.Level = c.Logging.Level
	lc.File = c.Logging.File
	if c.Logging.FilePath != "" {
		lc.FilePath = c.Logging.FilePath
	}
	return lc
}
