// Package cli provides the command-line interface for maxpain-pro.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"maxpain-pro/internal/alerts"
	"maxpain-pro/internal/analysis/indicators"
	"maxpain-pro/internal/analysis/patterns"
	"maxpain-pro/internal/config"
	"maxpain-pro/internal/dashboard"
	"maxpain-pro/internal/logging"
	"maxpain-pro/internal/market"
	"maxpain-pro/internal/resilience"
	"maxpain-pro/internal/rng"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-01-01"
)

// App holds the application dependencies.
type App struct {
	ConfigDir string
	Config    *config.Config
	Logger    zerolog.Logger
	Service   *dashboard.Service
	Alerts    *alerts.Book
	Breaker   *resilience.Breaker
}

// NewRootCmd creates the root command for the CLI. Configuration, logging
// and the analysis service are built once the flags are parsed.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "maxpain",
		Short: "maxpain-pro - max pain and technical analysis dashboard",
		Long: `maxpain-pro estimates option max pain levels and combines them with RSI,
MACD, Bollinger Bands, chart patterns and fractal matching into a scored
trade setup per symbol.

All market data is synthetic. Use --seed for reproducible output.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/maxpain-pro)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("yaml", false, "output in YAML format")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Int64("seed", 0, "random seed (0 uses the configured seed or the clock)")
	rootCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	addCoreCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addScanCommands(rootCmd, app)
	addMonitoringCommands(rootCmd, app)

	return rootCmd
}

// init loads configuration and wires the analysis service.
func (app *App) init(cmd *cobra.Command) error {
	app.ConfigDir, _ = cmd.Flags().GetString("config")

	cfg, err := config.Load(app.ConfigDir)
	if err != nil {
		return err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Logging.Level = "debug"
	}
	if cmd.Flags().Changed("seed") {
		cfg.Market.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		cfg.UI.ColorEnabled = false
	}
	if !cfg.UI.ColorEnabled {
		_ = cmd.Flags().Set("no-color", "true")
	}
	app.Config = cfg

	lc := cfg.LogConfig()
	lc.Output = cmd.ErrOrStderr()
	app.Logger = logging.NewLoggerWithConfig(lc)

	var src rng.Source
	if cfg.Market.Seed != 0 {
		src = rng.New(cfg.Market.Seed)
	} else {
		src = rng.NewFromClock()
	}

	mock := market.NewMockQuoteProvider(src,
		market.WithLatency(cfg.Market.QuoteLatency),
		market.WithFailureRate(cfg.Market.FailureRate),
	)
	app.Breaker = resilience.NewBreaker("quotes", cfg.BreakerConfig(), resilience.WithLogger(app.Logger))
	quotes := resilience.Guard(mock, app.Breaker)
	app.Alerts = alerts.NewBook(cfg.Alerts.Capacity)
	app.Service = dashboard.NewService(cfg.DashboardConfig(), quotes, src,
		dashboard.WithEngine(indicators.NewEngine(cfg.IndicatorEngineConfig())),
		dashboard.WithDetector(patterns.NewDetector(cfg.PatternDetectorConfig(), src)),
		dashboard.WithAlerts(app.Alerts),
	)

	app.Logger.Debug().
		Int64("seed", cfg.Market.Seed).
		Str("config_dir", app.ConfigDir).
		Msg("Service initialized")
	return nil
}

// reportBreaker warns when the quote circuit refused or lost quotes during
// the command.
func (app *App) reportBreaker(output *Output) {
	s := app.Breaker.Stats()
	app.Logger.Debug().
		Str("breaker", app.Breaker.Name()).
		Str("state", string(s.State)).
		Int64("requests", s.TotalRequests).
		Int64("failures", s.TotalFailures).
		Int64("rejected", s.TotalRejected).
		Msg("Quote circuit stats")

	if output.IsStructured() || (s.State == resilience.StateClosed && s.TotalRejected == 0) {
		return
	}
	output.Warning("Circuit %s %s: %d rejected, %.0f%% of quotes failed",
		app.Breaker.Name(), s.State, s.TotalRejected, s.FailureRate())
}

// commandContext returns the command context carrying the application logger.
func (app *App) commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logging.WithLogger(ctx, app.Logger)
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsStructured() {
				return output.Render(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("maxpain-pro v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsStructured() {
				return output.Render(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := config.ConfigFile(app.ConfigDir)
			if output.IsStructured() {
				return output.Render(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsStructured() {
				return output.Render(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Market")
	output.Printf("  Seed:              %d\n", cfg.Market.Seed)
	output.Printf("  Volatility:        %.2f%%\n", cfg.Market.Volatility*100)
	output.Printf("  Series Length:     %d\n", cfg.Market.SeriesLength)
	output.Printf("  Expirations:       %d\n", cfg.Market.ExpirationCount)
	output.Printf("  Quote Latency:     %s\n", cfg.Market.QuoteLatency)
	output.Printf("  Failure Rate:      %.0f%%\n", cfg.Market.FailureRate*100)
	output.Printf("  Quote Breaker:     %d failures, %s cooldown\n", cfg.Market.BreakerFailures, cfg.Market.BreakerCooldown)
	output.Println()

	output.Bold("Indicators")
	output.Printf("  RSI Period:        %d\n", cfg.Indicators.RSIPeriod)
	output.Printf("  MACD:              %d/%d/%d (%s)\n", cfg.Indicators.MACDFast, cfg.Indicators.MACDSlow,
		cfg.Indicators.MACDSignal, cfg.Indicators.MACDMode)
	output.Printf("  Bollinger:         %d, %.1fσ\n", cfg.Indicators.BollingerPeriod, cfg.Indicators.BollingerStdDev)
	output.Println()

	output.Bold("Patterns")
	output.Printf("  Shoulder Tol:      %.1f%%\n", cfg.Patterns.ShoulderTolerance*100)
	output.Printf("  Double Bottom:     %d bars, %.1f%%\n", cfg.Patterns.DoubleBottomLookback, cfg.Patterns.DoubleBottomTolerance*100)
	output.Printf("  Uptrend:           %v\n", cfg.Patterns.EnableUptrend)
	output.Println()

	output.Bold("Fractals")
	output.Printf("  Series Length:     %d\n", cfg.Fractal.SeriesLength)
	output.Printf("  Window:            %d + %d, stride %d\n", cfg.Fractal.PatternLength, cfg.Fractal.ForwardWindow, cfg.Fractal.Stride)
	output.Println()

	output.Bold("Scanner & Alerts")
	output.Printf("  Scan Delay:        %s\n", cfg.Scanner.Delay)
	output.Printf("  Watchlist:         %s\n", strings.Join(cfg.Scanner.Watchlist, ", "))
	output.Printf("  Alert Threshold:   %.1f%%\n", cfg.Alerts.ThresholdPct)
	output.Printf("  Alert Capacity:    %d\n", cfg.Alerts.Capacity)
	output.Printf("  Watch Schedule:    %s\n", cfg.Watch.Schedule)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:             %s\n", cfg.Logging.Level)
	output.Printf("  File:              %v\n", cfg.Logging.File)
}

// symbolArg normalizes a symbol argument.
func symbolArg(args []string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(args[0]))
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}
	return symbol, nil
}
