package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"maxpain-pro/internal/alerts"
	"maxpain-pro/internal/dashboard"
	"maxpain-pro/internal/logging"
)

// addMonitoringCommands adds alert and watch commands.
func addMonitoringCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAlertsCmd(app))
	rootCmd.AddCommand(newWatchCmd(app))
}

// watchSymbols returns args upper-cased, or the configured watchlist.
func watchSymbols(app *App, args []string) []string {
	symbols := make([]string, 0, len(args))
	for _, a := range args {
		if s := strings.ToUpper(strings.TrimSpace(a)); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		symbols = app.Config.Scanner.Watchlist
	}
	return symbols
}

// sweep analyzes every symbol, recording alerts in the book. A failed
// symbol is logged and skipped; a cancelled context stops the sweep.
func sweep(ctx context.Context, app *App, symbols []string) ([]*dashboard.Report, error) {
	logger := logging.FromContext(ctx)
	reports := make([]*dashboard.Report, 0, len(symbols))
	for _, symbol := range symbols {
		r, err := app.Service.Analyze(ctx, symbol)
		if err != nil {
			if ctx.Err() != nil {
				return reports, ctx.Err()
			}
			logger.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol")
			continue
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func newAlertsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts [symbols...]",
		Short: "Sweep symbols and list max pain alerts",
		Long: `Analyze each symbol and list every alert raised, newest first. An alert is
raised when the weekly max pain is further from the price than the configured
threshold. Without arguments the configured watchlist is swept.`,
		Example: `  maxpain alerts
  maxpain alerts GME AMC --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbols := watchSymbols(app, args)

			if !output.IsStructured() {
				output.Info("Checking %d symbols (threshold %.1f%%)...", len(symbols), app.Config.Alerts.ThresholdPct)
			}

			if _, err := sweep(app.commandContext(cmd), app, symbols); err != nil {
				output.Error("Alert sweep failed: %v", err)
				return err
			}

			app.reportBreaker(output)
			list := app.Alerts.List()
			if output.IsStructured() {
				return output.Render(list)
			}
			printAlerts(output, list)
			return nil
		},
	}
}

func printAlerts(output *Output, list []alerts.Alert) {
	if len(list) == 0 {
		output.Success("✓ No alerts")
		return
	}
	table := NewTable(output, "Time", "Symbol", "Price", "Max Pain", "Delta", "Confidence", "Message")
	for _, a := range list {
		table.AddRow(
			a.CreatedAt.Format("15:04:05"),
			a.Symbol,
			FormatUSD(a.Price),
			FormatUSD(a.MaxPain),
			output.Signed(a.DeltaPct, FormatPercent(a.DeltaPct)),
			FormatConfidence(a.Confidence),
			a.Message,
		)
	}
	table.Render()
}

// watchTick is the structured record of one watch run.
type watchTick struct {
	Run     int            `json:"run" yaml:"run"`
	At      time.Time      `json:"at" yaml:"at"`
	Results []watchRow     `json:"results" yaml:"results"`
	Alerts  []alerts.Alert `json:"alerts" yaml:"alerts"`
}

type watchRow struct {
	Symbol    string  `json:"symbol" yaml:"symbol"`
	Price     float64 `json:"price" yaml:"price"`
	MaxPain   float64 `json:"max_pain" yaml:"max_pain"`
	Score     int     `json:"score" yaml:"score"`
	Direction string  `json:"direction" yaml:"direction"`
}

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [symbols...]",
		Short: "Re-analyze symbols on a cron schedule",
		Long: `Analyze the watchlist immediately and then on every tick of a standard
cron schedule, printing a summary line per symbol and every new alert.
Runs until interrupted or until --runs sweeps have completed.`,
		Example: `  maxpain watch
  maxpain watch AAPL TSLA --schedule "*/1 * * * *"
  maxpain watch --runs 3 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbols := watchSymbols(app, args)
			runs, _ := cmd.Flags().GetInt("runs")
			schedule, _ := cmd.Flags().GetString("schedule")
			if schedule == "" {
				schedule = app.Config.Watch.Schedule
			}

			ctx, stop := signal.NotifyContext(app.commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			logger := logging.FromContext(ctx)

			// Alerts raised during the current tick. Ticks never overlap.
			var fresh []alerts.Alert
			app.Alerts.AddHandler(func(a alerts.Alert) {
				fresh = append(fresh, a)
				if !output.IsStructured() {
					output.Warning("⚠ %s %s", a.Symbol, a.Message)
				}
			})

			var count atomic.Int32
			tick := func() {
				n := int(count.Add(1))
				if runs > 0 && n > runs {
					return
				}
				fresh = nil
				reports, err := sweep(ctx, app, symbols)
				if err != nil {
					return
				}
				printTick(output, n, reports, fresh)
				if runs > 0 && n >= runs {
					cancel()
				}
			}

			c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
			if _, err := c.AddFunc(schedule, tick); err != nil {
				output.Error("Invalid schedule %q: %v", schedule, err)
				return err
			}

			if !output.IsStructured() {
				output.Bold("Watching %s (%s)", strings.Join(symbols, ", "), schedule)
				output.Dim("Press Ctrl+C to stop")
			}
			logger.Info().Str("schedule", schedule).Int("symbols", len(symbols)).Int("runs", runs).Msg("Watch started")

			tick()
			if ctx.Err() == nil {
				c.Start()
				<-ctx.Done()
			}
			<-c.Stop().Done()

			completed := int(count.Load())
			if runs > 0 {
				completed = min(completed, runs)
			}
			app.reportBreaker(output)
			logger.Info().Int("runs", completed).Msg("Watch stopped")
			return nil
		},
	}

	cmd.Flags().String("schedule", "", "Cron schedule (default from config)")
	cmd.Flags().Int("runs", 0, "Stop after N sweeps (0 runs until interrupted)")
	return cmd
}

func printTick(output *Output, run int, reports []*dashboard.Report, fresh []alerts.Alert) {
	if output.IsStructured() {
		t := watchTick{Run: run, At: time.Now(), Alerts: fresh}
		for _, r := range reports {
			t.Results = append(t.Results, watchRow{
				Symbol:    r.Symbol,
				Price:     r.Quote.Price,
				MaxPain:   r.WeeklyMaxPain(),
				Score:     r.Analysis.Score,
				Direction: string(r.Analysis.Direction),
			})
		}
		_ = output.Render(t)
		return
	}

	output.Header("Run %d  %s", run, time.Now().Format("15:04:05"))
	table := NewTable(output, "Symbol", "Price", "Max Pain", "Score", "Direction", "Trend")
	for _, r := range reports {
		table.AddRow(
			r.Symbol,
			FormatUSD(r.Quote.Price),
			FormatUSD(r.WeeklyMaxPain()),
			fmt.Sprintf("%d", r.Analysis.Score),
			output.Direction(r.Analysis.Direction),
			Sparkline(r.Prices),
		)
	}
	table.Render()
}
