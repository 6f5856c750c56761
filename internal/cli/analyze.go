package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"maxpain-pro/internal/analysis"
	"maxpain-pro/internal/dashboard"
	"maxpain-pro/internal/market"
)

// addAnalysisCommands adds per-symbol analysis commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newMaxPainCmd(app))
	rootCmd.AddCommand(newFractalsCmd(app))
	rootCmd.AddCommand(newMTFCmd(app))
	rootCmd.AddCommand(newChartCmd(app))
}

func newAnalyzeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Full max pain and technical analysis for a symbol",
		Long: `Fetch a quote, generate a price history and score the setup from:
- Distance to the weekly max pain
- RSI, MACD and Bollinger Bands
- Chart patterns (head & shoulders, double bottom, uptrend continuation)

An alert is recorded when max pain sits beyond the configured threshold.`,
		Example: `  maxpain analyze AAPL
  maxpain analyze TSLA --seed 42 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol, err := symbolArg(args)
			if err != nil {
				return err
			}

			report, err := app.Service.Analyze(app.commandContext(cmd), symbol)
			if err != nil {
				output.Error("Analysis failed: %v", err)
				return err
			}

			if output.IsStructured() {
				return output.Render(report)
			}
			printReport(output, report)
			return nil
		},
	}
}

func printReport(output *Output, r *dashboard.Report) {
	q := r.Quote
	output.Bold("%s  %s  %s", r.Symbol, FormatUSD(q.Price), output.Signed(q.Change, FormatChange(q.Change, q.ChangePct)))
	output.Dim("Source: %s  Volume: %s  Range: %.2f - %.2f", q.Source, FormatVolume(q.Volume), q.Low, q.High)

	a := r.Analysis
	output.Header("Setup")
	output.Printf("  Score:       %d/100 (%s)\n", a.Score, output.Quality(a.Quality))
	output.Printf("  Direction:   %s\n", output.Direction(a.Direction))
	output.Printf("  Confidence:  %s\n", FormatConfidence(a.Confidence))
	output.Printf("  Max Pain:    %s (%s)\n", FormatUSD(r.WeeklyMaxPain()), output.Signed(a.Delta, FormatPercent(a.Delta*100)))
	output.Printf("  Entry:       %s\n", FormatUSD(a.Entry))
	output.Printf("  Targets:     %s / %s / %s\n", FormatUSD(a.Targets[0]), FormatUSD(a.Targets[1]), FormatUSD(a.Targets[2]))
	output.Printf("  Stop:        %s\n", FormatUSD(a.Stop))
	output.Printf("  Risk/Reward: %s\n", a.RiskReward)
	output.Printf("  Rationale:   %s\n", a.Rationale)

	ind := r.Indicators
	output.Header("Indicators")
	output.Printf("  RSI(14):     %.1f %s\n", ind.RSI.Value, output.Signal(ind.RSI.Signal))
	output.Printf("  MACD:        %.4f signal %.4f hist %.4f %s\n", ind.MACD.MACD, ind.MACD.Signal, ind.MACD.Histogram, output.Crossover(ind.MACD.Crossover))
	output.Printf("  Bollinger:   %.2f / %.2f / %.2f  width %.2f%%  %s\n",
		ind.Bollinger.Lower, ind.Bollinger.Middle, ind.Bollinger.Upper, ind.Bollinger.BandwidthPct, ind.Bollinger.Position)
	output.Printf("  Trend:       %s\n", Sparkline(r.Prices))

	output.Header("Patterns")
	if len(r.Patterns) == 0 {
		output.Dim("  No patterns detected")
	}
	for _, p := range r.Patterns {
		name := p.Name
		if p.Type == analysis.PatternBullish {
			name = output.Green(name)
		} else {
			name = output.Red(name)
		}
		output.Printf("  %s  %.0f%%  target %s  stop %s\n", name, p.Confidence, FormatUSD(p.TargetPrice), FormatUSD(p.StopPrice))
		output.Dim("    %s", p.Description)
	}

	if r.Alert != nil {
		output.Println()
		output.Warning("⚠ %s", r.Alert.Message)
	}
}

func newMaxPainCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "maxpain <symbol>",
		Short:   "Max pain estimates across weekly expirations",
		Example: `  maxpain maxpain SPY`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol, err := symbolArg(args)
			if err != nil {
				return err
			}

			r, err := app.Service.MaxPain(app.commandContext(cmd), symbol)
			if err != nil {
				output.Error("Max pain failed: %v", err)
				return err
			}

			if output.IsStructured() {
				return output.Render(r)
			}

			output.Bold("%s  %s", r.Symbol, FormatUSD(r.Price))
			table := NewTable(output, "Expiration", "Date", "Max Pain", "Delta")
			for _, e := range r.Expirations {
				mp := r.Curve[e.Key]
				delta := (mp - r.Price) / r.Price * 100
				table.AddRow(e.Label, FormatDate(e.Date), FormatUSD(mp), output.Signed(delta, FormatPercent(delta)))
			}
			table.Render()
			return nil
		},
	}
}

func newFractalsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fractals <symbol>",
		Short: "Match the latest price window against historical fractals",
		Long: `Generate a long price history, slice it into fixed-length windows with
their forward outcomes, and rank them by similarity to the latest window.`,
		Example: `  maxpain fractals NVDA
  maxpain fractals NVDA --top 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol, err := symbolArg(args)
			if err != nil {
				return err
			}
			top, _ := cmd.Flags().GetInt("top")

			r, err := app.Service.Fractals(app.commandContext(cmd), symbol)
			if err != nil {
				output.Error("Fractal analysis failed: %v", err)
				return err
			}

			if output.IsStructured() {
				return output.Render(r)
			}

			output.Bold("%s  %s  %d fractals", r.Symbol, FormatUSD(r.Price), len(r.Result.Fractals))
			output.Printf("  Current: %s\n", Sparkline(r.Result.Current))

			best, err := r.Result.Best()
			if err != nil {
				output.Warning("Not enough history for a fractal match")
				return nil
			}
			output.Printf("  Best:    %.1f%% similar, predicted move %s, confidence %d%%\n",
				best.Similarity, output.Signed(best.PredictedMovePct, FormatPercent(best.PredictedMovePct)), best.Confidence)

			table := NewTable(output, "#", "Similarity", "Outcome", "Age", "Shape")
			for i, m := range r.Result.Matches {
				if i >= top {
					break
				}
				table.AddRow(
					fmt.Sprintf("%d", i+1),
					fmt.Sprintf("%.1f%%", m.Similarity),
					output.Signed(m.OutcomePct, FormatPercent(m.OutcomePct)),
					fmt.Sprintf("%d", m.Age),
					Sparkline(m.Pattern),
				)
			}
			output.Println()
			table.Render()
			return nil
		},
	}

	cmd.Flags().Int("top", 5, "Number of matches to show")
	return cmd
}

func newMTFCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "mtf <symbol>",
		Short:   "Multi-timeframe RSI and MACD view",
		Example: `  maxpain mtf AAPL`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol, err := symbolArg(args)
			if err != nil {
				return err
			}

			r, err := app.Service.MultiTimeframe(app.commandContext(cmd), symbol)
			if err != nil {
				output.Error("Multi-timeframe analysis failed: %v", err)
				return err
			}

			if output.IsStructured() {
				return output.Render(r)
			}

			output.Bold("%s  %s", r.Symbol, FormatUSD(r.Price))
			table := NewTable(output, "Timeframe", "Points", "RSI", "Signal", "MACD")
			for _, tf := range r.Result.Timeframes {
				table.AddRow(
					string(tf.Timeframe),
					fmt.Sprintf("%d", tf.Points),
					fmt.Sprintf("%.1f", tf.RSI.Value),
					output.Signal(tf.RSI.Signal),
					output.Crossover(tf.MACD.Crossover),
				)
			}
			table.Render()

			res := r.Result
			output.Println()
			output.Printf("  Oversold: %d/%d  Overbought: %d/%d  Confluence: %s\n",
				res.OversoldCount, len(res.Timeframes), res.OverboughtCount, len(res.Timeframes), res.Confluence)
			if res.StrongSignal {
				output.Success("✓ Strong oversold alignment across timeframes")
			}
			if res.StrongBearishSignal {
				output.Warning("⚠ Strong overbought alignment across timeframes")
			}
			return nil
		},
	}
}

// recentBars is the number of newest chart points listed under the sparkline.
const recentBars = 5

func reverseStrings(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

func newChartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "chart <symbol>",
		Short:   "Price line against the weekly max pain",
		Example: `  maxpain chart QQQ --json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol, err := symbolArg(args)
			if err != nil {
				return err
			}

			c, err := app.Service.Chart(app.commandContext(cmd), symbol)
			if err != nil {
				output.Error("Chart failed: %v", err)
				return err
			}

			if output.IsStructured() {
				return output.Render(c)
			}

			last := c.Prices[len(c.Prices)-1]
			mp := c.MaxPain[0]
			output.Bold("%s  %s", c.Symbol, FormatUSD(last))
			output.Printf("  %s  %s\n", c.Labels[0], c.Labels[len(c.Labels)-1])
			output.Printf("  %s\n", Sparkline(c.Prices))
			delta := (mp - last) / last * 100
			output.Printf("  Max Pain: %s (%s)\n", FormatUSD(mp), output.Signed(delta, FormatPercent(delta)))

			// Most recent points, newest first.
			labels := reverseStrings(c.Labels)
			table := NewTable(output, "Bar", "Price", "vs Max Pain")
			for i, p := range market.Reverse(c.Prices) {
				if i >= recentBars {
					break
				}
				d := (p - mp) / mp * 100
				table.AddRow(labels[i], FormatPrice(p), output.Signed(d, FormatPercent(d)))
			}
			output.Println()
			table.Render()
			return nil
		},
	}
}
