package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"maxpain-pro/internal/analysis/scoring"
)

// addScanCommands adds batch scanning commands.
func addScanCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newScanCmd(app))
}

func newScanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [symbols...]",
		Short: "Rank symbols by max pain opportunity",
		Long: `Scan symbols one at a time and rank them by a quick score built from the
max pain distance, RSI extremes and the MACD crossover. Without arguments the
configured watchlist is scanned.`,
		Example: `  maxpain scan
  maxpain scan AAPL TSLA NVDA --top 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			top, _ := cmd.Flags().GetInt("top")

			symbols := make([]string, 0, len(args))
			for _, a := range args {
				symbols = append(symbols, strings.ToUpper(strings.TrimSpace(a)))
			}
			if len(symbols) == 0 {
				symbols = app.Config.Scanner.Watchlist
			}

			if !output.IsStructured() {
				output.Info("Scanning %d symbols...", len(symbols))
			}

			report, err := app.Service.Scan(app.commandContext(cmd), symbols)
			if err != nil {
				output.Error("Scan failed: %v", err)
				return err
			}

			if top > 0 && len(report.Results) > top {
				report.Results = report.Results[:top]
			}

			app.reportBreaker(output)
			if output.IsStructured() {
				return output.Render(report)
			}
			printScan(output, report)
			return nil
		},
	}

	cmd.Flags().Int("top", 0, "Show only the top N results (0 shows all)")
	return cmd
}

func printScan(output *Output, report *scoring.ScanReport) {
	table := NewTable(output, "#", "Symbol", "Price", "Max Pain", "Delta", "RSI", "MACD", "Score", "Direction")
	for i, r := range report.Results {
		table.AddRow(
			fmt.Sprintf("%d", i+1),
			r.Symbol,
			FormatUSD(r.Price),
			FormatUSD(r.MaxPain),
			output.Signed(r.DeltaPct, FormatPercent(r.DeltaPct)),
			fmt.Sprintf("%.1f", r.RSI),
			output.Crossover(r.Crossover),
			fmt.Sprintf("%d", r.Score),
			output.Direction(r.Direction),
		)
	}
	table.Render()
	output.Println()
	output.Dim("Scan %s: %d/%d symbols in %s", report.ID[:8], len(report.Results), report.Requested, FormatDuration(report.Duration))
}
