package cli

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"maxpain-pro/internal/alerts"
	"maxpain-pro/internal/analysis/scoring"
	"maxpain-pro/internal/config"
	"maxpain-pro/internal/dashboard"
	"maxpain-pro/internal/errors"
)

const testConfig = `[market]
quote_latency = "0s"

[scanner]
delay = "0s"
watchlist = ["AAPL", "TSLA", "GME"]

[logging]
level = "error"
`

// testDir returns a config directory holding a fast, quiet configuration.
func testDir(t *testing.T) string {
	t.Helper()
	t.Setenv(config.EnvSeed, "")
	os.Unsetenv(config.EnvSeed)
	t.Setenv(config.EnvLogLevel, "")
	os.Unsetenv(config.EnvLogLevel)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", dir, "--seed", "42", "--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func decode(t *testing.T, out string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
}

func TestVersion(t *testing.T) {
	dir := testDir(t)

	var got map[string]string
	decode(t, mustRun(t, dir, "--json", "version"), &got)
	if got["version"] != Version {
		t.Errorf("version = %q, want %q", got["version"], Version)
	}

	if out := mustRun(t, dir, "version"); !strings.Contains(out, "maxpain-pro v"+Version) {
		t.Errorf("text version = %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	dir := testDir(t)

	if out := mustRun(t, dir, "config", "path"); strings.TrimSpace(out) != filepath.Join(dir, "config.toml") {
		t.Errorf("config path = %q", out)
	}
	if out := mustRun(t, dir, "config", "validate"); !strings.Contains(out, "Configuration is valid") {
		t.Errorf("config validate = %q", out)
	}

	var cfg config.Config
	decode(t, mustRun(t, dir, "--json", "config", "show"), &cfg)
	if cfg.Market.Seed != 42 {
		t.Errorf("seed = %d, want the --seed flag value", cfg.Market.Seed)
	}
	if len(cfg.Scanner.Watchlist) != 3 {
		t.Errorf("watchlist = %v", cfg.Scanner.Watchlist)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	dir := testDir(t)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[market]\nvolatility = -1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, dir, "version")
	if !errors.Is(err, errors.ErrConfigInvalid) {
		t.Fatalf("err = %v, want ErrConfigInvalid", err)
	}
}

func TestAnalyze(t *testing.T) {
	dir := testDir(t)

	var first, second dashboard.Report
	decode(t, mustRun(t, dir, "--json", "analyze", "aapl"), &first)
	decode(t, mustRun(t, dir, "--json", "analyze", "AAPL"), &second)

	if first.Symbol != "AAPL" {
		t.Errorf("symbol = %q", first.Symbol)
	}
	if len(first.Prices) != 50 || len(first.Expirations) != 12 {
		t.Errorf("prices %d, expirations %d", len(first.Prices), len(first.Expirations))
	}
	if first.Analysis.Score < 0 || first.Analysis.Score > 100 {
		t.Errorf("score = %d", first.Analysis.Score)
	}
	if !reflect.DeepEqual(first.Analysis, second.Analysis) || !reflect.DeepEqual(first.Prices, second.Prices) {
		t.Error("same seed produced different analyses")
	}

	out := mustRun(t, dir, "analyze", "AAPL")
	for _, want := range []string{"AAPL", "Score:", "Max Pain:", "RSI(14):", "Patterns"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q", want)
		}
	}
}

func TestAnalyzeRequiresSymbol(t *testing.T) {
	if _, err := run(t, testDir(t), "analyze"); err == nil {
		t.Error("expected an error without a symbol")
	}
}

func TestScan(t *testing.T) {
	dir := testDir(t)

	var report scoring.ScanReport
	decode(t, mustRun(t, dir, "--json", "scan"), &report)
	if report.Requested != 3 || len(report.Results) != 3 {
		t.Fatalf("requested %d, results %d", report.Requested, len(report.Results))
	}
	for i := 1; i < len(report.Results); i++ {
		if report.Results[i].Score > report.Results[i-1].Score {
			t.Errorf("results not sorted by score: %+v", report.Results)
		}
	}

	decode(t, mustRun(t, dir, "--json", "scan", "NVDA", "SPY", "QQQ", "--top", "2"), &report)
	if report.Requested != 3 || len(report.Results) != 2 {
		t.Errorf("top 2: requested %d, results %d", report.Requested, len(report.Results))
	}

	if out := mustRun(t, dir, "scan", "AAPL"); !strings.Contains(out, "Scan ") || !strings.Contains(out, "AAPL") {
		t.Errorf("text scan = %q", out)
	}
}

func TestScanWithFailingFeedOpensCircuit(t *testing.T) {
	dir := testDir(t)
	flaky := strings.Replace(testConfig, "[market]\n", "[market]\nfailure_rate = 0.999\nbreaker_failures = 2\n", 1)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(flaky), 0644); err != nil {
		t.Fatal(err)
	}

	var report scoring.ScanReport
	decode(t, mustRun(t, dir, "--json", "scan"), &report)
	if report.Requested != 3 || len(report.Results) >= 3 {
		t.Errorf("requested %d, results %d", report.Requested, len(report.Results))
	}

	out := mustRun(t, dir, "scan")
	if !strings.Contains(out, "Circuit quotes OPEN") || !strings.Contains(out, "rejected") {
		t.Errorf("text scan missing circuit warning: %q", out)
	}
}

func TestMaxPainAndChart(t *testing.T) {
	dir := testDir(t)

	var mp dashboard.MaxPainReport
	decode(t, mustRun(t, dir, "--json", "maxpain", "SPY"), &mp)
	if len(mp.Expirations) != 12 || len(mp.Curve) != 12 {
		t.Errorf("expirations %d, curve %d", len(mp.Expirations), len(mp.Curve))
	}

	var chart dashboard.ChartData
	decode(t, mustRun(t, dir, "--json", "chart", "QQQ"), &chart)
	if len(chart.Labels) != dashboard.DefaultChartSeriesLength || chart.Labels[0] != "T-50" {
		t.Errorf("labels = %v", chart.Labels)
	}
	for _, v := range chart.MaxPain {
		if v != chart.MaxPain[0] {
			t.Fatalf("max pain line not flat: %v", chart.MaxPain)
		}
	}

	out := mustRun(t, dir, "chart", "QQQ")
	if !strings.Contains(out, "T-1") || !strings.Contains(out, "Max Pain:") {
		t.Errorf("text chart = %q", out)
	}
}

func TestFractalsAndMTF(t *testing.T) {
	dir := testDir(t)

	var fr dashboard.FractalReport
	decode(t, mustRun(t, dir, "--json", "fractals", "NVDA"), &fr)
	if len(fr.Result.Fractals) != 37 {
		t.Errorf("fractals = %d, want 37", len(fr.Result.Fractals))
	}

	var mr dashboard.MTFReport
	decode(t, mustRun(t, dir, "--json", "mtf", "AAPL"), &mr)
	if len(mr.Result.Timeframes) != 5 {
		t.Errorf("timeframes = %d, want 5", len(mr.Result.Timeframes))
	}
}

func TestAlerts(t *testing.T) {
	dir := testDir(t)

	var list []alerts.Alert
	decode(t, mustRun(t, dir, "--json", "alerts", "AAPL", "TSLA", "GME", "SPY"), &list)
	for _, a := range list {
		if math.Abs(a.DeltaPct) <= alerts.DefaultThresholdPct {
			t.Errorf("alert %s below threshold: %.2f%%", a.Symbol, a.DeltaPct)
		}
		if a.ID == "" || a.Message == "" {
			t.Errorf("incomplete alert: %+v", a)
		}
	}

	if out := mustRun(t, dir, "alerts", "AAPL"); out == "" {
		t.Error("empty text output")
	}
}

func TestWatchRunsOnce(t *testing.T) {
	dir := testDir(t)

	var tick watchTick
	decode(t, mustRun(t, dir, "--json", "watch", "--runs", "1", "AAPL", "TSLA"), &tick)
	if tick.Run != 1 || len(tick.Results) != 2 {
		t.Errorf("tick = %+v", tick)
	}
	if tick.Results[0].Symbol != "AAPL" || tick.Results[1].Symbol != "TSLA" {
		t.Errorf("symbols out of order: %+v", tick.Results)
	}
}

func TestWatchInvalidSchedule(t *testing.T) {
	if _, err := run(t, testDir(t), "watch", "--runs", "1", "--schedule", "not a schedule"); err == nil {
		t.Error("expected an error for an invalid schedule")
	}
}
