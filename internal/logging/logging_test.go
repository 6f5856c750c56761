package logging

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" INFO ":  zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerWithConfig_ConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultLogConfig()
	cfg.Output = &buf
	cfg.Level = "warn"

	logger := NewLoggerWithConfig(cfg)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("console output = %q", out)
	}
}

func TestNewLoggerWithConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "maxpain.log")
	cfg := LogConfig{Level: "info", File: true, FilePath: path, MaxSize: 1}

	logger := NewLoggerWithConfig(cfg)
	logger.Info().Str("symbol", "AAPL").Msg("written")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"symbol":"AAPL"`) {
		t.Errorf("log file = %s", data)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&buf))

	logger := FromContext(ctx)
	logger.Info().Msg("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("context logger not used: %q", buf.String())
	}

	// No logger in context: must not panic and must write nothing.
	nop := FromContext(context.Background())
	nop.Info().Msg("dropped")
}

func TestEventHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := WithOperation(zerolog.New(&buf), "scan")

	LogAnalysis(logger, "TSLA", 88, 79, "BULLISH")
	LogAlert(logger, "id-1", "TSLA", "Max pain 4.00% above price", 4)
	LogScan(logger, "scan-1", 10, 9, 2*time.Second)
	LogQuote(logger, "TSLA", time.Millisecond, errors.New("boom"))

	out := buf.String()
	for _, want := range []string{
		`"operation":"scan"`,
		`"event":"analysis"`, `"score":88`,
		`"event":"alert"`, `"alert_id":"id-1"`,
		`"event":"scan"`, `"scanned":9`,
		`"event":"quote"`, `"error":"boom"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s", want)
		}
	}
}
