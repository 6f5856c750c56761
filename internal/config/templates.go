package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# maxpain-pro configuration

[market]
# Random seed for every synthetic value; 0 seeds from the clock
seed = 0
# Maximum relative step between consecutive generated prices, in [0, 1)
volatility = 0.05
# Points in the price history generated per analysis
series_length = 50
# Weekly expirations in the max pain curve
expiration_count = 12
# Simulated quote latency
quote_latency = "400ms"
# Share of quotes that fail as if the feed were down, in [0, 1)
failure_rate = 0.0
# Consecutive quote failures before quotes are refused for breaker_cooldown
breaker_failures = 5
breaker_cooldown = "30s"

[indicators]
rsi_period = 14
macd_fast = 12
macd_slow = 26
macd_signal = 9
# MACD crossover mode: "sign" or "signal_line"
macd_mode = "sign"
bollinger_period = 20
bollinger_stddev = 2.0

[patterns]
# Maximum relative gap between head and shoulders peaks
shoulder_tolerance = 0.03
# Trailing points searched for a double bottom
double_bottom_lookback = 10
# Maximum relative gap between the two lows
double_bottom_tolerance = 0.02
enable_uptrend = true

[fractal]
series_length = 200
pattern_length = 10
forward_window = 10
stride = 5

[scanner]
# Pause between symbols
delay = "200ms"
watchlist = ["AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META", "GME", "SPY", "QQQ"]

[alerts]
# Alert when weekly max pain is further than this from the price (percent)
threshold_pct = 3.0
# Alerts kept, newest first
capacity = 20

[watch]
# Standard cron expression for the watch command
schedule = "*/5 * * * *"

[logging]
# debug, info, warn, error
level = "info"
# Also write a rotating log file
file = false
file_path = ""

[ui]
color_enabled = true
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
