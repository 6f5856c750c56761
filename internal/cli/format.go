package cli

import (
	"fmt"
	"strings"
	"time"
)

// FormatUSD formats an amount as dollars with thousands separators.
func FormatUSD(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")

	result := "$" + groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts a comma every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatCompact formats a dollar amount in compact form (K/M/B).
func FormatCompact(amount float64) string {
	abs := amount
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", amount/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.2fM", amount/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("$%.2fK", amount/1e3)
	}
	return FormatUSD(amount)
}

// FormatVolume formats volume in compact form.
func FormatVolume(volume int64) string {
	switch {
	case volume >= 1e9:
		return fmt.Sprintf("%.2fB", float64(volume)/1e9)
	case volume >= 1e6:
		return fmt.Sprintf("%.2fM", float64(volume)/1e6)
	case volume >= 1e3:
		return fmt.Sprintf("%.2fK", float64(volume)/1e3)
	}
	return fmt.Sprintf("%d", volume)
}

// FormatPrice formats a price, keeping four decimals for sub-dollar prices.
func FormatPrice(price float64) string {
	if price < 1 && price > -1 && price != 0 {
		return fmt.Sprintf("%.4f", price)
	}
	return fmt.Sprintf("%.2f", price)
}

// FormatDate formats an expiration date.
func FormatDate(t time.Time) string {
	return t.Format("Mon Jan 2, 2006")
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatConfidence formats a confidence percentage.
func FormatConfidence(conf int) string {
	return fmt.Sprintf("%d%%", conf)
}

// FormatChange formats a price change.
func FormatChange(change, changePct float64) string {
	sign := ""
	if change > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f (%s%.2f%%)", sign, change, sign, changePct)
}

// Sparkline renders prices as a one-line block chart.
func Sparkline(prices []float64) string {
	if len(prices) == 0 {
		return ""
	}
	blocks := []rune("▁▂▃▄▅▆▇█")

	lo, hi := prices[0], prices[0]
	for _, p := range prices {
		lo = min(lo, p)
		hi = max(hi, p)
	}

	out := make([]rune, len(prices))
	for i, p := range prices {
		idx := 0
		if hi > lo {
			idx = int((p - lo) / (hi - lo) * float64(len(blocks)-1))
		}
		out[i] = blocks[idx]
	}
	return string(out)
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
