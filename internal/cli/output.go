package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"maxpain-pro/internal/analysis"
)

// Format is the output encoding selected by the global flags.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	format       Format
	colorEnabled bool
}

// NewOutput creates a new Output instance from the command's flags.
func NewOutput(cmd *cobra.Command) *Output {
	format := FormatText
	if y, _ := cmd.Flags().GetBool("yaml"); y {
		format = FormatYAML
	}
	if j, _ := cmd.Flags().GetBool("json"); j {
		format = FormatJSON
	}
	w := cmd.OutOrStdout()
	noColor, _ := cmd.Flags().GetBool("no-color")
	return newOutput(w, format, format == FormatText && !noColor && isTerminal(w))
}

func newOutput(w io.Writer, format Format, colorEnabled bool) *Output {
	return &Output{writer: w, format: format, colorEnabled: colorEnabled}
}

// isTerminal checks if w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// IsStructured returns true when JSON or YAML output is selected.
func (o *Output) IsStructured() bool {
	return o.format != FormatText
}

// Render writes data as JSON or YAML according to the selected format.
func (o *Output) Render(data interface{}) error {
	if o.format == FormatYAML {
		return o.YAML(data)
	}
	return o.JSON(data)
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// YAML outputs data as YAML.
func (o *Output) YAML(data interface{}) error {
	encoder := yaml.NewEncoder(o.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.line(color.FgGreen, format, args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.line(color.FgRed, format, args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.line(color.FgYellow, format, args...)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.line(color.FgCyan, format, args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.line(color.Bold, format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.line(color.Faint, format, args...)
}

// Header prints a section header.
func (o *Output) Header(format string, args ...interface{}) {
	o.Println()
	o.line(color.FgCyan, format, args...)
}

func (o *Output) line(attr color.Attribute, format string, args ...interface{}) {
	fmt.Fprintln(o.writer, o.paint(attr, fmt.Sprintf(format, args...)))
}

// paint returns text wrapped in attr when color is enabled.
func (o *Output) paint(attr color.Attribute, text string) string {
	c := color.New(attr)
	if o.colorEnabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(text)
}

// Green returns green colored text.
func (o *Output) Green(text string) string {
	return o.paint(color.FgGreen, text)
}

// Red returns red colored text.
func (o *Output) Red(text string) string {
	return o.paint(color.FgRed, text)
}

// Yellow returns yellow colored text.
func (o *Output) Yellow(text string) string {
	return o.paint(color.FgYellow, text)
}

// Signed colors a value green when positive and red when negative.
func (o *Output) Signed(value float64, text string) string {
	switch {
	case value > 0:
		return o.Green(text)
	case value < 0:
		return o.Red(text)
	default:
		return text
	}
}

// Direction colors a verdict direction.
func (o *Output) Direction(d analysis.Direction) string {
	if d == analysis.Bullish {
		return o.Green(string(d))
	}
	return o.Red(string(d))
}

// Crossover colors a MACD crossover.
func (o *Output) Crossover(c analysis.Crossover) string {
	switch c {
	case analysis.CrossoverBullish:
		return o.Green(string(c))
	case analysis.CrossoverBearish:
		return o.Red(string(c))
	default:
		return o.Yellow(string(c))
	}
}

// Signal colors an RSI signal.
func (o *Output) Signal(s analysis.Signal) string {
	switch s {
	case analysis.SignalExtremeBuy, analysis.SignalStrongBuy, analysis.SignalBuy:
		return o.Green(string(s))
	case analysis.SignalExtremeSell, analysis.SignalStrongSell, analysis.SignalSell:
		return o.Red(string(s))
	default:
		return o.Yellow(string(s))
	}
}

// Quality colors a setup quality label.
func (o *Output) Quality(q analysis.Quality) string {
	switch q {
	case analysis.QualityExcellent, analysis.QualityGood:
		return o.Green(string(q))
	case analysis.QualityFair:
		return o.Yellow(string(q))
	default:
		return o.Red(string(q))
	}
}

// Table represents a simple table for output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		output:  output,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visibleLen(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], visibleLen(cell))
			}
		}
	}

	t.printRow(t.headers, widths, true)
	t.printSeparator(widths)
	for _, row := range t.rows {
		t.printRow(row, widths, false)
	}
}

func (t *Table) printRow(cells []string, widths []int, isHeader bool) {
	var parts []string
	for i, cell := range cells {
		if i < len(widths) {
			padded := cell + strings.Repeat(" ", max(widths[i]-visibleLen(cell), 0))
			if isHeader {
				padded = t.output.paint(color.Bold, padded)
			}
			parts = append(parts, padded)
		}
	}
	t.output.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

func (t *Table) printSeparator(widths []int) {
	var parts []string
	for _, w := range widths {
		parts = append(parts, strings.Repeat("─", w))
	}
	t.output.Println(t.output.paint(color.Faint, strings.Join(parts, "──")))
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripANSI removes ANSI escape codes from a string.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func visibleLen(s string) int {
	return len([]rune(stripANSI(s)))
}
