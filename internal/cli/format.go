package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// fatih/color turns these into no-ops when stdout is not a terminal, so
// output captured by tests and pipes stays plain.
var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	valueColor   = color.New(color.FgHiBlack)
	dimColor     = color.New(color.FgHiBlack)
)

// printer writes human-readable command output to a command's streams.
type printer struct {
	out io.Writer
	err io.Writer
}

func newPrinter(cmd *cobra.Command) *printer {
	return &printer{out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()}
}

// section prints a header surrounded by blank lines.
func (p *printer) section(title string) {
	_, _ = fmt.Fprintln(p.out)
	_, _ = headerColor.Fprintf(p.out, "▸ %s\n", title)
	_, _ = fmt.Fprintln(p.out)
}

func (p *printer) subsection(title string) {
	_, _ = infoColor.Fprintf(p.out, "  %s\n", title)
}

func (p *printer) success(format string, args ...any) {
	_, _ = successColor.Fprintf(p.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

func (p *printer) warning(format string, args ...any) {
	_, _ = warningColor.Fprintf(p.out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// errorf writes to the error stream.
func (p *printer) errorf(format string, args ...any) {
	_, _ = errorColor.Fprintf(p.err, "✗ %s\n", fmt.Sprintf(format, args...))
}

func (p *printer) line(s string) {
	_, _ = fmt.Fprintln(p.out, s)
}

func (p *printer) blank() {
	_, _ = fmt.Fprintln(p.out)
}

func (p *printer) labelValue(label, value string) {
	_, _ = labelColor.Fprintf(p.out, "  %s: ", label)
	_, _ = valueColor.Fprintln(p.out, value)
}

// list prints bulleted items one level in.
func (p *printer) list(items []string) {
	for _, item := range items {
		_, _ = infoColor.Fprintf(p.out, "  • %s\n", item)
	}
}

func (p *printer) empty(msg string) {
	_, _ = dimColor.Fprintf(p.out, "  %s\n", msg)
}

// table prints rows under headers with columns padded to the widest cell.
// Cells beyond the header count are dropped.
func (p *printer) table(headers []string, rows [][]string) {
	if len(headers) == 0 || len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string, clr *color.Color) {
		var b strings.Builder
		b.WriteString("  ")
		for i := range widths {
			if i > 0 {
				b.WriteString("  ")
			}
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(clr.Sprintf("%-*s", widths[i], cell))
		}
		_, _ = fmt.Fprintln(p.out, strings.TrimRight(b.String(), " "))
	}

	writeRow(headers, headerColor)
	rules := make([]string, len(widths))
	for i, w := range widths {
		rules[i] = strings.Repeat("-", w)
	}
	writeRow(rules, dimColor)
	for _, row := range rows {
		writeRow(row, valueColor)
	}
}

// json writes v as indented JSON.
func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// plural returns "1 layer" or "3 layers".
func plural(count int, singular, pluralForm string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, pluralForm)
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}
