package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/dmitrijs2005/mineralog/internal/records"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	labelColor   = color.New(color.FgCyan)
)

// initColor turns colour off when asked to or when out is not a terminal.
func initColor(noColor bool, out io.Writer) {
	if noColor || !isTTY(out) {
		color.NoColor = true
	}
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *App) printError(err error) {
	errorColor.Fprint(a.errOut, "error: ")
	fmt.Fprintln(a.errOut, err)

	var rowErr *records.RowError
	if errors.As(err, &rowErr) && rowErr.Column != "" {
		fmt.Fprintf(a.errOut, "  line %d, column %q, value %q\n", rowErr.Line, rowErr.Column, rowErr.Value)
	}
}

func (a *App) printWarn(format string, args ...any) {
	warnColor.Fprint(a.errOut, "warning: ")
	fmt.Fprintf(a.errOut, format+"\n", args...)
}

func (a *App) printField(label string, value any) {
	labelColor.Fprintf(a.out, "  %-14s", label+":")
	fmt.Fprintln(a.out, value)
}

// Member statuses shown by verify.
const (
	statusOK       = "ok"
	statusListing  = "listing"
	statusUnlisted = "unlisted"
	statusMismatch = "MISMATCH"
)

// newTable returns a rounded table with headers and the given column configs.
// Callers append rows and an optional footer, then Render.
func newTable(headers []string, configs ...table.ColumnConfig) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)
	return tw
}

// rightAligned is the config of a numeric column; number is 1-based.
func rightAligned(number int) table.ColumnConfig {
	return table.ColumnConfig{
		Number:      number,
		Align:       text.AlignRight,
		AlignHeader: text.AlignLeft,
		AlignFooter: text.AlignRight,
	}
}

// colorStatus paints a member status; it is a no-op when colour is off.
func colorStatus(val any) string {
	s := fmt.Sprint(val)
	switch s {
	case statusOK:
		return successColor.Sprint(s)
	case statusUnlisted:
		return warnColor.Sprint(s)
	case statusMismatch:
		return errorColor.Sprint(s)
	}
	return s
}
