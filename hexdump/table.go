package hexdump

import (
	"fmt"
	"io"
	"strings"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

// ColumnSpec defines a column's properties
type ColumnSpec struct {
	Header     string
	BlankValue string              // Value to show for empty cells (default: "-")
	Color      coloransi.ColorCode // Foreground of the cells when the table is colored
	MinWidth   int                 // Minimum column width
	AlignRight bool
}

// Table is a plain text table with a header line.
type Table struct {
	columns []ColumnSpec
	rows    [][]string
	widths  []int
	paint   painter
}

// NewTable creates a new table with the given column specifications
func NewTable(color bool, cols ...ColumnSpec) *Table {
	t := &Table{
		columns: cols,
		widths:  make([]int, len(cols)),
		paint:   painter(color),
	}

	for i, col := range cols {
		t.widths[i] = max(col.MinWidth, len(col.Header))
		if t.columns[i].BlankValue == "" {
			t.columns[i].BlankValue = "-"
		}
	}

	return t
}

// AddRow adds a row; missing or empty cells show the column's BlankValue.
func (t *Table) AddRow(data ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(data) && data[i] != "" {
			row[i] = data[i]
		} else {
			row[i] = t.columns[i].BlankValue
		}

		if len(row[i]) > t.widths[i] {
			t.widths[i] = len(row[i])
		}
	}

	t.rows = append(t.rows, row)
}

// Render writes the table to the given writer
func (t *Table) Render(w io.Writer) error {
	headers := make([]string, len(t.columns))
	sep := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = t.pad(col.Header, i)
		sep[i] = strings.Repeat("-", t.widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(headers, " "), " ")); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Join(sep, " ")); err != nil {
		return err
	}

	for _, row := range t.rows {
		formatted := make([]string, len(row))
		for i, val := range row {
			formatted[i] = t.paint.fg(t.columns[i].Color, t.pad(val, i))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(formatted, " "), " ")); err != nil {
			return err
		}
	}

	return nil
}

// pad pads s to the width of column i
func (t *Table) pad(s string, i int) string {
	if len(s) >= t.widths[i] {
		return s
	}
	fill := strings.Repeat(" ", t.widths[i]-len(s))
	if t.columns[i].AlignRight {
		return fill + s
	}
	return s + fill
}
