package hexpatch

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Moonlight-Companies/gologger/coloransi"

	"hexpatch/hexdump"
)

// WriteSummary renders the run totals followed by one row per replacement.
func (r *Report) WriteSummary(w io.Writer, color bool) error {
	mode := "committed"
	if !r.Committed {
		mode = "test, not written"
	}

	if _, err := fmt.Fprintf(w, "%s: %d directives, %d replacements, %d -> %d bytes, base %08X (%s)\n",
		r.Target, r.Directives, len(r.Replacements), r.BytesIn, r.BytesOut, uint64(r.BaseAddress), mode); err != nil {
		return err
	}

	if len(r.Replacements) == 0 {
		return nil
	}

	table := hexdump.NewTable(color,
		hexdump.ColumnSpec{Header: "Line", AlignRight: true, Color: coloransi.Cyan},
		hexdump.ColumnSpec{Header: "Offset", AlignRight: true, Color: coloransi.White},
		hexdump.ColumnSpec{Header: "Address", MinWidth: 8, Color: coloransi.Green},
	)
	for _, repl := range r.Replacements {
		table.AddRow(strconv.Itoa(repl.Line), strconv.Itoa(repl.Offset), fmt.Sprintf("%08X", uint64(repl.Address)))
	}
	return table.Render(w)
}
