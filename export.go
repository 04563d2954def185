package vgrid

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ExportOptions controls delimited export.
type ExportOptions struct {
	Delimiter rune // zero means ','
	Header    bool // write the column headers first
	Formatted bool // use each column's formatter instead of the raw value
}

// ExportDelimited writes one record per leaf row and one field per column.
// Group rows are skipped and missing values are written as empty fields.
func ExportDelimited[T any](w io.Writer, rows []*Row[T], cols []*Column[T], opts ExportOptions) error {
	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}

	record := make([]string, len(cols))
	if opts.Header {
		for i, c := range cols {
			record[i] = c.Header
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, r := range rows {
		if r.IsGroup() {
			continue
		}
		for i, c := range cols {
			v, ok := r.Value(c.ID)
			switch {
			case !ok:
				record[i] = ""
			case opts.Formatted:
				record[i] = c.FormatValue(v, true)
			default:
				record[i] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
