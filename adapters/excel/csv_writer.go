package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"scoregaps/domain/facts"
	"scoregaps/domain/fulltable"
)

// WriteCSV writes the full table as CSV with two-decimal numeric columns
func WriteCSV(w io.Writer, rows []fulltable.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(fulltable.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Cells()); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFacts writes the fact table as CSV at full precision, in table order.
// The output decodes back to the same table.
func WriteFacts(w io.Writer, table *facts.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FactHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	var werr error
	table.Each(func(_ int, r facts.FactRow) {
		if werr != nil {
			return
		}
		d := ""
		if r.CohensD != nil {
			d = formatFloat(*r.CohensD)
		}
		werr = cw.Write([]string{
			r.Variable, r.Subject, r.Jurisdiction, strconv.Itoa(r.Year), r.Grouping,
			formatFloat(r.Mean), formatFloat(r.SD), strconv.Itoa(r.N), d,
		})
	})
	if werr != nil {
		return fmt.Errorf("failed to write row: %w", werr)
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
