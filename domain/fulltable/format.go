// Package fulltable renders the flat, non-pivoted export of the filtered facts.
package fulltable

import (
	"sort"
	"strconv"

	"scoregaps/domain/facts"
)

// Columns is the fixed export header
var Columns = []string{"Variable", "Subject", "Jurisdiction", "Year", "Grouping", "Mean", "SD", "N", "Cohen's d"}

// Row is the display form of one fact. Source is the untouched original.
type Row struct {
	Variable     string `json:"variable"`
	Subject      string `json:"subject"`
	Jurisdiction string `json:"jurisdiction"`
	Year         string `json:"year"`
	Grouping     string `json:"grouping"`
	Mean         string `json:"mean"`
	SD           string `json:"sd"`
	N            string `json:"n"`
	CohensD      string `json:"cohens_d"`

	Source facts.FactRow `json:"-"`
}

// Cells returns the display values in Columns order
func (r Row) Cells() []string {
	return []string{r.Variable, r.Subject, r.Jurisdiction, r.Year, r.Grouping, r.Mean, r.SD, r.N, r.CohensD}
}

// Format sorts by (Variable, Jurisdiction, Year, Grouping) and renders each row.
// Ties keep table order.
func Format(table *facts.Table) []Row {
	rows := table.Rows()
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Variable != b.Variable {
			return a.Variable < b.Variable
		}
		if a.Jurisdiction != b.Jurisdiction {
			return a.Jurisdiction < b.Jurisdiction
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Grouping < b.Grouping
	})

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, Row{
			Variable:     r.Variable,
			Subject:      r.Subject,
			Jurisdiction: r.Jurisdiction,
			Year:         strconv.Itoa(r.Year),
			Grouping:     r.Grouping,
			Mean:         Fixed2(r.Mean),
			SD:           Fixed2(r.SD),
			N:            strconv.Itoa(r.N),
			CohensD:      Fixed2Ptr(r.CohensD),
			Source:       r,
		})
	}
	return out
}

// Fixed2 renders a value with two decimals
func Fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Fixed2Ptr renders an optional value with two decimals; nil is ""
func Fixed2Ptr(v *float64) string {
	if v == nil {
		return ""
	}
	return Fixed2(*v)
}
