// Package pivot reshapes long-format fact rows into one comparison grid per
// Variable: assessments as rows, subgroups as columns, Cohen's d as cells.
package pivot

import (
	"scoregaps/domain/facts"
	"scoregaps/domain/ordering"
)

// Key identifies one grid cell before ordering
type Key struct {
	Variable   string `json:"variable"`
	Assessment string `json:"assessment"`
	Grouping   string `json:"grouping"`
}

// Cell is one Grouping's value in a row. Value is nil when no row supplied a d.
type Cell struct {
	Grouping string   `json:"grouping"`
	Value    *float64 `json:"value"`
	N        int      `json:"n,omitempty"`
}

// Row is one assessment with cells aligned to Grid.Columns
type Row struct {
	Assessment string `json:"assessment"`
	Cells      []Cell `json:"cells"`
}

// Value returns the cell for a grouping, or nil when absent
func (r Row) Value(grouping string) *float64 {
	for _, c := range r.Cells {
		if c.Grouping == grouping {
			return c.Value
		}
	}
	return nil
}

// Grid is the ordered comparison matrix for one Variable
type Grid struct {
	Variable string   `json:"variable"`
	Columns  []string `json:"columns"`
	Rows     []Row    `json:"rows"`
}

// Diagnostics records data-quality conditions that were absorbed, not raised
type Diagnostics struct {
	// Collisions counts rows that were discarded because their key was already taken
	Collisions           int                 `json:"collisions"`
	DuplicateKeys        []Key               `json:"duplicate_keys,omitempty"`
	UnorderedAssessments []string            `json:"unordered_assessments,omitempty"`
	UnorderedGroupings   map[string][]string `json:"unordered_groupings,omitempty"`
	DroppedColumns       map[string][]string `json:"dropped_columns,omitempty"`
}

// Result holds one grid per Variable present in the input, in first-seen order
type Result struct {
	Variables   []string         `json:"variables"`
	Grids       map[string]*Grid `json:"grids"`
	Diagnostics Diagnostics      `json:"diagnostics"`
}

// Ordered returns the grids in Variables order
func (r *Result) Ordered() []*Grid {
	out := make([]*Grid, 0, len(r.Variables))
	for _, v := range r.Variables {
		out = append(out, r.Grids[v])
	}
	return out
}

type cellKey struct{ assessment, grouping string }

type partition struct {
	assessments []string
	groupings   []string
	seenGroup   map[string]bool
	seenAssess  map[string]bool
	cells       map[cellKey]Cell
}

// Pivot builds the grids. It never fails: duplicate keys keep the first value,
// unknown assessments and groupings are appended after the ordered ones, and
// columns that are entirely nil or zero are dropped.
func Pivot(table *facts.Table, reg *ordering.Registry) *Result {
	res := &Result{Grids: make(map[string]*Grid)}
	parts := make(map[string]*partition)
	seenDup := make(map[Key]bool)

	table.Each(func(_ int, r facts.FactRow) {
		p, ok := parts[r.Variable]
		if !ok {
			p = &partition{
				seenGroup:  make(map[string]bool),
				seenAssess: make(map[string]bool),
				cells:      make(map[cellKey]Cell),
			}
			parts[r.Variable] = p
			res.Variables = append(res.Variables, r.Variable)
		}

		assessment := r.Assessment()
		if !p.seenAssess[assessment] {
			p.seenAssess[assessment] = true
			p.assessments = append(p.assessments, assessment)
		}
		if !p.seenGroup[r.Grouping] {
			p.seenGroup[r.Grouping] = true
			p.groupings = append(p.groupings, r.Grouping)
		}

		ck := cellKey{assessment, r.Grouping}
		if _, taken := p.cells[ck]; taken {
			res.Diagnostics.Collisions++
			k := Key{Variable: r.Variable, Assessment: assessment, Grouping: r.Grouping}
			if !seenDup[k] {
				seenDup[k] = true
				res.Diagnostics.DuplicateKeys = append(res.Diagnostics.DuplicateKeys, k)
			}
			return
		}
		cell := Cell{Grouping: r.Grouping, N: r.N}
		if r.CohensD != nil {
			cell.Value = facts.Float(*r.CohensD)
		}
		p.cells[ck] = cell
	})

	unordered := make(map[string]bool)
	for _, variable := range res.Variables {
		p := parts[variable]

		for _, a := range reg.UnknownAssessments(p.assessments) {
			if !unordered[a] {
				unordered[a] = true
				res.Diagnostics.UnorderedAssessments = append(res.Diagnostics.UnorderedAssessments, a)
			}
		}

		columns, unknownGroups := orderColumns(p.groupings, reg.GroupOrderFor(variable))
		if len(unknownGroups) > 0 {
			if res.Diagnostics.UnorderedGroupings == nil {
				res.Diagnostics.UnorderedGroupings = make(map[string][]string)
			}
			res.Diagnostics.UnorderedGroupings[variable] = unknownGroups
		}

		grid := &Grid{Variable: variable, Columns: []string{}}
		var dropped []string
		for _, col := range columns {
			if hasContrast(p, col) {
				grid.Columns = append(grid.Columns, col)
			} else {
				dropped = append(dropped, col)
			}
		}
		if len(dropped) > 0 {
			if res.Diagnostics.DroppedColumns == nil {
				res.Diagnostics.DroppedColumns = make(map[string][]string)
			}
			res.Diagnostics.DroppedColumns[variable] = dropped
		}

		for _, a := range reg.OrderAssessments(p.assessments) {
			row := Row{Assessment: a, Cells: make([]Cell, 0, len(grid.Columns))}
			for _, col := range grid.Columns {
				cell, ok := p.cells[cellKey{a, col}]
				if !ok {
					cell = Cell{Grouping: col}
				}
				row.Cells = append(row.Cells, cell)
			}
			grid.Rows = append(grid.Rows, row)
		}
		res.Grids[variable] = grid
	}

	return res
}

// orderColumns returns the configured order restricted to present groupings,
// followed by unconfigured groupings in first-seen order.
func orderColumns(present, configured []string) (columns, unknown []string) {
	isPresent := make(map[string]bool, len(present))
	for _, g := range present {
		isPresent[g] = true
	}
	isConfigured := make(map[string]bool, len(configured))
	for _, g := range configured {
		isConfigured[g] = true
		if isPresent[g] {
			columns = append(columns, g)
		}
	}
	for _, g := range present {
		if !isConfigured[g] {
			columns = append(columns, g)
			unknown = append(unknown, g)
		}
	}
	return columns, unknown
}

// hasContrast reports whether any assessment has a non-nil, non-zero value for grouping
func hasContrast(p *partition, grouping string) bool {
	for _, a := range p.assessments {
		if c, ok := p.cells[cellKey{a, grouping}]; ok && c.Value != nil && *c.Value != 0 {
			return true
		}
	}
	return false
}
