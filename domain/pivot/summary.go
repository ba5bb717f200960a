package pivot

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// ColumnSummary describes the magnitude of one subgroup's gaps across the grid
type ColumnSummary struct {
	Grouping        string  `json:"grouping"`
	Count           int     `json:"count"`
	MedianAbs       float64 `json:"median_abs"`
	WeightedMeanAbs float64 `json:"weighted_mean_abs"`
	MaxAbs          float64 `json:"max_abs"`
}

// Summarize computes per-column |d| statistics. The weighted mean uses each
// cell's subgroup N. Columns without numeric cells report Count 0.
func Summarize(grid *Grid) []ColumnSummary {
	if grid == nil {
		return nil
	}
	out := make([]ColumnSummary, 0, len(grid.Columns))
	for i, col := range grid.Columns {
		var values, weights []float64
		for _, row := range grid.Rows {
			if i >= len(row.Cells) {
				continue
			}
			c := row.Cells[i]
			if c.Value == nil || math.IsNaN(*c.Value) {
				continue
			}
			values = append(values, math.Abs(*c.Value))
			weights = append(weights, float64(max(c.N, 1)))
		}

		s := ColumnSummary{Grouping: col, Count: len(values)}
		if len(values) > 0 {
			s.MedianAbs, _ = stats.Median(values)
			s.MaxAbs, _ = stats.Max(values)
			s.WeightedMeanAbs = stat.Mean(values, weights)
		}
		out = append(out, s)
	}
	return out
}
