package effectsize

import (
	"math"

	"scoregaps/domain/facts"
)

// Stats are the summary statistics of one subgroup on one assessment
type Stats struct {
	Mean float64
	SD   float64
	N    int
}

// CohensD returns (group - reference) / pooled SD. ok is false when the pooled
// SD is undefined or zero.
func CohensD(group, reference Stats) (float64, bool) {
	df := group.N + reference.N - 2
	if group.N < 1 || reference.N < 1 || df <= 0 {
		return 0, false
	}
	pooledVar := (float64(group.N-1)*group.SD*group.SD + float64(reference.N-1)*reference.SD*reference.SD) / float64(df)
	if pooledVar <= 0 || math.IsNaN(pooledVar) {
		return 0, false
	}
	return (group.Mean - reference.Mean) / math.Sqrt(pooledVar), true
}

// ReferenceLookup returns the comparison grouping for a variable
type ReferenceLookup interface {
	Lookup(variable string) (string, bool)
}

// Backfill returns a copy of table where rows with no Cohen's d get one computed
// against the reference grouping of the same variable and assessment. Reference
// rows get 0. Rows whose reference is missing stay nil. The second result is the
// number of rows filled.
func Backfill(table *facts.Table, refs ReferenceLookup) (*facts.Table, int) {
	type refKey struct{ variable, assessment string }
	references := make(map[refKey]facts.FactRow)
	table.Each(func(_ int, r facts.FactRow) {
		group, ok := refs.Lookup(r.Variable)
		if !ok || r.Grouping != group {
			return
		}
		k := refKey{r.Variable, r.Assessment()}
		if _, dup := references[k]; !dup {
			references[k] = r
		}
	})

	rows := table.Rows()
	filled := 0
	for i, r := range rows {
		if r.CohensD != nil {
			continue
		}
		ref, ok := references[refKey{r.Variable, r.Assessment()}]
		if !ok {
			continue
		}
		if group, _ := refs.Lookup(r.Variable); r.Grouping == group {
			rows[i].CohensD = facts.Float(0)
			filled++
			continue
		}
		d, ok := CohensD(Stats{r.Mean, r.SD, r.N}, Stats{ref.Mean, ref.SD, ref.N})
		if !ok {
			continue
		}
		rows[i].CohensD = facts.Float(d)
		filled++
	}
	return facts.NewTable(rows), filled
}
