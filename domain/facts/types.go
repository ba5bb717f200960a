package facts

import (
	"fmt"
	"strconv"
	"strings"
)

// AssessmentSeparator joins Subject, Jurisdiction and Year into an assessment key
const AssessmentSeparator = " - "

// FactRow is one (Variable, Subject, Jurisdiction, Year, Grouping) observation.
// CohensD is nil when the effect size could not be computed upstream.
type FactRow struct {
	Variable     string   `json:"variable" db:"variable"`
	Subject      string   `json:"subject" db:"subject"`
	Jurisdiction string   `json:"jurisdiction" db:"jurisdiction"`
	Year         int      `json:"year" db:"year"`
	Grouping     string   `json:"grouping" db:"grouping"`
	Mean         float64  `json:"mean" db:"mean"`
	SD           float64  `json:"sd" db:"sd"`
	N            int      `json:"n" db:"n"`
	CohensD      *float64 `json:"cohens_d" db:"cohens_d"`
}

// Assessment returns the row identity used for pivoting, e.g. "SAT - Total - US - 2023"
func (r FactRow) Assessment() string {
	return AssessmentKey(r.Subject, r.Jurisdiction, r.Year)
}

// AssessmentKey builds the composite assessment identifier
func AssessmentKey(subject, jurisdiction string, year int) string {
	return subject + AssessmentSeparator + jurisdiction + AssessmentSeparator + strconv.Itoa(year)
}

// Validate checks the per-row invariants of the fact table
func (r FactRow) Validate() error {
	switch {
	case strings.TrimSpace(r.Variable) == "":
		return fmt.Errorf("variable is empty")
	case strings.TrimSpace(r.Subject) == "":
		return fmt.Errorf("subject is empty")
	case strings.TrimSpace(r.Jurisdiction) == "":
		return fmt.Errorf("jurisdiction is empty")
	case strings.TrimSpace(r.Grouping) == "":
		return fmt.Errorf("grouping is empty")
	case r.SD < 0:
		return fmt.Errorf("sd must be non-negative, got %v", r.SD)
	case r.N <= 0:
		return fmt.Errorf("n must be positive, got %d", r.N)
	}
	return nil
}

// Float returns a pointer to v, for building rows with a Cohen's d value
func Float(v float64) *float64 {
	return &v
}

// Table is the read-only fact table. Derived views never share its backing slice.
type Table struct {
	rows []FactRow
}

// NewTable copies rows into a new table
func NewTable(rows []FactRow) *Table {
	cp := make([]FactRow, len(rows))
	for i, r := range rows {
		cp[i] = r.clone()
	}
	return &Table{rows: cp}
}

func (r FactRow) clone() FactRow {
	if r.CohensD != nil {
		d := *r.CohensD
		r.CohensD = &d
	}
	return r
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Rows returns a copy of the rows in table order
func (t *Table) Rows() []FactRow {
	if t == nil {
		return nil
	}
	out := make([]FactRow, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.clone()
	}
	return out
}

// Each calls fn for every row in order without copying the table
func (t *Table) Each(fn func(i int, r FactRow)) {
	if t == nil {
		return
	}
	for i, r := range t.rows {
		fn(i, r)
	}
}

// Variables returns the distinct variables in first-seen order
func (t *Table) Variables() []string {
	return t.distinct(func(r FactRow) string { return r.Variable })
}

// Assessments returns the distinct assessment keys in first-seen order
func (t *Table) Assessments() []string {
	return t.distinct(FactRow.Assessment)
}

func (t *Table) distinct(key func(FactRow) string) []string {
	var out []string
	seen := make(map[string]bool)
	t.Each(func(_ int, r FactRow) {
		k := key(r)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	})
	return out
}
