package facts

import "strings"

// EmptyPolicy decides what an empty assessment selection means
type EmptyPolicy int

const (
	// EmptyStrict: no assessments and no prefixes selected yields an empty table
	EmptyStrict EmptyPolicy = iota
	// EmptyInclusive: no assessments and no prefixes selected keeps every assessment
	EmptyInclusive
)

// ParseEmptyPolicy maps "inclusive" to EmptyInclusive and anything else to EmptyStrict
func ParseEmptyPolicy(s string) EmptyPolicy {
	if strings.EqualFold(strings.TrimSpace(s), "inclusive") {
		return EmptyInclusive
	}
	return EmptyStrict
}

// Selection is the user's current choice of variables and assessments.
// Prefixes select whole assessment families ("NAEP" matches every NAEP assessment).
type Selection struct {
	Variables      []string `json:"variables" form:"variable"`
	Assessments    []string `json:"assessments" form:"assessment"`
	Prefixes       []string `json:"prefixes" form:"prefix"`
	AllAssessments bool     `json:"all_assessments" form:"all"`
}

// HasAssessmentChoice reports whether any assessment, prefix or the select-all flag is set
func (s Selection) HasAssessmentChoice() bool {
	return s.AllAssessments || len(s.Assessments) > 0 || len(s.Prefixes) > 0
}

// Clone returns a deep copy
func (s Selection) Clone() Selection {
	return Selection{
		Variables:      append([]string(nil), s.Variables...),
		Assessments:    append([]string(nil), s.Assessments...),
		Prefixes:       append([]string(nil), s.Prefixes...),
		AllAssessments: s.AllAssessments,
	}
}

// Filter keeps rows whose Variable is selected and whose Assessment is selected
// directly, through a family prefix, or through the select-all flag.
func Filter(table *Table, sel Selection, policy EmptyPolicy) *Table {
	allAssessments := sel.AllAssessments
	if !sel.HasAssessmentChoice() {
		if policy == EmptyStrict {
			return NewTable(nil)
		}
		allAssessments = true
	}

	variables := toSet(sel.Variables)
	assessments := toSet(sel.Assessments)

	var kept []FactRow
	table.Each(func(_ int, r FactRow) {
		if !variables[r.Variable] {
			return
		}
		if allAssessments || matchesAssessment(r.Assessment(), assessments, sel.Prefixes) {
			kept = append(kept, r)
		}
	})
	return NewTable(kept)
}

func matchesAssessment(assessment string, keys map[string]bool, prefixes []string) bool {
	if keys[assessment] {
		return true
	}
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(assessment, p) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
