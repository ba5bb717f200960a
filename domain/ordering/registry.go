// Package ordering holds the static display-order rules for assessments,
// subgroup columns, and assessment families.
package ordering

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed registry.yaml
var defaultRegistryYAML []byte

// Registry is loaded once at startup and never edited at runtime
type Registry struct {
	AssessmentOrder []string            `yaml:"assessment_order"`
	GroupOrder      map[string][]string `yaml:"group_order"`
	PrefixOrder     []string            `yaml:"prefix_order"`
	Comparison      map[string]string   `yaml:"comparison"`
	Defaults        Defaults            `yaml:"defaults"`

	assessmentRank map[string]int
}

// Defaults are the selections a new session starts with
type Defaults struct {
	Variables   []string `yaml:"variables"`
	Assessments []string `yaml:"assessments"`
}

// Family is one assessment-group bucket, e.g. all NAEP assessments
type Family struct {
	Prefix      string   `json:"prefix"`
	Assessments []string `json:"assessments"`
}

// Default returns the embedded registry
func Default() *Registry {
	reg, err := Parse(defaultRegistryYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded registry is invalid: %v", err))
	}
	return reg
}

// LoadFile reads a registry from a YAML file
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML registry
func Parse(data []byte) (*Registry, error) {
	var reg Registry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	reg.index()
	return &reg, nil
}

// Validate rejects duplicate entries in any ordered list
func (r *Registry) Validate() error {
	if err := unique("assessment_order", r.AssessmentOrder); err != nil {
		return err
	}
	if err := unique("prefix_order", r.PrefixOrder); err != nil {
		return err
	}
	for variable, groups := range r.GroupOrder {
		if err := unique("group_order."+variable, groups); err != nil {
			return err
		}
	}
	return nil
}

func unique(field string, values []string) error {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return fmt.Errorf("registry %s lists %q more than once", field, v)
		}
		seen[v] = true
	}
	return nil
}

func (r *Registry) index() {
	r.assessmentRank = make(map[string]int, len(r.AssessmentOrder))
	for i, a := range r.AssessmentOrder {
		r.assessmentRank[a] = i
	}
}

// AssessmentRank returns the display position of a known assessment
func (r *Registry) AssessmentRank(assessment string) (int, bool) {
	if r == nil {
		return 0, false
	}
	if r.assessmentRank != nil {
		rank, ok := r.assessmentRank[assessment]
		return rank, ok
	}
	for i, a := range r.AssessmentOrder {
		if a == assessment {
			return i, true
		}
	}
	return 0, false
}

// GroupOrderFor returns the expected column order for a variable, or nil
func (r *Registry) GroupOrderFor(variable string) []string {
	if r == nil {
		return nil
	}
	return r.GroupOrder[variable]
}

// Family returns the first configured prefix the assessment starts with,
// falling back to the assessment's leading token.
func (r *Registry) Family(assessment string) string {
	if r != nil {
		for _, p := range r.PrefixOrder {
			if strings.HasPrefix(assessment, p) {
				return p
			}
		}
	}
	token, _, _ := strings.Cut(assessment, " ")
	return token
}

// Catalog buckets assessments by family. Families follow PrefixOrder and
// unknown families follow in first-seen order; within a family assessments
// follow AssessmentOrder with unknowns last.
func (r *Registry) Catalog(assessments []string) []Family {
	byFamily := make(map[string][]string)
	var unknownFamilies []string
	for _, a := range r.OrderAssessments(assessments) {
		f := r.Family(a)
		if _, ok := byFamily[f]; !ok && !r.knownPrefix(f) {
			unknownFamilies = append(unknownFamilies, f)
		}
		byFamily[f] = append(byFamily[f], a)
	}

	var out []Family
	if r != nil {
		for _, p := range r.PrefixOrder {
			if list, ok := byFamily[p]; ok {
				out = append(out, Family{Prefix: p, Assessments: list})
			}
		}
	}
	for _, f := range unknownFamilies {
		out = append(out, Family{Prefix: f, Assessments: byFamily[f]})
	}
	return out
}

func (r *Registry) knownPrefix(p string) bool {
	if r == nil {
		return false
	}
	for _, known := range r.PrefixOrder {
		if known == p {
			return true
		}
	}
	return false
}

// OrderAssessments returns the distinct assessments in display order:
// registry-known ones by rank, then unknown ones in first-seen order.
func (r *Registry) OrderAssessments(assessments []string) []string {
	type ranked struct {
		name string
		rank int
	}
	var known []ranked
	var unknown []string
	seen := make(map[string]bool, len(assessments))
	for _, a := range assessments {
		if seen[a] {
			continue
		}
		seen[a] = true
		if rank, ok := r.AssessmentRank(a); ok {
			known = append(known, ranked{a, rank})
		} else {
			unknown = append(unknown, a)
		}
	}

	sort.SliceStable(known, func(i, j int) bool { return known[i].rank < known[j].rank })

	out := make([]string, 0, len(known)+len(unknown))
	for _, k := range known {
		out = append(out, k.name)
	}
	return append(out, unknown...)
}

// UnknownAssessments lists the assessments with no configured rank, in first-seen order
func (r *Registry) UnknownAssessments(assessments []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, a := range assessments {
		if _, ok := r.AssessmentRank(a); !ok && !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
