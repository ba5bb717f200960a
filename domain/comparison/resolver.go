package comparison

import (
	"fmt"
	"strings"
)

// Unknown is returned for variables without a configured reference group
const Unknown = "Unknown"

// Resolver maps a Variable to the Grouping its effect sizes were computed against.
// It is display metadata only; nothing is computed from it on the dashboard path.
type Resolver struct {
	groups map[string]string
}

// Footnote is one "compared against" line for a variable
type Footnote struct {
	Variable   string `json:"variable"`
	Comparison string `json:"comparison"`
}

// NewResolver copies the mapping
func NewResolver(groups map[string]string) *Resolver {
	cp := make(map[string]string, len(groups))
	for k, v := range groups {
		cp[k] = v
	}
	return &Resolver{groups: cp}
}

// Resolve returns the reference grouping, or Unknown
func (r *Resolver) Resolve(variable string) string {
	if group, ok := r.Lookup(variable); ok {
		return group
	}
	return Unknown
}

// Lookup reports whether a reference grouping is configured
func (r *Resolver) Lookup(variable string) (string, bool) {
	if r == nil {
		return "", false
	}
	group, ok := r.groups[variable]
	return group, ok
}

// Footnotes resolves each variable in order
func (r *Resolver) Footnotes(variables []string) []Footnote {
	out := make([]Footnote, 0, len(variables))
	for _, v := range variables {
		out = append(out, Footnote{Variable: v, Comparison: r.Resolve(v)})
	}
	return out
}

// Markdown renders the footnotes block shown under the comparison grids
func (r *Resolver) Markdown(variables []string) string {
	if len(variables) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("**Footnotes:**\n\n")
	for _, f := range r.Footnotes(variables) {
		fmt.Fprintf(&b, "- The comparison group for `%s` is **%s**\n", f.Variable, f.Comparison)
	}
	return b.String()
}
