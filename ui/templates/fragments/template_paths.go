// Package fragments provides template path constants for organized template management
package fragments

// Page templates
const (
	Dashboard   = "dashboard.html"
	Unavailable = "unavailable.html"
)

// Partials included by the pages
const (
	Legend    = "partials/legend.html"
	Selectors = "partials/selectors.html"
	Grid      = "partials/grid.html"
	DataTable = "partials/data_table.html"
)

// All lists every template the server expects to find after parsing
func All() []string {
	return []string{Dashboard, Unavailable, Legend, Selectors, Grid, DataTable}
}
