package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"scoregaps/adapters/excel"
	"scoregaps/domain/comparison"
	"scoregaps/domain/effectsize"
	"scoregaps/domain/facts"
	"scoregaps/domain/fulltable"
	"scoregaps/domain/ordering"
	"scoregaps/domain/pivot"
	"scoregaps/internal"
	"scoregaps/internal/errors"
	"scoregaps/internal/metrics"
	"scoregaps/ports"

	"golang.org/x/sync/singleflight"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// DashboardService owns the loaded fact table and derives every view from it.
// The table is replaced only by a successful Reload; views are rebuilt per call.
type DashboardService struct {
	source   ports.FactSource
	registry *ordering.Registry
	resolver *comparison.Resolver
	policy   facts.EmptyPolicy
	metrics  *metrics.Metrics
	logger   *internal.Logger

	loads singleflight.Group

	mu      sync.RWMutex
	table   *facts.Table
	loadErr error
}

// Option configures a DashboardService
type Option func(*DashboardService)

// WithEmptyPolicy sets how an empty assessment selection is treated
func WithEmptyPolicy(p facts.EmptyPolicy) Option {
	return func(s *DashboardService) { s.policy = p }
}

// WithMetrics enables Prometheus instrumentation
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *DashboardService) { s.metrics = m }
}

// WithLogger replaces the default logger
func WithLogger(l *internal.Logger) Option {
	return func(s *DashboardService) { s.logger = l }
}

// NewDashboardService creates the service. A nil registry uses the embedded default.
func NewDashboardService(source ports.FactSource, registry *ordering.Registry, opts ...Option) *DashboardService {
	if registry == nil {
		registry = ordering.Default()
	}
	s := &DashboardService{
		source:   source,
		registry: registry,
		resolver: comparison.NewResolver(registry.Comparison),
		policy:   facts.EmptyStrict,
		logger:   internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("Dashboard")
	return s
}

// Registry returns the ordering rules in use
func (s *DashboardService) Registry() *ordering.Registry {
	return s.registry
}

// Resolver returns the comparison-group resolver
func (s *DashboardService) Resolver() *comparison.Resolver {
	return s.resolver
}

// Load fetches the fact table unless one is already loaded.
// Concurrent callers share a single fetch.
func (s *DashboardService) Load(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.table != nil
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.fetch(ctx, false)
}

// Reload fetches the fact table again. On failure the previously loaded
// table, if any, stays in service.
func (s *DashboardService) Reload(ctx context.Context) error {
	return s.fetch(ctx, true)
}

func (s *DashboardService) fetch(ctx context.Context, force bool) error {
	key := "load"
	if force {
		key = "reload"
	}
	_, err, _ := s.loads.Do(key, func() (interface{}, error) {
		if !force && s.Ready() {
			return nil, nil
		}
		start := time.Now()
		s.logger.Info("Loading fact table from %s", s.source.Describe())

		table, err := s.source.Fetch(ctx)
		if err == nil && table == nil {
			err = fmt.Errorf("source returned no table")
		}
		if err != nil && !errors.IsDataUnavailable(err) {
			err = errors.DataUnavailable(err)
		}
		if s.metrics != nil {
			rows := 0
			if table != nil {
				rows = table.Len()
			}
			s.metrics.ObserveLoad(start, rows, err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.logger.Error("Failed to load fact table: %v", err)
			if s.table == nil {
				s.loadErr = err
			}
			return nil, err
		}
		s.table = table
		s.loadErr = nil
		s.logger.Info("Loaded %d fact rows in %s", table.Len(), time.Since(start).Round(time.Millisecond))
		return nil, nil
	})
	return err
}

// Table returns the loaded table, or a DATA_UNAVAILABLE error
func (s *DashboardService) Table() (*facts.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.table == nil {
		if s.loadErr != nil {
			return nil, s.loadErr
		}
		return nil, errors.DataUnavailable(fmt.Errorf("fact table not loaded"))
	}
	return s.table, nil
}

// Ready reports whether a table is loaded
func (s *DashboardService) Ready() bool {
	_, err := s.Table()
	return err == nil
}

// LegendEntry is one row of the colour key
type LegendEntry struct {
	Band  effectsize.Band `json:"band"`
	Label string          `json:"label"`
	Range string          `json:"range"`
	Color string          `json:"color"`
}

// Legend returns the colour key from least to most severe
func Legend() []LegendEntry {
	bands := effectsize.Legend()
	out := make([]LegendEntry, 0, len(bands))
	for _, b := range bands {
		out = append(out, LegendEntry{Band: b, Label: b.Label(), Range: b.Range(), Color: b.Color()})
	}
	return out
}

// Options lists what a user can pick from
type Options struct {
	Variables   []string          `json:"variables"`
	Assessments []string          `json:"assessments"`
	Families    []ordering.Family `json:"families"`
	Defaults    facts.Selection   `json:"defaults"`
}

// Options returns the selectable variables and assessments of the loaded table
func (s *DashboardService) Options() (*Options, error) {
	table, err := s.Table()
	if err != nil {
		return nil, err
	}
	assessments := s.registry.OrderAssessments(table.Assessments())
	return &Options{
		Variables:   table.Variables(),
		Assessments: assessments,
		Families:    s.registry.Catalog(assessments),
		Defaults:    s.DefaultSelection(),
	}, nil
}

// DefaultSelection is the selection a new session starts with
func (s *DashboardService) DefaultSelection() facts.Selection {
	return facts.Selection{
		Variables:   append([]string(nil), s.registry.Defaults.Variables...),
		Assessments: append([]string(nil), s.registry.Defaults.Assessments...),
	}
}

// CellView is one classified grid cell
type CellView struct {
	Grouping string          `json:"grouping"`
	Value    *float64        `json:"value"`
	Display  string          `json:"display"`
	Band     effectsize.Band `json:"band"`
	Color    string          `json:"color"`
	N        int             `json:"n,omitempty"`
}

// RowView is one assessment row of a grid
type RowView struct {
	Assessment string     `json:"assessment"`
	Cells      []CellView `json:"cells"`
}

// GridView is the classified grid for one variable
type GridView struct {
	Variable   string                `json:"variable"`
	Comparison string                `json:"comparison"`
	Columns    []string              `json:"columns"`
	Rows       []RowView             `json:"rows"`
	Summary    []pivot.ColumnSummary `json:"summary"`
}

// View is everything the dashboard shows for one selection
type View struct {
	Selection         facts.Selection       `json:"selection"`
	Grids             []GridView            `json:"grids"`
	Table             []fulltable.Row       `json:"table"`
	Footnotes         []comparison.Footnote `json:"footnotes"`
	FootnotesMarkdown string                `json:"footnotes_markdown"`
	Legend            []LegendEntry         `json:"legend"`
	Diagnostics       pivot.Diagnostics     `json:"diagnostics"`
}

// Empty reports whether the selection matched no facts
func (v *View) Empty() bool {
	return len(v.Table) == 0
}

// Grid returns the grid for variable, or nil
func (v *View) Grid(variable string) *GridView {
	for i := range v.Grids {
		if v.Grids[i].Variable == variable {
			return &v.Grids[i]
		}
	}
	return nil
}

// Build filters, pivots, classifies and formats the loaded table for sel
func (s *DashboardService) Build(sel facts.Selection) (*View, error) {
	table, err := s.Table()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	if s.metrics != nil {
		defer s.metrics.ObserveBuild(start)
	}

	filtered := facts.Filter(table, sel, s.policy)
	result := pivot.Pivot(filtered, s.registry)
	s.report(result.Diagnostics)

	view := &View{
		Selection:         sel.Clone(),
		Grids:             make([]GridView, 0, len(result.Variables)),
		Table:             fulltable.Format(filtered),
		Footnotes:         s.resolver.Footnotes(result.Variables),
		FootnotesMarkdown: s.resolver.Markdown(result.Variables),
		Legend:            Legend(),
		Diagnostics:       result.Diagnostics,
	}
	for _, grid := range result.Ordered() {
		view.Grids = append(view.Grids, s.gridView(grid))
	}

	s.logger.Debug("Built view: %d facts, %d grids in %s", filtered.Len(), len(view.Grids), time.Since(start))
	return view, nil
}

func (s *DashboardService) gridView(grid *pivot.Grid) GridView {
	gv := GridView{
		Variable:   grid.Variable,
		Comparison: s.resolver.Resolve(grid.Variable),
		Columns:    append([]string{}, grid.Columns...),
		Rows:       make([]RowView, 0, len(grid.Rows)),
		Summary:    pivot.Summarize(grid),
	}
	for _, row := range grid.Rows {
		rv := RowView{Assessment: row.Assessment, Cells: make([]CellView, 0, len(row.Cells))}
		for _, c := range row.Cells {
			band := effectsize.ClassifyPtr(c.Value)
			rv.Cells = append(rv.Cells, CellView{
				Grouping: c.Grouping,
				Value:    c.Value,
				Display:  fulltable.Fixed2Ptr(c.Value),
				Band:     band,
				Color:    band.Color(),
				N:        c.N,
			})
		}
		gv.Rows = append(gv.Rows, rv)
	}
	return gv
}

// report logs and counts data-quality events the pivot absorbed
func (s *DashboardService) report(d pivot.Diagnostics) {
	for _, k := range d.DuplicateKeys {
		s.logger.Warn("Duplicate fact for %s / %s / %s; keeping the first", k.Variable, k.Assessment, k.Grouping)
	}
	if len(d.UnorderedAssessments) > 0 {
		s.logger.Warn("Assessments missing from the ordering registry: %v", d.UnorderedAssessments)
	}
	unorderedGroupings := 0
	for variable, groups := range d.UnorderedGroupings {
		unorderedGroupings += len(groups)
		s.logger.Warn("Groupings of %s missing from the ordering registry: %v", variable, groups)
	}
	dropped := 0
	for variable, cols := range d.DroppedColumns {
		dropped += len(cols)
		s.logger.Debug("Dropped all-zero columns of %s: %v", variable, cols)
	}
	if s.metrics != nil {
		s.metrics.RecordPivot(d.Collisions, len(d.UnorderedAssessments), unorderedGroupings, dropped)
	}
}

// Export writes the full table for sel in the given format. The xlsx workbook
// also carries one colour-coded grid sheet per variable.
func (s *DashboardService) Export(w io.Writer, sel facts.Selection, format string) error {
	table, err := s.Table()
	if err != nil {
		return err
	}
	filtered := facts.Filter(table, sel, s.policy)
	rows := fulltable.Format(filtered)

	switch format {
	case FormatCSV:
		err = excel.WriteCSV(w, rows)
	case FormatXLSX:
		err = excel.WriteWorkbook(w, rows, pivot.Pivot(filtered, s.registry).Ordered())
	default:
		return errors.InvalidInput(fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return errors.Wrapf(err, "failed to export %s", format)
	}
	if s.metrics != nil {
		s.metrics.IncrementExport(format)
	}
	return nil
}
