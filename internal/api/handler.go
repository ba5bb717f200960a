// Package api serves the dashboard's derived views as JSON.
package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"scoregaps/app"
	"scoregaps/domain/comparison"
	"scoregaps/domain/facts"
	"scoregaps/domain/fulltable"
	"scoregaps/domain/pivot"
	"scoregaps/internal"
	"scoregaps/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler ties HTTP routes to the dashboard service
type Handler struct {
	service *app.DashboardService
	logger  *internal.Logger
}

// NewHandler creates a new Handler
func NewHandler(service *app.DashboardService, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handler{service: service, logger: logger.With("API")}
}

// Router mounts every endpoint under /api
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/options", h.GetOptions)
		r.Get("/grid", h.GetGrid)
		r.Get("/table", h.GetTable)
		r.Get("/legend", h.GetLegend)
		r.Get("/comparison/{variable}", h.GetComparison)
	})
	return r
}

// GridResponse is the pivoted view for a selection
type GridResponse struct {
	Selection   facts.Selection       `json:"selection"`
	Grids       []app.GridView        `json:"grids"`
	Footnotes   []comparison.Footnote `json:"footnotes"`
	Diagnostics pivot.Diagnostics     `json:"diagnostics"`
}

// TableResponse is the flat view for a selection
type TableResponse struct {
	Selection facts.Selection `json:"selection"`
	Columns   []string        `json:"columns"`
	Rows      []fulltable.Row `json:"rows"`
}

// ComparisonResponse names a variable's reference group
type ComparisonResponse struct {
	Variable   string `json:"variable"`
	Comparison string `json:"comparison"`
	Known      bool   `json:"known"`
}

// GetOptions lists selectable variables, assessments and families
func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.Options()
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, opts)
}

// GetGrid returns the classified grids for the query's selection
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	view, err := h.service.Build(sel)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, GridResponse{
		Selection:   view.Selection,
		Grids:       view.Grids,
		Footnotes:   view.Footnotes,
		Diagnostics: view.Diagnostics,
	})
}

// GetTable returns the formatted full table for the query's selection
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	view, err := h.service.Build(sel)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, TableResponse{Selection: view.Selection, Columns: fulltable.Columns, Rows: view.Table})
}

// GetLegend returns the colour key
func (h *Handler) GetLegend(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, app.Legend())
}

// GetComparison resolves a variable's reference group. Unknown variables are not an error.
func (h *Handler) GetComparison(w http.ResponseWriter, r *http.Request) {
	variable, err := url.PathUnescape(chi.URLParam(r, "variable"))
	if err != nil {
		h.respondError(w, errors.InvalidInput("variable is not a valid path segment"))
		return
	}
	group, known := h.service.Resolver().Lookup(variable)
	if !known {
		group = comparison.Unknown
	}
	h.respondJSON(w, http.StatusOK, ComparisonResponse{Variable: variable, Comparison: group, Known: known})
}

// selection reads variable, assessment, prefix and all from the query.
// A query with none of them selects the defaults.
func (h *Handler) selection(r *http.Request) (facts.Selection, error) {
	q := r.URL.Query()
	if !q.Has("variable") && !q.Has("assessment") && !q.Has("prefix") && !q.Has("all") {
		return h.service.DefaultSelection(), nil
	}
	sel := facts.Selection{
		Variables:   q["variable"],
		Assessments: q["assessment"],
		Prefixes:    q["prefix"],
	}
	if v := q.Get("all"); v != "" {
		all, err := strconv.ParseBool(v)
		if err != nil {
			return sel, errors.InvalidInput("all must be true or false")
		}
		sel.AllAssessments = all
	}
	return sel, nil
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to encode response: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeDataUnavailable:
		status = http.StatusServiceUnavailable
	case errors.CodeInvalidInput:
		status = http.StatusBadRequest
	default:
		if errors.IsDataUnavailable(err) {
			status = http.StatusServiceUnavailable
		}
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed: %v", err)
	}
	h.respondJSON(w, status, map[string]string{"error": err.Error(), "code": errors.GetCode(err)})
}
