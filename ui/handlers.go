package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"scoregaps/app"
	"scoregaps/domain/facts"
	"scoregaps/domain/fulltable"
	"scoregaps/ui/middleware"
	"scoregaps/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

type variableTab struct {
	ID   string
	Grid app.GridView
	Rows []fulltable.Row
}

type dashboardPage struct {
	Options            *app.Options
	View               *app.View
	Tabs               []variableTab
	VariableSelected   map[string]bool
	AssessmentSelected map[string]bool
	PrefixSelected     map[string]bool
	Footnotes          template.HTML
	Notices            []string
}

func newDashboardPage(opts *app.Options, view *app.View) *dashboardPage {
	sel := view.Selection
	page := &dashboardPage{
		Options:            opts,
		View:               view,
		VariableSelected:   toSet(sel.Variables),
		AssessmentSelected: toSet(sel.Assessments),
		PrefixSelected:     toSet(sel.Prefixes),
		Footnotes:          renderMarkdown(view.FootnotesMarkdown),
	}

	byVariable := make(map[string][]fulltable.Row)
	for _, r := range view.Table {
		byVariable[r.Variable] = append(byVariable[r.Variable], r)
	}
	for _, g := range view.Grids {
		page.Tabs = append(page.Tabs, variableTab{ID: anchor(g.Variable), Grid: g, Rows: byVariable[g.Variable]})
	}

	d := view.Diagnostics
	if d.Collisions > 0 {
		page.Notices = append(page.Notices, fmt.Sprintf("%d duplicate facts were ignored; the first value was kept.", d.Collisions))
	}
	if n := len(d.UnorderedAssessments); n > 0 {
		page.Notices = append(page.Notices, fmt.Sprintf("%d assessments have no configured position and are listed last.", n))
	}
	return page
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// selection returns the session's selection, falling back to the defaults
func (s *Server) selection(c *gin.Context) facts.Selection {
	if sel, ok := s.sessions.Get(middleware.SessionID(c)); ok {
		return sel
	}
	return s.service.DefaultSelection()
}

func (s *Server) handleDashboard(c *gin.Context) {
	opts, err := s.service.Options()
	if err != nil {
		s.renderError(c, err)
		return
	}
	view, err := s.service.Build(s.selection(c))
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderTemplate(c, http.StatusOK, fragments.Dashboard, newDashboardPage(opts, view))
}

func (s *Server) handleSelection(c *gin.Context) {
	var sel facts.Selection
	if err := c.ShouldBind(&sel); err != nil {
		c.String(http.StatusBadRequest, "invalid selection: %v", err)
		return
	}
	s.sessions.Save(middleware.SessionID(c), sel)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleReset(c *gin.Context) {
	s.sessions.Save(middleware.SessionID(c), s.service.DefaultSelection())
	c.Redirect(http.StatusSeeOther, "/")
}

var exportContentTypes = map[string]string{
	app.FormatCSV:  "text/csv; charset=utf-8",
	app.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func (s *Server) handleExport(format string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var buf bytes.Buffer
		if err := s.service.Export(&buf, s.selection(c), format); err != nil {
			s.renderError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="score_gaps.%s"`, format))
		c.Data(http.StatusOK, exportContentTypes[format], buf.Bytes())
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	table, err := s.service.Table()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "facts": table.Len()})
}
