package ui

import (
	"bytes"
	"net/http"

	"scoregaps/internal/errors"
	"scoregaps/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

// renderTemplate executes a template into a buffer first so a failure never
// leaves a half-written page
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.Error("Template error for %s: %v", templateName, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed"})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		s.logger.Warn("Error writing template response: %v", err)
	}
}

type unavailablePage struct {
	Message string
}

// renderError shows the blocking data-unavailable page for load failures and
// a plain error otherwise
func (s *Server) renderError(c *gin.Context, err error) {
	if errors.IsDataUnavailable(err) {
		s.renderTemplate(c, http.StatusServiceUnavailable, fragments.Unavailable, unavailablePage{Message: err.Error()})
		return
	}
	status := http.StatusInternalServerError
	if errors.GetCode(err) == errors.CodeInvalidInput {
		status = http.StatusBadRequest
	}
	s.logger.Error("Request failed: %v", err)
	c.String(status, err.Error())
}
