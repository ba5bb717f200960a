package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"scoregaps/app"
	"scoregaps/internal"
	"scoregaps/internal/session"
	"scoregaps/ui/middleware"
	"scoregaps/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html templates/partials/*.html
var templateFiles embed.FS

// Server represents the dashboard web server
type Server struct {
	router    *gin.Engine
	service   *app.DashboardService
	sessions  *session.Store
	templates *template.Template
	metrics   http.Handler
	logger    *internal.Logger
}

// Option configures a Server
type Option func(*Server)

// WithMetricsHandler exposes h at /metrics
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger replaces the default logger
func WithLogger(l *internal.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates the dashboard server with templates parsed and routes registered
func NewServer(service *app.DashboardService, sessions *session.Store, opts ...Option) (*Server, error) {
	s := &Server{
		router:   gin.New(),
		service:  service,
		sessions: sessions,
		logger:   internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("UI")

	if err := s.parseTemplates(); err != nil {
		return nil, err
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) parseTemplates() error {
	templatesFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		return fmt.Errorf("failed to create templates filesystem: %w", err)
	}

	root, err := fs.Glob(templatesFS, "*.html")
	if err != nil {
		return fmt.Errorf("failed to glob root templates: %w", err)
	}
	partials, err := fs.Glob(templatesFS, "partials/*.html")
	if err != nil {
		return fmt.Errorf("failed to glob partial templates: %w", err)
	}

	s.templates = template.New("").Funcs(templateFuncs())
	for _, file := range append(root, partials...) {
		content, err := fs.ReadFile(templatesFS, file)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", file, err)
		}
		if _, err := s.templates.New(file).Parse(string(content)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", file, err)
		}
	}
	for _, name := range fragments.All() {
		if s.templates.Lookup(name) == nil {
			return fmt.Errorf("template %s is missing", name)
		}
	}
	s.logger.Debug("Parsed %d templates", len(root)+len(partials))
	return nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"bg": func(color string) template.CSS {
			if color == "" {
				return ""
			}
			return template.CSS("background-color: " + color)
		},
		"anchor": anchor,
	}
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestLogger(s.logger))
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics))
	}

	pages := s.router.Group("/")
	pages.Use(middleware.Session(s.sessions, s.newSession, s.logger))
	pages.GET("/", s.handleDashboard)
	pages.POST("/selection", s.handleSelection)
	pages.POST("/selection/reset", s.handleReset)
	pages.GET("/export.csv", s.handleExport(app.FormatCSV))
	pages.GET("/export.xlsx", s.handleExport(app.FormatXLSX))
}

func (s *Server) newSession() string {
	return s.sessions.Save("", s.service.DefaultSelection())
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Dashboard listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
