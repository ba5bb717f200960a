package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"scoregaps/adapters/excel"
	"scoregaps/adapters/httpsource"
	"scoregaps/adapters/postgres"
	"scoregaps/app"
	"scoregaps/domain/facts"
	"scoregaps/domain/ordering"
	"scoregaps/internal"
	"scoregaps/internal/config"
	"scoregaps/internal/errors"
	"scoregaps/internal/metrics"
	"scoregaps/internal/migration"
	"scoregaps/internal/session"
	"scoregaps/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB              *sqlx.DB
	MetricsRegistry *prometheus.Registry
	Metrics         *metrics.Metrics

	// Dashboard
	Registry *ordering.Registry
	Source   ports.FactSource
	Service  *app.DashboardService
	Sessions *session.Store
}

// New creates a new dependency injection container. The database is only
// opened when the fact table lives in Postgres.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:   cfg,
		Logger:   internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)),
		Sessions: session.NewStore(cfg.Dashboard.SessionTTL),
	}

	reg, err := LoadRegistry(cfg.Dashboard.RegistryFile)
	if err != nil {
		return nil, err
	}
	c.Registry = reg

	if cfg.Metrics.Enabled {
		c.MetricsRegistry = prometheus.NewRegistry()
		c.MetricsRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		c.Metrics = metrics.New(c.MetricsRegistry)
	}

	if cfg.Data.Source == config.SourcePostgres {
		db, err := OpenDatabase(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		c.DB = db
	}

	c.Source, err = NewSource(cfg, c.DB, c.Logger)
	if err != nil {
		c.Shutdown(ctx)
		return nil, err
	}

	opts := []app.Option{
		app.WithEmptyPolicy(facts.ParseEmptyPolicy(cfg.Dashboard.EmptySelection)),
		app.WithLogger(c.Logger),
	}
	if c.Metrics != nil {
		opts = append(opts, app.WithMetrics(c.Metrics))
	}
	c.Service = app.NewDashboardService(c.Source, c.Registry, opts...)
	return c, nil
}

// LoadRegistry reads the ordering registry from path, or the embedded default when path is empty
func LoadRegistry(path string) (*ordering.Registry, error) {
	if path == "" {
		return ordering.Default(), nil
	}
	reg, err := ordering.LoadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ConfigInvalid(err.Error()), "invalid registry %s", path)
	}
	return reg, nil
}

// OpenDatabase connects to Postgres and applies the schema
func OpenDatabase(ctx context.Context, url string) (*sqlx.DB, error) {
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	if err := Migrate(ctx, db, migration.NewRunner()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies m to db
func Migrate(ctx context.Context, db *sqlx.DB, m migration.Migrator) error {
	if err := m.Run(ctx, db); err != nil {
		return errors.Wrapf(err, "database migration %s failed", m.Version())
	}
	return nil
}

// NewSource builds the configured fact source
func NewSource(cfg *config.Config, db *sqlx.DB, logger *internal.Logger) (ports.FactSource, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	switch cfg.Data.Source {
	case config.SourceFile:
		return excel.NewFileSource(cfg.Data.File).WithSheet(cfg.Data.Sheet).WithLogger(logger), nil
	case config.SourceHTTP:
		return httpsource.New(cfg.Data.URL,
			httpsource.WithTimeout(cfg.Data.Timeout),
			httpsource.WithRetries(cfg.Data.MaxRetries, cfg.Data.RetryDelay),
			httpsource.WithLogger(logger),
		), nil
	case config.SourcePostgres:
		if db == nil {
			return nil, errors.ConfigInvalid("postgres source needs a database connection")
		}
		return postgres.NewFactRepository(db).WithLogger(logger), nil
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("unknown data source %q", cfg.Data.Source))
	}
}

// MetricsHandler serves the container's registry, or nil when metrics are disabled
func (c *Container) MetricsHandler() http.Handler {
	if c.MetricsRegistry == nil {
		return nil
	}
	return promhttp.HandlerFor(c.MetricsRegistry, promhttp.HandlerOpts{})
}

// Shutdown releases held resources
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Maintain runs until ctx is done. It retries a failed initial load every
// interval and evicts idle sessions.
func (c *Container) Maintain(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.Service.Ready() {
				c.Logger.Info("Retrying fact table load")
				if err := c.Service.Load(ctx); err != nil {
					c.Logger.Warn("Fact table still unavailable: %v", err)
				}
			}
			if n := c.Sessions.CleanupExpired(); n > 0 {
				c.Logger.Debug("Evicted %d idle sessions", n)
			}
		}
	}
}
