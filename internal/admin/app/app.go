package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/aussiebroadwan/greenadmin/internal/admin/http"
	"github.com/aussiebroadwan/greenadmin/internal/admin/manager"
	"github.com/aussiebroadwan/greenadmin/internal/admin/metrics"
	"github.com/aussiebroadwan/greenadmin/internal/admin/seed"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store/drivers/mysql"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store/drivers/sqlite"
	"github.com/aussiebroadwan/greenadmin/pkg/cryptox"
	"github.com/aussiebroadwan/greenadmin/pkg/httpx"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the store, managers, seed director and admin API.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	director *seed.Director

	housekeeping *manager.Housekeeping

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application with its database migrated and every
// dependency initialised. Nothing is started until Run.
func New(cfg Config) (*Application, error) {
	return NewWithLogger(cfg, slogx.New(slogx.Config{
		Service: "greenadmin",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	}))
}

func NewWithLogger(cfg Config, logger *slog.Logger) (*Application, error) {
	app := &Application{cfg: cfg, logger: logger}

	if err := cryptox.LoadPepper(cfg.PepperFile); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initMetrics(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// OpenStore opens the persistence port for driver.
func OpenStore(driver, dsn string) (store.Store, error) {
	switch driver {
	case "sqlite", "":
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
		return sqlite.NewStore(dsn)
	case "mysql":
		return mysql.NewStore(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if app.cfg.SeedOnStartup {
		if _, err := app.Seed(context.Background(), "", app.cfg.SeedForce); err != nil {
			return fmt.Errorf("startup seeding failed: %w", err)
		}
	}

	app.housekeeping.Start()

	app.logger.Info("admin service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeeping.Stop()
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down admin service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if err := app.Close(); err != nil {
		return err
	}

	app.logger.Info("admin service stopped")
	return nil
}

// Close releases the database. Use it when the server was never started.
func (app *Application) Close() error {
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// Handler exposes the admin API router.
func (app *Application) Handler() http.Handler { return app.router }

func (app *Application) Director() *seed.Director { return app.director }

func (app *Application) initDatabase() error {
	db, err := OpenStore(app.cfg.DatabaseDriver, app.cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

func (app *Application) initMetrics() error {
	var extra []prometheus.Collector
	if s, ok := app.db.(interface{ DB() *sql.DB }); ok {
		extra = append(extra, collectors.NewDBStatsCollector(s.DB(), "greenadmin"))
	}
	if err := metrics.Register(prometheus.DefaultRegisterer, extra...); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	return nil
}

func (app *Application) initServices() {
	app.director = seed.NewDirector(app.db)
	app.housekeeping = manager.NewHousekeeping(
		app.director.Clients,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	httpx.WriteLimit = httpx.ParseRateLimitFromEnv("WRITE", httpx.WriteLimit)
	httpx.ReadLimit = httpx.ParseRateLimitFromEnv("READ", httpx.ReadLimit)
	httpx.ProbeLimit = httpx.ParseRateLimitFromEnv("PROBE", httpx.ProbeLimit)

	if app.cfg.AdminAPIKey == "" {
		app.logger.Warn("ADMIN_API_KEY is empty; every /v1 route will answer 401")
	}

	router := httpapi.NewRouter(BuildVersion, app.cfg.AdminAPIKey, app.db, app.director, app.logger)
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
