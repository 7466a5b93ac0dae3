package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/mcpgate/mcpgate/internal/gate/http"
	"github.com/mcpgate/mcpgate/internal/gate/service"
	"github.com/mcpgate/mcpgate/internal/gate/session"
	"github.com/mcpgate/mcpgate/internal/gate/store"
	"github.com/mcpgate/mcpgate/internal/gate/store/drivers/sqlite"
	"github.com/mcpgate/mcpgate/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the gate service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	sessions *session.Manager

	authorizeService    *service.AuthorizeService
	tokenService        *service.TokenService
	clientService       *service.ClientService
	loginService        *service.LoginService
	auditService        *service.AuditService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "mcpgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	sessions, err := session.NewManager([]byte(cfg.SessionSecret), cfg.Issuer, cfg.SessionTTL)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}
	app.sessions = sessions

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gate service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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
	app.logger.Info("shutting down gate service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gate service stopped")
	return nil
}

// initDatabase opens the store and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.auditService = &service.AuditService{Store: app.db}

	app.clientService = &service.ClientService{
		Store:              app.db,
		StaticClientID:     app.cfg.StaticClientID,
		StaticClientSecret: app.cfg.StaticClientSecret,
	}

	app.authorizeService = &service.AuthorizeService{
		Store:                   app.db,
		Clients:                 app.clientService,
		CodeTTL:                 app.cfg.CodeTTL,
		AllowedRedirectPrefixes: app.cfg.AllowedRedirectPrefixes,
	}

	app.tokenService = &service.TokenService{
		Store:            app.db,
		Clients:          app.clientService,
		Audit:            app.auditService,
		APIKey:           app.cfg.APIKey,
		DefaultScopes:    app.cfg.DefaultScopes,
		ClientIDFallback: app.cfg.ClientIDFallback,
	}

	app.loginService = &service.LoginService{
		Audit:        app.auditService,
		Password:     app.cfg.Password,
		PasswordHash: app.cfg.PasswordHash,
		TOTPSecret:   app.cfg.TOTPSecret,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.AuditRetention,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.cfg.Issuer,
		BuildVersion,
		app.cfg.DefaultScopes,
		app.db,
		app.sessions,
		app.logger,
	)

	router.AuthorizeService = app.authorizeService
	router.TokenService = app.tokenService
	router.ClientService = app.clientService
	router.LoginService = app.loginService
	router.AuditService = app.auditService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
