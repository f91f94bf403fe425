package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/quill/internal/web/flow"
	webhttp "github.com/aussiebroadwan/quill/internal/web/http"
	"github.com/aussiebroadwan/quill/internal/web/session"
	"github.com/aussiebroadwan/quill/internal/web/store"
	"github.com/aussiebroadwan/quill/internal/web/store/drivers/sqlite"
	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"github.com/aussiebroadwan/quill/pkg/cryptox"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application is the web front end with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	sealer      *cryptox.Sealer
	flows       *flow.Flows
	housekeeper *session.Housekeeper

	server *http.Server
	router *webhttp.Router
}

// New creates an Application with all dependencies initialised.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "quill-web",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	sealer, err := InitSealer(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.sealer = sealer

	app.initServices()
	if err := app.initHTTP(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// Handler exposes the router, mainly for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeper.Start()

	app.logger.Info("web front end starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"api_url", app.cfg.APIURL,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	app.logger.Info("shutting down web front end...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeper.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("web front end stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := app.cfg.DatabaseFile
	if dsn != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	}

	db, err := sqlite.NewStore(dsn)
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

func (app *Application) initServices() {
	app.flows = flow.New(flow.NewChallengeCache(app.cfg.ChallengeTTL))
	app.housekeeper = session.NewHousekeeper(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.flows.Challenges,
	)
}

func (app *Application) initHTTP() error {
	client := blogsdk.NewClient(app.cfg.APIURL, nil)
	client.HTTPClient.Timeout = app.cfg.APITimeout

	router, err := webhttp.NewRouter(webhttp.Config{
		Client:        client,
		Sessions:      session.NewManager(app.db, app.sealer, app.cfg.SessionTTL, app.cfg.SecureCookies),
		Flows:         app.flows,
		Store:         app.db,
		Logger:        app.logger,
		BuildVersion:  BuildVersion,
		SecureCookies: app.cfg.SecureCookies,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
