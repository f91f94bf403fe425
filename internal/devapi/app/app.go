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

	devhttp "github.com/aussiebroadwan/quill/internal/devapi/http"
	"github.com/aussiebroadwan/quill/internal/devapi/service"
	"github.com/aussiebroadwan/quill/internal/devapi/store"
	"github.com/aussiebroadwan/quill/pkg/cryptox"
	"github.com/aussiebroadwan/quill/pkg/jwtx"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

const BuildVersion = "v0.1.0"

// Application is the development API with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store       *store.Memory
	signer      *jwtx.HS256
	codes       *service.Codes
	housekeeper *service.HousekeepingService

	server *http.Server
	router *devhttp.Router
}

func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "quill-devapi",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		store: store.NewMemory(),
	}

	if err := app.initSigner(); err != nil {
		return nil, err
	}
	if cfg.Seed {
		if err := service.Seed(app.store, service.DefaultSeedUsers); err != nil {
			return nil, fmt.Errorf("failed to seed store: %w", err)
		}
		for _, u := range service.DefaultSeedUsers {
			app.logger.Info("seeded account", "email", u.Email, "is_admin", u.IsAdmin)
		}
	}

	app.initServices()
	app.initHTTP()
	return app, nil
}

// Handler exposes the router, mainly for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeper.Start()

	app.logger.Info("development API starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"static_otp", app.cfg.StaticOTP != "",
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
		app.Shutdown()
	}

	return nil
}

func (app *Application) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		_ = app.server.Close()
	}
	app.housekeeper.Stop()

	app.logger.Info("development API stopped")
}

func (app *Application) initSigner() error {
	secret := app.cfg.JWTSecret
	if secret == "" {
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		secret = generated
		app.logger.Info("using ephemeral jwt secret; tokens will not survive a restart")
	}

	signer, err := jwtx.NewHS256([]byte(secret))
	if err != nil {
		return fmt.Errorf("failed to create signer: %w", err)
	}
	app.signer = signer
	return nil
}

func (app *Application) initServices() {
	app.codes = service.NewCodes(app.cfg.StaticOTP, app.cfg.CodeTTL)
	app.housekeeper = service.NewHousekeepingService(app.store, app.codes, app.logger, app.cfg.HousekeepingInterval)
}

func (app *Application) initHTTP() {
	router := devhttp.NewRouter(app.signer, BuildVersion, app.logger)
	router.AuthService = &service.AuthService{
		Store:      app.store,
		Codes:      app.codes,
		Signer:     app.signer,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}
	router.PostService = &service.PostService{Store: app.store}
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
