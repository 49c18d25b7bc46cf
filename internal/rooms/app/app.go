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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aussiebroadwan/roomkey/internal/conferencing"
	"github.com/aussiebroadwan/roomkey/internal/conferencing/fake"
	"github.com/aussiebroadwan/roomkey/internal/conferencing/httpapi"
	roomshttp "github.com/aussiebroadwan/roomkey/internal/rooms/http"
	"github.com/aussiebroadwan/roomkey/internal/rooms/service"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store/drivers/redis"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store/drivers/sqlite"
	"github.com/aussiebroadwan/roomkey/pkg/cryptox"
	"github.com/aussiebroadwan/roomkey/pkg/httpx"
	"github.com/aussiebroadwan/roomkey/pkg/jwtx"
	"github.com/aussiebroadwan/roomkey/pkg/otelx"
	"github.com/aussiebroadwan/roomkey/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	serviceName = "roomkey"
)

// Application wires the room service together: store, codec, provider,
// services and the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db            store.Store
	codec         *jwtx.HS256Codec
	adminKeys     httpx.KeyVerifier
	provider      conferencing.Provider
	traceShutdown func(context.Context) error

	// Services
	roomService         *service.RoomService
	joinService         *service.JoinService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *roomshttp.Router
}

// New creates a new Application with every dependency initialised.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: serviceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()

	shutdown, err := otelx.Setup(ctx, otelx.Config{
		ServiceName:    serviceName,
		ServiceVersion: BuildVersion,
		Environment:    cfg.Env,
		Endpoint:       cfg.OTLPEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.traceShutdown = shutdown
	if cfg.OTLPEndpoint != "" {
		app.logger.Info("tracing enabled", slog.String("endpoint", cfg.OTLPEndpoint))
	}

	if err := app.initDatabase(ctx); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		_ = shutdown(ctx)
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("room service starting",
		slog.Int("port", app.cfg.Port),
		slog.String("version", BuildVersion),
		slog.String("store", app.cfg.StoreDriver),
		slog.String("provider", app.cfg.ConferencingProvider),
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
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains the HTTP server, stops housekeeping, flushes traces and
// closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down room service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slog.Any("error", err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slog.Any("error", err))
		}
	}

	app.housekeepingService.Stop()

	if err := app.traceShutdown(ctx); err != nil {
		app.logger.Error("error flushing traces", slog.Any("error", err))
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", slog.Any("error", err))
		return err
	}

	app.logger.Info("room service stopped")
	return nil
}

// initDatabase opens the configured store and applies migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	switch app.cfg.StoreDriver {
	case StoreRedis:
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		db, err := redis.NewStore(pingCtx, app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.db = db

	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("store ready", slog.String("driver", app.cfg.StoreDriver))
	return nil
}

// initServices builds the codec, admin credential, provider and services.
func (app *Application) initServices() error {
	codec, err := jwtx.NewHS256Codec([]byte(app.cfg.JWTSecret))
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	adminKeys, err := cryptox.NewAdminKeyVerifier(app.cfg.AdminAPIKey, app.cfg.AdminAPIKeyHash)
	if err != nil {
		return fmt.Errorf("failed to initialize admin key: %w", err)
	}
	app.adminKeys = adminKeys
	if adminKeys.Hashed() {
		app.logger.Info("admin key configured", slog.String("mode", "argon2id"))
	} else {
		app.logger.Info("admin key configured",
			slog.String("mode", "plaintext"),
			slog.String("fingerprint", cryptox.FingerprintToken(app.cfg.AdminAPIKey)),
		)
	}

	provider, err := newProvider(app.cfg)
	if err != nil {
		return err
	}
	app.provider = provider
	if app.cfg.ConferencingProvider == ProviderFake {
		app.logger.Warn("using in-memory conferencing provider; meetings are not real")
	}

	app.roomService = &service.RoomService{
		Store:       app.db,
		Signer:      app.codec,
		InviteGrace: app.cfg.InviteGracePeriod,
	}
	app.joinService = &service.JoinService{
		Store:       app.db,
		Verifier:    app.codec,
		Provider:    app.provider,
		MediaRegion: app.cfg.MediaRegion,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	return nil
}

func newProvider(cfg Config) (conferencing.Provider, error) {
	switch cfg.ConferencingProvider {
	case ProviderHTTP:
		client, err := httpapi.New(cfg.ConferencingURL, cfg.ConferencingToken, cfg.ConferencingTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize conferencing client: %w", err)
		}
		return client, nil
	default:
		return fake.New(), nil
	}
}

// initHTTP builds the router and the server.
func (app *Application) initHTTP() {
	router := roomshttp.NewRouter(
		BuildVersion,
		app.db,
		app.adminKeys,
		app.logger,
	)

	limits := roomshttp.DefaultRateLimits()
	profile := func(env RateLimitEnv, base httpx.RateLimitConfig) httpx.RateLimitConfig {
		c := env.Apply(base)
		c.TrustProxy = app.cfg.TrustProxyHeaders
		return c
	}
	router.Limits = roomshttp.RateLimits{
		Strict:      profile(app.cfg.RateLimitStrict, limits.Strict),
		Moderate:    profile(app.cfg.RateLimitModerate, limits.Moderate),
		JoinAddress: profile(app.cfg.RateLimitJoinAddr, limits.JoinAddress),
		Lenient:     profile(app.cfg.RateLimitLenient, limits.Lenient),
		Public:      profile(app.cfg.RateLimitPublic, limits.Public),
	}
	router.Defaults = roomshttp.RoomDefaults{
		InviteTTL: app.cfg.InviteTTL(),
		RoomTTL:   app.cfg.RoomTTL(),
	}
	router.CORSOrigins = app.cfg.CORSAllowedOrigins
	router.RoomService = app.roomService
	router.JoinService = app.joinService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: 3 * time.Second,
	}
}
