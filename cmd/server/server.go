package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"creatorhub/media-access/internal/config"
	"creatorhub/media-access/internal/domain/paywall"
	"creatorhub/media-access/internal/infrastructure/auth"
	"creatorhub/media-access/internal/infrastructure/database"
	"creatorhub/media-access/internal/infrastructure/logger"
	"creatorhub/media-access/internal/infrastructure/observability"
	accesslogrepo "creatorhub/media-access/internal/infrastructure/repository/accesslog"
	entitlementrepo "creatorhub/media-access/internal/infrastructure/repository/entitlement"
	"creatorhub/media-access/internal/infrastructure/storage"
	"creatorhub/media-access/internal/infrastructure/streaming"
	"creatorhub/media-access/internal/interfaces/httpserver"
)

// Application is the assembled media access service.
type Application struct {
	httpServer *httpserver.HttpServer
	audit      *paywall.AccessLogger
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, audit *paywall.AccessLogger, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		audit:      audit,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	defer a.audit.Close()
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	// A missing or short signing secret fails here, before anything listens.
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	store, err := provideStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	signer, err := paywall.NewHMACSigner([]byte(cfg.SigningSecret))
	if err != nil {
		log.Fatal().Err(err).Msg("initialize signer")
	}
	tokens := paywall.NewTokenService(signer)

	streamSigner, err := streaming.NewStreamSigner(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize stream signer")
	}

	auditRepo := accesslogrepo.NewRepository(db)
	audit := paywall.NewAccessLogger(auditRepo, cfg.AccessLogBuffer, log)
	entitlements := entitlementrepo.NewRepository(db)

	service := paywall.NewService(tokens, store, streamSigner, entitlements, audit, log)

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	httpServer := httpserver.New(cfg, log, service, auditRepo, authValidator, readyChecks(db, store)...)
	app := NewApplication(httpServer, audit, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// healthChecker is implemented by both storage backends.
type healthChecker interface {
	Health(ctx context.Context) error
}

func provideStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (paywall.ObjectStore, error) {
	if cfg.IsLocalStorage() {
		return storage.NewLocalStorage(cfg, log)
	}
	return storage.NewR2Storage(ctx, cfg, log)
}

func readyChecks(db *gorm.DB, store paywall.ObjectStore) []httpserver.ReadyCheck {
	checks := []httpserver.ReadyCheck{
		func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if hc, ok := store.(healthChecker); ok {
		checks = append(checks, hc.Health)
	}
	return checks
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
