//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"creatorhub/media-access/internal/config"
	"creatorhub/media-access/internal/domain/paywall"
	"creatorhub/media-access/internal/infrastructure/auth"
	"creatorhub/media-access/internal/infrastructure/database"
	"creatorhub/media-access/internal/infrastructure/logger"
	accesslogrepo "creatorhub/media-access/internal/infrastructure/repository/accesslog"
	entitlementrepo "creatorhub/media-access/internal/infrastructure/repository/entitlement"
	"creatorhub/media-access/internal/infrastructure/streaming"
	"creatorhub/media-access/internal/interfaces/httpserver"
	"creatorhub/media-access/internal/interfaces/httpserver/handlers"
)

var paywallSet = wire.NewSet(
	newSigner,
	paywall.NewTokenService,
	streaming.NewStreamSigner,
	wire.Bind(new(paywall.StreamTokenIssuer), new(*streaming.StreamSigner)),
	entitlementrepo.NewRepository,
	wire.Bind(new(paywall.Entitlements), new(*entitlementrepo.Repository)),
	accesslogrepo.NewRepository,
	wire.Bind(new(paywall.AccessLogSink), new(*accesslogrepo.Repository)),
	wire.Bind(new(handlers.DenialReader), new(*accesslogrepo.Repository)),
	newAccessLogger,
	provideStorage,
	paywall.NewService,
)

// BuildApplication assembles the media access service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		auth.NewValidator,
		newDatabaseConfig,
		newGormDB,
		paywallSet,
		newHTTPServer,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newSigner(cfg *config.Config) (paywall.Signer, error) {
	return paywall.NewHMACSigner([]byte(cfg.SigningSecret))
}

func newAccessLogger(sink paywall.AccessLogSink, cfg *config.Config, log zerolog.Logger) *paywall.AccessLogger {
	return paywall.NewAccessLogger(sink, cfg.AccessLogBuffer, log)
}

func newHTTPServer(cfg *config.Config, log zerolog.Logger, service paywall.Service, denials handlers.DenialReader, validator *auth.Validator, db *gorm.DB, store paywall.ObjectStore) *httpserver.HttpServer {
	return httpserver.New(cfg, log, service, denials, validator, readyChecks(db, store)...)
}
