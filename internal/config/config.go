package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// minSigningSecretBytes is the floor for the binding-token secret. A short
// secret weakens every credential this service issues, so it is rejected at
// startup rather than tolerated.
const minSigningSecretBytes = 32

// Config holds the environment driven configuration for the media access
// service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"media-access-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"MEDIA_ACCESS_PORT" envDefault:"8290"`
	LogLevel        string        `env:"MEDIA_ACCESS_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database (required, no default)
	DatabaseURL string `env:"DB_POSTGRESQL_DSN,notEmpty"`

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Binding token signing secret. Missing or short secrets abort startup.
	SigningSecret string `env:"MEDIA_SIGNING_SECRET,notEmpty"`

	// Audit trail
	AccessLogBuffer int `env:"ACCESS_LOG_BUFFER" envDefault:"256"`

	// Storage Backend Selection
	StorageBackend string `env:"MEDIA_STORAGE_BACKEND" envDefault:"r2"` // Options: "r2" or "local"

	// R2 / S3-compatible Storage Configuration
	R2Endpoint     string `env:"MEDIA_R2_ENDPOINT"`
	R2Region       string `env:"MEDIA_R2_REGION" envDefault:"auto"`
	R2Bucket       string `env:"MEDIA_R2_BUCKET"`
	R2AccessKeyID  string `env:"MEDIA_R2_ACCESS_KEY_ID"`
	R2SecretKey    string `env:"MEDIA_R2_SECRET_ACCESS_KEY"`
	R2UsePathStyle bool   `env:"MEDIA_R2_USE_PATH_STYLE" envDefault:"true"`

	// Local Storage Configuration
	LocalStoragePath string `env:"MEDIA_LOCAL_STORAGE_PATH"`

	// Streaming provider signing key, registered with the provider. The key
	// arrives base64-encoded PEM; playback tokens are useless without it but
	// the service still serves non-streaming media when unset.
	StreamKeyID  string `env:"STREAM_SIGNING_KEY_ID"`
	StreamKeyPEM string `env:"STREAM_SIGNING_KEY"`

	// Authentication
	AuthEnabled  bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer   string `env:"AUTH_ISSUER"`
	AuthAudience string `env:"AUTH_AUDIENCE"`
	AuthJWKSURL  string `env:"AUTH_JWKS_URL"`
}

// Load parses environment variables into Config. Every error returned here
// is fatal for the process; none of them is recoverable per-request.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.SigningSecret = strings.TrimSpace(cfg.SigningSecret)
	cfg.R2Bucket = strings.TrimSpace(cfg.R2Bucket)
	cfg.R2AccessKeyID = strings.TrimSpace(cfg.R2AccessKeyID)
	cfg.R2SecretKey = strings.TrimSpace(cfg.R2SecretKey)
	cfg.R2Endpoint = strings.TrimSpace(cfg.R2Endpoint)
	cfg.StreamKeyID = strings.TrimSpace(cfg.StreamKeyID)
	cfg.StreamKeyPEM = strings.TrimSpace(cfg.StreamKeyPEM)

	if len(cfg.SigningSecret) < minSigningSecretBytes {
		return nil, fmt.Errorf("MEDIA_SIGNING_SECRET must be at least %d bytes", minSigningSecretBytes)
	}
	if cfg.StreamKeyPEM != "" && cfg.StreamKeyID == "" {
		return nil, fmt.Errorf("STREAM_SIGNING_KEY_ID is required when STREAM_SIGNING_KEY is set")
	}
	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsLocalStorage returns true if the local filesystem backend is configured.
func (c *Config) IsLocalStorage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "local"
}

// IsR2Storage returns true if the R2/S3-compatible backend is configured.
func (c *Config) IsR2Storage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "r2"
}

// StreamSigningEnabled reports whether a provider key is configured.
func (c *Config) StreamSigningEnabled() bool {
	return c.StreamKeyPEM != "" && c.StreamKeyID != ""
}
