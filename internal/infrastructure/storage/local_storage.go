package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"creatorhub/media-access/internal/config"
)

var (
	errLocalStorageDisabled = errors.New("local storage is not configured; set MEDIA_LOCAL_STORAGE_PATH to enable")
	errKeyOutsideRoot       = errors.New("storage key resolves outside the storage root")
)

// LocalStorage serves objects from the local filesystem. It has no native
// URL signing, so grants against it travel as app-signed URLs that the
// verifier resolves before a proxied read.
type LocalStorage struct {
	basePath string
	log      zerolog.Logger
	disabled bool
}

// NewLocalStorage creates a local filesystem storage backend.
func NewLocalStorage(cfg *config.Config, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	basePath := strings.TrimSpace(cfg.LocalStoragePath)
	if basePath == "" {
		logger.Warn().Msg("MEDIA_LOCAL_STORAGE_PATH is not set; local storage will be disabled")
		return &LocalStorage{
			log:      logger,
			disabled: true,
		}, nil
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create local storage directory: %w", err)
	}

	logger.Info().Str("path", basePath).Msg("local storage initialized")

	return &LocalStorage{
		basePath: basePath,
		log:      logger,
	}, nil
}

// SupportsSignedURLs returns false: the filesystem cannot validate a signed
// URL, the application's verifier gates every read instead.
func (l *LocalStorage) SupportsSignedURLs() bool {
	return false
}

// SignedGetURL is not supported; callers must take the proxy path.
func (l *LocalStorage) SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", errors.New("local storage has no native URL signing")
}

// Open returns a reader for the object plus a sniffed content type.
func (l *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if l.disabled {
		return nil, "", errLocalStorageDisabled
	}

	path, err := l.resolve(key)
	if err != nil {
		return nil, "", err
	}

	mime := ""
	if detected, err := mimetype.DetectFile(path); err == nil {
		mime = detected.String()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open local object: %w", err)
	}
	return f, mime, nil
}

// Health checks that the storage root is reachable.
func (l *LocalStorage) Health(ctx context.Context) error {
	if l.disabled {
		return nil
	}
	_, err := os.Stat(l.basePath)
	return err
}

// resolve joins the key under the root and rejects traversal outside it.
func (l *LocalStorage) resolve(key string) (string, error) {
	cleaned := filepath.Clean("/" + key)
	path := filepath.Join(l.basePath, cleaned)
	root := filepath.Clean(l.basePath) + string(os.PathSeparator)
	if !strings.HasPrefix(path, root) {
		return "", errKeyOutsideRoot
	}
	return path, nil
}
