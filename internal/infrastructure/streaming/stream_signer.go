package streaming

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"creatorhub/media-access/internal/config"
	"creatorhub/media-access/internal/domain/paywall"
	"creatorhub/media-access/internal/infrastructure/metrics"
)

// StreamSigner mints playback tokens in the streaming provider's published
// scheme: an RS256 JWT carrying the content ID and expiry, signed with the
// RSA key registered with the provider. The provider verifies tokens on its
// side; this issuer only has to encode them correctly.
type StreamSigner struct {
	keyID string
	key   *rsa.PrivateKey
	log   zerolog.Logger
	now   func() time.Time
}

// NewStreamSigner parses the provider key from config. When no key is
// configured the signer is disabled rather than failed: the service still
// serves non-streaming media.
func NewStreamSigner(cfg *config.Config, log zerolog.Logger) (*StreamSigner, error) {
	logger := log.With().Str("component", "stream-signer").Logger()

	if !cfg.StreamSigningEnabled() {
		logger.Warn().Msg("STREAM_SIGNING_KEY is not set; streaming tokens will be disabled")
		return &StreamSigner{log: logger, now: time.Now}, nil
	}

	pemBytes, err := base64.StdEncoding.DecodeString(cfg.StreamKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("decode stream signing key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse stream signing key: %w", err)
	}

	return &StreamSigner{
		keyID: cfg.StreamKeyID,
		key:   key,
		log:   logger,
		now:   time.Now,
	}, nil
}

// NewStreamSignerFromKey builds a signer from an already parsed key.
func NewStreamSignerFromKey(keyID string, key *rsa.PrivateKey, log zerolog.Logger) *StreamSigner {
	return &StreamSigner{
		keyID: keyID,
		key:   key,
		log:   log.With().Str("component", "stream-signer").Logger(),
		now:   time.Now,
	}
}

// Enabled reports whether a provider key is loaded.
func (s *StreamSigner) Enabled() bool {
	return s.key != nil
}

// Issue encodes a playback token for one content ID. A token must never be
// minted for an already-expired window, so a past expiry is an invalid
// grant, not a clamp.
func (s *StreamSigner) Issue(contentID string, expiresAt time.Time) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("stream signing is not configured")
	}
	if contentID == "" {
		return "", fmt.Errorf("%w: content id is required", paywall.ErrInvalidGrant)
	}
	if !expiresAt.After(s.now()) {
		return "", fmt.Errorf("%w: expiry %s is in the past", paywall.ErrInvalidGrant, expiresAt.UTC().Format(time.RFC3339))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": contentID,
		"kid": s.keyID,
		"iat": s.now().Unix(),
		"exp": expiresAt.Unix(),
	})
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.key)
	if err != nil {
		metrics.RecordStreamToken("error")
		return "", fmt.Errorf("sign stream token: %w", err)
	}
	metrics.RecordStreamToken("success")
	return signed, nil
}
