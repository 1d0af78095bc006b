package paywall

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"creatorhub/media-access/utils/grantid"
)

// Entitlements answers whether a user may view a piece of content. The
// decision itself (subscription, purchase state) is computed elsewhere; this
// core only consumes the predicate.
type Entitlements interface {
	IsEntitled(ctx context.Context, userID, contentID string) (bool, error)
}

// ObjectStore is the storage backend surface the paywall needs. Backends
// with native signing (R2/S3) presign their own URLs; backends without it
// report SupportsSignedURLs false and the service wraps the grant into an
// app URL that the Verifier resolves before a proxied fetch.
type ObjectStore interface {
	SupportsSignedURLs() bool
	SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// StreamTokenIssuer mints playback tokens in the streaming provider's own
// scheme. The provider verifies them independently; this side only encodes.
type StreamTokenIssuer interface {
	Enabled() bool
	Issue(contentID string, expiresAt time.Time) (string, error)
}

// Grant is everything minted for one authorized access request.
type Grant struct {
	GrantID     string
	Binding     UserBindingToken
	URL         SignedMediaURL
	StreamToken *SignedStreamToken
}

// Asset is the resolved target of a verified asset fetch. Exactly one of
// RedirectURL or Body is set.
type Asset struct {
	RedirectURL string
	Body        io.ReadCloser
	ContentType string
}

// Service is the media access core: it gates grants behind the entitlement
// check, mints the credentials, and verifies them on asset fetch.
type Service interface {
	Authorize(ctx context.Context, req MediaGrantRequest) (*Grant, error)
	Redeem(ctx context.Context, token, userID, contentID, storageKey string) (*Asset, error)
	LogAccess(entry AccessLogEntry)
}

// AssetPathPrefix is where app-signed URLs point when the storage backend
// has no native signing. The Verifier owns this route.
const AssetPathPrefix = "/v1/assets"

type service struct {
	tokens       *TokenService
	store        ObjectStore
	streams      StreamTokenIssuer
	entitlements Entitlements
	audit        *AccessLogger
	log          zerolog.Logger
	now          func() time.Time
}

// NewService assembles the access core. streams may be a disabled issuer
// when no provider key is configured.
func NewService(tokens *TokenService, store ObjectStore, streams StreamTokenIssuer, entitlements Entitlements, audit *AccessLogger, log zerolog.Logger) Service {
	return &service{
		tokens:       tokens,
		store:        store,
		streams:      streams,
		entitlements: entitlements,
		audit:        audit,
		log:          log.With().Str("component", "paywall-service").Logger(),
		now:          time.Now,
	}
}

// Authorize runs the entitlement gate and, on success, mints a binding token
// plus the downstream credentials bound to (user, content, expiry). A failed
// entitlement check surfaces as the same ErrAccessDenied as every other
// denial; the reason lands only in the audit trail.
func (s *service) Authorize(ctx context.Context, req MediaGrantRequest) (*Grant, error) {
	if req.UserID == "" || req.ContentID == "" || req.StorageKey == "" {
		return nil, fmt.Errorf("%w: user, content and storage key are required", ErrInvalidGrant)
	}

	grantID := grantid.New()

	entitled, err := s.entitlements.IsEntitled(ctx, req.UserID, req.ContentID)
	if err != nil {
		return nil, fmt.Errorf("entitlement check: %w", err)
	}
	if !entitled {
		s.recordDecision(grantID, req, DecisionDenied, DenialNotEntitled)
		return nil, ErrAccessDenied
	}

	binding, err := s.tokens.CreateUserBindingToken(req.UserID, req.ContentID, req.StorageKey, req.ExpirySeconds)
	if err != nil {
		return nil, err
	}

	grant := &Grant{GrantID: grantID, Binding: binding}

	if s.store.SupportsSignedURLs() {
		url, err := s.store.SignedGetURL(ctx, req.StorageKey, binding.ExpiresAt.Sub(binding.IssuedAt))
		if err != nil {
			return nil, fmt.Errorf("sign storage url: %w", err)
		}
		grant.URL = SignedMediaURL{URL: url, ExpiresAt: binding.ExpiresAt}
	} else {
		grant.URL = SignedMediaURL{URL: s.appSignedURL(binding), ExpiresAt: binding.ExpiresAt}
	}

	if s.streams != nil && s.streams.Enabled() && IsStreamable(req.StorageKey) {
		token, err := s.streams.Issue(req.ContentID, binding.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("issue stream token: %w", err)
		}
		grant.StreamToken = &SignedStreamToken{
			Token:     token,
			ContentID: req.ContentID,
			ExpiresAt: binding.ExpiresAt,
		}
	}

	s.recordDecision(grantID, req, DecisionGranted, DenialNone)
	return grant, nil
}

// Redeem verifies a presented binding token against the authenticated
// requester and the route target, then resolves a fresh downstream
// credential. The previously issued URL is never reused: binding token
// validity does not imply the storage URL has not itself expired.
func (s *service) Redeem(ctx context.Context, token, userID, contentID, storageKey string) (*Asset, error) {
	req := MediaGrantRequest{UserID: userID, ContentID: contentID, StorageKey: storageKey}

	if reason := s.tokens.VerifyUserBindingToken(token, userID, contentID, storageKey); reason != DenialNone {
		s.recordDecision("", req, DecisionDenied, reason)
		return nil, ErrAccessDenied
	}

	if s.store.SupportsSignedURLs() {
		// Short fresh window: the client follows the redirect immediately.
		url, err := s.store.SignedGetURL(ctx, storageKey, MinURLExpiration)
		if err != nil {
			return nil, fmt.Errorf("sign storage url: %w", err)
		}
		s.recordDecision("", req, DecisionGranted, DenialNone)
		return &Asset{RedirectURL: url, ContentType: ContentTypeFromKey(storageKey)}, nil
	}

	body, contentType, err := s.store.Open(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("open storage object: %w", err)
	}
	if contentType == "" {
		contentType = ContentTypeFromKey(storageKey)
	}
	s.recordDecision("", req, DecisionGranted, DenialNone)
	return &Asset{Body: body, ContentType: contentType}, nil
}

// LogAccess forwards an externally produced audit entry, fire-and-forget.
func (s *service) LogAccess(entry AccessLogEntry) {
	s.audit.Record(entry)
}

func (s *service) appSignedURL(binding UserBindingToken) string {
	return AssetPathPrefix + "/" + binding.ContentID + "/" + binding.StorageKey + "?token=" + binding.Encoded
}

func (s *service) recordDecision(grantID string, req MediaGrantRequest, decision Decision, reason DenialReason) {
	s.audit.Record(AccessLogEntry{
		GrantID:    grantID,
		UserID:     req.UserID,
		ContentID:  req.ContentID,
		StorageKey: req.StorageKey,
		Decision:   decision,
		Reason:     string(reason),
		Timestamp:  s.now().UTC(),
	})
}
