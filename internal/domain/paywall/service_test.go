package paywall

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeStore struct {
	signed   bool
	signErr  error
	openErr  error
	lastTTL  time.Duration
	urlCalls int
}

func (s *fakeStore) SupportsSignedURLs() bool { return s.signed }

func (s *fakeStore) SignedGetURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	s.urlCalls++
	s.lastTTL = ttl
	return "https://storage.example/" + key + "?X-Amz-Signature=abc", nil
}

func (s *fakeStore) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	if s.openErr != nil {
		return nil, "", s.openErr
	}
	return io.NopCloser(strings.NewReader("object-bytes")), "", nil
}

type fakeEntitlements struct {
	allowed map[string]bool
	err     error
}

func (e *fakeEntitlements) IsEntitled(_ context.Context, userID, contentID string) (bool, error) {
	if e.err != nil {
		return false, e.err
	}
	return e.allowed[userID+"/"+contentID], nil
}

type fakeStreamIssuer struct {
	enabled bool
	err     error
}

func (i *fakeStreamIssuer) Enabled() bool { return i.enabled }

func (i *fakeStreamIssuer) Issue(contentID string, _ time.Time) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	return "stream-token-for-" + contentID, nil
}

type serviceFixture struct {
	svc   Service
	store *fakeStore
	sink  *captureSink
	audit *AccessLogger
}

func newServiceFixture(t *testing.T, store *fakeStore, ent *fakeEntitlements, streams *fakeStreamIssuer) *serviceFixture {
	t.Helper()
	signer, err := NewHMACSigner([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewHMACSigner() error = %v", err)
	}
	sink := &captureSink{}
	audit := NewAccessLogger(sink, 64, zerolog.Nop())
	svc := NewService(NewTokenService(signer), store, streams, ent, audit, zerolog.Nop())
	return &serviceFixture{svc: svc, store: store, sink: sink, audit: audit}
}

// drain flushes the async audit trail so assertions see every entry.
func (f *serviceFixture) drain() []AccessLogEntry {
	f.audit.Close()
	return f.sink.recorded()
}

func entitle(pairs ...string) *fakeEntitlements {
	allowed := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		allowed[p] = true
	}
	return &fakeEntitlements{allowed: allowed}
}

func TestAuthorize_GrantsEntitledUser(t *testing.T) {
	f := newServiceFixture(t, &fakeStore{signed: true}, entitle("user_a/content_c"), &fakeStreamIssuer{})

	grant, err := f.svc.Authorize(context.Background(), MediaGrantRequest{
		UserID: "user_a", ContentID: "content_c", StorageKey: "images/cover.jpg", ExpirySeconds: 300,
	})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if grant.GrantID == "" {
		t.Error("grant ID is empty")
	}
	if !strings.HasPrefix(grant.URL.URL, "https://storage.example/images/cover.jpg") {
		t.Errorf("URL = %q, want presigned storage URL", grant.URL.URL)
	}
	if f.store.lastTTL != 300*time.Second {
		t.Errorf("presign ttl = %v, want 300s", f.store.lastTTL)
	}
	if grant.StreamToken != nil {
		t.Error("stream token minted for a non-streamable key")
	}

	entries := f.drain()
	if len(entries) != 1 || entries[0].Decision != DecisionGranted {
		t.Fatalf("audit = %+v, want one granted entry", entries)
	}
	if entries[0].GrantID != grant.GrantID {
		t.Errorf("audit grant ID = %q, want %q", entries[0].GrantID, grant.GrantID)
	}
}

func TestAuthorize_DeniesUnentitledUser(t *testing.T) {
	f := newServiceFixture(t, &fakeStore{signed: true}, entitle(), &fakeStreamIssuer{})

	_, err := f.svc.Authorize(context.Background(), MediaGrantRequest{
		UserID: "user_a", ContentID: "content_c", StorageKey: "images/cover.jpg",
	})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("Authorize() error = %v, want ErrAccessDenied", err)
	}
	// No credential is minted on denial, so storage is never consulted.
	if f.store.urlCalls != 0 {
		t.Error("storage URL signed for a denied request")
	}

	entries := f.drain()
	if len(entries) != 1 || entries[0].Reason != string(DenialNotEntitled) {
		t.Fatalf("audit = %+v, want one not_entitled denial", entries)
	}
}

func TestAuthorize_EntitlementErrorIsNotADenial(t *testing.T) {
	f := newServiceFixture(t, &fakeStore{signed: true}, &fakeEntitlements{err: errors.New("db down")}, &fakeStreamIssuer{})

	_, err := f.svc.Authorize(context.Background(), MediaGrantRequest{
		UserID: "user_a", ContentID: "content_c", StorageKey: "images/cover.jpg",
	})
	if err == nil || errors.Is(err, ErrAccessDenied) {
		t.Fatalf("Authorize() error = %v, want plain failure distinct from a denial", err)
	}
}

func TestAuthorize_MissingFields(t *testing.T) {
	f := newServiceFixture(t, &fakeStore{signed: true}, entitle("user_a/content_c"), &fakeStreamIssuer{})

	_, err := f.svc.Authorize(context.Background(), MediaGrantRequest{UserID: "user_a"})
	if !errors.Is(err, ErrInvalidGrant) {
		t.Fatalf("Authorize() error = %v, want ErrInvalidGrant", err)
	}
}

func TestAuthorize_StreamTokenForStreamableContent(t *testing.T) {
	f := newServiceFixture(t, &fakeStore{signed: true}, entitle("user_a/content_c"), &fakeStreamIssuer{enabled: true})

	grant, err := f.svc.Authorize(context.Background(), MediaGrantRequest{
		UserID: "user_a", ContentID: "content_c", StorageKey: "videos/episode-1.mp4", ExpirySeconds: 300,
	})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if grant.StreamToken == nil {
		t.Fatal("no stream token for streamable content with issuer enabled")
	}
	if grant.StreamToken.Token != "stream-token-for-content_c" {
		t.Errorf("stream token = %q", grant.StreamToken.Token)
	}
	if !grant.StreamToken.ExpiresAt.Equal(grant.Binding.ExpiresAt) {
		t.Error("stream token expiry differs from binding expiry")
	}
	f.drain()
}

func TestAuthorize_NoStreamTokenWhenIssuerDisabled(t *testing.T) {
	f := newServiceFixture(t, &fakeStore{signed: true}, entitle("user_a/content_c"), &fakeStreamIssuer{enabled: false})

	grant, err := f.svc.Authorize(context.Background(), MediaGrantRequest{
		UserID: "user_a", ContentID: "content_c", StorageKey: "videos/episode-1.mp4",
	})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if grant.StreamToken != nil {
		t.Error("stream token minted while issuer disabled")
	}
	f.drain()
}

func TestAuthorize_AppSignedURLWithoutNativeSigning(t *testing.T) {
	f := newServiceFixture(t, &fakeStore{signed: false}, entitle("user_a/content_c"), &fakeStreamIssuer{})

	grant, err := f.svc.Authorize(context.Background(), MediaGrantRequest{
		UserID: "user_a", ContentID: "content_c", StorageKey: "images/cover.jpg", ExpirySeconds: 300,
	})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	want := AssetPathPrefix + "/content_c/images/cover.jpg?token=" + grant.Binding.Encoded
	if grant.URL.URL != want {
		t.Errorf("URL = %q, want %q", grant.URL.URL, want)
	}
	if f.store.urlCalls != 0 {
		t.Error("native presign called on a backend without signed URL support")
	}
	f.drain()
}

// The anti-sharing flow end to end: user A's grant redeems for A, is denied
// for B, and expires on schedule.
func TestRedeem_BindingEnforcement(t *testing.T) {
	f := newServiceFixture(t, &fakeStore{signed: true}, entitle("user_a/content_c"), &fakeStreamIssuer{})
	ctx := context.Background()

	grant, err := f.svc.Authorize(ctx, MediaGrantRequest{
		UserID: "user_a", ContentID: "content_c", StorageKey: "images/cover.jpg", ExpirySeconds: 300,
	})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	token := grant.Binding.Encoded

	asset, err := f.svc.Redeem(ctx, token, "user_a", "content_c", "images/cover.jpg")
	if err != nil {
		t.Fatalf("Redeem() as owner: error = %v", err)
	}
	if asset.RedirectURL == "" {
		t.Error("Redeem() did not resolve a redirect URL on a signing backend")
	}

	if _, err := f.svc.Redeem(ctx, token, "user_b", "content_c", "images/cover.jpg"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("Redeem() as replaying user: error = %v, want ErrAccessDenied", err)
	}
	if _, err := f.svc.Redeem(ctx, token, "user_a", "content_other", "images/cover.jpg"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("Redeem() against different content: error = %v, want ErrAccessDenied", err)
	}

	entries := f.drain()
	var reasons []string
	for _, e := range entries {
		if e.Decision == DecisionDenied {
			reasons = append(reasons, e.Reason)
		}
	}
	if len(reasons) != 2 || reasons[0] != string(DenialUserMismatch) || reasons[1] != string(DenialContentMismatch) {
		t.Errorf("denial reasons = %v, want [user_mismatch content_mismatch]", reasons)
	}
}

func TestRedeem_ExpiredToken(t *testing.T) {
	f := newServiceFixture(t, &fakeStore{signed: true}, entitle("user_a/content_c"), &fakeStreamIssuer{})
	ctx := context.Background()

	impl := f.svc.(*service)
	minted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	impl.tokens.now = func() time.Time { return minted }

	grant, err := f.svc.Authorize(ctx, MediaGrantRequest{
		UserID: "user_a", ContentID: "content_c", StorageKey: "images/cover.jpg", ExpirySeconds: 300,
	})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	impl.tokens.now = func() time.Time { return minted.Add(301 * time.Second) }
	if _, err := f.svc.Redeem(ctx, grant.Binding.Encoded, "user_a", "content_c", "images/cover.jpg"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("Redeem() after expiry: error = %v, want ErrAccessDenied", err)
	}

	entries := f.drain()
	last := entries[len(entries)-1]
	if last.Reason != string(DenialExpired) {
		t.Errorf("audit reason = %q, want %q", last.Reason, DenialExpired)
	}
}

func TestRedeem_FreshURLPerRedemption(t *testing.T) {
	f := newServiceFixture(t, &fakeStore{signed: true}, entitle("user_a/content_c"), &fakeStreamIssuer{})
	ctx := context.Background()

	grant, err := f.svc.Authorize(ctx, MediaGrantRequest{
		UserID: "user_a", ContentID: "content_c", StorageKey: "images/cover.jpg", ExpirySeconds: 3600,
	})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	if _, err := f.svc.Redeem(ctx, grant.Binding.Encoded, "user_a", "content_c", "images/cover.jpg"); err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	// Redemption presigns with its own short window, not the grant's.
	if f.store.lastTTL != MinURLExpiration {
		t.Errorf("redeem presign ttl = %v, want %v", f.store.lastTTL, MinURLExpiration)
	}
	f.drain()
}

func TestRedeem_ProxiesWithoutNativeSigning(t *testing.T) {
	f := newServiceFixture(t, &fakeStore{signed: false}, entitle("user_a/content_c"), &fakeStreamIssuer{})
	ctx := context.Background()

	grant, err := f.svc.Authorize(ctx, MediaGrantRequest{
		UserID: "user_a", ContentID: "content_c", StorageKey: "images/cover.jpg",
	})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	asset, err := f.svc.Redeem(ctx, grant.Binding.Encoded, "user_a", "content_c", "images/cover.jpg")
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if asset.Body == nil {
		t.Fatal("Redeem() on a proxy backend returned no body")
	}
	defer asset.Body.Close()
	if asset.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, want image/jpeg", asset.ContentType)
	}
	data, _ := io.ReadAll(asset.Body)
	if string(data) != "object-bytes" {
		t.Errorf("body = %q", data)
	}
	f.drain()
}
