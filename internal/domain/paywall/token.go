package paywall

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// tokenVersion prefixes every encoded binding token. Unknown versions are
// rejected as malformed, which leaves room to change the layout later.
const tokenVersion = "v1"

// bindingClaims is the wire payload of a binding token. The keys are short
// and stable; the MAC is computed over the individual fields, not over this
// JSON, so re-encoding cannot change what is signed.
type bindingClaims struct {
	UserID     string `json:"uid"`
	ContentID  string `json:"cid"`
	StorageKey string `json:"key"`
	IssuedAt   int64  `json:"iat"`
	ExpiresAt  int64  `json:"exp"`
}

// TokenService mints and verifies user binding tokens. It holds only the
// signer handle and a clock; it is stateless across requests.
type TokenService struct {
	signer Signer
	now    func() time.Time
}

func NewTokenService(signer Signer) *TokenService {
	return &TokenService{
		signer: signer,
		now:    time.Now,
	}
}

// CreateUserBindingToken mints a credential bound to (userID, contentID,
// storageKey) with a clamped expiry. The MAC covers all four fields
// including the absolute expiry; changing any of them invalidates it.
func (t *TokenService) CreateUserBindingToken(userID, contentID, storageKey string, expirySeconds int) (UserBindingToken, error) {
	if userID == "" || contentID == "" || storageKey == "" {
		return UserBindingToken{}, fmt.Errorf("%w: user, content and storage key are required", ErrInvalidGrant)
	}

	issuedAt := t.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(ClampExpiry(expirySeconds))

	sig := t.signer.Sign(userID, contentID, storageKey, strconv.FormatInt(expiresAt.Unix(), 10))

	payload, err := json.Marshal(bindingClaims{
		UserID:     userID,
		ContentID:  contentID,
		StorageKey: storageKey,
		IssuedAt:   issuedAt.Unix(),
		ExpiresAt:  expiresAt.Unix(),
	})
	if err != nil {
		return UserBindingToken{}, fmt.Errorf("encode binding token: %w", err)
	}

	enc := base64.RawURLEncoding
	return UserBindingToken{
		UserID:     userID,
		ContentID:  contentID,
		StorageKey: storageKey,
		IssuedAt:   issuedAt,
		ExpiresAt:  expiresAt,
		Encoded:    tokenVersion + "." + enc.EncodeToString(payload) + "." + enc.EncodeToString(sig),
	}, nil
}

// VerifyUserBindingToken checks a presented token against the current
// requester's identity and the route's content/storage key. The binding is
// re-checked here even though it was enforced at mint time: a token minted
// for user A and replayed by user B is denied regardless of its MAC.
//
// Check order: parse, MAC, expiry, user, content. Nothing after the MAC runs
// on an unauthenticated payload. DenialNone means the token is valid.
func (t *TokenService) VerifyUserBindingToken(raw, expectedUserID, expectedContentID, expectedStorageKey string) DenialReason {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 || parts[0] != tokenVersion {
		return DenialMalformed
	}

	enc := base64.RawURLEncoding
	payload, err := enc.DecodeString(parts[1])
	if err != nil {
		return DenialMalformed
	}
	sig, err := enc.DecodeString(parts[2])
	if err != nil {
		return DenialMalformed
	}

	var claims bindingClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return DenialMalformed
	}
	if claims.UserID == "" || claims.ContentID == "" || claims.StorageKey == "" {
		return DenialMalformed
	}

	if !t.signer.Verify(sig, claims.UserID, claims.ContentID, claims.StorageKey, strconv.FormatInt(claims.ExpiresAt, 10)) {
		return DenialBadSignature
	}
	if t.now().Unix() > claims.ExpiresAt {
		return DenialExpired
	}
	if claims.UserID != expectedUserID {
		return DenialUserMismatch
	}
	if claims.ContentID != expectedContentID || claims.StorageKey != expectedStorageKey {
		return DenialContentMismatch
	}
	return DenialNone
}
