package paywall

import "time"

// Decision is the audited outcome of an access check.
type Decision string

const (
	DecisionGranted Decision = "granted"
	DecisionDenied  Decision = "denied"
)

// MediaGrantRequest describes one request for gated media access. It is
// constructed per request and never persisted.
type MediaGrantRequest struct {
	UserID        string
	ContentID     string
	StorageKey    string
	ExpirySeconds int
}

// SignedMediaURL is a time-limited URL granting direct read access to one
// storage object. Owned by the caller that requested it.
type SignedMediaURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignedStreamToken is a playback token redeemable against the streaming
// provider's own verification.
type SignedStreamToken struct {
	Token     string    `json:"token"`
	ContentID string    `json:"content_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserBindingToken ties a media grant to one (user, content) pair. The MAC
// embedded in Encoded covers userID, contentID, storageKey and expiresAt;
// nothing about the token is trusted until the MAC verifies.
type UserBindingToken struct {
	UserID     string
	ContentID  string
	StorageKey string
	IssuedAt   time.Time
	ExpiresAt  time.Time

	// Encoded is the opaque wire form handed to clients.
	Encoded string
}

// AccessLogEntry records one grant/deny decision for audit and abuse
// detection. Entries are written once and never mutated.
type AccessLogEntry struct {
	GrantID    string
	UserID     string
	ContentID  string
	StorageKey string
	Decision   Decision
	Reason     string
	Timestamp  time.Time
}
