package paywall

import "errors"

var (
	// ErrAccessDenied is the single error surfaced for every verification or
	// entitlement failure. The specific reason is logged internally and never
	// echoed to the client.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidGrant marks a mint-time request that is invalid before any
	// credential is produced, e.g. an empty content ID.
	ErrInvalidGrant = errors.New("invalid grant request")
)

// DenialReason classifies why a credential check failed. Reasons are for the
// audit trail only; the HTTP boundary collapses all of them into one uniform
// denial.
type DenialReason string

const (
	DenialNone            DenialReason = ""
	DenialMalformed       DenialReason = "malformed"
	DenialBadSignature    DenialReason = "bad_signature"
	DenialExpired         DenialReason = "expired"
	DenialUserMismatch    DenialReason = "user_mismatch"
	DenialContentMismatch DenialReason = "content_mismatch"
	DenialNotEntitled     DenialReason = "not_entitled"
)
