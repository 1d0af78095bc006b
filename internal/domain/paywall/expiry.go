package paywall

import "time"

// Expiration bounds for every credential this package issues. A requested
// expiry outside [MinURLExpiration, MaxURLExpiration] is clamped, never
// rejected: the expiry is not a security parameter a caller should be able to
// fail a mint with.
const (
	MinURLExpiration     = 60 * time.Second
	DefaultURLExpiration = time.Hour
	MaxURLExpiration     = 24 * time.Hour
)

// ClampExpiry converts a caller-requested expiry in seconds to a duration
// inside the allowed window. Zero or negative means "caller did not say" and
// resolves to the default.
func ClampExpiry(seconds int) time.Duration {
	if seconds <= 0 {
		return DefaultURLExpiration
	}
	d := time.Duration(seconds) * time.Second
	if d < MinURLExpiration {
		return MinURLExpiration
	}
	if d > MaxURLExpiration {
		return MaxURLExpiration
	}
	return d
}
