package grantid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyOnce sync.Once
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

// New returns a grant_* ULID string correlating a mint with its audit trail.
func New() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	return "grant_" + strings.ToLower(id.String())
}

// IsValid reports whether the string is a grant_* ULID.
func IsValid(value string) bool {
	if !strings.HasPrefix(value, "grant_") {
		return false
	}
	_, err := Parse(value)
	return err == nil
}

// Parse strips the grant_ prefix and returns the ULID.
func Parse(value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "grant_")
	value = strings.TrimPrefix(value, "GRANT_")
	return ulid.Parse(value)
}
