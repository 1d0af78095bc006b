package grantid

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	id := New()
	if !strings.HasPrefix(id, "grant_") {
		t.Errorf("New() = %q, want grant_ prefix", id)
	}
	if len(id) != len("grant_")+26 {
		t.Errorf("New() length = %d, want %d", len(id), len("grant_")+26)
	}
	if id != strings.ToLower(id) {
		t.Errorf("New() = %q, want lowercase", id)
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"generated id", New(), true},
		{"empty", "", false},
		{"missing prefix", "01hv3ca9mdrf8t2q0zk6s0v9qb", false},
		{"wrong prefix", "media_01hv3ca9mdrf8t2q0zk6s0v9qb", false},
		{"prefix only", "grant_", false},
		{"garbage suffix", "grant_not-a-ulid", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.value); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	id := New()
	parsed, err := Parse(id)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", id, err)
	}
	if got := "grant_" + strings.ToLower(parsed.String()); got != id {
		t.Errorf("round trip = %q, want %q", got, id)
	}
}
