package paywall

import "testing"

func TestContentTypeFromKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"videos/episode-1.mp4", "video/mp4"},
		{"images/cover.jpg", "image/jpeg"},
		{"images/cover.JPG", "image/jpeg"},
		{"audio/track.mp3", "audio/mpeg"},
		{"streams/master.m3u8", "application/vnd.apple.mpegurl"},
		{"streams/seg-00042.ts", "video/mp2t"},
		{"docs/guide.pdf", "application/pdf"},
		{"blobs/unknown.xyz", "application/octet-stream"},
		{"no-extension", "application/octet-stream"},
		{"", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := ContentTypeFromKey(tt.key); got != tt.want {
			t.Errorf("ContentTypeFromKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestIsStreamable(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"videos/episode-1.mp4", true},
		{"videos/clip.webm", true},
		{"streams/master.m3u8", true},
		{"streams/seg-00042.ts", true},
		{"images/cover.jpg", false},
		{"audio/track.mp3", false},
		{"blobs/unknown.xyz", false},
	}
	for _, tt := range tests {
		if got := IsStreamable(tt.key); got != tt.want {
			t.Errorf("IsStreamable(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
