package paywall

import (
	"path"
	"strings"
)

const fallbackContentType = "application/octet-stream"

var contentTypesByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".m3u8": "application/vnd.apple.mpegurl",
	".ts":   "video/mp2t",
	".pdf":  "application/pdf",
}

// ContentTypeFromKey maps a storage key suffix to a MIME type. Unknown
// suffixes resolve to a generic binary type, never an error.
func ContentTypeFromKey(storageKey string) string {
	ext := strings.ToLower(path.Ext(storageKey))
	if ct, ok := contentTypesByExt[ext]; ok {
		return ct
	}
	return fallbackContentType
}

// IsStreamable reports whether the key points at content delivered through
// the streaming provider rather than plain object reads.
func IsStreamable(storageKey string) bool {
	ct := ContentTypeFromKey(storageKey)
	return strings.HasPrefix(ct, "video/") || ct == "application/vnd.apple.mpegurl"
}
