package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"creatorhub/media-access/internal/domain/paywall"
	"creatorhub/media-access/internal/infrastructure/auth"
)

// DenialReader exposes the audit trail's denial view.
type DenialReader interface {
	RecentDenials(ctx context.Context, userID string, since time.Time, limit int) ([]paywall.AccessLogEntry, error)
}

// AuditHandler serves the caller's own denial history. Unlike the access
// endpoints it reports reasons: the caller already knows what they attempted,
// so the uniform-denial rule does not apply to their own trail.
type AuditHandler struct {
	denials DenialReader
	log     zerolog.Logger
}

func NewAuditHandler(denials DenialReader, log zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		denials: denials,
		log:     log.With().Str("component", "audit-handler").Logger(),
	}
}

type denialEntry struct {
	GrantID    string    `json:"grant_id,omitempty"`
	ContentID  string    `json:"content_id"`
	StorageKey string    `json:"storage_key"`
	Reason     string    `json:"reason"`
	DecidedAt  time.Time `json:"decided_at"`
}

// RecentDenials godoc
// @Summary      List the caller's recent access denials
// @Description  Returns denial entries recorded for the authenticated user, newest first.
// @Tags         media
// @Produce      json
// @Param        since  query  string  false  "RFC3339 lower bound (default 24h ago)"
// @Param        limit  query  int     false  "Maximum entries (default 50)"
// @Success      200  {object}  map[string]any
// @Router       /v1/media/denials [get]
func (h *AuditHandler) RecentDenials(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		since = parsed
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.denials.RecentDenials(c.Request.Context(), userID, since, limit)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("denial query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	out := make([]denialEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, denialEntry{
			GrantID:    entry.GrantID,
			ContentID:  entry.ContentID,
			StorageKey: entry.StorageKey,
			Reason:     entry.Reason,
			DecidedAt:  entry.Timestamp,
		})
	}
	c.JSON(http.StatusOK, gin.H{"denials": out})
}
