package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"creatorhub/media-access/internal/config"
	"creatorhub/media-access/internal/domain/paywall"
	"creatorhub/media-access/internal/infrastructure/auth"
	"creatorhub/media-access/internal/infrastructure/metrics"
	"creatorhub/media-access/internal/infrastructure/observability"
)

// AccessHandler exposes the media access endpoints.
type AccessHandler struct {
	cfg     *config.Config
	service paywall.Service
	log     zerolog.Logger
}

func NewAccessHandler(cfg *config.Config, service paywall.Service, log zerolog.Logger) *AccessHandler {
	return &AccessHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "access-handler").Logger(),
	}
}

type accessRequest struct {
	StorageKey string `json:"storage_key" binding:"required"`
	ExpiresIn  int    `json:"expires_in"`
}

type accessResponse struct {
	GrantID     string     `json:"grant_id"`
	AccessToken string     `json:"access_token"`
	URL         string     `json:"url"`
	ExpiresAt   time.Time  `json:"expires_at"`
	StreamToken string     `json:"stream_token,omitempty"`
	StreamExpiresAt *time.Time `json:"stream_expires_at,omitempty"`
}

// deniedBody is the single response every denied request receives. No
// denial ever discloses which check failed.
var deniedBody = gin.H{"error": "access denied"}

// RequestAccess godoc
// @Summary      Request gated media access
// @Description  Checks entitlement and mints a binding token plus a signed URL (and a streaming token for streamable content).
// @Tags         media
// @Accept       json
// @Produce      json
// @Param        contentId  path      string         true  "Content ID"
// @Param        request    body      accessRequest  true  "Access request"
// @Success      200        {object}  accessResponse
// @Failure      400        {object}  map[string]string
// @Failure      403        {object}  map[string]string
// @Router       /v1/media/{contentId}/access [post]
func (h *AccessHandler) RequestAccess(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	contentID := c.Param("contentId")

	var req accessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := observability.StartGrantSpan(c.Request.Context(), "authorize", userID, contentID)
	defer span.End()

	grant, err := h.service.Authorize(ctx, paywall.MediaGrantRequest{
		UserID:        userID,
		ContentID:     contentID,
		StorageKey:    req.StorageKey,
		ExpirySeconds: req.ExpiresIn,
	})
	if err != nil {
		switch {
		case errors.Is(err, paywall.ErrAccessDenied):
			metrics.RecordDecision("authorize", "denied", "entitlement")
			c.JSON(http.StatusForbidden, deniedBody)
		case errors.Is(err, paywall.ErrInvalidGrant):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid access request"})
		default:
			observability.RecordError(span, err)
			h.log.Error().Err(err).Str("content_id", contentID).Msg("authorize failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	metrics.RecordDecision("authorize", "granted", "")

	resp := accessResponse{
		GrantID:     grant.GrantID,
		AccessToken: grant.Binding.Encoded,
		URL:         grant.URL.URL,
		ExpiresAt:   grant.URL.ExpiresAt,
	}
	if grant.StreamToken != nil {
		resp.StreamToken = grant.StreamToken.Token
		resp.StreamExpiresAt = &grant.StreamToken.ExpiresAt
	}
	c.JSON(http.StatusOK, resp)
}

// FetchAsset godoc
// @Summary      Fetch a gated asset
// @Description  Verifies the binding token against the caller's identity, then redirects to a fresh signed URL or streams the bytes.
// @Tags         media
// @Produce      octet-stream
// @Param        contentId  path   string  true  "Content ID"
// @Param        key        path   string  true  "Storage key"
// @Param        token      query  string  true  "Binding token"
// @Success      200  "binary data"
// @Success      302  "redirect to signed URL"
// @Failure      403  {object}  map[string]string
// @Router       /v1/assets/{contentId}/{key} [get]
func (h *AccessHandler) FetchAsset(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	contentID := c.Param("contentId")
	storageKey := strings.TrimPrefix(c.Param("storageKey"), "/")
	token := c.Query("token")

	ctx, span := observability.StartGrantSpan(c.Request.Context(), "redeem", userID, contentID)
	defer span.End()

	asset, err := h.service.Redeem(ctx, token, userID, contentID, storageKey)
	if err != nil {
		if errors.Is(err, paywall.ErrAccessDenied) {
			metrics.RecordDecision("redeem", "denied", "binding")
			c.JSON(http.StatusForbidden, deniedBody)
			return
		}
		observability.RecordError(span, err)
		h.log.Error().Err(err).Str("content_id", contentID).Msg("asset fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	metrics.RecordDecision("redeem", "granted", "")
	c.Header("Cache-Control", "private, no-store")

	if asset.RedirectURL != "" {
		c.Redirect(http.StatusFound, asset.RedirectURL)
		return
	}

	defer asset.Body.Close()
	c.Header("Content-Type", asset.ContentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, asset.Body); err != nil {
		h.log.Error().Err(err).Msg("asset stream error")
	}
}
