package handlers

import (
	"github.com/rs/zerolog"

	"creatorhub/media-access/internal/config"
	"creatorhub/media-access/internal/domain/paywall"
)

// Provider wires HTTP handlers.
type Provider struct {
	Access *AccessHandler
	Audit  *AuditHandler
}

func NewProvider(cfg *config.Config, service paywall.Service, denials DenialReader, log zerolog.Logger) *Provider {
	return &Provider{
		Access: NewAccessHandler(cfg, service, log),
		Audit:  NewAuditHandler(denials, log),
	}
}
