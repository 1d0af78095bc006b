package entitlement

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"creatorhub/media-access/internal/infrastructure/database/entities"
)

// Repository reads the billing-maintained entitlement table. It satisfies
// paywall.Entitlements; entitlement state is computed elsewhere.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// IsEntitled reports whether an unexpired entitlement row exists for the
// (user, content) pair.
func (r *Repository) IsEntitled(ctx context.Context, userID, contentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.Entitlement{}).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Where("expires_at IS NULL OR expires_at > ?", time.Now().UTC()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("query entitlement: %w", err)
	}
	return count > 0, nil
}
