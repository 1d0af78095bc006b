package accesslog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"creatorhub/media-access/internal/domain/paywall"
	"creatorhub/media-access/internal/infrastructure/database/entities"
	"creatorhub/media-access/utils/grantid"
)

// Repository is the persistence sink for access decisions. It satisfies
// paywall.AccessLogSink.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Record appends one decision. Failures are returned to the async logger,
// which swallows them; nothing here may block a request path.
func (r *Repository) Record(ctx context.Context, entry paywall.AccessLogEntry) error {
	row := entities.AccessLogEntry{
		ID:         strings.Replace(grantid.New(), "grant_", "alog_", 1),
		GrantID:    entry.GrantID,
		UserID:     entry.UserID,
		ContentID:  entry.ContentID,
		StorageKey: entry.StorageKey,
		Decision:   string(entry.Decision),
		Reason:     entry.Reason,
		DecidedAt:  entry.Timestamp,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert access log entry: %w", err)
	}
	return nil
}

// RecentDenials returns the latest denial entries for a user, newest first.
// Used by the abuse review tooling.
func (r *Repository) RecentDenials(ctx context.Context, userID string, since time.Time, limit int) ([]paywall.AccessLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []entities.AccessLogEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND decision = ? AND decided_at >= ?", userID, string(paywall.DecisionDenied), since).
		Order("decided_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query recent denials: %w", err)
	}

	entries := make([]paywall.AccessLogEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, paywall.AccessLogEntry{
			GrantID:    row.GrantID,
			UserID:     row.UserID,
			ContentID:  row.ContentID,
			StorageKey: row.StorageKey,
			Decision:   paywall.Decision(row.Decision),
			Reason:     row.Reason,
			Timestamp:  row.DecidedAt,
		})
	}
	return entries, nil
}
