package entities

import "time"

// AccessLogEntry is one persisted grant/deny decision. Rows are append-only:
// written once, never updated.
type AccessLogEntry struct {
	ID         string `gorm:"type:varchar(40);primaryKey"`
	GrantID    string `gorm:"type:varchar(40);index"`
	UserID     string `gorm:"type:varchar(64);index;not null"`
	ContentID  string `gorm:"type:varchar(64);index;not null"`
	StorageKey string `gorm:"type:varchar(255);not null"`
	Decision   string `gorm:"type:varchar(16);not null"`
	Reason     string `gorm:"type:varchar(32)"`
	DecidedAt  time.Time `gorm:"index;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (AccessLogEntry) TableName() string {
	return "media_access_log"
}
