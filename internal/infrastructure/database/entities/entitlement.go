package entities

import "time"

// Entitlement marks that a user may view a piece of content. Rows are
// written by the billing service when subscriptions or purchases change;
// this service only ever reads them.
type Entitlement struct {
	UserID    string     `gorm:"type:varchar(64);primaryKey"`
	ContentID string     `gorm:"type:varchar(64);primaryKey"`
	Source    string     `gorm:"type:varchar(32);not null"` // subscription | purchase
	ExpiresAt *time.Time `gorm:"index"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

func (Entitlement) TableName() string {
	return "entitlements"
}
