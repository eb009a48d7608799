package models

import (
	"time"

	"github.com/google/uuid"
)

// LinkCode is a short-lived, single-use 6-digit code that binds an
// already-followed LINE identity to an account from the application side.
// Issuing a new code invalidates any earlier unused code for the same
// external user; a partial unique index on (external_user_id) over unused
// rows guarantees at most one live code per identity even under concurrent
// issuance.
type LinkCode struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code           string     `gorm:"size:6;not null;uniqueIndex" json:"code"`
	ExternalUserID string     `gorm:"size:64;not null;index;uniqueIndex:idx_link_codes_live,where:used_at IS NULL" json:"external_user_id"`
	DisplayName    string     `gorm:"size:255" json:"display_name"`
	AvatarURL      string     `gorm:"size:512" json:"avatar_url"`
	ExpiresAt      time.Time  `gorm:"not null;index" json:"expires_at"`
	UsedAt         *time.Time `json:"used_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (c *LinkCode) Usable(now time.Time) bool {
	return c.UsedAt == nil && now.Before(c.ExpiresAt)
}
