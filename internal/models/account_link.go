package models

import (
	"time"

	"github.com/google/uuid"
)

// AccountLink binds a LINE user to an internal account. ExternalUserID is
// unique: at most one link may exist per LINE identity, enforced by the
// database so concurrent logins cannot create two.
type AccountLink struct {
	ID                   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AccountID            uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	ExternalUserID       string    `gorm:"size:64;not null;uniqueIndex" json:"external_user_id"`
	DisplayName          string    `gorm:"size:255" json:"display_name"`
	AvatarURL            string    `gorm:"size:512" json:"avatar_url"`
	NotificationsEnabled bool      `gorm:"default:true" json:"notifications_enabled"`
	CreatedAt            time.Time `json:"linked_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	Account Account `gorm:"foreignKey:AccountID" json:"-"`
}
