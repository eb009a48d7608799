package models

import (
	"time"

	"github.com/google/uuid"
)

// Community member roles.
const (
	CommunityRoleAdmin    = "admin"
	CommunityRoleSubAdmin = "sub_admin"
	CommunityRoleMember   = "member"
)

type Community struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Area        string    `gorm:"size:100;index" json:"area"`
	CreatorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CommunityMember joins accounts to communities. The composite unique index
// makes joining idempotent under double submission.
type CommunityMember struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CommunityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_community_account" json:"community_id"`
	AccountID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_community_account;index" json:"account_id"`
	Role        string    `gorm:"size:20;default:'member'" json:"role"`
	CreatedAt   time.Time `json:"joined_at"`

	Community Community `gorm:"foreignKey:CommunityID" json:"-"`
}
