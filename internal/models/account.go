package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account roles.
const (
	RoleResident     = "resident"
	RoleBusiness     = "business"
	RoleChokaiLeader = "chokai_leader"
	RoleAdmin        = "admin"
)

// Account is an internal user identity. Email may be empty for accounts
// created through the LINE flow without a verified email; such accounts are
// reachable only through their AccountLink. Non-empty emails are unique,
// enforced by a partial index so the unlimited pool of empty emails does
// not collide.
type Account struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email         string         `gorm:"size:255;uniqueIndex:idx_accounts_email,where:email <> ''" json:"email"`
	Password      string         `gorm:"not null;default:''" json:"-"`
	Nickname      string         `gorm:"size:100;not null" json:"nickname"`
	Role          string         `gorm:"size:20;default:'resident'" json:"role"`
	Score         int            `gorm:"default:0" json:"score"`
	SelectedAreas datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"selected_areas"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleResident, RoleBusiness, RoleChokaiLeader, RoleAdmin:
		return true
	}
	return false
}
