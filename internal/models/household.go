package models

import (
	"time"

	"github.com/google/uuid"
)

// Household member roles.
const (
	MemberRoleHead      = "head"
	MemberRoleMember    = "member"
	MemberRoleDependent = "dependent"
)

type Household struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HouseholdMember is a person tracked within a household. A dependent has
// no account of its own (AccountID nil) and is read-tracked only through
// proxy receipts recorded by another member of the same household.
type HouseholdMember struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	HouseholdID uuid.UUID  `gorm:"type:uuid;not null;index" json:"household_id"`
	AccountID   *uuid.UUID `gorm:"type:uuid;index" json:"account_id,omitempty"`
	Nickname    string     `gorm:"size:100;not null" json:"nickname"`
	Role        string     `gorm:"size:20;default:'member'" json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Household Household `gorm:"foreignKey:HouseholdID" json:"-"`
}
