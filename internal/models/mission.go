package models

import (
	"time"

	"github.com/google/uuid"
)

// Mission is a volunteer activity with limited seats. ParticipantCount is
// only ever advanced by the conditional join update in MissionService, never
// by read-then-write from the application tier.
type Mission struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	Description      string    `gorm:"type:text" json:"description"`
	Area             string    `gorm:"size:100;index" json:"area"`
	Capacity         int       `gorm:"not null" json:"capacity"`
	ParticipantCount int       `gorm:"default:0" json:"participant_count"`
	RewardScore      int       `gorm:"default:0" json:"reward_score"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	CreatorID        uuid.UUID `gorm:"type:uuid;not null;index" json:"creator_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type MissionParticipant struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MissionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_mission_account" json:"mission_id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_mission_account;index" json:"account_id"`
	CreatedAt time.Time `json:"joined_at"`

	Mission Mission `gorm:"foreignKey:MissionID" json:"-"`
}
