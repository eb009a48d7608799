package models

import (
	"time"

	"github.com/google/uuid"
)

// Notice is a circulated community announcement ("kairanban"). Rows are
// immutable after creation except for ReadCount and SentExternally.
type Notice struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	Area           string     `gorm:"size:100;index" json:"area"`
	CommunityID    *uuid.UUID `gorm:"type:uuid;index" json:"community_id,omitempty"`
	AuthorID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"author_id"`
	SentExternally bool       `gorm:"default:false" json:"sent_externally"`
	ReadCount      int64      `gorm:"default:0" json:"read_count"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`

	Author Account `gorm:"foreignKey:AuthorID" json:"-"`
}
