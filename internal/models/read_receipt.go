package models

import (
	"time"

	"github.com/google/uuid"
)

// ReadReceipt records that a notice was acknowledged, either by the account
// itself (HouseholdMemberID == uuid.Nil) or by the account on behalf of a
// dependent household member. HouseholdMemberID uses the zero UUID rather
// than NULL for self-reads so the composite unique index deduplicates both
// kinds of receipt.
type ReadReceipt struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NoticeID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_receipts_notice_reader" json:"notice_id"`
	AccountID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_receipts_notice_reader;index" json:"account_id"`
	HouseholdMemberID uuid.UUID `gorm:"type:uuid;not null;default:'00000000-0000-0000-0000-000000000000';uniqueIndex:idx_receipts_notice_reader" json:"household_member_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// SelfRead reports whether the receipt represents the account reading for
// itself rather than on behalf of a household member.
func (r *ReadReceipt) SelfRead() bool {
	return r.HouseholdMemberID == uuid.Nil
}
