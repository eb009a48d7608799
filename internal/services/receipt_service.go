package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/metrics"
	"github.com/kairanet/kairan-backend/internal/models"
	"github.com/kairanet/kairan-backend/internal/repository"
)

var ErrNotAuthorized = errors.New("household member outside the caller's household")

// Read status values exposed to the UI. Three states, not a boolean: the
// affordance differs for a household that has partially acknowledged.
const (
	ReadStatusUnread    = "unread"
	ReadStatusPartially = "partially_read"
	ReadStatusFully     = "fully_read"
)

// MemberReadState is one row of the per-household read breakdown.
type MemberReadState struct {
	MemberID uuid.UUID `json:"member_id"`
	Nickname string    `json:"nickname"`
	Role     string    `json:"role"`
	Self     bool      `json:"self"`
	Read     bool      `json:"read"`
}

// ReadStatus is the viewer-scoped read model for one notice.
type ReadStatus struct {
	Status  string            `json:"status"`
	Members []MemberReadState `json:"members"`
}

// ReceiptService records and queries notice acknowledgements, including
// proxy reads recorded on behalf of accountless household members.
type ReceiptService struct {
	receipts   repository.ReceiptRepository
	notices    repository.NoticeRepository
	households repository.HouseholdRepository
}

func NewReceiptService(
	receipts repository.ReceiptRepository,
	notices repository.NoticeRepository,
	households repository.HouseholdRepository,
) *ReceiptService {
	return &ReceiptService{receipts: receipts, notices: notices, households: households}
}

// MarkRead records a self receipt when memberIDs is empty, otherwise one
// proxy receipt per member. Idempotent: already-present receipts are
// no-ops and never advance the notice read count. Members outside the
// caller's household are rejected before anything is written.
func (s *ReceiptService) MarkRead(ctx context.Context, noticeID, accountID uuid.UUID, memberIDs []uuid.UUID) error {
	if _, err := s.notices.FindByID(ctx, noticeID); err != nil {
		return err
	}

	readers := []uuid.UUID{uuid.Nil}
	if len(memberIDs) > 0 {
		household, err := s.households.MembersForAccount(ctx, accountID)
		if err != nil {
			return err
		}
		allowed := make(map[uuid.UUID]struct{}, len(household))
		for _, m := range household {
			allowed[m.ID] = struct{}{}
		}
		for _, id := range memberIDs {
			if _, ok := allowed[id]; !ok {
				return ErrNotAuthorized
			}
		}
		readers = memberIDs
	}

	var inserted int64
	for _, reader := range readers {
		ok, err := s.receipts.Insert(ctx, &models.ReadReceipt{
			NoticeID:          noticeID,
			AccountID:         accountID,
			HouseholdMemberID: reader,
		})
		if err != nil {
			return err
		}
		if ok {
			inserted++
			metrics.ReadReceipts.Inc()
		}
	}

	// The aggregate counts distinct receipt rows, so only genuinely new
	// inserts advance it.
	if inserted > 0 {
		if err := s.notices.AddReadCount(ctx, noticeID, inserted); err != nil {
			return err
		}
	}
	return nil
}

// Status computes the three-state household read status for a viewer: the
// viewer's own self-read plus the proxy reads of every member of their
// household(s).
func (s *ReceiptService) Status(ctx context.Context, noticeID, accountID uuid.UUID) (*ReadStatus, error) {
	receipts, err := s.receipts.ListForViewer(ctx, noticeID, accountID)
	if err != nil {
		return nil, err
	}
	read := make(map[uuid.UUID]struct{}, len(receipts))
	for _, r := range receipts {
		read[r.HouseholdMemberID] = struct{}{}
	}

	household, err := s.households.MembersForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	_, selfRead := read[uuid.Nil]
	status := &ReadStatus{
		Members: []MemberReadState{{
			MemberID: uuid.Nil,
			Nickname: "本人",
			Self:     true,
			Read:     selfRead,
		}},
	}

	total, readCount := 1, 0
	if selfRead {
		readCount = 1
	}
	for _, m := range household {
		if m.AccountID != nil && *m.AccountID == accountID {
			// The viewer's own member row is covered by the self receipt.
			continue
		}
		_, ok := read[m.ID]
		status.Members = append(status.Members, MemberReadState{
			MemberID: m.ID,
			Nickname: m.Nickname,
			Role:     m.Role,
			Read:     ok,
		})
		total++
		if ok {
			readCount++
		}
	}

	switch {
	case readCount == 0:
		status.Status = ReadStatusUnread
	case readCount == total:
		status.Status = ReadStatusFully
	default:
		status.Status = ReadStatusPartially
	}
	return status, nil
}

// Count returns the global receipt count for a notice across all viewers.
func (s *ReceiptService) Count(ctx context.Context, noticeID uuid.UUID) (int64, error) {
	return s.receipts.CountForNotice(ctx, noticeID)
}
