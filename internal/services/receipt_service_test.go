package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/models"
	"github.com/kairanet/kairan-backend/internal/repository"
)

func existingNotice(id uuid.UUID) *mockNoticeRepo {
	return &mockNoticeRepo{
		findByIDFn: func(_ context.Context, got uuid.UUID) (*models.Notice, error) {
			if got != id {
				return nil, repository.ErrNotFound
			}
			return &models.Notice{ID: id, Title: "ゴミ収集日変更"}, nil
		},
	}
}

func TestMarkReadSelf(t *testing.T) {
	noticeID := uuid.New()
	accountID := uuid.New()

	var inserted []models.ReadReceipt
	receipts := &mockReceiptRepo{
		insertFn: func(_ context.Context, r *models.ReadReceipt) (bool, error) {
			inserted = append(inserted, *r)
			return true, nil
		},
	}
	var delta int64
	notices := existingNotice(noticeID)
	notices.addReadCountFn = func(_ context.Context, _ uuid.UUID, d int64) error {
		delta += d
		return nil
	}

	svc := NewReceiptService(receipts, notices, &mockHouseholdRepo{})
	if err := svc.MarkRead(context.Background(), noticeID, accountID, nil); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	if len(inserted) != 1 {
		t.Fatalf("inserted %d receipts, want 1", len(inserted))
	}
	if !inserted[0].SelfRead() {
		t.Error("empty member list must record a self receipt")
	}
	if inserted[0].AccountID != accountID || inserted[0].NoticeID != noticeID {
		t.Errorf("unexpected receipt %+v", inserted[0])
	}
	if delta != 1 {
		t.Errorf("read count delta = %d, want 1", delta)
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	noticeID := uuid.New()

	receipts := &mockReceiptRepo{
		insertFn: func(_ context.Context, _ *models.ReadReceipt) (bool, error) {
			return false, nil // already recorded
		},
	}
	notices := existingNotice(noticeID)
	notices.addReadCountFn = func(_ context.Context, _ uuid.UUID, _ int64) error {
		t.Fatal("a duplicate receipt must not advance the read count")
		return nil
	}

	svc := NewReceiptService(receipts, notices, &mockHouseholdRepo{})
	if err := svc.MarkRead(context.Background(), noticeID, uuid.New(), nil); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
}

func TestMarkReadProxyForMembers(t *testing.T) {
	noticeID := uuid.New()
	accountID := uuid.New()
	grandma := uuid.New()
	child := uuid.New()

	households := &mockHouseholdRepo{
		membersForAccountFn: func(_ context.Context, _ uuid.UUID) ([]models.HouseholdMember, error) {
			return []models.HouseholdMember{
				{ID: grandma, Nickname: "祖母", Role: models.MemberRoleDependent},
				{ID: child, Nickname: "長男", Role: models.MemberRoleDependent},
			}, nil
		},
	}
	var readers []uuid.UUID
	receipts := &mockReceiptRepo{
		insertFn: func(_ context.Context, r *models.ReadReceipt) (bool, error) {
			readers = append(readers, r.HouseholdMemberID)
			return true, nil
		},
	}
	var delta int64
	notices := existingNotice(noticeID)
	notices.addReadCountFn = func(_ context.Context, _ uuid.UUID, d int64) error {
		delta = d
		return nil
	}

	svc := NewReceiptService(receipts, notices, households)
	if err := svc.MarkRead(context.Background(), noticeID, accountID, []uuid.UUID{grandma, child}); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if len(readers) != 2 || readers[0] != grandma || readers[1] != child {
		t.Fatalf("unexpected readers %v", readers)
	}
	if delta != 2 {
		t.Errorf("read count delta = %d, want 2", delta)
	}
}

func TestMarkReadRejectsForeignMember(t *testing.T) {
	noticeID := uuid.New()
	stranger := uuid.New()

	households := &mockHouseholdRepo{
		membersForAccountFn: func(_ context.Context, _ uuid.UUID) ([]models.HouseholdMember, error) {
			return []models.HouseholdMember{{ID: uuid.New(), Nickname: "祖母"}}, nil
		},
	}
	receipts := &mockReceiptRepo{
		insertFn: func(_ context.Context, _ *models.ReadReceipt) (bool, error) {
			t.Fatal("nothing may be written for an unauthorized member")
			return false, nil
		},
	}

	svc := NewReceiptService(receipts, existingNotice(noticeID), households)
	err := svc.MarkRead(context.Background(), noticeID, uuid.New(), []uuid.UUID{stranger})
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestMarkReadMissingNotice(t *testing.T) {
	svc := NewReceiptService(&mockReceiptRepo{}, &mockNoticeRepo{}, &mockHouseholdRepo{})
	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New(), nil)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCountForNotice(t *testing.T) {
	noticeID := uuid.New()
	receipts := &mockReceiptRepo{
		countForNoticeFn: func(_ context.Context, id uuid.UUID) (int64, error) {
			if id != noticeID {
				t.Fatalf("counted wrong notice %s", id)
			}
			return 42, nil
		},
	}

	svc := NewReceiptService(receipts, &mockNoticeRepo{}, &mockHouseholdRepo{})
	count, err := svc.Count(context.Background(), noticeID)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 42 {
		t.Fatalf("expected 42 receipts, got %d", count)
	}
}

func TestStatusThreeStates(t *testing.T) {
	noticeID := uuid.New()
	accountID := uuid.New()
	grandma := uuid.New()

	households := &mockHouseholdRepo{
		membersForAccountFn: func(_ context.Context, _ uuid.UUID) ([]models.HouseholdMember, error) {
			return []models.HouseholdMember{
				{ID: grandma, Nickname: "祖母", Role: models.MemberRoleDependent},
			}, nil
		},
	}

	cases := []struct {
		name     string
		receipts []models.ReadReceipt
		want     string
	}{
		{name: "unread", receipts: nil, want: ReadStatusUnread},
		{
			name:     "self only",
			receipts: []models.ReadReceipt{{NoticeID: noticeID, AccountID: accountID, HouseholdMemberID: uuid.Nil}},
			want:     ReadStatusPartially,
		},
		{
			name: "everyone",
			receipts: []models.ReadReceipt{
				{NoticeID: noticeID, AccountID: accountID, HouseholdMemberID: uuid.Nil},
				{NoticeID: noticeID, AccountID: accountID, HouseholdMemberID: grandma},
			},
			want: ReadStatusFully,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			receipts := &mockReceiptRepo{
				listForViewerFn: func(_ context.Context, _, _ uuid.UUID) ([]models.ReadReceipt, error) {
					return tc.receipts, nil
				},
			}
			svc := NewReceiptService(receipts, existingNotice(noticeID), households)
			status, err := svc.Status(context.Background(), noticeID, accountID)
			if err != nil {
				t.Fatalf("Status: %v", err)
			}
			if status.Status != tc.want {
				t.Errorf("status = %q, want %q", status.Status, tc.want)
			}
			if len(status.Members) != 2 {
				t.Fatalf("member rows = %d, want 2 (self + grandma)", len(status.Members))
			}
			if !status.Members[0].Self {
				t.Error("first row must be the viewer's own state")
			}
		})
	}
}

func TestStatusSkipsViewersOwnMemberRow(t *testing.T) {
	noticeID := uuid.New()
	accountID := uuid.New()

	households := &mockHouseholdRepo{
		membersForAccountFn: func(_ context.Context, _ uuid.UUID) ([]models.HouseholdMember, error) {
			// The viewer appears in their own household member list.
			return []models.HouseholdMember{
				{ID: uuid.New(), AccountID: &accountID, Nickname: "父", Role: models.MemberRoleHead},
			}, nil
		},
	}
	receipts := &mockReceiptRepo{
		listForViewerFn: func(_ context.Context, _, _ uuid.UUID) ([]models.ReadReceipt, error) {
			return []models.ReadReceipt{{NoticeID: noticeID, AccountID: accountID, HouseholdMemberID: uuid.Nil}}, nil
		},
	}

	svc := NewReceiptService(receipts, existingNotice(noticeID), households)
	status, err := svc.Status(context.Background(), noticeID, accountID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(status.Members) != 1 {
		t.Fatalf("member rows = %d, want 1 (own member row folded into self)", len(status.Members))
	}
	if status.Status != ReadStatusFully {
		t.Errorf("status = %q, want fully_read", status.Status)
	}
}
