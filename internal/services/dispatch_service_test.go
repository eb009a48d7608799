package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/line"
	"github.com/kairanet/kairan-backend/internal/models"
)

func TestDispatchMixedOutcome(t *testing.T) {
	ok1 := uuid.New()
	ok2 := uuid.New()
	failing := uuid.New()
	unlinked := uuid.New()
	muted := uuid.New()

	links := &mockLinkRepo{
		forAccountsFn: func(_ context.Context, _ []uuid.UUID) ([]models.AccountLink, error) {
			return []models.AccountLink{
				{AccountID: ok1, ExternalUserID: "U-ok1", NotificationsEnabled: true},
				{AccountID: ok2, ExternalUserID: "U-ok2", NotificationsEnabled: true},
				{AccountID: failing, ExternalUserID: "U-fail", NotificationsEnabled: true},
				{AccountID: muted, ExternalUserID: "U-muted", NotificationsEnabled: false},
			}, nil
		},
	}
	var sentTo []string
	client := &mockLineClient{
		pushTextFn: func(_ context.Context, to, _ string) error {
			if to == "U-fail" {
				return line.ErrPushFailed
			}
			sentTo = append(sentTo, to)
			return nil
		},
	}

	svc := NewDispatchService(links, client, 1000)
	outcome := svc.Dispatch(context.Background(), "n1", "hello",
		[]uuid.UUID{ok1, ok2, failing, unlinked, muted})

	if outcome.Sent != 2 {
		t.Errorf("sent = %d, want 2", outcome.Sent)
	}
	if outcome.Failed != 1 {
		t.Errorf("failed = %d, want 1", outcome.Failed)
	}
	if outcome.Skipped != 2 {
		t.Errorf("skipped = %d, want 2 (no link + notifications off)", outcome.Skipped)
	}
	if len(sentTo) != 2 || sentTo[0] != "U-ok1" || sentTo[1] != "U-ok2" {
		t.Errorf("unexpected delivery order %v", sentTo)
	}
}

func TestDispatchEmptyAudience(t *testing.T) {
	links := &mockLinkRepo{
		forAccountsFn: func(_ context.Context, _ []uuid.UUID) ([]models.AccountLink, error) {
			t.Fatal("empty audience must not hit the link store")
			return nil, nil
		},
	}
	svc := NewDispatchService(links, &mockLineClient{}, 1000)
	outcome := svc.Dispatch(context.Background(), "n1", "hello", nil)
	if outcome.Sent != 0 || outcome.Skipped != 0 || outcome.Failed != 0 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestDispatchFailureNeverAbortsRun(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	links := &mockLinkRepo{
		forAccountsFn: func(_ context.Context, _ []uuid.UUID) ([]models.AccountLink, error) {
			return []models.AccountLink{
				{AccountID: first, ExternalUserID: "U-1", NotificationsEnabled: true},
				{AccountID: second, ExternalUserID: "U-2", NotificationsEnabled: true},
			}, nil
		},
	}
	client := &mockLineClient{
		pushTextFn: func(_ context.Context, to, _ string) error {
			if to == "U-1" {
				return line.ErrPushFailed
			}
			return nil
		},
	}

	svc := NewDispatchService(links, client, 1000)
	outcome := svc.Dispatch(context.Background(), "n1", "hello", []uuid.UUID{first, second})
	if outcome.Failed != 1 || outcome.Sent != 1 {
		t.Fatalf("a failed send must not stop later recipients: %+v", outcome)
	}
}

func TestDispatchLookupFailureReportsNothingDelivered(t *testing.T) {
	links := &mockLinkRepo{
		forAccountsFn: func(_ context.Context, _ []uuid.UUID) ([]models.AccountLink, error) {
			return nil, errors.New("connection refused")
		},
	}
	client := &mockLineClient{
		pushTextFn: func(_ context.Context, _, _ string) error {
			t.Fatal("no pushes may happen when the link lookup fails")
			return nil
		},
	}

	svc := NewDispatchService(links, client, 1000)
	outcome := svc.Dispatch(context.Background(), "n1", "hello", []uuid.UUID{uuid.New(), uuid.New()})
	if outcome.Sent != 0 || outcome.Skipped != 0 || outcome.Failed != 0 {
		t.Fatalf("aborted run must not fabricate per-recipient outcomes: %+v", outcome)
	}
}

func TestDispatchNoticeFormat(t *testing.T) {
	accountID := uuid.New()
	links := &mockLinkRepo{
		forAccountsFn: func(_ context.Context, _ []uuid.UUID) ([]models.AccountLink, error) {
			return []models.AccountLink{{AccountID: accountID, ExternalUserID: "U-1", NotificationsEnabled: true}}, nil
		},
	}
	var text string
	client := &mockLineClient{
		pushTextFn: func(_ context.Context, _, got string) error {
			text = got
			return nil
		},
	}

	svc := NewDispatchService(links, client, 1000)
	notice := &models.Notice{ID: uuid.New(), Title: "ゴミ収集日変更", Content: "来週から火曜日です"}
	svc.DispatchNotice(context.Background(), notice, []uuid.UUID{accountID})

	if !strings.HasPrefix(text, "【回覧板】ゴミ収集日変更\n") {
		t.Errorf("message %q missing the kairanban header line", text)
	}
	if !strings.Contains(text, "来週から火曜日です") {
		t.Errorf("message %q missing the notice body", text)
	}
}
