package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/models"
	"gorm.io/datatypes"
)

type stubAudience struct {
	resolveFn func(ctx context.Context, notice *models.Notice) ([]uuid.UUID, error)
}

func (s *stubAudience) ResolveForNotice(ctx context.Context, notice *models.Notice) ([]uuid.UUID, error) {
	if s.resolveFn != nil {
		return s.resolveFn(ctx, notice)
	}
	return nil, nil
}

type stubDispatcher struct {
	dispatchFn func(ctx context.Context, notice *models.Notice, audience []uuid.UUID) DispatchOutcome
}

func (s *stubDispatcher) DispatchNotice(ctx context.Context, notice *models.Notice, audience []uuid.UUID) DispatchOutcome {
	if s.dispatchFn != nil {
		return s.dispatchFn(ctx, notice, audience)
	}
	return DispatchOutcome{}
}

func TestCreateNoticeSanitizesContent(t *testing.T) {
	var stored *models.Notice
	notices := &mockNoticeRepo{
		createFn: func(_ context.Context, n *models.Notice) error {
			stored = n
			return nil
		},
	}

	svc := NewNoticeService(notices, &mockAudienceRepo{}, &stubAudience{}, &stubDispatcher{})
	got, err := svc.Create(context.Background(), uuid.New(), CreateNoticeInput{
		Title:   "お知らせ<script>alert(1)</script>",
		Content: "<b>重要</b>な連絡です",
		Area:    "中央区",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if stored == nil {
		t.Fatal("notice was not persisted")
	}
	if got.Title != "お知らせ" {
		t.Errorf("title = %q, script tag must be stripped", got.Title)
	}
	if got.Content != "重要な連絡です" {
		t.Errorf("content = %q, markup must be stripped", got.Content)
	}
}

func TestCreateNoticeRejectsEmptyAfterSanitize(t *testing.T) {
	notices := &mockNoticeRepo{
		createFn: func(_ context.Context, _ *models.Notice) error {
			t.Fatal("an all-markup notice must never be persisted")
			return nil
		},
	}

	svc := NewNoticeService(notices, &mockAudienceRepo{}, &stubAudience{}, &stubDispatcher{})
	_, err := svc.Create(context.Background(), uuid.New(), CreateNoticeInput{
		Title:   "<script>x</script>",
		Content: "body",
	})
	if !errors.Is(err, ErrNoticeInvalid) {
		t.Fatalf("expected ErrNoticeInvalid, got %v", err)
	}
}

func TestCreateNoticePersistsBeforeDispatch(t *testing.T) {
	var persisted bool
	notices := &mockNoticeRepo{
		createFn: func(_ context.Context, _ *models.Notice) error {
			persisted = true
			return nil
		},
	}
	dispatched := make(chan struct{}, 1)
	dispatcher := &stubDispatcher{
		dispatchFn: func(_ context.Context, _ *models.Notice, _ []uuid.UUID) DispatchOutcome {
			if !persisted {
				t.Error("dispatch ran before the notice row was committed")
			}
			dispatched <- struct{}{}
			return DispatchOutcome{Sent: 1}
		},
	}

	marked := make(chan uuid.UUID, 1)
	notices.markSentExternallyFn = func(_ context.Context, id uuid.UUID) error {
		marked <- id
		return nil
	}

	svc := NewNoticeService(notices, &mockAudienceRepo{},
		&stubAudience{resolveFn: func(_ context.Context, _ *models.Notice) ([]uuid.UUID, error) {
			return []uuid.UUID{uuid.New()}, nil
		}},
		dispatcher)

	notice, err := svc.Create(context.Background(), uuid.New(), CreateNoticeInput{Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	select {
	case <-dispatched:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch never ran")
	}
	select {
	case id := <-marked:
		if id != notice.ID {
			t.Errorf("marked wrong notice %s", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("a successful send must mark the notice sent externally")
	}
}

func TestCreateNoticeDispatchFailureKeepsNotice(t *testing.T) {
	notices := &mockNoticeRepo{}
	notices.markSentExternallyFn = func(_ context.Context, _ uuid.UUID) error {
		t.Error("an all-failed dispatch must not mark the notice sent")
		return nil
	}

	done := make(chan struct{}, 1)
	dispatcher := &stubDispatcher{
		dispatchFn: func(_ context.Context, _ *models.Notice, _ []uuid.UUID) DispatchOutcome {
			defer func() { done <- struct{}{} }()
			return DispatchOutcome{Failed: 3}
		},
	}

	svc := NewNoticeService(notices, &mockAudienceRepo{},
		&stubAudience{resolveFn: func(_ context.Context, _ *models.Notice) ([]uuid.UUID, error) {
			return []uuid.UUID{uuid.New()}, nil
		}},
		dispatcher)

	if _, err := svc.Create(context.Background(), uuid.New(), CreateNoticeInput{Title: "t", Content: "c"}); err != nil {
		t.Fatalf("delivery failure must never fail creation: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch never ran")
	}
}

func TestListForViewerReadsAreasAndCommunities(t *testing.T) {
	accountID := uuid.New()
	communityID := uuid.New()

	var gotAreas []string
	var gotCommunities []uuid.UUID
	notices := &mockNoticeRepo{
		listForViewerFn: func(_ context.Context, areas []string, communityIDs []uuid.UUID, limit, offset int) ([]models.Notice, int64, error) {
			gotAreas = areas
			gotCommunities = communityIDs
			if limit != 20 || offset != 0 {
				t.Errorf("limit/offset = %d/%d, want defaults 20/0", limit, offset)
			}
			return []models.Notice{{Title: "t"}}, 1, nil
		},
	}
	audienceQ := &mockAudienceRepo{
		communitiesForaFn: func(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
			if id != accountID {
				t.Fatalf("queried communities for %s", id)
			}
			return []uuid.UUID{communityID}, nil
		},
	}

	svc := NewNoticeService(notices, audienceQ, &stubAudience{}, &stubDispatcher{})
	account := &models.Account{ID: accountID, SelectedAreas: datatypes.JSON(`["中央区","北区"]`)}
	list, total, err := svc.ListForViewer(context.Background(), account, 0, 0)
	if err != nil {
		t.Fatalf("ListForViewer: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("unexpected result %d/%d", len(list), total)
	}
	if len(gotAreas) != 2 || gotAreas[0] != "中央区" {
		t.Errorf("areas = %v", gotAreas)
	}
	if len(gotCommunities) != 1 || gotCommunities[0] != communityID {
		t.Errorf("communities = %v", gotCommunities)
	}
}
