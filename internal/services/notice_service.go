package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/models"
	"github.com/kairanet/kairan-backend/internal/repository"
	"github.com/microcosm-cc/bluemonday"
)

var ErrNoticeInvalid = errors.New("notice title and content are required")

// noticeAudience and noticeDispatcher are the collaborator surfaces the
// notice flow needs; satisfied by AudienceService and DispatchService.
type noticeAudience interface {
	ResolveForNotice(ctx context.Context, notice *models.Notice) ([]uuid.UUID, error)
}

type noticeDispatcher interface {
	DispatchNotice(ctx context.Context, notice *models.Notice, audience []uuid.UUID) DispatchOutcome
}

type CreateNoticeInput struct {
	Title       string
	Content     string
	Area        string
	CommunityID *uuid.UUID
}

// NoticeService creates and lists notices. Creation persists first and
// dispatches asynchronously afterward: the author's request succeeds as
// soon as the row is committed, and delivery failures never undo it.
type NoticeService struct {
	notices    repository.NoticeRepository
	audienceQ  repository.AudienceRepository
	audience   noticeAudience
	dispatcher noticeDispatcher
	sanitizer  *bluemonday.Policy
}

func NewNoticeService(
	notices repository.NoticeRepository,
	audienceQ repository.AudienceRepository,
	audience noticeAudience,
	dispatcher noticeDispatcher,
) *NoticeService {
	return &NoticeService{
		notices:    notices,
		audienceQ:  audienceQ,
		audience:   audience,
		dispatcher: dispatcher,
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

func (s *NoticeService) Create(ctx context.Context, authorID uuid.UUID, in CreateNoticeInput) (*models.Notice, error) {
	title := strings.TrimSpace(s.sanitizer.Sanitize(in.Title))
	content := strings.TrimSpace(s.sanitizer.Sanitize(in.Content))
	if title == "" || content == "" {
		return nil, ErrNoticeInvalid
	}

	notice := &models.Notice{
		ID:          uuid.New(),
		Title:       title,
		Content:     content,
		Area:        in.Area,
		CommunityID: in.CommunityID,
		AuthorID:    authorID,
	}
	if err := s.notices.Create(ctx, notice); err != nil {
		return nil, err
	}

	// Fire-and-forget relative to the request: the row is committed, so
	// dispatch runs on its own context.
	go s.broadcast(notice)

	return notice, nil
}

func (s *NoticeService) broadcast(notice *models.Notice) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	audience, err := s.audience.ResolveForNotice(ctx, notice)
	if err != nil {
		slog.Error("audience resolution failed", "notice_id", notice.ID.String(), "error", err.Error())
		return
	}

	outcome := s.dispatcher.DispatchNotice(ctx, notice, audience)
	if outcome.Sent > 0 {
		if err := s.notices.MarkSentExternally(ctx, notice.ID); err != nil {
			slog.Error("failed to mark notice sent", "notice_id", notice.ID.String(), "error", err.Error())
		}
	}
}

func (s *NoticeService) Get(ctx context.Context, id uuid.UUID) (*models.Notice, error) {
	return s.notices.FindByID(ctx, id)
}

// ListForViewer returns the notices visible to the account: its selected
// areas unioned with its community memberships.
func (s *NoticeService) ListForViewer(ctx context.Context, account *models.Account, page, limit int) ([]models.Notice, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var areas []string
	if len(account.SelectedAreas) > 0 {
		if err := json.Unmarshal(account.SelectedAreas, &areas); err != nil {
			return nil, 0, err
		}
	}

	communityIDs, err := s.audienceQ.CommunityIDsForAccount(ctx, account.ID)
	if err != nil {
		return nil, 0, err
	}

	return s.notices.ListForViewer(ctx, areas, communityIDs, limit, (page-1)*limit)
}
