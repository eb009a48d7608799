package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/models"
	"github.com/kairanet/kairan-backend/internal/repository"
)

// RoleAll selects every account in a role-filtered broadcast.
const RoleAll = "all"

// AudienceService computes the deduplicated delivery set for a notice or an
// admin broadcast.
type AudienceService struct {
	audience repository.AudienceRepository
}

func NewAudienceService(audience repository.AudienceRepository) *AudienceService {
	return &AudienceService{audience: audience}
}

// ResolveForNotice returns every account that should see the notice: area
// match OR community membership. A user who joined a community outside
// their selected areas still receives that community's notices.
func (s *AudienceService) ResolveForNotice(ctx context.Context, notice *models.Notice) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID

	add := func(ids []uuid.UUID) {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	if notice.Area != "" {
		ids, err := s.audience.AccountIDsByArea(ctx, notice.Area)
		if err != nil {
			return nil, err
		}
		add(ids)
	}

	if notice.CommunityID != nil {
		ids, err := s.audience.AccountIDsByCommunity(ctx, *notice.CommunityID)
		if err != nil {
			return nil, err
		}
		add(ids)
	}

	return out, nil
}

// ResolveByRole returns accounts matching the role, or every account for
// RoleAll.
func (s *AudienceService) ResolveByRole(ctx context.Context, role string) ([]uuid.UUID, error) {
	var (
		ids []uuid.UUID
		err error
	)
	if role == RoleAll {
		ids, err = s.audience.AllAccountIDs(ctx)
	} else {
		ids, err = s.audience.AccountIDsByRole(ctx, role)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
