package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/models"
	"gorm.io/gorm"
)

type GormAudienceRepository struct {
	db *gorm.DB
}

func NewGormAudienceRepository(db *gorm.DB) *GormAudienceRepository {
	return &GormAudienceRepository{db: db}
}

func (r *GormAudienceRepository) AccountIDsByArea(ctx context.Context, area string) ([]uuid.UUID, error) {
	contained, err := json.Marshal([]string{area})
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	err = r.db.WithContext(ctx).Model(&models.Account{}).
		Where("selected_areas @> ?", string(contained)).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *GormAudienceRepository) AccountIDsByCommunity(ctx context.Context, communityID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.CommunityMember{}).
		Where("community_id = ?", communityID).
		Pluck("account_id", &ids).Error
	return ids, err
}

func (r *GormAudienceRepository) AccountIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("role = ?", role).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *GormAudienceRepository) AllAccountIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Account{}).Pluck("id", &ids).Error
	return ids, err
}

func (r *GormAudienceRepository) CommunityIDsForAccount(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.CommunityMember{}).
		Where("account_id = ?", accountID).
		Pluck("community_id", &ids).Error
	return ids, err
}
