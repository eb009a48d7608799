package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/models"
	"gorm.io/gorm"
)

type GormNoticeRepository struct {
	db *gorm.DB
}

func NewGormNoticeRepository(db *gorm.DB) *GormNoticeRepository {
	return &GormNoticeRepository{db: db}
}

func (r *GormNoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	return r.db.WithContext(ctx).Create(notice).Error
}

func (r *GormNoticeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Notice, error) {
	var notice models.Notice
	if err := r.db.WithContext(ctx).First(&notice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &notice, nil
}

// ListForViewer returns notices visible to a viewer: area-scoped notices for
// any of the viewer's selected areas OR notices of communities the viewer
// belongs to. Union, not intersection.
func (r *GormNoticeRepository) ListForViewer(ctx context.Context, areas []string, communityIDs []uuid.UUID, limit, offset int) ([]models.Notice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Notice{})

	switch {
	case len(areas) > 0 && len(communityIDs) > 0:
		query = query.Where("area IN ? OR community_id IN ?", areas, communityIDs)
	case len(areas) > 0:
		query = query.Where("area IN ?", areas)
	case len(communityIDs) > 0:
		query = query.Where("community_id IN ?", communityIDs)
	default:
		return nil, 0, nil
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notices []models.Notice
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notices).Error
	return notices, total, err
}

func (r *GormNoticeRepository) AddReadCount(ctx context.Context, noticeID uuid.UUID, delta int64) error {
	return r.db.WithContext(ctx).Model(&models.Notice{}).
		Where("id = ?", noticeID).
		UpdateColumn("read_count", gorm.Expr("read_count + ?", delta)).Error
}

func (r *GormNoticeRepository) MarkSentExternally(ctx context.Context, noticeID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Notice{}).
		Where("id = ?", noticeID).
		Update("sent_externally", true).Error
}
