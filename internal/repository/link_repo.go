package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormLinkRepository struct {
	db *gorm.DB
}

func NewGormLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

func (r *GormLinkRepository) FindByExternalID(ctx context.Context, externalUserID string) (*models.AccountLink, error) {
	var link models.AccountLink
	if err := r.db.WithContext(ctx).Where("external_user_id = ?", externalUserID).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *GormLinkRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*models.AccountLink, error) {
	var link models.AccountLink
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *GormLinkRepository) CreateOrGet(ctx context.Context, link *models.AccountLink) (*models.AccountLink, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoNothing: true,
	}).Create(link)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		return link, nil
	}
	// Lost the race (or the link already existed): hand back the winner.
	return r.FindByExternalID(ctx, link.ExternalUserID)
}

func (r *GormLinkRepository) UpdateProfile(ctx context.Context, externalUserID, displayName, avatarURL string) error {
	return r.db.WithContext(ctx).Model(&models.AccountLink{}).
		Where("external_user_id = ?", externalUserID).
		Updates(map[string]interface{}{
			"display_name": displayName,
			"avatar_url":   avatarURL,
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (r *GormLinkRepository) SetNotifications(ctx context.Context, accountID uuid.UUID, enabled bool) error {
	res := r.db.WithContext(ctx).Model(&models.AccountLink{}).
		Where("account_id = ?", accountID).
		Update("notifications_enabled", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormLinkRepository) Delete(ctx context.Context, externalUserID string) error {
	return r.db.WithContext(ctx).
		Where("external_user_id = ?", externalUserID).
		Delete(&models.AccountLink{}).Error
}

func (r *GormLinkRepository) ForAccounts(ctx context.Context, accountIDs []uuid.UUID) ([]models.AccountLink, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	var links []models.AccountLink
	err := r.db.WithContext(ctx).Where("account_id IN ?", accountIDs).Find(&links).Error
	return links, err
}
