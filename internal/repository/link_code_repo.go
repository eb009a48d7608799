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

type GormLinkCodeRepository struct {
	db *gorm.DB
}

func NewGormLinkCodeRepository(db *gorm.DB) *GormLinkCodeRepository {
	return &GormLinkCodeRepository{db: db}
}

func (r *GormLinkCodeRepository) Invalidate(ctx context.Context, externalUserID string) error {
	return r.db.WithContext(ctx).
		Where("external_user_id = ? AND used_at IS NULL", externalUserID).
		Delete(&models.LinkCode{}).Error
}

func (r *GormLinkCodeRepository) Create(ctx context.Context, code *models.LinkCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *GormLinkCodeRepository) FindActive(ctx context.Context, code string, now time.Time) (*models.LinkCode, error) {
	var lc models.LinkCode
	err := r.db.WithContext(ctx).
		Where("code = ? AND used_at IS NULL AND expires_at > ?", code, now).
		First(&lc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lc, nil
}

// errRedeemConflict forces a rollback when the identity is already linked
// elsewhere, keeping the code unburned so the caller can report the
// conflict and the user can retry against a usable code.
var errRedeemConflict = errors.New("external identity linked to another account")

func (r *GormLinkCodeRepository) Redeem(ctx context.Context, codeID uuid.UUID, link *models.AccountLink) (*models.AccountLink, error) {
	var winner *models.AccountLink
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&models.LinkCode{}).
			Where("id = ? AND used_at IS NULL", codeID).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		ins := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_user_id"}},
			DoNothing: true,
		}).Create(link)
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected > 0 {
			winner = link
			return nil
		}

		var existing models.AccountLink
		if err := tx.Where("external_user_id = ?", link.ExternalUserID).First(&existing).Error; err != nil {
			return err
		}
		winner = &existing
		if existing.AccountID != link.AccountID {
			return errRedeemConflict
		}
		return nil
	})
	if err != nil && !errors.Is(err, errRedeemConflict) {
		return nil, err
	}
	return winner, nil
}

func (r *GormLinkCodeRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR used_at IS NOT NULL", cutoff).
		Delete(&models.LinkCode{})
	return res.RowsAffected, res.Error
}
