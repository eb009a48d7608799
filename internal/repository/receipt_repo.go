package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormReceiptRepository struct {
	db *gorm.DB
}

func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

func (r *GormReceiptRepository) Insert(ctx context.Context, receipt *models.ReadReceipt) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "notice_id"}, {Name: "account_id"}, {Name: "household_member_id"},
		},
		DoNothing: true,
	}).Create(receipt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormReceiptRepository) ListForViewer(ctx context.Context, noticeID, accountID uuid.UUID) ([]models.ReadReceipt, error) {
	var receipts []models.ReadReceipt
	err := r.db.WithContext(ctx).
		Where("notice_id = ? AND account_id = ?", noticeID, accountID).
		Find(&receipts).Error
	return receipts, err
}

func (r *GormReceiptRepository) CountForNotice(ctx context.Context, noticeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReadReceipt{}).
		Where("notice_id = ?", noticeID).
		Count(&count).Error
	return count, err
}
