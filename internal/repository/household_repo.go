package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/models"
	"gorm.io/gorm"
)

type GormHouseholdRepository struct {
	db *gorm.DB
}

func NewGormHouseholdRepository(db *gorm.DB) *GormHouseholdRepository {
	return &GormHouseholdRepository{db: db}
}

func (r *GormHouseholdRepository) MembersForAccount(ctx context.Context, accountID uuid.UUID) ([]models.HouseholdMember, error) {
	var members []models.HouseholdMember
	err := r.db.WithContext(ctx).
		Where("household_id IN (?)",
			r.db.Model(&models.HouseholdMember{}).
				Select("household_id").
				Where("account_id = ?", accountID)).
		Find(&members).Error
	return members, err
}
