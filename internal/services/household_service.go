package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/models"
	"gorm.io/gorm"
)

var ErrHouseholdNotFound = errors.New("household not found")

// HouseholdService manages households and their members, including
// dependents without accounts of their own.
type HouseholdService struct {
	db *gorm.DB
}

func NewHouseholdService(db *gorm.DB) *HouseholdService {
	return &HouseholdService{db: db}
}

// Create makes a household with the creator as its head.
func (s *HouseholdService) Create(ctx context.Context, headAccountID uuid.UUID, name, headNickname string) (*models.Household, error) {
	if name == "" {
		return nil, errors.New("household name is required")
	}

	household := &models.Household{ID: uuid.New(), Name: name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(household).Error; err != nil {
			return err
		}
		return tx.Create(&models.HouseholdMember{
			ID:          uuid.New(),
			HouseholdID: household.ID,
			AccountID:   &headAccountID,
			Nickname:    headNickname,
			Role:        models.MemberRoleHead,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return household, nil
}

// AddMember adds a member. AccountID nil means a dependent tracked only
// through proxy read receipts.
func (s *HouseholdService) AddMember(ctx context.Context, householdID uuid.UUID, callerID uuid.UUID, accountID *uuid.UUID, nickname, role string) (*models.HouseholdMember, error) {
	if nickname == "" {
		return nil, errors.New("member nickname is required")
	}
	switch role {
	case models.MemberRoleHead, models.MemberRoleMember, models.MemberRoleDependent:
	default:
		return nil, errors.New("invalid member role")
	}

	if err := s.requireMembership(ctx, householdID, callerID); err != nil {
		return nil, err
	}

	member := &models.HouseholdMember{
		ID:          uuid.New(),
		HouseholdID: householdID,
		AccountID:   accountID,
		Nickname:    nickname,
		Role:        role,
	}
	if err := s.db.WithContext(ctx).Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

func (s *HouseholdService) RemoveMember(ctx context.Context, householdID, memberID, callerID uuid.UUID) error {
	if err := s.requireMembership(ctx, householdID, callerID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("id = ? AND household_id = ?", memberID, householdID).
		Delete(&models.HouseholdMember{}).Error
}

// Members lists the household's members, caller must belong to it.
func (s *HouseholdService) Members(ctx context.Context, householdID, callerID uuid.UUID) ([]models.HouseholdMember, error) {
	if err := s.requireMembership(ctx, householdID, callerID); err != nil {
		return nil, err
	}
	var members []models.HouseholdMember
	err := s.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (s *HouseholdService) requireMembership(ctx context.Context, householdID, accountID uuid.UUID) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.HouseholdMember{}).
		Where("household_id = ? AND account_id = ?", householdID, accountID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotAuthorized
	}
	return nil
}
