package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCommunityNotFound = errors.New("community not found")

// CommunityService handles community CRUD and membership.
type CommunityService struct {
	db *gorm.DB
}

func NewCommunityService(db *gorm.DB) *CommunityService {
	return &CommunityService{db: db}
}

func (s *CommunityService) Create(ctx context.Context, creatorID uuid.UUID, name, description, area string) (*models.Community, error) {
	if name == "" {
		return nil, errors.New("community name is required")
	}

	community := &models.Community{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Area:        area,
		CreatorID:   creatorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		return tx.Create(&models.CommunityMember{
			ID:          uuid.New(),
			CommunityID: community.ID,
			AccountID:   creatorID,
			Role:        models.CommunityRoleAdmin,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return community, nil
}

// Join is idempotent: the composite unique index absorbs double submission.
func (s *CommunityService) Join(ctx context.Context, communityID, accountID uuid.UUID) error {
	var community models.Community
	if err := s.db.WithContext(ctx).First(&community, "id = ?", communityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommunityNotFound
		}
		return err
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "account_id"}},
		DoNothing: true,
	}).Create(&models.CommunityMember{
		ID:          uuid.New(),
		CommunityID: communityID,
		AccountID:   accountID,
		Role:        models.CommunityRoleMember,
	}).Error
}

func (s *CommunityService) Leave(ctx context.Context, communityID, accountID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("community_id = ? AND account_id = ?", communityID, accountID).
		Delete(&models.CommunityMember{}).Error
}

func (s *CommunityService) List(ctx context.Context, page, limit int) ([]models.Community, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	s.db.WithContext(ctx).Model(&models.Community{}).Count(&total)

	var communities []models.Community
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&communities).Error
	return communities, total, err
}

// MemberRole returns the account's role in the community, or "" when not a
// member.
func (s *CommunityService) MemberRole(ctx context.Context, communityID, accountID uuid.UUID) (string, error) {
	var member models.CommunityMember
	err := s.db.WithContext(ctx).
		Where("community_id = ? AND account_id = ?", communityID, accountID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return member.Role, nil
}
