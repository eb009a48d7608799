package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrMissionNotFound = errors.New("mission not found")
	ErrMissionFull     = errors.New("mission is at capacity")
	ErrAlreadyJoined   = errors.New("already joined this mission")
)

// MissionService handles volunteer missions with limited seats.
type MissionService struct {
	db *gorm.DB
}

func NewMissionService(db *gorm.DB) *MissionService {
	return &MissionService{db: db}
}

func (s *MissionService) Create(ctx context.Context, creatorID uuid.UUID, mission *models.Mission) (*models.Mission, error) {
	if mission.Title == "" {
		return nil, errors.New("mission title is required")
	}
	if mission.Capacity < 1 {
		return nil, errors.New("mission capacity must be positive")
	}
	mission.ID = uuid.New()
	mission.CreatorID = creatorID
	mission.ParticipantCount = 0
	if err := s.db.WithContext(ctx).Create(mission).Error; err != nil {
		return nil, err
	}
	return mission, nil
}

func (s *MissionService) List(ctx context.Context, area string, page, limit int) ([]models.Mission, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Mission{})
	if area != "" {
		query = query.Where("area = ?", area)
	}

	var total int64
	query.Count(&total)

	var missions []models.Mission
	err := query.Order("starts_at ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&missions).Error
	return missions, total, err
}

// Join takes a seat. The seat count is advanced by a single conditional
// UPDATE guarded by capacity, so concurrent joins can never oversubscribe;
// the application tier never does a separate read-then-write on the count.
func (s *MissionService) Join(ctx context.Context, missionID, accountID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var mission models.Mission
		if err := tx.First(&mission, "id = ?", missionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMissionNotFound
			}
			return err
		}

		ins := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "mission_id"}, {Name: "account_id"}},
			DoNothing: true,
		}).Create(&models.MissionParticipant{
			ID:        uuid.New(),
			MissionID: missionID,
			AccountID: accountID,
		})
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			return ErrAlreadyJoined
		}

		seat := tx.Model(&models.Mission{}).
			Where("id = ? AND participant_count < capacity", missionID).
			UpdateColumn("participant_count", gorm.Expr("participant_count + 1"))
		if seat.Error != nil {
			return seat.Error
		}
		if seat.RowsAffected == 0 {
			// No free seat; roll back the participant row too.
			return ErrMissionFull
		}
		return nil
	})
}

func (s *MissionService) Leave(ctx context.Context, missionID, accountID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("mission_id = ? AND account_id = ?", missionID, accountID).
			Delete(&models.MissionParticipant{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Mission{}).
			Where("id = ? AND participant_count > 0", missionID).
			UpdateColumn("participant_count", gorm.Expr("participant_count - 1")).Error
	})
}
