package repository

import (
	"context"

	"github.com/chiapei/trailgo/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActivityRepository interface {
	FindPublishedByID(ctx context.Context, id uuid.UUID) (*models.Activity, error)
	ListPublished(ctx context.Context) ([]models.Activity, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Activity, error)
	UpdateBookedCapacity(ctx context.Context, tx *gorm.DB, id uuid.UUID, booked int) error
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) FindPublishedByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).First(&activity, "id = ? AND is_publish = ?", id, true).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepository) ListPublished(ctx context.Context) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Where("is_publish = ?", true).
		Order("activity_start_time ASC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// FindByIDForUpdate acquires a row-level lock on the activity within the given
// transaction, serializing concurrent ticket issuance for the same activity.
func (r *activityRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Activity, error) {
	var activity models.Activity
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&activity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepository) UpdateBookedCapacity(ctx context.Context, tx *gorm.DB, id uuid.UUID, booked int) error {
	return tx.WithContext(ctx).
		Model(&models.Activity{}).
		Where("id = ?", id).
		Update("booked_capacity", booked).Error
}
