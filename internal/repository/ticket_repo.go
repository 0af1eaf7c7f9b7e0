package repository

import (
	"context"
	"time"

	"github.com/chiapei/trailgo/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, tickets []models.Ticket) error
	CountByActivity(ctx context.Context, tx *gorm.DB, activityID uuid.UUID) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	FindByIDForOrganizer(ctx context.Context, id, organizerID uuid.UUID) (*models.Ticket, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Ticket, error)
	MarkUsed(ctx context.Context, id uuid.UUID) (bool, error)
	Reassign(ctx context.Context, id, newOwnerID uuid.UUID, assignedAt time.Time) error
	UpdateNote(ctx context.Context, id uuid.UUID, note string) error
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

// CreateBatch inserts all tickets of one paid order in a single statement so a
// failure creates none of them.
func (r *ticketRepository) CreateBatch(ctx context.Context, tx *gorm.DB, tickets []models.Ticket) error {
	return tx.WithContext(ctx).Create(&tickets).Error
}

func (r *ticketRepository) CountByActivity(ctx context.Context, tx *gorm.DB, activityID uuid.UUID) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("activity_id = ?", activityID).
		Count(&count).Error
	return count, err
}

func (r *ticketRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.WithContext(ctx).Preload("Activity").First(&ticket, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) FindByIDForOrganizer(ctx context.Context, id, organizerID uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Preload("Activity").
		Preload("Owner").
		First(&ticket, "id = ? AND organizer_id = ?", id, organizerID).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Preload("Activity").
		Where("owner_id = ?", ownerID).
		Order("ticket_created_at DESC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// MarkUsed flips an unused ticket to used. False means the ticket was already
// used, so concurrent check-ins cannot both succeed.
func (r *ticketRepository) MarkUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ? AND ticket_status = ?", id, models.TicketStatusUnused).
		Update("ticket_status", models.TicketStatusUsed)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ticketRepository) Reassign(ctx context.Context, id, newOwnerID uuid.UUID, assignedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"owner_id":           newOwnerID,
			"ticket_assigned_at": assignedAt,
		}).Error
}

func (r *ticketRepository) UpdateNote(ctx context.Context, id uuid.UUID, note string) error {
	return r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ?", id).
		Update("ticket_note", note).Error
}
