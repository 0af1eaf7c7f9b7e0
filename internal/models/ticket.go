package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketStatus string

const (
	TicketStatusUnused TicketStatus = "unused"
	TicketStatusUsed   TicketStatus = "used"
)

// Ticket is one admission unit, created only by ticket issuance in a single
// batch per paid order. Owner may later be reassigned by the original buyer.
type Ticket struct {
	gorm.Model
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	OrganizerID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Organizer   *Organizer `gorm:"foreignKey:OrganizerID"`
	ActivityID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Activity    *Activity  `gorm:"foreignKey:ActivityID"`
	PaymentID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Payment     *Payment   `gorm:"foreignKey:PaymentID"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Owner       *User      `gorm:"foreignKey:OwnerID"`

	TicketStatus     TicketStatus `gorm:"type:varchar(20);not null;default:'unused'"`
	TicketCreatedAt  time.Time    `gorm:"not null"`
	TicketAssignedAt *time.Time
	TicketNote       string `gorm:"size:200"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
