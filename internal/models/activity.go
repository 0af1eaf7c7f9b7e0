package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity is an organizer-owned event listing. BookedCapacity is written only
// by ticket issuance, which recomputes it from the ticket table.
type Activity struct {
	gorm.Model
	ID                      uuid.UUID `gorm:"type:uuid;primary_key"`
	Title                   string    `gorm:"not null"`
	Subtitle                string
	Description             string
	Price                   int       `gorm:"not null"`
	TotalCapacity           int       `gorm:"not null"`
	BookedCapacity          int       `gorm:"not null;default:0"`
	ActivitySignupStartTime time.Time `gorm:"not null"`
	ActivitySignupEndTime   time.Time `gorm:"not null"`
	ActivityStartTime       time.Time `gorm:"not null"`
	ActivityEndTime         time.Time `gorm:"not null"`
	IsPublish               bool      `gorm:"not null;default:false"`
	OrganizerID             uuid.UUID `gorm:"type:uuid;not null;index"`
	Organizer               *Organizer
}

func (activity *Activity) BeforeCreate(tx *gorm.DB) (err error) {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	return
}
