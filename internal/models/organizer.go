package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Organizer struct {
	gorm.Model
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	Name     string    `gorm:"not null"`
	Email    string    `gorm:"unique;not null"`
	Password string    `gorm:"not null"`
	Mobile   string
}

func (organizer *Organizer) BeforeCreate(tx *gorm.DB) (err error) {
	if organizer.ID == uuid.Nil {
		organizer.ID = uuid.New()
	}
	return
}
