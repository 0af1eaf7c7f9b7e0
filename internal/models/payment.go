package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusFailed PaymentStatus = "failed"
)

// Terminal reports whether no further status transition is permitted.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

// Payment is one purchase intent for N tickets to one activity. It is created
// unpaid and settles exactly once to paid or failed via the gateway callback.
type Payment struct {
	gorm.Model
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	ActivityID uuid.UUID `gorm:"type:uuid;not null;index"`
	Activity   *Activity `gorm:"foreignKey:ActivityID"`
	BuyerID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Buyer      *User     `gorm:"foreignKey:BuyerID"`

	// Buyer contact snapshot taken at order time, not live-joined.
	BuyerName   string `gorm:"not null"`
	BuyerMobile string `gorm:"not null"`
	BuyerEmail  string `gorm:"not null"`

	TicketCount int `gorm:"not null"`
	// TicketPrice snapshots the activity price at purchase time so later
	// price changes never affect open orders.
	TicketPrice int `gorm:"not null"`

	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'unpaid'"`

	// MerchantTradeNo is our gateway-facing trade number, assigned after the
	// checkout payload is built. Unique so a callback maps to one order.
	MerchantTradeNo *string `gorm:"uniqueIndex"`
	TradeNo         string
	TradeRtnCode    string
	TradeAt         *time.Time

	// ReviewRequired marks a paid order whose tickets could not be issued.
	ReviewRequired bool `gorm:"not null;default:false"`
}

func (payment *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return
}

// TotalPrice is the amount charged by the gateway for this order.
func (payment *Payment) TotalPrice() int {
	return payment.TicketPrice * payment.TicketCount
}
