package repository

import (
	"context"
	"time"

	"github.com/chiapei/trailgo/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByMerchantTradeNo(ctx context.Context, tradeNo string) (*models.Payment, error)
	SetMerchantTradeNo(ctx context.Context, id uuid.UUID, tradeNo string) error
	Settle(ctx context.Context, id uuid.UUID, status models.PaymentStatus, tradeNo, rtnCode string, tradeAt time.Time) (bool, error)
	MarkReviewRequired(ctx context.Context, id uuid.UUID) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByMerchantTradeNo(ctx context.Context, tradeNo string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "merchant_trade_no = ?", tradeNo).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) SetMerchantTradeNo(ctx context.Context, id uuid.UUID, tradeNo string) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Update("merchant_trade_no", tradeNo).Error
}

// Settle applies the single permitted status transition out of unpaid as one
// conditional update. It returns false when the order was already terminal,
// which is how duplicate callback deliveries are absorbed: two concurrent
// callbacks cannot both observe unpaid and both win this update.
func (r *paymentRepository) Settle(ctx context.Context, id uuid.UUID, status models.PaymentStatus, tradeNo, rtnCode string, tradeAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND payment_status = ?", id, models.PaymentStatusUnpaid).
		Updates(map[string]interface{}{
			"payment_status": status,
			"trade_no":       tradeNo,
			"trade_rtn_code": rtnCode,
			"trade_at":       tradeAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *paymentRepository) MarkReviewRequired(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Update("review_required", true).Error
}
