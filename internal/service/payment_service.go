package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chiapei/trailgo/internal/ecpay"
	"github.com/chiapei/trailgo/internal/helpers"
	"github.com/chiapei/trailgo/internal/logger"
	"github.com/chiapei/trailgo/internal/models"
	"github.com/chiapei/trailgo/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gateway is the narrow surface of the payment provider the service needs.
type Gateway interface {
	BuildCheckout(req ecpay.CheckoutRequest) (*ecpay.Checkout, error)
	VerifyCallback(fields map[string]string) bool
}

// Transactor runs a function inside a database transaction. *gorm.DB
// satisfies it.
type Transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

type CreateOrderRequest struct {
	ActivityID  uuid.UUID
	TicketCount int
	BuyerName   string
	BuyerMobile string
	BuyerEmail  string
}

type OrderResult struct {
	OrderID     uuid.UUID       `json:"order_id"`
	TicketCount int             `json:"ticket_count"`
	TotalPrice  int             `json:"total_price"`
	Checkout    *ecpay.Checkout `json:"checkout"`
}

type PaymentService interface {
	CreateOrder(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*OrderResult, error)
	HandleCallback(ctx context.Context, fields map[string]string) error
	GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Payment, error)
}

type paymentService struct {
	db         Transactor
	gateway    Gateway
	users      repository.UserRepository
	activities repository.ActivityRepository
	payments   repository.PaymentRepository
	tickets    repository.TicketRepository
	now        func() time.Time
}

func NewPaymentService(
	db Transactor,
	gateway Gateway,
	users repository.UserRepository,
	activities repository.ActivityRepository,
	payments repository.PaymentRepository,
	tickets repository.TicketRepository,
) PaymentService {
	return &paymentService{
		db:         db,
		gateway:    gateway,
		users:      users,
		activities: activities,
		payments:   payments,
		tickets:    tickets,
		now:        time.Now,
	}
}

// CreateOrder validates the signup preconditions, persists an unpaid order
// with the activity price snapshotted, and only then asks the gateway for a
// checkout payload. If the gateway call fails the order is left unpaid and
// orphaned, which is acceptable because no capacity has been reserved yet.
// The capacity check here is advisory; the binding check happens at issuance.
func (s *paymentService) CreateOrder(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*OrderResult, error) {
	if _, err := s.users.FindByID(ctx, buyerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helpers.NewAppError(http.StatusNotFound, helpers.CodeNotFoundUser, "User not found.")
		}
		return nil, err
	}

	activity, err := s.activities.FindPublishedByID(ctx, req.ActivityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helpers.NewAppError(http.StatusNotFound, helpers.CodeNotFoundActivity, "Activity not found.")
		}
		return nil, err
	}

	now := s.now()
	if now.Before(activity.ActivitySignupStartTime) {
		return nil, helpers.NewAppError(http.StatusConflict, helpers.CodeRegistrationNotStarted, "Registration has not started yet.")
	}
	if now.After(activity.ActivitySignupEndTime) {
		return nil, helpers.NewAppError(http.StatusConflict, helpers.CodeRegistrationClosed, "Registration is closed.")
	}

	if activity.BookedCapacity+req.TicketCount > activity.TotalCapacity {
		return nil, helpers.NewAppError(http.StatusConflict, helpers.CodeRegistrationFull, "Not enough remaining capacity.")
	}

	payment := &models.Payment{
		ActivityID:    activity.ID,
		BuyerID:       buyerID,
		BuyerName:     req.BuyerName,
		BuyerMobile:   req.BuyerMobile,
		BuyerEmail:    req.BuyerEmail,
		TicketCount:   req.TicketCount,
		TicketPrice:   activity.Price,
		PaymentStatus: models.PaymentStatusUnpaid,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, helpers.NewAppError(http.StatusInternalServerError, helpers.CodeCreateFailed, "Failed to create order.")
	}

	totalPrice := activity.Price * req.TicketCount
	checkout, err := s.gateway.BuildCheckout(ecpay.CheckoutRequest{
		TotalAmount: totalPrice,
		TradeDesc:   activity.Title,
		ItemName:    fmt.Sprintf("%s x %d", activity.Title, req.TicketCount),
	})
	if err != nil {
		logger.WithFields("order_id", payment.ID).Error("checkout build failed", "error", err)
		return nil, helpers.NewAppError(http.StatusBadGateway, helpers.CodeCheckoutFailed, "Failed to build checkout payload.")
	}

	if err := s.payments.SetMerchantTradeNo(ctx, payment.ID, checkout.MerchantTradeNo); err != nil {
		return nil, helpers.NewAppError(http.StatusInternalServerError, helpers.CodeCreateFailed, "Failed to store trade number.")
	}

	return &OrderResult{
		OrderID:     payment.ID,
		TicketCount: payment.TicketCount,
		TotalPrice:  totalPrice,
		Checkout:    checkout,
	}, nil
}

// HandleCallback authenticates and applies one asynchronous gateway result.
// Replayed deliveries for an already-settled order return nil so the endpoint
// acknowledges them without reprocessing.
func (s *paymentService) HandleCallback(ctx context.Context, fields map[string]string) error {
	if !s.gateway.VerifyCallback(fields) {
		logger.Get().Warn("payment callback rejected, CheckMacValue mismatch",
			"merchant_trade_no", fields["MerchantTradeNo"])
		return helpers.NewAppError(http.StatusBadRequest, helpers.CodeCheckMacFailed, "CheckMacValue verification failed.")
	}

	tradeNo := fields["MerchantTradeNo"]
	payment, err := s.payments.FindByMerchantTradeNo(ctx, tradeNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Get().Warn("payment callback for unknown order", "merchant_trade_no", tradeNo)
			return helpers.NewAppError(http.StatusNotFound, helpers.CodeNotFoundPayment, "Order not found.")
		}
		return err
	}

	if payment.PaymentStatus.Terminal() {
		logger.WithFields("order_id", payment.ID).Info("duplicate payment callback ignored",
			"merchant_trade_no", tradeNo, "status", string(payment.PaymentStatus))
		return nil
	}

	rtnCode := fields["RtnCode"]
	newStatus := models.PaymentStatusFailed
	if rtnCode == ecpay.RtnCodeSuccess {
		newStatus = models.PaymentStatusPaid
	}

	settled, err := s.payments.Settle(ctx, payment.ID, newStatus, fields["TradeNo"], rtnCode, s.now())
	if err != nil {
		return err
	}
	if !settled {
		logger.WithFields("order_id", payment.ID).Info("duplicate payment callback ignored",
			"merchant_trade_no", tradeNo)
		return nil
	}

	logger.WithFields("order_id", payment.ID).Info("payment settled",
		"status", string(newStatus), "rtn_code", rtnCode)

	if newStatus != models.PaymentStatusPaid {
		return nil
	}

	if err := s.issueTickets(ctx, payment); err != nil {
		// The order is paid but unfulfilled. Flag it for manual
		// reconciliation and alert; the gateway still gets an ack because
		// retrying the callback cannot reissue past the settle guard.
		if markErr := s.payments.MarkReviewRequired(ctx, payment.ID); markErr != nil {
			logger.Alert("failed to flag unfulfilled order", "order_id", payment.ID, "error", markErr)
		}
		logger.Alert("paid order left without tickets", "order_id", payment.ID, "error", err)
	}
	return nil
}

// issueTickets creates the order's tickets and recomputes the activity's
// booked capacity from the ticket table, all inside one transaction holding a
// row lock on the activity. The capacity cap is enforced here for real:
// issuance that would oversell creates nothing.
func (s *paymentService) issueTickets(ctx context.Context, payment *models.Payment) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		activity, err := s.activities.FindByIDForUpdate(ctx, tx, payment.ActivityID)
		if err != nil {
			return fmt.Errorf("load activity for issuance: %w", err)
		}

		issued, err := s.tickets.CountByActivity(ctx, tx, activity.ID)
		if err != nil {
			return fmt.Errorf("count issued tickets: %w", err)
		}
		if int(issued)+payment.TicketCount > activity.TotalCapacity {
			return fmt.Errorf("issuing %d tickets would exceed capacity %d (issued %d)",
				payment.TicketCount, activity.TotalCapacity, issued)
		}

		now := s.now()
		tickets := make([]models.Ticket, 0, payment.TicketCount)
		for i := 0; i < payment.TicketCount; i++ {
			tickets = append(tickets, models.Ticket{
				OrganizerID:     activity.OrganizerID,
				ActivityID:      activity.ID,
				PaymentID:       payment.ID,
				OwnerID:         payment.BuyerID,
				TicketStatus:    models.TicketStatusUnused,
				TicketCreatedAt: now,
			})
		}
		if err := s.tickets.CreateBatch(ctx, tx, tickets); err != nil {
			return fmt.Errorf("create tickets: %w", err)
		}

		// Booked capacity is the authoritative ticket count, never an
		// increment, so it self-heals from earlier inconsistencies.
		booked, err := s.tickets.CountByActivity(ctx, tx, activity.ID)
		if err != nil {
			return fmt.Errorf("recount tickets: %w", err)
		}
		if err := s.activities.UpdateBookedCapacity(ctx, tx, activity.ID, int(booked)); err != nil {
			return fmt.Errorf("update booked capacity: %w", err)
		}
		return nil
	})
}

func (s *paymentService) GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helpers.NewAppError(http.StatusNotFound, helpers.CodeNotFoundPayment, "Order not found.")
		}
		return nil, err
	}
	if payment.BuyerID != buyerID {
		return nil, helpers.NewAppError(http.StatusNotFound, helpers.CodeNotFoundPayment, "Order not found.")
	}
	return payment, nil
}
