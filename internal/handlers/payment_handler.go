package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chiapei/trailgo/internal/ecpay"
	"github.com/chiapei/trailgo/internal/helpers"
	"github.com/chiapei/trailgo/internal/service"
)

type PaymentHandler struct {
	svc service.PaymentService
}

func NewPaymentHandler(svc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

type RegistrationRequest struct {
	ActivityID  uuid.UUID `json:"activity_id" binding:"required"`
	TicketCount int       `json:"ticket_count" binding:"required,min=1"`
	BuyerName   string    `json:"buyer_name" binding:"required,min=2"`
	BuyerMobile string    `json:"buyer_mobile" binding:"required"`
	BuyerEmail  string    `json:"buyer_email" binding:"required,email"`
}

func (h *PaymentHandler) CreateRegistration(c *gin.Context) {
	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithAppError(c, helpers.NewAppError(http.StatusBadRequest, helpers.CodeInvalidRequest, "Invalid input. Please check your fields."))
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}
	buyerID, ok := userID.(uuid.UUID)
	if !ok {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID type.")
		return
	}

	result, err := h.svc.CreateOrder(c.Request.Context(), buyerID, service.CreateOrderRequest{
		ActivityID:  req.ActivityID,
		TicketCount: req.TicketCount,
		BuyerName:   req.BuyerName,
		BuyerMobile: req.BuyerMobile,
		BuyerEmail:  req.BuyerEmail,
	})
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// PaymentResult receives the gateway's asynchronous settlement callback.
// The endpoint is public and speaks the provider's plain-text protocol, so
// it never returns internal error detail.
func (h *PaymentHandler) PaymentResult(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "0|bad request")
		return
	}

	fields := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	if err := h.svc.HandleCallback(c.Request.Context(), fields); err != nil {
		if appErr, ok := helpers.AsAppError(err); ok {
			switch appErr.Code {
			case helpers.CodeCheckMacFailed:
				c.String(http.StatusBadRequest, "0|CheckMacValue verify failed")
			case helpers.CodeNotFoundPayment:
				c.String(http.StatusNotFound, "0|order not found")
			default:
				c.String(http.StatusInternalServerError, "0|error")
			}
			return
		}
		c.String(http.StatusInternalServerError, "0|error")
		return
	}

	c.String(http.StatusOK, ecpay.AckSuccess)
}

func (h *PaymentHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid order ID.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}
	buyerID, ok := userID.(uuid.UUID)
	if !ok {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID type.")
		return
	}

	payment, err := h.svc.GetOrder(c.Request.Context(), buyerID, orderID)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":          payment.ID,
		"payment_status":    payment.PaymentStatus,
		"ticket_count":      payment.TicketCount,
		"ticket_price":      payment.TicketPrice,
		"total_price":       payment.TotalPrice(),
		"merchant_trade_no": payment.MerchantTradeNo,
		"trade_at":          payment.TradeAt,
	})
}
