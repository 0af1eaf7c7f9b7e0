package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/chiapei/trailgo/internal/ecpay"
	"github.com/chiapei/trailgo/internal/helpers"
	"github.com/chiapei/trailgo/internal/models"
	"github.com/chiapei/trailgo/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPaymentService struct {
	createFn   func(ctx context.Context, buyerID uuid.UUID, req service.CreateOrderRequest) (*service.OrderResult, error)
	callbackFn func(ctx context.Context, fields map[string]string) error
	getFn      func(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Payment, error)
}

func (m *mockPaymentService) CreateOrder(ctx context.Context, buyerID uuid.UUID, req service.CreateOrderRequest) (*service.OrderResult, error) {
	return m.createFn(ctx, buyerID, req)
}
func (m *mockPaymentService) HandleCallback(ctx context.Context, fields map[string]string) error {
	return m.callbackFn(ctx, fields)
}
func (m *mockPaymentService) GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Payment, error) {
	return m.getFn(ctx, buyerID, orderID)
}

func setupPaymentRouter(svc service.PaymentService, authedUser *uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewPaymentHandler(svc)

	r.POST("/v1/payments/result", h.PaymentResult)

	authed := r.Group("/v1")
	if authedUser != nil {
		authed.Use(func(c *gin.Context) {
			c.Set("user_id", *authedUser)
			c.Next()
		})
	}
	authed.POST("/payments/registration", h.CreateRegistration)
	return r
}

func registrationBody() string {
	return `{
		"activity_id": "` + uuid.NewString() + `",
		"ticket_count": 2,
		"buyer_name": "Mei Lin",
		"buyer_mobile": "0912345678",
		"buyer_email": "mei@example.com"
	}`
}

func TestCreateRegistrationSuccess(t *testing.T) {
	buyerID := uuid.New()
	orderID := uuid.New()
	svc := &mockPaymentService{
		createFn: func(ctx context.Context, gotBuyer uuid.UUID, req service.CreateOrderRequest) (*service.OrderResult, error) {
			assert.Equal(t, buyerID, gotBuyer)
			assert.Equal(t, 2, req.TicketCount)
			return &service.OrderResult{
				OrderID:     orderID,
				TicketCount: 2,
				TotalPrice:  2400,
				Checkout: &ecpay.Checkout{
					MerchantTradeNo: "f0a0d7e9fae1bb72bc93",
					Action:          "https://payment-stage.example/checkout",
					Fields:          map[string]string{"TotalAmount": "2400"},
				},
			}, nil
		},
	}
	r := setupPaymentRouter(svc, &buyerID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/registration", strings.NewReader(registrationBody()))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp service.OrderResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, orderID, resp.OrderID)
	assert.Equal(t, 2400, resp.TotalPrice)
	assert.Equal(t, "f0a0d7e9fae1bb72bc93", resp.Checkout.MerchantTradeNo)
}

func TestCreateRegistrationInvalidBody(t *testing.T) {
	buyerID := uuid.New()
	svc := &mockPaymentService{}
	r := setupPaymentRouter(svc, &buyerID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/registration", strings.NewReader(`{"ticket_count": 0}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRegistrationMapsConflict(t *testing.T) {
	buyerID := uuid.New()
	svc := &mockPaymentService{
		createFn: func(ctx context.Context, gotBuyer uuid.UUID, req service.CreateOrderRequest) (*service.OrderResult, error) {
			return nil, helpers.NewAppError(http.StatusConflict, helpers.CodeRegistrationFull, "Not enough remaining capacity.")
		},
	}
	r := setupPaymentRouter(svc, &buyerID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/registration", strings.NewReader(registrationBody()))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)

	var resp helpers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, helpers.CodeRegistrationFull, resp.Code, "client must be able to tell why the booking failed")
}

func TestCreateRegistrationRequiresAuth(t *testing.T) {
	svc := &mockPaymentService{}
	r := setupPaymentRouter(svc, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/registration", strings.NewReader(registrationBody()))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func postCallback(r *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/result", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func TestPaymentResultAcksSuccess(t *testing.T) {
	var gotFields map[string]string
	svc := &mockPaymentService{
		callbackFn: func(ctx context.Context, fields map[string]string) error {
			gotFields = fields
			return nil
		},
	}
	r := setupPaymentRouter(svc, nil)

	form := url.Values{}
	form.Set("MerchantTradeNo", "f0a0d7e9fae1bb72bc93")
	form.Set("RtnCode", "1")
	form.Set("CheckMacValue", "ABCDEF")

	w := postCallback(r, form)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ecpay.AckSuccess, w.Body.String())
	assert.Equal(t, "f0a0d7e9fae1bb72bc93", gotFields["MerchantTradeNo"])
	assert.Equal(t, "ABCDEF", gotFields["CheckMacValue"])
}

func TestPaymentResultRejectsBadMAC(t *testing.T) {
	svc := &mockPaymentService{
		callbackFn: func(ctx context.Context, fields map[string]string) error {
			return helpers.NewAppError(http.StatusBadRequest, helpers.CodeCheckMacFailed, "CheckMacValue verification failed.")
		},
	}
	r := setupPaymentRouter(svc, nil)

	w := postCallback(r, url.Values{"RtnCode": []string{"1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "0|CheckMacValue verify failed", w.Body.String())
}

func TestPaymentResultUnknownOrder(t *testing.T) {
	svc := &mockPaymentService{
		callbackFn: func(ctx context.Context, fields map[string]string) error {
			return helpers.NewAppError(http.StatusNotFound, helpers.CodeNotFoundPayment, "Order not found.")
		},
	}
	r := setupPaymentRouter(svc, nil)

	w := postCallback(r, url.Values{"RtnCode": []string{"1"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "0|order not found", w.Body.String())
}

func TestPaymentResultHidesInternalErrors(t *testing.T) {
	svc := &mockPaymentService{
		callbackFn: func(ctx context.Context, fields map[string]string) error {
			return assert.AnError
		},
	}
	r := setupPaymentRouter(svc, nil)

	w := postCallback(r, url.Values{"RtnCode": []string{"1"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "0|error", w.Body.String())
}
