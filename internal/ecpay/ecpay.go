// Package ecpay wraps the ECPay AIO checkout protocol: building the signed
// form-post payload for the hosted cashier and authenticating the asynchronous
// result callbacks it sends back.
package ecpay

import (
	"crypto/hmac"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// RtnCodeSuccess is the provider's return code for a settled trade.
	RtnCodeSuccess = "1"
	// AckSuccess is the literal body the provider expects back from the
	// result callback. Anything else triggers provider-side retries.
	AckSuccess = "1|OK"

	tradeNoLength   = 20
	tradeDateLayout = "2006/01/02 15:04:05"
)

type Config struct {
	MerchantID    string
	HashKey       string
	HashIV        string
	CheckoutURL   string
	ReturnURL     string
	ClientBackURL string
}

type Client struct {
	cfg Config
	now func() time.Time
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, now: time.Now}
}

// CheckoutRequest carries the order-specific parts of a checkout payload.
type CheckoutRequest struct {
	TotalAmount int
	TradeDesc   string
	ItemName    string
}

// Checkout is the signed form the client browser posts to the hosted cashier.
type Checkout struct {
	MerchantTradeNo string            `json:"merchant_trade_no"`
	Action          string            `json:"action"`
	Fields          map[string]string `json:"fields"`
}

// BuildCheckout assigns a fresh merchant trade number, stamps the trade date
// and signs the full parameter set. The trade number doubles as the
// provider-side idempotency key, so the caller must persist it on the order.
func (c *Client) BuildCheckout(req CheckoutRequest) (*Checkout, error) {
	if req.TotalAmount <= 0 {
		return nil, fmt.Errorf("ecpay: total amount must be positive, got %d", req.TotalAmount)
	}

	tradeNo := newTradeNo()

	fields := map[string]string{
		"MerchantID":        c.cfg.MerchantID,
		"MerchantTradeNo":   tradeNo,
		"MerchantTradeDate": c.now().Format(tradeDateLayout),
		"PaymentType":       "aio",
		"TotalAmount":       strconv.Itoa(req.TotalAmount),
		"TradeDesc":         req.TradeDesc,
		"ItemName":          req.ItemName,
		"ReturnURL":         c.cfg.ReturnURL,
		"ClientBackURL":     c.cfg.ClientBackURL,
		"ChoosePayment":     "ALL",
		"EncryptType":       "1",
	}
	fields["CheckMacValue"] = generateCheckMac(fields, c.cfg.HashKey, c.cfg.HashIV)

	return &Checkout{
		MerchantTradeNo: tradeNo,
		Action:          c.cfg.CheckoutURL,
		Fields:          fields,
	}, nil
}

// VerifyCallback recomputes the MAC over every callback field except
// CheckMacValue itself. A missing or empty MAC is simply not verified.
func (c *Client) VerifyCallback(fields map[string]string) bool {
	mac, ok := fields["CheckMacValue"]
	if !ok || mac == "" {
		return false
	}
	expected := generateCheckMac(fields, c.cfg.HashKey, c.cfg.HashIV)
	return hmac.Equal([]byte(expected), []byte(mac))
}

// newTradeNo derives a 20-character trade number from a UUID with the dashes
// stripped. The gateway rejects reuse, so collisions surface as hard failures.
func newTradeNo() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:tradeNoLength]
}
