package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/swapin/backend/internal/models"
)

type RazorpayClient struct {
	KeyID      string
	KeySecret  string
	HTTPClient *http.Client
	Endpoint   string
}

func NewRazorpayClient(keyID, keySecret string) *RazorpayClient {
	return &RazorpayClient{
		KeyID:     keyID,
		KeySecret: keySecret,
		Endpoint:  "https://api.razorpay.com/v1",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *RazorpayClient) Name() string { return models.GatewayRazorpay }

type razorpayOrderRequest struct {
	Amount   int64  `json:"amount"` // paise
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateOrder opens a Razorpay order for the net amount. Razorpay expects
// amounts in paise.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*models.GatewayOrder, error) {
	body, err := json.Marshal(razorpayOrderRequest{
		Amount:   amount * 100,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.KeyID, c.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: razorpay order create: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: razorpay order create http %d", ErrUpstream, resp.StatusCode)
	}

	var out razorpayOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: razorpay order decode: %v", ErrUpstream, err)
	}

	return &models.GatewayOrder{
		OrderID: out.ID,
		Fields: map[string]string{
			"key_id":   c.KeyID,
			"amount":   strconv.FormatInt(out.Amount, 10),
			"currency": out.Currency,
		},
	}, nil
}

// VerifyPayment checks the checkout callback signature:
// HMAC-SHA256(order_id + "|" + payment_id) keyed with the API secret. This
// is a local computation, no round trip to Razorpay.
func (c *RazorpayClient) VerifyPayment(ctx context.Context, orderID string, response map[string]string) (bool, error) {
	paymentID := response["razorpay_payment_id"]
	signature := response["razorpay_signature"]
	if paymentID == "" || signature == "" {
		return false, nil
	}

	mac := hmac.New(sha256.New, []byte(c.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature)), nil
}
