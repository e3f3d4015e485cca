package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/swapin/backend/internal/models"
)

type StripeClient struct {
	SecretKey  string
	HTTPClient *http.Client
	Endpoint   string
}

func NewStripeClient(secretKey string) *StripeClient {
	return &StripeClient{
		SecretKey: secretKey,
		Endpoint:  "https://api.stripe.com/v1",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *StripeClient) Name() string { return models.GatewayStripe }

type stripePaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// CreateOrder opens a Stripe PaymentIntent. Stripe expects amounts in the
// currency's smallest unit.
func (c *StripeClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*models.GatewayOrder, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount*100, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("metadata[payment_id]", receipt)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: stripe intent create: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: stripe intent create http %d", ErrUpstream, resp.StatusCode)
	}

	var out stripePaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: stripe intent decode: %v", ErrUpstream, err)
	}

	return &models.GatewayOrder{
		OrderID: out.ID,
		Fields: map[string]string{
			"client_secret": out.ClientSecret,
		},
	}, nil
}

// VerifyPayment fetches the PaymentIntent and trusts only Stripe's own view
// of its status.
func (c *StripeClient) VerifyPayment(ctx context.Context, orderID string, response map[string]string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"/payment_intents/"+url.PathEscape(orderID), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: stripe intent fetch: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: stripe intent fetch http %d", ErrUpstream, resp.StatusCode)
	}

	var out stripePaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("%w: stripe intent decode: %v", ErrUpstream, err)
	}
	return out.Status == "succeeded", nil
}
