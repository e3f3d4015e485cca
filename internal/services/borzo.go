package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type BorzoClient struct {
	APIKey     string
	HTTPClient *http.Client
	Endpoint   string
}

func NewBorzoClient(apiKey string) *BorzoClient {
	return &BorzoClient{
		APIKey:   apiKey,
		Endpoint: "https://robotapi.borzodelivery.com/api/business/1.6",
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *BorzoClient) Name() string { return "borzo" }

type borzoPoint struct {
	Address string `json:"address"`
}

type borzoOrderRequest struct {
	Matter string       `json:"matter"`
	Points []borzoPoint `json:"points"`
}

type borzoOrderResponse struct {
	IsSuccessful bool `json:"is_successful"`
	Order        struct {
		OrderID     json.Number `json:"order_id"`
		TrackingURL string      `json:"tracking_url"`
	} `json:"order"`
}

func (c *BorzoClient) BookDelivery(ctx context.Context, pickup, drop, reference string) (string, string, error) {
	body, err := json.Marshal(borzoOrderRequest{
		Matter: "Swapin exchange " + reference,
		Points: []borzoPoint{{Address: pickup}, {Address: drop}},
	})
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/create-order", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("X-DV-Auth-Token", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: borzo create order: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("%w: borzo create order http %d", ErrUpstream, resp.StatusCode)
	}

	var out borzoOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("%w: borzo order decode: %v", ErrUpstream, err)
	}
	if !out.IsSuccessful {
		return "", "", fmt.Errorf("%w: borzo rejected order", ErrUpstream)
	}

	return out.Order.OrderID.String(), out.Order.TrackingURL, nil
}
