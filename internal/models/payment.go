package models

import (
	"time"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

const (
	GatewayRazorpay = "razorpay"
	GatewayStripe   = "stripe"
)

// Payment settles the net amount of a swap through an external gateway.
// A payment transitions exactly once from pending to completed or failed
// and is immutable afterwards.
type Payment struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	SwapID         string            `json:"swap_id"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Gateway        string            `json:"gateway"`
	Status         string            `json:"status"`
	GatewayOrderID string            `json:"gateway_order_id,omitempty"`
	GatewayFields  map[string]string `json:"gateway_fields,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type InitializePaymentRequest struct {
	SwapID        string `json:"swapId"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"paymentMethod"`
	Gateway       string `json:"gateway"`
}

func (r *InitializePaymentRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.SwapID == "" {
		errors["swapId"] = "Swap ID is required"
	}
	if r.Amount <= 0 {
		errors["amount"] = "Amount must be positive"
	}
	if r.Gateway != GatewayRazorpay && r.Gateway != GatewayStripe {
		errors["gateway"] = "Gateway must be one of: razorpay, stripe"
	}

	return errors
}

type VerifyPaymentRequest struct {
	PaymentID       string            `json:"paymentId"`
	GatewayResponse map[string]string `json:"gatewayResponse"`
}

func (r *VerifyPaymentRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.PaymentID == "" {
		errors["paymentId"] = "Payment ID is required"
	}
	if len(r.GatewayResponse) == 0 {
		errors["gatewayResponse"] = "Gateway response is required"
	}

	return errors
}

// GatewayOrder is what a gateway hands back when a payment is initialized.
// Fields are forwarded verbatim to the client for checkout.
type GatewayOrder struct {
	OrderID string            `json:"order_id"`
	Fields  map[string]string `json:"fields,omitempty"`
}
