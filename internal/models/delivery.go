package models

import (
	"time"
)

const (
	DeliveryStatusCreated   = "created"
	DeliveryStatusInTransit = "in_transit"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusFailed    = "failed"
)

// Delivery is a courier pickup/drop booked for an accepted swap.
type Delivery struct {
	ID            string    `json:"id"`
	SwapID        string    `json:"swap_id"`
	UserID        string    `json:"user_id"`
	Courier       string    `json:"courier"`
	PickupAddress string    `json:"pickup_address"`
	DropAddress   string    `json:"drop_address"`
	Status        string    `json:"status"`
	TrackingURL   string    `json:"tracking_url,omitempty"`
	CourierRef    string    `json:"courier_ref,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CreateDeliveryRequest struct {
	SwapID        string `json:"swapId"`
	PickupAddress string `json:"pickupAddress"`
	DropAddress   string `json:"dropAddress"`
}

func (r *CreateDeliveryRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.SwapID == "" {
		errors["swapId"] = "Swap ID is required"
	}
	if r.PickupAddress == "" {
		errors["pickupAddress"] = "Pickup address is required"
	}
	if r.DropAddress == "" {
		errors["dropAddress"] = "Drop address is required"
	}

	return errors
}
