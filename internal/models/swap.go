package models

import (
	"time"
)

const (
	SwapStatusPending  = "pending"
	SwapStatusAccepted = "accepted"
	SwapStatusDeclined = "declined"
)

// Swap is an item-for-item exchange proposal. NetAmount is the signed cash
// differential balancing the trade: positive means the proposer pays,
// negative means the proposer receives.
type Swap struct {
	ID                  string    `json:"id"`
	ItemOfferedID       string    `json:"item_offered_id"`
	ItemRequestedID     string    `json:"item_requested_id"`
	OfferedByUserID     string    `json:"offered_by_user_id"`
	RequestedFromUserID string    `json:"requested_from_user_id"`
	NetAmount           int64     `json:"net_amount"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Closed reports whether the swap has reached a terminal state.
func (s *Swap) Closed() bool {
	return s.Status != SwapStatusPending
}

type ProposeSwapRequest struct {
	ItemOfferedID   string `json:"itemOfferedId"`
	ItemRequestedID string `json:"itemRequestedId"`
}

func (r *ProposeSwapRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.ItemOfferedID == "" {
		errors["itemOfferedId"] = "Offered item ID is required"
	}
	if r.ItemRequestedID == "" {
		errors["itemRequestedId"] = "Requested item ID is required"
	}

	return errors
}
