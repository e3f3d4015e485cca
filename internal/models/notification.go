package models

import (
	"time"
)

// Notification event types. Each channel resolves its own template from the
// type string; a type a channel has no template for is silently skipped there.
const (
	NotificationSwapProposed = "swap_proposed"
	NotificationSwapAccepted = "swap_accepted"
	NotificationSwapDeclined = "swap_declined"
	NotificationPaymentDone  = "payment_completed"
	NotificationItemLiked    = "item_liked"
)

type Notification struct {
	ID         string            `json:"id"`
	FromUserID string            `json:"from_user_id"`
	ToUserID   string            `json:"to_user_id"`
	Type       string            `json:"type"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Data       map[string]string `json:"data,omitempty"`
	IsRead     bool              `json:"is_read"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NotificationEvent is the input to the fan-out: one document write plus
// best-effort push/email/SMS dispatch.
type NotificationEvent struct {
	FromUserID string
	ToUserID   string
	Type       string
	Data       map[string]string
}

// Outbox channel names.
const (
	ChannelPush  = "push"
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

const (
	OutboxStatusPending   = "pending"
	OutboxStatusDelivered = "delivered"
	OutboxStatusAbandoned = "abandoned"
)

// OutboxEntry records a channel delivery that failed inline so the
// notification worker can re-drive it later.
type OutboxEntry struct {
	ID             string    `json:"id"`
	NotificationID string    `json:"notification_id"`
	Channel        string    `json:"channel"`
	Recipient      string    `json:"recipient"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Status         string    `json:"status"`
	Attempts       int       `json:"attempts"`
	LastError      string    `json:"last_error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
