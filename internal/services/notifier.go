package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swapin/backend/internal/models"
)

// Channel senders. Each third-party integration satisfies exactly one.
type PushSender interface {
	SendPush(ctx context.Context, deviceToken, title, body string, data map[string]string) error
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type messageTemplate struct {
	Title string
	Body  string
}

// Per-channel template tables. A channel with no template for an event type
// skips that event silently. Placeholders like {item_title} are expanded
// from the event data.
var pushTemplates = map[string]messageTemplate{
	models.NotificationSwapProposed: {"New swap offer", "Someone wants to swap for your {item_title}"},
	models.NotificationSwapAccepted: {"Swap accepted", "Your offer on {item_title} was accepted"},
	models.NotificationSwapDeclined: {"Swap declined", "Your offer on {item_title} was declined"},
	models.NotificationPaymentDone:  {"Payment received", "Payment of {amount} for your swap is complete"},
	models.NotificationItemLiked:    {"Item liked", "Someone liked your {item_title}"},
}

var emailTemplates = map[string]messageTemplate{
	models.NotificationSwapProposed: {"You have a new swap offer on Swapin", "A user proposed a swap for your item \"{item_title}\". Open the app to review it."},
	models.NotificationSwapAccepted: {"Your swap offer was accepted", "Your offer on \"{item_title}\" was accepted. Arrange the exchange in the app."},
	models.NotificationPaymentDone:  {"Payment confirmation", "A payment of {amount} linked to your swap has been completed."},
}

var smsTemplates = map[string]string{
	models.NotificationSwapAccepted: "Swapin: your offer on {item_title} was accepted.",
	models.NotificationPaymentDone:  "Swapin: payment of {amount} for your swap is complete.",
}

// contactLookup is the slice of UserService the fan-out needs.
type contactLookup interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// Notifier writes one notification document per event and then fans out to
// push, email and SMS on a best-effort basis. It never returns an error:
// a broken side channel must not fail the operation that triggered it.
// Failed channel sends are parked in the outbox for the worker to retry.
type Notifier struct {
	store NotificationStore
	users contactLookup
	push  PushSender
	email EmailSender
	sms   SMSSender
}

func NewNotifier(store NotificationStore, users contactLookup, push PushSender, email EmailSender, sms SMSSender) *Notifier {
	return &Notifier{store: store, users: users, push: push, email: email, sms: sms}
}

func (n *Notifier) Send(ctx context.Context, ev models.NotificationEvent) {
	title, message := ev.Type, ""
	if tpl, ok := pushTemplates[ev.Type]; ok {
		title = expandTemplate(tpl.Title, ev.Data)
		message = expandTemplate(tpl.Body, ev.Data)
	}

	notification := &models.Notification{
		ID:         uuid.New().String(),
		FromUserID: ev.FromUserID,
		ToUserID:   ev.ToUserID,
		Type:       ev.Type,
		Title:      title,
		Message:    message,
		Data:       ev.Data,
		IsRead:     false,
		CreatedAt:  time.Now().UTC(),
	}

	if err := n.store.Create(ctx, notification); err != nil {
		log.Printf("[notify] failed to persist notification to=%s type=%s err=%v", ev.ToUserID, ev.Type, err)
		return
	}

	user, err := n.users.GetByID(ctx, ev.ToUserID)
	if err != nil {
		log.Printf("[notify] recipient lookup failed to=%s err=%v", ev.ToUserID, err)
		return
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		n.dispatchPush(ctx, notification, user)
	}()
	go func() {
		defer wg.Done()
		n.dispatchEmail(ctx, notification, user)
	}()
	go func() {
		defer wg.Done()
		n.dispatchSMS(ctx, notification, user)
	}()
	wg.Wait()
}

func (n *Notifier) dispatchPush(ctx context.Context, nt *models.Notification, user *models.User) {
	if n.push == nil || user.DeviceToken == "" {
		return
	}
	tpl, ok := pushTemplates[nt.Type]
	if !ok {
		return
	}
	title := expandTemplate(tpl.Title, nt.Data)
	body := expandTemplate(tpl.Body, nt.Data)
	if err := n.push.SendPush(ctx, user.DeviceToken, title, body, nt.Data); err != nil {
		log.Printf("[notify] push failed to=%s type=%s err=%v", nt.ToUserID, nt.Type, err)
		n.park(ctx, nt.ID, models.ChannelPush, user.DeviceToken, title, body, err)
	}
}

func (n *Notifier) dispatchEmail(ctx context.Context, nt *models.Notification, user *models.User) {
	if n.email == nil || user.Email == "" {
		return
	}
	tpl, ok := emailTemplates[nt.Type]
	if !ok {
		return
	}
	subject := expandTemplate(tpl.Title, nt.Data)
	body := expandTemplate(tpl.Body, nt.Data)
	if err := n.email.SendEmail(ctx, user.Email, subject, body); err != nil {
		log.Printf("[notify] email failed to=%s type=%s err=%v", nt.ToUserID, nt.Type, err)
		n.park(ctx, nt.ID, models.ChannelEmail, user.Email, subject, body, err)
	}
}

func (n *Notifier) dispatchSMS(ctx context.Context, nt *models.Notification, user *models.User) {
	if n.sms == nil || user.Phone == "" {
		return
	}
	tpl, ok := smsTemplates[nt.Type]
	if !ok {
		return
	}
	body := expandTemplate(tpl, nt.Data)
	if err := n.sms.SendSMS(ctx, user.Phone, body); err != nil {
		log.Printf("[notify] sms failed to=%s type=%s err=%v", nt.ToUserID, nt.Type, err)
		n.park(ctx, nt.ID, models.ChannelSMS, user.Phone, "", body, err)
	}
}

func (n *Notifier) park(ctx context.Context, notificationID, channel, recipient, title, body string, cause error) {
	now := time.Now().UTC()
	entry := &models.OutboxEntry{
		ID:             uuid.New().String(),
		NotificationID: notificationID,
		Channel:        channel,
		Recipient:      recipient,
		Title:          title,
		Body:           body,
		Status:         models.OutboxStatusPending,
		Attempts:       1,
		LastError:      cause.Error(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := n.store.EnqueueOutbox(ctx, entry); err != nil {
		log.Printf("[notify] outbox enqueue failed channel=%s err=%v", channel, err)
	}
}

func expandTemplate(s string, data map[string]string) string {
	for k, v := range data {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}
