package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swapin/backend/internal/models"
)

type fakeSender struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeSender) record(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s)
	return f.err
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSender) SendPush(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	return f.record("push:" + title + ":" + body)
}

func (f *fakeSender) SendEmail(ctx context.Context, to, subject, body string) error {
	return f.record("email:" + to + ":" + subject)
}

func (f *fakeSender) SendSMS(ctx context.Context, to, body string) error {
	return f.record("sms:" + to + ":" + body)
}

func notifierFixture(t *testing.T, push, email, sms *fakeSender) (*Notifier, *MemoryNotificationStore, *MemoryUserService) {
	t.Helper()

	users := NewMemoryUserService()
	store := NewMemoryNotificationStore()

	var p PushSender
	var e EmailSender
	var s SMSSender
	if push != nil {
		p = push
	}
	if email != nil {
		e = email
	}
	if sms != nil {
		s = sms
	}
	return NewNotifier(store, users, p, e, s), store, users
}

func registerRecipient(t *testing.T, users *MemoryUserService, phone, deviceToken string) string {
	t.Helper()

	user, err := users.Register(context.Background(), &models.RegisterRequest{
		Email: "bob@example.com", Password: "secret1", Name: "Bob", Phone: phone,
	})
	require.NoError(t, err)
	if deviceToken != "" {
		require.NoError(t, users.UpdateDeviceToken(context.Background(), user.ID, deviceToken))
	}
	return user.ID
}

func TestSendWritesDocumentAndFansOut(t *testing.T) {
	push, email, sms := &fakeSender{}, &fakeSender{}, &fakeSender{}
	notifier, store, users := notifierFixture(t, push, email, sms)
	ctx := context.Background()

	toUserID := registerRecipient(t, users, "+15550100", "device-1")

	notifier.Send(ctx, models.NotificationEvent{
		FromUserID: "alice",
		ToUserID:   toUserID,
		Type:       models.NotificationSwapAccepted,
		Data:       map[string]string{"item_title": "Mountain bike"},
	})

	docs, err := store.ListForUser(ctx, toUserID, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "Swap accepted", docs[0].Title)
	require.Equal(t, "Your offer on Mountain bike was accepted", docs[0].Message)
	require.False(t, docs[0].IsRead)

	require.Len(t, push.sent(), 1)
	require.Contains(t, push.sent()[0], "Mountain bike")
	require.Len(t, email.sent(), 1)
	require.Len(t, sms.sent(), 1)
	require.Contains(t, sms.sent()[0], "+15550100")
}

func TestSendSkipsChannelsWithoutTemplate(t *testing.T) {
	push, email, sms := &fakeSender{}, &fakeSender{}, &fakeSender{}
	notifier, store, users := notifierFixture(t, push, email, sms)
	ctx := context.Background()

	toUserID := registerRecipient(t, users, "+15550100", "device-1")

	// swap_declined has a push template but no email or SMS template.
	notifier.Send(ctx, models.NotificationEvent{
		FromUserID: "alice",
		ToUserID:   toUserID,
		Type:       models.NotificationSwapDeclined,
		Data:       map[string]string{"item_title": "Lamp"},
	})

	require.Len(t, push.sent(), 1)
	require.Empty(t, email.sent())
	require.Empty(t, sms.sent())

	docs, err := store.ListForUser(ctx, toUserID, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestSendUnknownTypeStillWritesDocument(t *testing.T) {
	push, email, sms := &fakeSender{}, &fakeSender{}, &fakeSender{}
	notifier, store, users := notifierFixture(t, push, email, sms)
	ctx := context.Background()

	toUserID := registerRecipient(t, users, "", "")

	notifier.Send(ctx, models.NotificationEvent{
		FromUserID: "alice",
		ToUserID:   toUserID,
		Type:       "totally_new_event",
	})

	docs, err := store.ListForUser(ctx, toUserID, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "totally_new_event", docs[0].Title)

	require.Empty(t, push.sent())
	require.Empty(t, email.sent())
	require.Empty(t, sms.sent())
}

func TestSendChannelFailureParksOutbox(t *testing.T) {
	email := &fakeSender{err: errors.New("sendgrid 500")}
	notifier, store, users := notifierFixture(t, nil, email, nil)
	ctx := context.Background()

	toUserID := registerRecipient(t, users, "", "")

	notifier.Send(ctx, models.NotificationEvent{
		FromUserID: "alice",
		ToUserID:   toUserID,
		Type:       models.NotificationSwapAccepted,
		Data:       map[string]string{"item_title": "Lamp"},
	})

	// The document write succeeded even though the channel failed.
	docs, err := store.ListForUser(ctx, toUserID, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	pending, err := store.PendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, models.ChannelEmail, pending[0].Channel)
	require.Equal(t, "bob@example.com", pending[0].Recipient)
	require.Equal(t, 1, pending[0].Attempts)
	require.Equal(t, "sendgrid 500", pending[0].LastError)
}

func TestSendMissingContactSkipsChannel(t *testing.T) {
	push, sms := &fakeSender{}, &fakeSender{}
	notifier, _, users := notifierFixture(t, push, nil, sms)
	ctx := context.Background()

	// No phone, no device token.
	toUserID := registerRecipient(t, users, "", "")

	notifier.Send(ctx, models.NotificationEvent{
		FromUserID: "alice",
		ToUserID:   toUserID,
		Type:       models.NotificationSwapAccepted,
		Data:       map[string]string{"item_title": "Lamp"},
	})

	require.Empty(t, push.sent())
	require.Empty(t, sms.sent())
}

func TestSendUnknownRecipientWritesDocumentOnly(t *testing.T) {
	push := &fakeSender{}
	notifier, store, _ := notifierFixture(t, push, nil, nil)
	ctx := context.Background()

	notifier.Send(ctx, models.NotificationEvent{
		FromUserID: "alice",
		ToUserID:   "ghost",
		Type:       models.NotificationSwapAccepted,
	})

	docs, err := store.ListForUser(ctx, "ghost", 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Empty(t, push.sent())
}
