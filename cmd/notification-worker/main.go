package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/swapin/backend/internal/config"
	"github.com/swapin/backend/internal/models"
	"github.com/swapin/backend/internal/services"
)

// The worker drains the notification outbox: channel sends that failed
// inline are retried here until they deliver or run out of attempts.

const (
	pollInterval = 30 * time.Second
	batchSize    = 50
	maxAttempts  = 5
)

type worker struct {
	store services.NotificationStore
	push  services.PushSender
	email services.EmailSender
	sms   services.SMSSender
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.MongoURI == "" {
		log.Fatal("MONGO_URI is required: the worker shares the outbox with the API server")
	}

	store, err := services.NewMongoNotificationStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("notification store: %v", err)
	}
	defer store.Close(context.Background())

	w := &worker{store: store}

	if cfg.FirebaseCredentialsJSON != "" {
		sender, err := services.NewFCMPushSender(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsJSON)
		if err != nil {
			log.Printf("[worker] FCM unavailable, push retries disabled: %v", err)
		} else {
			w.push = sender
		}
	}
	if cfg.SendGridAPIKey != "" {
		w.email = services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.NotificationFromEmail)
	}
	if cfg.TwilioAccountSID != "" {
		w.sms = services.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	}

	healthAddr := healthAddress()
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(rw http.ResponseWriter, _ *http.Request) {
			rw.WriteHeader(http.StatusOK)
			_, _ = rw.Write([]byte(`{"status":"ok"}`))
		})
		log.Printf("[worker] health endpoint on %s", healthAddr)
		if err := http.ListenAndServe(healthAddr, mux); err != nil {
			log.Printf("[worker] health server stopped: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Printf("[worker] draining outbox every %s", pollInterval)
	w.drain(ctx)
	for {
		select {
		case <-ticker.C:
			w.drain(ctx)
		case <-stop:
			log.Println("[worker] shutting down")
			return
		}
	}
}

func (w *worker) drain(ctx context.Context) {
	entries, err := w.store.PendingOutbox(ctx, batchSize)
	if err != nil {
		log.Printf("[worker] outbox read failed: %v", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	log.Printf("[worker] retrying %d entr(ies)", len(entries))
	for _, entry := range entries {
		w.retry(ctx, entry)
	}
}

func (w *worker) retry(ctx context.Context, entry *models.OutboxEntry) {
	err := w.send(ctx, entry)

	entry.Attempts++
	if err == nil {
		entry.Status = models.OutboxStatusDelivered
		entry.LastError = ""
	} else {
		entry.LastError = err.Error()
		if entry.Attempts >= maxAttempts {
			entry.Status = models.OutboxStatusAbandoned
			log.Printf("[worker] abandoning %s channel=%s after %d attempts: %v", entry.ID, entry.Channel, entry.Attempts, err)
		} else {
			log.Printf("[worker] retry failed %s channel=%s attempt=%d: %v", entry.ID, entry.Channel, entry.Attempts, err)
		}
	}

	if err := w.store.UpdateOutbox(ctx, entry); err != nil {
		log.Printf("[worker] outbox update failed %s: %v", entry.ID, err)
	}
}

func (w *worker) send(ctx context.Context, entry *models.OutboxEntry) error {
	switch entry.Channel {
	case models.ChannelPush:
		if w.push == nil {
			return errNoSender(entry.Channel)
		}
		return w.push.SendPush(ctx, entry.Recipient, entry.Title, entry.Body, nil)
	case models.ChannelEmail:
		if w.email == nil {
			return errNoSender(entry.Channel)
		}
		return w.email.SendEmail(ctx, entry.Recipient, entry.Title, entry.Body)
	case models.ChannelSMS:
		if w.sms == nil {
			return errNoSender(entry.Channel)
		}
		return w.sms.SendSMS(ctx, entry.Recipient, entry.Body)
	default:
		return errNoSender(entry.Channel)
	}
}

type noSenderError string

func errNoSender(channel string) error { return noSenderError(channel) }

func (e noSenderError) Error() string { return "no sender configured for channel " + string(e) }

func healthAddress() string {
	if addr := os.Getenv("WORKER_ADDRESS"); addr != "" {
		return addr
	}
	return ":8081"
}
