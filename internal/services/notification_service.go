package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/swapin/backend/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationStore persists notification documents and the retry outbox.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error

	EnqueueOutbox(ctx context.Context, e *models.OutboxEntry) error
	PendingOutbox(ctx context.Context, limit int) ([]*models.OutboxEntry, error)
	UpdateOutbox(ctx context.Context, e *models.OutboxEntry) error
}

type MemoryNotificationStore struct {
	mu            sync.RWMutex
	notifications map[string]*models.Notification
	outbox        map[string]*models.OutboxEntry
}

func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{
		notifications: make(map[string]*models.Notification),
		outbox:        make(map[string]*models.OutboxEntry),
	}
}

func (s *MemoryNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *n
	s.notifications[n.ID] = &c
	return nil
}

func (s *MemoryNotificationStore) ListForUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > 200 {
		limit = 200
	}

	results := make([]*models.Notification, 0)
	for _, n := range s.notifications {
		if n.ToUserID == userID {
			c := *n
			results = append(results, &c)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *MemoryNotificationStore) MarkRead(ctx context.Context, userID, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.notifications[notificationID]
	if !exists || n.ToUserID != userID {
		return ErrNotificationNotFound
	}
	n.IsRead = true
	return nil
}

func (s *MemoryNotificationStore) EnqueueOutbox(ctx context.Context, e *models.OutboxEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *e
	s.outbox[e.ID] = &c
	return nil
}

func (s *MemoryNotificationStore) PendingOutbox(ctx context.Context, limit int) ([]*models.OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > 100 {
		limit = 100
	}

	results := make([]*models.OutboxEntry, 0)
	for _, e := range s.outbox {
		if e.Status == models.OutboxStatusPending {
			c := *e
			results = append(results, &c)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *MemoryNotificationStore) UpdateOutbox(ctx context.Context, e *models.OutboxEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.outbox[e.ID]; !exists {
		return ErrNotificationNotFound
	}
	c := *e
	c.UpdatedAt = time.Now().UTC()
	s.outbox[e.ID] = &c
	return nil
}
