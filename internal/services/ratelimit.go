package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/swapin/backend/internal/models"
	"github.com/swapin/backend/internal/storage"
)

// RateLimitStore persists one timestamp-list record per (subject, action) key.
type RateLimitStore interface {
	Get(ctx context.Context, key string) (*models.RateLimitRecord, error)
	Put(ctx context.Context, rec *models.RateLimitRecord) error
}

// RateLimiter bounds request rate per (subject, action) with a filtered
// timestamp list. Rate limiting is protective, not correctness-critical:
// any store failure fails open and admits the request.
//
// Known weakness: two concurrent checks for the same key can both read the
// same pre-update record and both pass, admitting limit+1 requests. A store
// with an atomic conditional write would close the race; the Mongo store
// narrows it with a single-document upsert but does not eliminate it.
type RateLimiter struct {
	store RateLimitStore
	now   func() time.Time
}

func NewRateLimiter(store RateLimitStore) *RateLimiter {
	return &RateLimiter{store: store, now: time.Now}
}

func (l *RateLimiter) Check(ctx context.Context, subjectID, action string, limit int, window time.Duration) models.RateLimitResult {
	now := l.now()
	key := subjectID + ":" + action

	rec, err := l.store.Get(ctx, key)
	if err != nil {
		log.Printf("[ratelimit] store read failed key=%s err=%v — failing open", key, err)
		return models.RateLimitResult{Allowed: true, Remaining: 1, ResetTime: now.Add(window)}
	}
	if rec == nil {
		rec = &models.RateLimitRecord{Key: key}
	}

	windowStart := now.Add(-window)
	kept := rec.Requests[:0]
	for _, ts := range rec.Requests {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	rec.Requests = kept

	if len(rec.Requests) >= limit {
		// Denied attempts are not recorded.
		return models.RateLimitResult{
			Allowed:   false,
			Remaining: 0,
			ResetTime: rec.Requests[0].Add(window),
		}
	}

	rec.Requests = append(rec.Requests, now)
	rec.LastUpdated = now
	if err := l.store.Put(ctx, rec); err != nil {
		log.Printf("[ratelimit] store write failed key=%s err=%v — failing open", key, err)
		return models.RateLimitResult{Allowed: true, Remaining: 1, ResetTime: now.Add(window)}
	}

	return models.RateLimitResult{
		Allowed:   true,
		Remaining: limit - len(rec.Requests),
		ResetTime: rec.Requests[0].Add(window),
	}
}

// MemoryRateLimitStore keeps records in memory, optionally snapshotting them
// to disk so restarts do not reset every window.
type MemoryRateLimitStore struct {
	mu      sync.Mutex
	records map[string]*models.RateLimitRecord
	snap    *storage.SnapshotStore
}

func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{
		records: make(map[string]*models.RateLimitRecord),
	}
}

// NewPersistentRateLimitStore loads any existing snapshot from dataDir and
// writes one back on every update.
func NewPersistentRateLimitStore(dataDir string) (*MemoryRateLimitStore, error) {
	snap, err := storage.NewSnapshotStore(dataDir, "rate_limits.json")
	if err != nil {
		return nil, err
	}

	records := make(map[string]*models.RateLimitRecord)
	if err := snap.Load(&records); err != nil {
		return nil, err
	}

	return &MemoryRateLimitStore{
		records: records,
		snap:    snap,
	}, nil
}

func (s *MemoryRateLimitStore) Get(ctx context.Context, key string) (*models.RateLimitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[key]
	if !exists {
		return nil, nil
	}
	c := *rec
	c.Requests = append([]time.Time(nil), rec.Requests...)
	return &c, nil
}

func (s *MemoryRateLimitStore) Put(ctx context.Context, rec *models.RateLimitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *rec
	c.Requests = append([]time.Time(nil), rec.Requests...)
	s.records[rec.Key] = &c

	if s.snap != nil {
		return s.snap.Save(s.records)
	}
	return nil
}
