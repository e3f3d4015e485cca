package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swapin/backend/internal/models"
)

var (
	ErrAlreadyInCart     = errors.New("item already in cart")
	ErrCartEntryNotFound = errors.New("cart entry not found")
)

type CartService interface {
	Add(ctx context.Context, userID, itemID string) (*models.CartEntry, error)
	Remove(ctx context.Context, userID, itemID string) error
	List(ctx context.Context, userID string) ([]*models.CartEntry, error)
}

type MemoryCartService struct {
	mu      sync.RWMutex
	entries map[string]*models.CartEntry // userID+":"+itemID
}

func NewMemoryCartService() *MemoryCartService {
	return &MemoryCartService{
		entries: make(map[string]*models.CartEntry),
	}
}

func (s *MemoryCartService) Add(ctx context.Context, userID, itemID string) (*models.CartEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userID + ":" + itemID
	if _, exists := s.entries[key]; exists {
		return nil, ErrAlreadyInCart
	}

	entry := &models.CartEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		ItemID:    itemID,
		CreatedAt: time.Now().UTC(),
	}
	s.entries[key] = entry

	c := *entry
	return &c, nil
}

func (s *MemoryCartService) Remove(ctx context.Context, userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userID + ":" + itemID
	if _, exists := s.entries[key]; !exists {
		return ErrCartEntryNotFound
	}
	delete(s.entries, key)
	return nil
}

func (s *MemoryCartService) List(ctx context.Context, userID string) ([]*models.CartEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*models.CartEntry, 0)
	for _, entry := range s.entries {
		if entry.UserID == userID {
			c := *entry
			results = append(results, &c)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}
