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
	ErrAlreadyInWishlist     = errors.New("item already in wishlist")
	ErrWishlistEntryNotFound = errors.New("wishlist entry not found")
)

type WishlistService interface {
	Add(ctx context.Context, userID, itemID string) (*models.WishlistEntry, error)
	Remove(ctx context.Context, userID, itemID string) error
	List(ctx context.Context, userID string) ([]*models.WishlistEntry, error)
}

type MemoryWishlistService struct {
	mu      sync.RWMutex
	entries map[string]*models.WishlistEntry // userID+":"+itemID
}

func NewMemoryWishlistService() *MemoryWishlistService {
	return &MemoryWishlistService{
		entries: make(map[string]*models.WishlistEntry),
	}
}

func (s *MemoryWishlistService) Add(ctx context.Context, userID, itemID string) (*models.WishlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userID + ":" + itemID
	if _, exists := s.entries[key]; exists {
		return nil, ErrAlreadyInWishlist
	}

	entry := &models.WishlistEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		ItemID:    itemID,
		CreatedAt: time.Now().UTC(),
	}
	s.entries[key] = entry

	c := *entry
	return &c, nil
}

func (s *MemoryWishlistService) Remove(ctx context.Context, userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userID + ":" + itemID
	if _, exists := s.entries[key]; !exists {
		return ErrWishlistEntryNotFound
	}
	delete(s.entries, key)
	return nil
}

func (s *MemoryWishlistService) List(ctx context.Context, userID string) ([]*models.WishlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*models.WishlistEntry, 0)
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
