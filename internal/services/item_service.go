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
	ErrItemNotFound = errors.New("item not found")
	ErrNotItemOwner = errors.New("not the owner of this item")
)

// ItemService manages listings. Core fields are only mutable by the owner;
// the view/like/offer counters are incremented by anyone and must survive
// concurrent increments without lost updates.
type ItemService interface {
	Create(ctx context.Context, ownerID string, req *models.CreateItemRequest) (*models.Item, error)
	GetByID(ctx context.Context, itemID string) (*models.Item, error)
	Update(ctx context.Context, ownerID, itemID string, req *models.UpdateItemRequest) (*models.Item, error)
	Delete(ctx context.Context, ownerID, itemID string) error
	ListActive(ctx context.Context, limit int) ([]*models.Item, error)
	RecordView(ctx context.Context, itemID string) error
	RecordLike(ctx context.Context, itemID string) (*models.Item, error)
	RecordOffer(ctx context.Context, itemID string) error
}

// MemoryItemService is the MongoDB-free fallback used in development and tests.
type MemoryItemService struct {
	mu    sync.RWMutex
	items map[string]*models.Item
}

func NewMemoryItemService() *MemoryItemService {
	return &MemoryItemService{
		items: make(map[string]*models.Item),
	}
}

func (s *MemoryItemService) Create(ctx context.Context, ownerID string, req *models.CreateItemRequest) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	images := req.Images
	if images == nil {
		images = []string{}
	}

	item := &models.Item{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Images:      images,
		Category:    req.Category,
		Price:       req.Price,
		Condition:   req.Condition,
		Status:      models.ItemStatusActive,
		Tags:        req.Tags,
		CreatedAt:   time.Now().UTC(),
	}

	s.items[item.ID] = item
	return copyItem(item), nil
}

func (s *MemoryItemService) GetByID(ctx context.Context, itemID string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[itemID]
	if !exists {
		return nil, ErrItemNotFound
	}
	return copyItem(item), nil
}

func (s *MemoryItemService) Update(ctx context.Context, ownerID, itemID string, req *models.UpdateItemRequest) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[itemID]
	if !exists {
		return nil, ErrItemNotFound
	}
	if item.OwnerID != ownerID {
		return nil, ErrNotItemOwner
	}

	item.Title = req.Title
	item.Description = req.Description
	if req.Images != nil {
		item.Images = req.Images
	}
	item.Category = req.Category
	item.Price = req.Price
	item.Condition = req.Condition
	if req.Status != "" {
		item.Status = req.Status
	}
	item.Tags = req.Tags

	return copyItem(item), nil
}

func (s *MemoryItemService) Delete(ctx context.Context, ownerID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[itemID]
	if !exists {
		return ErrItemNotFound
	}
	if item.OwnerID != ownerID {
		return ErrNotItemOwner
	}

	delete(s.items, itemID)
	return nil
}

func (s *MemoryItemService) ListActive(ctx context.Context, limit int) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > 500 {
		limit = 500
	}

	results := make([]*models.Item, 0)
	for _, item := range s.items {
		if item.Status == models.ItemStatusActive {
			results = append(results, copyItem(item))
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

func (s *MemoryItemService) RecordView(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[itemID]
	if !exists {
		return ErrItemNotFound
	}
	item.Views++
	return nil
}

func (s *MemoryItemService) RecordLike(ctx context.Context, itemID string) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[itemID]
	if !exists {
		return nil, ErrItemNotFound
	}
	item.Likes++
	return copyItem(item), nil
}

func (s *MemoryItemService) RecordOffer(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[itemID]
	if !exists {
		return ErrItemNotFound
	}
	item.Offers++
	return nil
}

func copyItem(item *models.Item) *models.Item {
	c := *item
	return &c
}
