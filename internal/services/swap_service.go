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
	ErrSwapNotFound     = errors.New("swap not found")
	ErrNotSwapRecipient = errors.New("only the requested item's owner may act on this swap")
	ErrSwapClosed       = errors.New("swap already accepted or declined")
)

// SwapService handles swap proposals and their pending -> accepted|declined
// lifecycle. Both transitions are terminal and only the owner of the
// requested item may perform them.
//
// Propose does not verify that the offered item belongs to the acting user;
// the client is trusted on that point. See DESIGN.md before changing this.
type SwapService interface {
	Propose(ctx context.Context, actingUserID string, req *models.ProposeSwapRequest) (*models.Swap, error)
	Accept(ctx context.Context, actingUserID, swapID string) (*models.Swap, error)
	Decline(ctx context.Context, actingUserID, swapID string) (*models.Swap, error)
	GetByID(ctx context.Context, swapID string) (*models.Swap, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Swap, error)
}

type MemorySwapService struct {
	mu    sync.RWMutex
	swaps map[string]*models.Swap
	items ItemService
}

func NewMemorySwapService(items ItemService) *MemorySwapService {
	return &MemorySwapService{
		swaps: make(map[string]*models.Swap),
		items: items,
	}
}

func (s *MemorySwapService) Propose(ctx context.Context, actingUserID string, req *models.ProposeSwapRequest) (*models.Swap, error) {
	offered, err := s.items.GetByID(ctx, req.ItemOfferedID)
	if err != nil {
		return nil, err
	}
	requested, err := s.items.GetByID(ctx, req.ItemRequestedID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	swap := &models.Swap{
		ID:                  uuid.New().String(),
		ItemOfferedID:       offered.ID,
		ItemRequestedID:     requested.ID,
		OfferedByUserID:     actingUserID,
		RequestedFromUserID: requested.OwnerID,
		NetAmount:           requested.Price - offered.Price,
		Status:              models.SwapStatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	s.mu.Lock()
	s.swaps[swap.ID] = swap
	s.mu.Unlock()

	return copySwap(swap), nil
}

func (s *MemorySwapService) Accept(ctx context.Context, actingUserID, swapID string) (*models.Swap, error) {
	return s.transition(actingUserID, swapID, models.SwapStatusAccepted)
}

func (s *MemorySwapService) Decline(ctx context.Context, actingUserID, swapID string) (*models.Swap, error) {
	return s.transition(actingUserID, swapID, models.SwapStatusDeclined)
}

func (s *MemorySwapService) transition(actingUserID, swapID, status string) (*models.Swap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	swap, exists := s.swaps[swapID]
	if !exists {
		return nil, ErrSwapNotFound
	}
	if swap.RequestedFromUserID != actingUserID {
		return nil, ErrNotSwapRecipient
	}
	if swap.Closed() {
		return nil, ErrSwapClosed
	}

	swap.Status = status
	swap.UpdatedAt = time.Now().UTC()
	return copySwap(swap), nil
}

func (s *MemorySwapService) GetByID(ctx context.Context, swapID string) (*models.Swap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	swap, exists := s.swaps[swapID]
	if !exists {
		return nil, ErrSwapNotFound
	}
	return copySwap(swap), nil
}

func (s *MemorySwapService) ListForUser(ctx context.Context, userID string) ([]*models.Swap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*models.Swap, 0)
	for _, swap := range s.swaps {
		if swap.OfferedByUserID == userID || swap.RequestedFromUserID == userID {
			results = append(results, copySwap(swap))
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

func copySwap(swap *models.Swap) *models.Swap {
	c := *swap
	return &c
}
