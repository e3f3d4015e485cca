package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swapin/backend/internal/models"
)

var (
	ErrDeliveryNotFound = errors.New("delivery not found")
	ErrSwapNotAccepted  = errors.New("delivery requires an accepted swap")
	ErrNotSwapParty     = errors.New("not a party to this swap")
)

// CourierClient abstracts one external courier provider.
type CourierClient interface {
	Name() string
	BookDelivery(ctx context.Context, pickup, drop, reference string) (ref, trackingURL string, err error)
}

type DeliveryStore interface {
	Create(ctx context.Context, d *models.Delivery) error
	GetByID(ctx context.Context, id string) (*models.Delivery, error)
}

// DeliveryManager books courier pickups for accepted swaps. The courier call
// is a critical path: its failure fails the operation.
type DeliveryManager struct {
	store   DeliveryStore
	courier CourierClient
	swaps   SwapService
}

func NewDeliveryManager(store DeliveryStore, courier CourierClient, swaps SwapService) *DeliveryManager {
	return &DeliveryManager{store: store, courier: courier, swaps: swaps}
}

func (m *DeliveryManager) Create(ctx context.Context, userID string, req *models.CreateDeliveryRequest) (*models.Delivery, error) {
	if m.courier == nil {
		return nil, fmt.Errorf("%w: no courier configured", ErrUpstream)
	}

	swap, err := m.swaps.GetByID(ctx, req.SwapID)
	if err != nil {
		return nil, err
	}
	if swap.OfferedByUserID != userID && swap.RequestedFromUserID != userID {
		return nil, ErrNotSwapParty
	}
	if swap.Status != models.SwapStatusAccepted {
		return nil, ErrSwapNotAccepted
	}

	now := time.Now().UTC()
	delivery := &models.Delivery{
		ID:            uuid.New().String(),
		SwapID:        swap.ID,
		UserID:        userID,
		Courier:       m.courier.Name(),
		PickupAddress: req.PickupAddress,
		DropAddress:   req.DropAddress,
		Status:        models.DeliveryStatusCreated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	ref, trackingURL, err := m.courier.BookDelivery(ctx, req.PickupAddress, req.DropAddress, delivery.ID)
	if err != nil {
		return nil, fmt.Errorf("book delivery: %w", err)
	}
	delivery.CourierRef = ref
	delivery.TrackingURL = trackingURL

	if err := m.store.Create(ctx, delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

func (m *DeliveryManager) Get(ctx context.Context, userID, deliveryID string) (*models.Delivery, error) {
	delivery, err := m.store.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if delivery.UserID != userID {
		return nil, ErrNotSwapParty
	}
	return delivery, nil
}

type MemoryDeliveryStore struct {
	mu         sync.RWMutex
	deliveries map[string]*models.Delivery
}

func NewMemoryDeliveryStore() *MemoryDeliveryStore {
	return &MemoryDeliveryStore{
		deliveries: make(map[string]*models.Delivery),
	}
}

func (s *MemoryDeliveryStore) Create(ctx context.Context, d *models.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *d
	s.deliveries[d.ID] = &c
	return nil
}

func (s *MemoryDeliveryStore) GetByID(ctx context.Context, id string) (*models.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.deliveries[id]
	if !exists {
		return nil, ErrDeliveryNotFound
	}
	c := *d
	return &c, nil
}
