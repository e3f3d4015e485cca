package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swapin/backend/internal/models"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentClosed   = errors.New("payment already completed or failed")
	ErrNotPaymentOwner = errors.New("not the owner of this payment")
	ErrUnknownGateway  = errors.New("unknown payment gateway")

	// ErrUpstream wraps failures from third-party gateways on critical paths.
	ErrUpstream = errors.New("upstream gateway request failed")
)

// PaymentGateway abstracts one external payment provider.
type PaymentGateway interface {
	Name() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*models.GatewayOrder, error)
	VerifyPayment(ctx context.Context, orderID string, response map[string]string) (bool, error)
}

// PaymentStore persists payment documents. SetStatus must refuse to touch a
// payment that already left pending: the pending -> completed|failed
// transition happens exactly once.
type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	SetStatus(ctx context.Context, id, status string, fields map[string]string) (*models.Payment, error)
	CompletePendingForSwap(ctx context.Context, swapID string) error
}

// PaymentProcessor drives the initialize/verify flow against whichever
// gateway the client selected. Gateway failures here are critical and
// propagate, unlike the notification side channels.
type PaymentProcessor struct {
	store    PaymentStore
	gateways map[string]PaymentGateway
	currency string
}

func NewPaymentProcessor(store PaymentStore, currency string, gateways ...PaymentGateway) *PaymentProcessor {
	m := make(map[string]PaymentGateway, len(gateways))
	for _, gw := range gateways {
		m[gw.Name()] = gw
	}
	return &PaymentProcessor{store: store, gateways: m, currency: currency}
}

func (p *PaymentProcessor) Initialize(ctx context.Context, userID string, req *models.InitializePaymentRequest) (*models.Payment, error) {
	gw, ok := p.gateways[req.Gateway]
	if !ok {
		return nil, ErrUnknownGateway
	}

	now := time.Now().UTC()
	payment := &models.Payment{
		ID:        uuid.New().String(),
		UserID:    userID,
		SwapID:    req.SwapID,
		Amount:    req.Amount,
		Currency:  p.currency,
		Gateway:   gw.Name(),
		Status:    models.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	order, err := gw.CreateOrder(ctx, payment.Amount, payment.Currency, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("initialize payment: %w", err)
	}
	payment.GatewayOrderID = order.OrderID
	payment.GatewayFields = order.Fields

	if err := p.store.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// Verify flips the payment exactly once to completed or failed based on the
// gateway's answer. A payment that already left pending is rejected.
func (p *PaymentProcessor) Verify(ctx context.Context, userID string, req *models.VerifyPaymentRequest) (*models.Payment, error) {
	payment, err := p.store.GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, ErrNotPaymentOwner
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, ErrPaymentClosed
	}

	gw, ok := p.gateways[payment.Gateway]
	if !ok {
		return nil, ErrUnknownGateway
	}

	ok, err = gw.VerifyPayment(ctx, payment.GatewayOrderID, req.GatewayResponse)
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}

	status := models.PaymentStatusFailed
	if ok {
		status = models.PaymentStatusCompleted
	}
	return p.store.SetStatus(ctx, payment.ID, status, req.GatewayResponse)
}

func (p *PaymentProcessor) Get(ctx context.Context, userID, paymentID string) (*models.Payment, error) {
	payment, err := p.store.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, ErrNotPaymentOwner
	}
	return payment, nil
}

// CompleteForSwap marks any pending payment linked to the swap as completed.
// Safe to retry: payments already completed or failed are left untouched.
func (p *PaymentProcessor) CompleteForSwap(ctx context.Context, swapID string) error {
	return p.store.CompletePendingForSwap(ctx, swapID)
}

// MemoryPaymentStore is the MongoDB-free fallback used in development and tests.
type MemoryPaymentStore struct {
	mu       sync.RWMutex
	payments map[string]*models.Payment
}

func NewMemoryPaymentStore() *MemoryPaymentStore {
	return &MemoryPaymentStore{
		payments: make(map[string]*models.Payment),
	}
}

func (s *MemoryPaymentStore) Create(ctx context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *p
	s.payments[p.ID] = &c
	return nil
}

func (s *MemoryPaymentStore) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.payments[id]
	if !exists {
		return nil, ErrPaymentNotFound
	}
	c := *p
	return &c, nil
}

func (s *MemoryPaymentStore) SetStatus(ctx context.Context, id, status string, fields map[string]string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.payments[id]
	if !exists {
		return nil, ErrPaymentNotFound
	}
	if p.Status != models.PaymentStatusPending {
		return nil, ErrPaymentClosed
	}

	p.Status = status
	if fields != nil {
		p.GatewayFields = fields
	}
	p.UpdatedAt = time.Now().UTC()

	c := *p
	return &c, nil
}

func (s *MemoryPaymentStore) CompletePendingForSwap(ctx context.Context, swapID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.SwapID == swapID && p.Status == models.PaymentStatusPending {
			p.Status = models.PaymentStatusCompleted
			p.UpdatedAt = time.Now().UTC()
			log.Printf("[payments] payment %s completed via swap %s", p.ID, swapID)
		}
	}
	return nil
}
