package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swapin/backend/internal/models"
)

func newRazorpayTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_test123","amount":500000,"currency":"INR","status":"created"}`))
	}))
}

func razorpaySignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestProcessor(t *testing.T, server *httptest.Server) (*PaymentProcessor, *MemoryPaymentStore) {
	t.Helper()

	gw := NewRazorpayClient("key_test", "secret_test")
	gw.Endpoint = server.URL

	store := NewMemoryPaymentStore()
	return NewPaymentProcessor(store, "INR", gw), store
}

func TestInitializeCreatesPendingPayment(t *testing.T) {
	server := newRazorpayTestServer(t)
	defer server.Close()
	processor, _ := newTestProcessor(t, server)

	payment, err := processor.Initialize(context.Background(), "alice", &models.InitializePaymentRequest{
		SwapID: "swap-1", Amount: 5000, Gateway: models.GatewayRazorpay,
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPending, payment.Status)
	require.Equal(t, "order_test123", payment.GatewayOrderID)
	require.Equal(t, "INR", payment.Currency)
}

func TestInitializeUnknownGateway(t *testing.T) {
	processor := NewPaymentProcessor(NewMemoryPaymentStore(), "INR")

	_, err := processor.Initialize(context.Background(), "alice", &models.InitializePaymentRequest{
		SwapID: "swap-1", Amount: 5000, Gateway: "paypal",
	})
	require.ErrorIs(t, err, ErrUnknownGateway)
}

func TestInitializeGatewayDownIsUpstreamError(t *testing.T) {
	server := newRazorpayTestServer(t)
	server.Close() // refuse connections
	processor, _ := newTestProcessor(t, server)

	_, err := processor.Initialize(context.Background(), "alice", &models.InitializePaymentRequest{
		SwapID: "swap-1", Amount: 5000, Gateway: models.GatewayRazorpay,
	})
	require.ErrorIs(t, err, ErrUpstream)
}

func TestVerifyCompletesExactlyOnce(t *testing.T) {
	server := newRazorpayTestServer(t)
	defer server.Close()
	processor, _ := newTestProcessor(t, server)
	ctx := context.Background()

	payment, err := processor.Initialize(ctx, "alice", &models.InitializePaymentRequest{
		SwapID: "swap-1", Amount: 5000, Gateway: models.GatewayRazorpay,
	})
	require.NoError(t, err)

	response := map[string]string{
		"razorpay_payment_id": "pay_abc",
		"razorpay_signature":  razorpaySignature("secret_test", payment.GatewayOrderID, "pay_abc"),
	}

	verified, err := processor.Verify(ctx, "alice", &models.VerifyPaymentRequest{
		PaymentID: payment.ID, GatewayResponse: response,
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCompleted, verified.Status)

	// The transition already happened; a replayed verify is rejected.
	_, err = processor.Verify(ctx, "alice", &models.VerifyPaymentRequest{
		PaymentID: payment.ID, GatewayResponse: response,
	})
	require.ErrorIs(t, err, ErrPaymentClosed)
}

func TestVerifyBadSignatureFailsPayment(t *testing.T) {
	server := newRazorpayTestServer(t)
	defer server.Close()
	processor, _ := newTestProcessor(t, server)
	ctx := context.Background()

	payment, err := processor.Initialize(ctx, "alice", &models.InitializePaymentRequest{
		SwapID: "swap-1", Amount: 5000, Gateway: models.GatewayRazorpay,
	})
	require.NoError(t, err)

	verified, err := processor.Verify(ctx, "alice", &models.VerifyPaymentRequest{
		PaymentID: payment.ID,
		GatewayResponse: map[string]string{
			"razorpay_payment_id": "pay_abc",
			"razorpay_signature":  "forged",
		},
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusFailed, verified.Status)
}

func TestVerifyOwnershipEnforced(t *testing.T) {
	server := newRazorpayTestServer(t)
	defer server.Close()
	processor, _ := newTestProcessor(t, server)
	ctx := context.Background()

	payment, err := processor.Initialize(ctx, "alice", &models.InitializePaymentRequest{
		SwapID: "swap-1", Amount: 5000, Gateway: models.GatewayRazorpay,
	})
	require.NoError(t, err)

	_, err = processor.Verify(ctx, "mallory", &models.VerifyPaymentRequest{
		PaymentID:       payment.ID,
		GatewayResponse: map[string]string{"razorpay_payment_id": "pay_abc", "razorpay_signature": "x"},
	})
	require.ErrorIs(t, err, ErrNotPaymentOwner)

	_, err = processor.Get(ctx, "mallory", payment.ID)
	require.ErrorIs(t, err, ErrNotPaymentOwner)
}

func TestCompleteForSwapIsIdempotent(t *testing.T) {
	server := newRazorpayTestServer(t)
	defer server.Close()
	processor, store := newTestProcessor(t, server)
	ctx := context.Background()

	payment, err := processor.Initialize(ctx, "alice", &models.InitializePaymentRequest{
		SwapID: "swap-1", Amount: 5000, Gateway: models.GatewayRazorpay,
	})
	require.NoError(t, err)

	failed, err := processor.Initialize(ctx, "alice", &models.InitializePaymentRequest{
		SwapID: "swap-1", Amount: 5000, Gateway: models.GatewayRazorpay,
	})
	require.NoError(t, err)
	_, err = store.SetStatus(ctx, failed.ID, models.PaymentStatusFailed, nil)
	require.NoError(t, err)

	require.NoError(t, processor.CompleteForSwap(ctx, "swap-1"))
	require.NoError(t, processor.CompleteForSwap(ctx, "swap-1")) // retry is a no-op

	got, err := store.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCompleted, got.Status)

	// The failed payment is immutable.
	got, err = store.GetByID(ctx, failed.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusFailed, got.Status)
}

func TestStripeVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payment_intents/pi_123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","status":"succeeded"}`))
	}))
	defer server.Close()

	gw := NewStripeClient("sk_test")
	gw.Endpoint = server.URL

	ok, err := gw.VerifyPayment(context.Background(), "pi_123", nil)
	require.NoError(t, err)
	require.True(t, ok)
}
