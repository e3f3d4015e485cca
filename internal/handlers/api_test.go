package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swapin/backend/internal/models"
	"github.com/swapin/backend/internal/services"
)

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/items/", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, models.CodeAuthRequired, body.Code)

	rec, body = env.do(t, http.MethodGet, "/api/items/", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, models.CodeInvalidToken, body.Code)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, models.CodeNotFound, body.Code)

	rec, _ = env.do(t, http.MethodPatch, "/api/auth/login", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRegisterLoginProfile(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Email: "alice@example.com", Password: "secret1", Name: "Alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, body.Success)

	var auth models.AuthResponse
	require.NoError(t, json.Unmarshal(body.Data, &auth))
	require.NotEmpty(t, auth.Token)

	// Duplicate email conflicts.
	rec, body = env.do(t, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Email: "alice@example.com", Password: "secret1", Name: "Alice",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, models.CodeConflict, body.Code)

	rec, body = env.do(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{
		Email: "alice@example.com", Password: "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = env.do(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{
		Email: "alice@example.com", Password: "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body.Data, &auth))

	// The issued token works against a protected route.
	rec, body = env.do(t, http.MethodGet, "/api/users/me", auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(body.Data, &user))
	require.Equal(t, "alice@example.com", user.Email)
}

func TestItemValidationAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.newUser(t, "alice@example.com")
	bobID, bobToken := env.newUser(t, "bob@example.com")

	// Below minimum price.
	rec, body := env.do(t, http.MethodPost, "/api/items/", aliceToken, models.CreateItemRequest{
		Title: "Pen", Category: "Other", Price: 10,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, models.CodeValidationError, body.Code)
	require.Contains(t, body.Errors, "price")

	bobItem := env.newItem(t, bobID, "Bob's lamp", 500)

	// Alice cannot edit or delete Bob's item.
	rec, body = env.do(t, http.MethodPut, "/api/items/"+bobItem.ID, aliceToken, models.UpdateItemRequest{
		Title: "Hijacked", Category: "Other", Price: 500,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, models.CodeForbidden, body.Code)

	rec, _ = env.do(t, http.MethodDelete, "/api/items/"+bobItem.ID, aliceToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.do(t, http.MethodDelete, "/api/items/"+bobItem.ID, bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = env.do(t, http.MethodGet, "/api/items/"+bobItem.ID, aliceToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, models.CodeNotFound, body.Code)
}

func TestItemViewAndLikeCounters(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.newUser(t, "alice@example.com")
	bobID, _ := env.newUser(t, "bob@example.com")
	item := env.newItem(t, bobID, "Bob's lamp", 500)

	rec, _ := env.do(t, http.MethodPost, "/api/items/"+item.ID+"/view", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := env.do(t, http.MethodGet, "/api/items/"+item.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Item
	require.NoError(t, json.Unmarshal(body.Data, &got))
	require.Equal(t, int64(1), got.Views)

	rec, _ = env.do(t, http.MethodPost, "/api/items/missing/view", aliceToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = env.do(t, http.MethodPost, "/api/items/"+item.ID+"/like", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body.Data, &got))
	require.Equal(t, int64(1), got.Likes)

	// The owner got an item_liked notification.
	docs, err := env.notifStore.ListForUser(context.Background(), bobID, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, models.NotificationItemLiked, docs[0].Type)
}

func TestSwapLifecycleEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice@example.com")
	bobID, bobToken := env.newUser(t, "bob@example.com")

	guitar := env.newItem(t, aliceID, "Old guitar", 3000)
	bike := env.newItem(t, bobID, "Mountain bike", 8000)

	rec, body := env.do(t, http.MethodPost, "/api/swaps/", aliceToken, models.ProposeSwapRequest{
		ItemOfferedID: guitar.ID, ItemRequestedID: bike.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var swap models.Swap
	require.NoError(t, json.Unmarshal(body.Data, &swap))
	require.Equal(t, int64(5000), swap.NetAmount)
	require.Equal(t, models.SwapStatusPending, swap.Status)

	// The offer counter on the requested item moved.
	updatedBike, err := env.items.GetByID(context.Background(), bike.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), updatedBike.Offers)

	// Bob was notified of the proposal.
	docs, err := env.notifStore.ListForUser(context.Background(), bobID, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, models.NotificationSwapProposed, docs[0].Type)

	// A pending payment hangs off the swap (seeded directly at the store).
	pending := &models.Payment{
		ID: "pay-1", UserID: aliceID, SwapID: swap.ID, Amount: 5000,
		Currency: "INR", Gateway: models.GatewayRazorpay, Status: models.PaymentStatusPending,
	}
	require.NoError(t, env.payStore.Create(context.Background(), pending))

	// Alice cannot accept her own proposal.
	rec, body = env.do(t, http.MethodPost, "/api/swaps/"+swap.ID+"/accept", aliceToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, models.CodeForbidden, body.Code)

	rec, body = env.do(t, http.MethodPost, "/api/swaps/"+swap.ID+"/accept", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body.Data, &swap))
	require.Equal(t, models.SwapStatusAccepted, swap.Status)

	// Accept propagated to the linked payment.
	settled, err := env.payStore.GetByID(context.Background(), "pay-1")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCompleted, settled.Status)

	// Alice was notified of the acceptance.
	docs, err = env.notifStore.ListForUser(context.Background(), aliceID, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, models.NotificationSwapAccepted, docs[0].Type)

	// The decision is terminal.
	rec, body = env.do(t, http.MethodPost, "/api/swaps/"+swap.ID+"/decline", bobToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, models.CodeConflict, body.Code)
}

func TestSwapGetRestrictedToParties(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice@example.com")
	bobID, _ := env.newUser(t, "bob@example.com")
	_, carolToken := env.newUser(t, "carol@example.com")

	guitar := env.newItem(t, aliceID, "Old guitar", 3000)
	bike := env.newItem(t, bobID, "Mountain bike", 8000)

	rec, body := env.do(t, http.MethodPost, "/api/swaps/", aliceToken, models.ProposeSwapRequest{
		ItemOfferedID: guitar.ID, ItemRequestedID: bike.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var swap models.Swap
	require.NoError(t, json.Unmarshal(body.Data, &swap))

	rec, body = env.do(t, http.MethodGet, "/api/swaps/"+swap.ID, carolToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, models.CodeForbidden, body.Code)
}

func TestSearchEndpoint(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice@example.com")
	bobID, _ := env.newUser(t, "bob@example.com")

	env.newItem(t, aliceID, "Alice's lamp", 500)
	env.newItem(t, bobID, "Bob's lamp", 700)
	env.newItem(t, bobID, "Bob's chair", 900)

	rec, body := env.do(t, http.MethodGet, "/api/items/search?q=lamp", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results []models.Item
	require.NoError(t, json.Unmarshal(body.Data, &results))
	require.Len(t, results, 1)
	require.Equal(t, "Bob's lamp", results[0].Title)
}

func TestSearchRateLimited(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.newUser(t, "alice@example.com")

	limit := env.rateLimits["search"].Limit
	for i := 0; i < limit; i++ {
		rec, _ := env.do(t, http.MethodGet, "/api/items/search", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec, body := env.do(t, http.MethodGet, "/api/items/search", token, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, models.CodeRateLimited, body.Code)
	require.Greater(t, body.ResetTime, int64(0))

	// A different user is unaffected.
	_, otherToken := env.newUser(t, "bob@example.com")
	rec, _ = env.do(t, http.MethodGet, "/api/items/search", otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPaymentFlowThroughAPI(t *testing.T) {
	gatewayDown := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gatewayDown {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_1","amount":500000,"currency":"INR","status":"created"}`))
	}))
	defer server.Close()

	gw := services.NewRazorpayClient("key_test", "secret_test")
	gw.Endpoint = server.URL

	env := newTestEnv(t, gw)
	aliceID, aliceToken := env.newUser(t, "alice@example.com")
	bobID, _ := env.newUser(t, "bob@example.com")

	guitar := env.newItem(t, aliceID, "Old guitar", 3000)
	bike := env.newItem(t, bobID, "Mountain bike", 8000)

	rec, body := env.do(t, http.MethodPost, "/api/swaps/", aliceToken, models.ProposeSwapRequest{
		ItemOfferedID: guitar.ID, ItemRequestedID: bike.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var swap models.Swap
	require.NoError(t, json.Unmarshal(body.Data, &swap))

	rec, body = env.do(t, http.MethodPost, "/api/payments/initialize", aliceToken, models.InitializePaymentRequest{
		SwapID: swap.ID, Amount: 5000, Gateway: models.GatewayRazorpay,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var payment models.Payment
	require.NoError(t, json.Unmarshal(body.Data, &payment))
	require.Equal(t, models.PaymentStatusPending, payment.Status)
	require.Equal(t, "order_1", payment.GatewayOrderID)

	// Unknown swap 404s before touching the gateway.
	rec, body = env.do(t, http.MethodPost, "/api/payments/initialize", aliceToken, models.InitializePaymentRequest{
		SwapID: "missing", Amount: 5000, Gateway: models.GatewayRazorpay,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Gateway outage surfaces as 502 UPSTREAM_FAILURE.
	gatewayDown = true
	rec, body = env.do(t, http.MethodPost, "/api/payments/initialize", aliceToken, models.InitializePaymentRequest{
		SwapID: swap.ID, Amount: 5000, Gateway: models.GatewayRazorpay,
	})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, models.CodeUpstreamFailure, body.Code)
}

func TestInternalErrorEnvelope(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.newUser(t, "alice@example.com")

	resp := models.NewInternalErrorResponse()
	require.Equal(t, models.CodeInternalError, resp.Code)
	require.NotEmpty(t, resp.Timestamp)

	rec, body := env.do(t, http.MethodGet, "/api/payments/missing", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, models.CodeNotFound, body.Code)
}

func TestWishlistAndCart(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.newUser(t, "alice@example.com")
	bobID, _ := env.newUser(t, "bob@example.com")
	item := env.newItem(t, bobID, "Bob's lamp", 500)

	for _, base := range []string{"/api/wishlist", "/api/cart"} {
		rec, _ := env.do(t, http.MethodPost, base+"/"+item.ID, aliceToken, nil)
		require.Equal(t, http.StatusCreated, rec.Code, base)

		rec, body := env.do(t, http.MethodPost, base+"/"+item.ID, aliceToken, nil)
		require.Equal(t, http.StatusConflict, rec.Code, base)
		require.Equal(t, models.CodeConflict, body.Code)

		rec, _ = env.do(t, http.MethodGet, base+"/", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, _ = env.do(t, http.MethodDelete, base+"/"+item.ID, aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, _ = env.do(t, http.MethodDelete, base+"/"+item.ID, aliceToken, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)

		// Unknown item rejected up front.
		rec, _ = env.do(t, http.MethodPost, base+"/missing", aliceToken, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
}

func TestDeliveryRequiresAcceptedSwap(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.newUser(t, "alice@example.com")
	bobID, bobToken := env.newUser(t, "bob@example.com")
	_, carolToken := env.newUser(t, "carol@example.com")

	guitar := env.newItem(t, aliceID, "Old guitar", 3000)
	bike := env.newItem(t, bobID, "Mountain bike", 8000)

	rec, body := env.do(t, http.MethodPost, "/api/swaps/", aliceToken, models.ProposeSwapRequest{
		ItemOfferedID: guitar.ID, ItemRequestedID: bike.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var swap models.Swap
	require.NoError(t, json.Unmarshal(body.Data, &swap))

	deliveryReq := models.CreateDeliveryRequest{
		SwapID: swap.ID, PickupAddress: "12 North St", DropAddress: "34 South Ave",
	}

	// Pending swap: conflict.
	rec, body = env.do(t, http.MethodPost, "/api/deliveries/", aliceToken, deliveryReq)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/swaps/"+swap.ID+"/accept", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Outsider: forbidden.
	rec, _ = env.do(t, http.MethodPost, "/api/deliveries/", carolToken, deliveryReq)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = env.do(t, http.MethodPost, "/api/deliveries/", aliceToken, deliveryReq)
	require.Equal(t, http.StatusCreated, rec.Code)

	var delivery models.Delivery
	require.NoError(t, json.Unmarshal(body.Data, &delivery))
	require.Equal(t, "courier-ref-1", delivery.CourierRef)
	require.NotEmpty(t, delivery.TrackingURL)

	// Only the booking user reads it back.
	rec, _ = env.do(t, http.MethodGet, "/api/deliveries/"+delivery.ID, bobToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = env.do(t, http.MethodGet, "/api/deliveries/"+delivery.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNotificationListAndMarkRead(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.newUser(t, "alice@example.com")
	bobID, bobToken := env.newUser(t, "bob@example.com")
	item := env.newItem(t, bobID, "Bob's lamp", 500)

	rec, _ := env.do(t, http.MethodPost, "/api/items/"+item.ID+"/like", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := env.do(t, http.MethodGet, "/api/notifications/", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []models.Notification
	require.NoError(t, json.Unmarshal(body.Data, &docs))
	require.Len(t, docs, 1)
	require.False(t, docs[0].IsRead)

	// Another user cannot mark it.
	rec, _ = env.do(t, http.MethodPost, "/api/notifications/"+docs[0].ID+"/read", aliceToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/notifications/"+docs[0].ID+"/read", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = env.do(t, http.MethodGet, "/api/notifications/", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body.Data, &docs))
	require.True(t, docs[0].IsRead)
}
