package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/swapin/backend/internal/config"
	"github.com/swapin/backend/internal/middleware"
	"github.com/swapin/backend/internal/models"
	"github.com/swapin/backend/internal/services"
)

const testJWTSecret = "unit-test-secret"

// testEnv wires the full router against in-memory services, mirroring the
// production composition in cmd/server.
type testEnv struct {
	router     http.Handler
	users      services.UserService
	items      services.ItemService
	swaps      services.SwapService
	notifStore *services.MemoryNotificationStore
	payStore   *services.MemoryPaymentStore
	rateLimits map[string]config.RateLimitRule
}

type fakeCourier struct {
	err error
}

func (f *fakeCourier) Name() string { return "fake-courier" }

func (f *fakeCourier) BookDelivery(ctx context.Context, pickup, drop, reference string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	return "courier-ref-1", "https://track.example/" + reference, nil
}

func newTestEnv(t *testing.T, gateways ...services.PaymentGateway) *testEnv {
	t.Helper()

	items := services.NewMemoryItemService()
	swaps := services.NewMemorySwapService(items)
	users := services.NewMemoryUserService()
	wishlists := services.NewMemoryWishlistService()
	carts := services.NewMemoryCartService()
	notifStore := services.NewMemoryNotificationStore()
	payStore := services.NewMemoryPaymentStore()

	notifier := services.NewNotifier(notifStore, users, nil, nil, nil)
	payments := services.NewPaymentProcessor(payStore, "INR", gateways...)
	deliveries := services.NewDeliveryManager(services.NewMemoryDeliveryStore(), &fakeCourier{}, swaps)
	limiter := services.NewRateLimiter(services.NewMemoryRateLimitStore())

	rateLimits := map[string]config.RateLimitRule{
		"payment": {Limit: 3, Window: time.Minute},
		"swap":    {Limit: 20, Window: time.Minute},
		"search":  {Limit: 5, Window: time.Minute},
	}

	authHandler := NewAuthHandler(users, testJWTSecret, time.Hour)
	itemHandler := NewItemHandler(items, notifier)
	swapHandler := NewSwapHandler(swaps, items, payments, notifier)
	paymentHandler := NewPaymentHandler(payments, swaps, notifier)
	notificationHandler := NewNotificationHandler(notifStore)
	wishlistHandler := NewWishlistHandler(wishlists, items)
	cartHandler := NewCartHandler(carts, items)
	deliveryHandler := NewDeliveryHandler(deliveries)

	auth := &middleware.Authenticator{JWTSecret: []byte(testJWTSecret)}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, models.NewErrorResponse(models.CodeValidationError, "Method not allowed"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/users/me", authHandler.Profile)
			r.Put("/users/me/device-token", authHandler.UpdateDeviceToken)

			r.Route("/items", func(r chi.Router) {
				r.Post("/", itemHandler.Create)
				r.Get("/", itemHandler.List)
				r.With(middleware.RateLimit(limiter, "search", rateLimits["search"])).
					Get("/search", itemHandler.Search)
				r.Get("/{itemID}", itemHandler.Get)
				r.Put("/{itemID}", itemHandler.Update)
				r.Delete("/{itemID}", itemHandler.Delete)
				r.Post("/{itemID}/view", itemHandler.View)
				r.Post("/{itemID}/like", itemHandler.Like)
			})

			r.Route("/swaps", func(r chi.Router) {
				r.Use(middleware.RateLimit(limiter, "swap", rateLimits["swap"]))
				r.Post("/", swapHandler.Propose)
				r.Get("/", swapHandler.List)
				r.Get("/{swapID}", swapHandler.Get)
				r.Post("/{swapID}/accept", swapHandler.Accept)
				r.Post("/{swapID}/decline", swapHandler.Decline)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Use(middleware.RateLimit(limiter, "payment", rateLimits["payment"]))
				r.Post("/initialize", paymentHandler.Initialize)
				r.Post("/verify", paymentHandler.Verify)
				r.Get("/{paymentID}", paymentHandler.Get)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Post("/{notificationID}/read", notificationHandler.MarkRead)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", wishlistHandler.List)
				r.Post("/{itemID}", wishlistHandler.Add)
				r.Delete("/{itemID}", wishlistHandler.Remove)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.List)
				r.Post("/{itemID}", cartHandler.Add)
				r.Delete("/{itemID}", cartHandler.Remove)
			})

			r.Route("/deliveries", func(r chi.Router) {
				r.Post("/", deliveryHandler.Create)
				r.Get("/{deliveryID}", deliveryHandler.Get)
			})
		})
	})

	return &testEnv{
		router:     r,
		users:      users,
		items:      items,
		swaps:      swaps,
		notifStore: notifStore,
		payStore:   payStore,
		rateLimits: rateLimits,
	}
}

type envelope struct {
	Success   bool              `json:"success"`
	Data      json.RawMessage   `json:"data"`
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Errors    map[string]string `json:"errors"`
	ResetTime int64             `json:"resetTime"`
	Timestamp string            `json:"timestamp"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec, env
}

// newUser registers a user directly against the service and mints a token
// the Authenticator accepts.
func (e *testEnv) newUser(t *testing.T, email string) (string, string) {
	t.Helper()

	user, err := e.users.Register(context.Background(), &models.RegisterRequest{
		Email: email, Password: "secret1", Name: "Test User",
	})
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	return user.ID, token
}

func (e *testEnv) newItem(t *testing.T, ownerID, title string, price int64) *models.Item {
	t.Helper()

	item, err := e.items.Create(context.Background(), ownerID, &models.CreateItemRequest{
		Title: title, Category: "Other", Price: price,
	})
	require.NoError(t, err)
	return item
}
