package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/swapin/backend/internal/config"
	"github.com/swapin/backend/internal/handlers"
	"github.com/swapin/backend/internal/middleware"
	"github.com/swapin/backend/internal/models"
	"github.com/swapin/backend/internal/services"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	fbClient, err := middleware.NewFirebaseAuthClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsJSON)
	if err != nil {
		log.Printf("Firebase auth unavailable, falling back to local JWT verification: %v", err)
	}

	var (
		items         services.ItemService
		swaps         services.SwapService
		users         services.UserService
		wishlists     services.WishlistService
		carts         services.CartService
		payStore      services.PaymentStore
		notifStore    services.NotificationStore
		rlStore       services.RateLimitStore
		deliveryStore services.DeliveryStore
	)

	if cfg.MongoURI != "" {
		items = mustItemService(ctx, cfg)
		swaps = mustSwapService(ctx, cfg, items)
		users = mustUserService(ctx, cfg)
		wishlists = mustWishlistService(ctx, cfg)
		carts = mustCartService(ctx, cfg)
		payStore = mustPaymentStore(ctx, cfg)
		notifStore = mustNotificationStore(ctx, cfg)
		rlStore = mustRateLimitStore(ctx, cfg)
		deliveryStore = mustDeliveryStore(ctx, cfg)
		log.Println("Using MongoDB-backed services")
	} else {
		memItems := services.NewMemoryItemService()
		items = memItems
		swaps = services.NewMemorySwapService(memItems)
		users = services.NewMemoryUserService()
		wishlists = services.NewMemoryWishlistService()
		carts = services.NewMemoryCartService()
		payStore = services.NewMemoryPaymentStore()
		notifStore = services.NewMemoryNotificationStore()
		deliveryStore = services.NewMemoryDeliveryStore()

		persistent, err := services.NewPersistentRateLimitStore(cfg.DataDir)
		if err != nil {
			log.Printf("Rate limit snapshot unavailable, using volatile store: %v", err)
			rlStore = services.NewMemoryRateLimitStore()
		} else {
			rlStore = persistent
		}
		log.Println("Using in-memory services (MONGO_URI not set)")
	}

	var push services.PushSender
	if cfg.FirebaseCredentialsJSON != "" {
		sender, err := services.NewFCMPushSender(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsJSON)
		if err != nil {
			log.Printf("FCM unavailable, push channel disabled: %v", err)
		} else {
			push = sender
		}
	}

	var email services.EmailSender
	if cfg.SendGridAPIKey != "" {
		email = services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.NotificationFromEmail)
	}

	var sms services.SMSSender
	if cfg.TwilioAccountSID != "" {
		sms = services.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	}

	notifier := services.NewNotifier(notifStore, users, push, email, sms)

	var gateways []services.PaymentGateway
	if cfg.RazorpayKeyID != "" {
		gateways = append(gateways, services.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret))
	}
	if cfg.StripeSecretKey != "" {
		gateways = append(gateways, services.NewStripeClient(cfg.StripeSecretKey))
	}
	payments := services.NewPaymentProcessor(payStore, cfg.DefaultCurrency, gateways...)

	var courier services.CourierClient
	if cfg.BorzoAPIKey != "" {
		courier = services.NewBorzoClient(cfg.BorzoAPIKey)
	}
	deliveries := services.NewDeliveryManager(deliveryStore, courier, swaps)

	limiter := services.NewRateLimiter(rlStore)

	authHandler := handlers.NewAuthHandler(users, cfg.JWTSecret, cfg.JWTExpiration)
	itemHandler := handlers.NewItemHandler(items, notifier)
	swapHandler := handlers.NewSwapHandler(swaps, items, payments, notifier)
	paymentHandler := handlers.NewPaymentHandler(payments, swaps, notifier)
	notificationHandler := handlers.NewNotificationHandler(notifStore)
	wishlistHandler := handlers.NewWishlistHandler(wishlists, items)
	cartHandler := handlers.NewCartHandler(carts, items)
	deliveryHandler := handlers.NewDeliveryHandler(deliveries)

	auth := &middleware.Authenticator{Firebase: fbClient, JWTSecret: []byte(cfg.JWTSecret)}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Throttle(cfg.MaxConcurrent))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeEnvelope(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeEnvelope(w, http.StatusMethodNotAllowed, models.NewErrorResponse(models.CodeValidationError, "Method not allowed"))
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeEnvelope(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"status": "ok"}))
	})
	r.Handle("/metrics", promhttp.Handler())

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
				r.With(middleware.RateLimit(limiter, "search", cfg.RateLimits["search"])).
					Get("/search", itemHandler.Search)
				r.Get("/{itemID}", itemHandler.Get)
				r.Put("/{itemID}", itemHandler.Update)
				r.Delete("/{itemID}", itemHandler.Delete)
				r.Post("/{itemID}/view", itemHandler.View)
				r.Post("/{itemID}/like", itemHandler.Like)
			})

			r.Route("/swaps", func(r chi.Router) {
				r.Use(middleware.RateLimit(limiter, "swap", cfg.RateLimits["swap"]))
				r.Post("/", swapHandler.Propose)
				r.Get("/", swapHandler.List)
				r.Get("/{swapID}", swapHandler.Get)
				r.Post("/{swapID}/accept", swapHandler.Accept)
				r.Post("/{swapID}/decline", swapHandler.Decline)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Use(middleware.RateLimit(limiter, "payment", cfg.RateLimits["payment"]))
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

	server := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Swapin API listening on %s (env=%s)", cfg.ServerAddress, cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func writeEnvelope(w http.ResponseWriter, status int, body models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func mustItemService(ctx context.Context, cfg *config.Config) services.ItemService {
	s, err := services.NewMongoItemService(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("items: %v", err)
	}
	return s
}

func mustSwapService(ctx context.Context, cfg *config.Config, items services.ItemService) services.SwapService {
	s, err := services.NewMongoSwapService(ctx, cfg.MongoURI, cfg.MongoDB, items)
	if err != nil {
		log.Fatalf("swaps: %v", err)
	}
	return s
}

func mustUserService(ctx context.Context, cfg *config.Config) services.UserService {
	s, err := services.NewMongoUserService(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("users: %v", err)
	}
	return s
}

func mustWishlistService(ctx context.Context, cfg *config.Config) services.WishlistService {
	s, err := services.NewMongoWishlistService(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("wishlists: %v", err)
	}
	return s
}

func mustCartService(ctx context.Context, cfg *config.Config) services.CartService {
	s, err := services.NewMongoCartService(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("carts: %v", err)
	}
	return s
}

func mustPaymentStore(ctx context.Context, cfg *config.Config) services.PaymentStore {
	s, err := services.NewMongoPaymentStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("payments: %v", err)
	}
	return s
}

func mustNotificationStore(ctx context.Context, cfg *config.Config) services.NotificationStore {
	s, err := services.NewMongoNotificationStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("notifications: %v", err)
	}
	return s
}

func mustRateLimitStore(ctx context.Context, cfg *config.Config) services.RateLimitStore {
	s, err := services.NewMongoRateLimitStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("rate limits: %v", err)
	}
	return s
}

func mustDeliveryStore(ctx context.Context, cfg *config.Config) services.DeliveryStore {
	s, err := services.NewMongoDeliveryStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("deliveries: %v", err)
	}
	return s
}
