package config

import (
	"os"
	"strconv"
	"time"
)

type RateLimitRule struct {
	Limit  int
	Window time.Duration
}

type Config struct {
	ServerAddress string
	AppEnv        string

	JWTSecret     string
	JWTExpiration time.Duration

	MongoURI string
	MongoDB  string
	DataDir  string

	FirebaseProjectID       string
	FirebaseCredentialsJSON string

	DefaultCurrency string
	MaxConcurrent   int

	SendGridAPIKey        string
	NotificationFromEmail string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	RazorpayKeyID     string
	RazorpayKeySecret string
	StripeSecretKey   string

	BorzoAPIKey string

	// Per-action admission limits applied by the rate-limit middleware.
	RateLimits map[string]RateLimitRule
}

func Load() *Config {
	return &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		AppEnv:        getEnv("APP_ENV", "production"),

		JWTSecret:     getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTExpiration: 24 * time.Hour,

		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  getEnv("MONGO_DB", "swapin"),
		DataDir:  getEnv("DATA_DIR", "./data"),

		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsJSON: os.Getenv("FIREBASE_CREDENTIALS_JSON"),

		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "INR"),
		MaxConcurrent:   getEnvInt("MAX_CONCURRENT", 100),

		SendGridAPIKey:        os.Getenv("SENDGRID_API_KEY"),
		NotificationFromEmail: getEnv("NOTIFICATION_FROM_EMAIL", "noreply@swapin.app"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		StripeSecretKey:   os.Getenv("STRIPE_SECRET_KEY"),

		BorzoAPIKey: os.Getenv("BORZO_API_KEY"),

		RateLimits: map[string]RateLimitRule{
			"payment": {Limit: getEnvInt("RATE_LIMIT_PAYMENT", 10), Window: time.Minute},
			"swap":    {Limit: getEnvInt("RATE_LIMIT_SWAP", 20), Window: time.Minute},
			"search":  {Limit: getEnvInt("RATE_LIMIT_SEARCH", 60), Window: time.Minute},
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			return v
		}
	}
	return defaultValue
}
