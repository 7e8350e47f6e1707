package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string
	PublicURL   string
	FrontendURL string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Payment gateway configuration
	CardpayBaseURL       string
	CardpaySecretKey     string
	CardpayWebhookSecret string
	CardpayTimeout       time.Duration
	SessionExpiry        time.Duration
	Currency             string

	// Ticket token configuration
	TicketTokenSecret string
	TicketTokenTTL    time.Duration

	// Pending order sweep configuration
	SweepInterval      time.Duration
	PendingOrderMaxAge time.Duration

	// Fulfillment retry configuration
	FulfillMaxRetries   int
	FulfillRetryBackoff time.Duration

	// Rate limiting
	CheckoutRateLimit  int
	CheckoutRateWindow time.Duration

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),
		PublicURL:   getEnv("PUBLIC_URL", "http://localhost:8090"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Payment gateway
		CardpayBaseURL:       getEnv("CARDPAY_BASE_URL", "https://api.cardpay.example.com"),
		CardpaySecretKey:     getEnv("CARDPAY_SECRET_KEY", ""),
		CardpayWebhookSecret: getEnv("CARDPAY_WEBHOOK_SECRET", ""),
		CardpayTimeout:       getEnvAsDuration("CARDPAY_TIMEOUT", "15s"),
		SessionExpiry:        getEnvAsDuration("PAYMENT_SESSION_EXPIRY", "30m"),
		Currency:             getEnv("CHECKOUT_CURRENCY", "egp"),

		// Ticket tokens
		TicketTokenSecret: getEnv("TICKET_TOKEN_SECRET", ""),
		TicketTokenTTL:    getEnvAsDuration("TICKET_TOKEN_TTL", "8760h"),

		// Sweep
		SweepInterval:      getEnvAsDuration("SWEEP_INTERVAL", "1m"),
		PendingOrderMaxAge: getEnvAsDuration("PENDING_ORDER_MAX_AGE", "1m"),

		// Fulfillment retries
		FulfillMaxRetries:   getEnvAsInt("FULFILL_MAX_RETRIES", 3),
		FulfillRetryBackoff: getEnvAsDuration("FULFILL_RETRY_BACKOFF", "100ms"),

		// Rate limiting
		CheckoutRateLimit:  getEnvAsInt("CHECKOUT_RATE_LIMIT", 10),
		CheckoutRateWindow: getEnvAsDuration("CHECKOUT_RATE_WINDOW", "1m"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
