// Package config loads application configuration from environment
// variables.
package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// API Configuration
	APIPort     string
	FrontendURL string

	// Logging
	LogLevel string

	// Storage
	StorageBackend string // memory, redis or postgres
	RedisURL       string
	DatabaseURL    string

	// Uploads
	UploadDir string

	// Credits
	EnforceCredits bool

	// Dodo Payments
	DodoWebhookSecret string
	DodoCheckoutBase  string
	DodoProProductID  string
	DodoReturnURL     string

	// Stripe
	StripeAPIKey        string
	StripeWebhookSecret string
	StripePriceID       string
	StripeSuccessURL    string
	StripeCancelURL     string

	// LLM
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		APIPort:     getEnv("API_PORT", "8000"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		StorageBackend: getEnv("STORAGE_BACKEND", "memory"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		UploadDir: getEnv("UPLOAD_DIR", "uploads"),

		EnforceCredits: getEnvBool("ENFORCE_CREDITS", true),

		DodoWebhookSecret: getEnv("DODO_WEBHOOK_SECRET", ""),
		DodoCheckoutBase:  getEnv("DODO_CHECKOUT_BASE", "https://checkout.dodopayments.com/buy"),
		DodoProProductID:  getEnv("DODO_PRO_PRODUCT_ID", ""),
		DodoReturnURL:     getEnv("DODO_RETURN_URL", ""),

		StripeAPIKey:        getEnv("STRIPE_API_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceID:       getEnv("STRIPE_PRICE_ID", ""),
		StripeSuccessURL:    getEnv("STRIPE_SUCCESS_URL", ""),
		StripeCancelURL:     getEnv("STRIPE_CANCEL_URL", ""),

		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMBaseURL: getEnv("LLM_BASE_URL", ""),
		LLMModel:   getEnv("LLM_MODEL", "gpt-4o-mini"),
	}
}

// getEnv gets an environment variable or returns a fallback
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// getEnvBool gets a boolean environment variable or returns a fallback
func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
