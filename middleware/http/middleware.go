// Package http provides HTTP middleware for credit enforcement
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/contractai/backend/pkg/ledger"
)

// EmailExtractor extracts the account email from an HTTP request
// Return empty string if user is not authenticated
type EmailExtractor func(r *http.Request) string

// Config holds middleware configuration
type Config struct {
	// Ledger is the credit ledger instance
	Ledger *ledger.Service

	// GetEmail extracts the account email from request (required)
	GetEmail EmailExtractor

	// OnNoCredits is called when the account has no credits left
	// If nil, returns 402 Payment Required
	OnNoCredits func(w http.ResponseWriter, r *http.Request)

	// OnUnauthorized is called when no email could be extracted
	// If nil, returns 401 Unauthorized
	OnUnauthorized func(w http.ResponseWriter, r *http.Request)

	// OnError is called when an internal error occurs
	// If nil, returns 500 Internal Server Error
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// Middleware creates an HTTP middleware that consumes one credit per
// request. Pro accounts pass through without consumption.
func Middleware(config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := config.GetEmail(r)
			if email == "" {
				if config.OnUnauthorized != nil {
					config.OnUnauthorized(w, r)
				} else {
					writeDetail(w, http.StatusUnauthorized, "Unauthorized")
				}
				return
			}

			_, err := config.Ledger.Consume(r.Context(), email)
			if err != nil {
				if errors.Is(err, ledger.ErrNoCredits) {
					if config.OnNoCredits != nil {
						config.OnNoCredits(w, r)
					} else {
						writeDetail(w, http.StatusPaymentRequired, "insufficient credits")
					}
				} else if config.OnError != nil {
					config.OnError(w, r, err)
				} else {
					writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// HandlerFunc creates an HTTP middleware that enforces credits (HandlerFunc version)
func HandlerFunc(config Config) func(http.HandlerFunc) http.HandlerFunc {
	middleware := Middleware(config)
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			middleware(next).ServeHTTP(w, r)
		}
	}
}

// Common extractors for convenience

// ContextKey is a type for context keys
type ContextKey string

const (
	// EmailKey is the context key for the account email
	EmailKey ContextKey = "credits:email"
)

// FromContext returns an EmailExtractor that gets the email from request context
func FromContext(key ContextKey) EmailExtractor {
	return func(r *http.Request) string {
		if email, ok := r.Context().Value(key).(string); ok {
			return email
		}
		return ""
	}
}

// FromHeader returns an EmailExtractor that gets the email from a header
func FromHeader(headerName string) EmailExtractor {
	return func(r *http.Request) string {
		return r.Header.Get(headerName)
	}
}

// WithEmail adds the account email to request context
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, EmailKey, email)
}
