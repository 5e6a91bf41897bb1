// Package echo provides Echo middleware for credit enforcement
package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/contractai/backend/pkg/ledger"
)

// EmailExtractor extracts the account email from an Echo context
// Return empty string if user is not authenticated
type EmailExtractor func(c echo.Context) string

// Config holds middleware configuration
type Config struct {
	// Ledger is the credit ledger instance
	Ledger *ledger.Service

	// GetEmail extracts the account email from context (required)
	GetEmail EmailExtractor

	// NoCreditsStatusCode is the HTTP status code to return when the
	// account has no credits left
	// Default: 402 (Payment Required)
	NoCreditsStatusCode int

	// OnNoCredits is called when the account has no credits left
	// If nil, uses default JSON response with NoCreditsStatusCode
	OnNoCredits func(c echo.Context) error

	// OnUnauthorized is called when no email could be extracted
	// If nil, returns 401 Unauthorized
	OnUnauthorized func(c echo.Context) error

	// OnError is called when an internal error occurs
	// If nil, returns 500 Internal Server Error
	OnError func(c echo.Context, err error) error
}

// Middleware creates an Echo middleware that consumes one credit per
// request. Pro accounts pass through without consumption.
func Middleware(cfg Config) echo.MiddlewareFunc {
	// Validate required configuration at startup (fail fast)
	if cfg.Ledger == nil {
		panic("contractai/echo: Config.Ledger is required")
	}
	if cfg.GetEmail == nil {
		panic("contractai/echo: Config.GetEmail is required")
	}

	if cfg.NoCreditsStatusCode == 0 {
		cfg.NoCreditsStatusCode = http.StatusPaymentRequired
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email := cfg.GetEmail(c)
			if email == "" {
				if cfg.OnUnauthorized != nil {
					return cfg.OnUnauthorized(c)
				}
				return c.JSON(http.StatusUnauthorized, map[string]string{"detail": "Unauthorized"})
			}

			remaining, err := cfg.Ledger.Consume(c.Request().Context(), email)
			if err != nil {
				if errors.Is(err, ledger.ErrNoCredits) {
					if cfg.OnNoCredits != nil {
						return cfg.OnNoCredits(c)
					}
					return c.JSON(cfg.NoCreditsStatusCode, map[string]string{"detail": "insufficient credits"})
				}
				if cfg.OnError != nil {
					return cfg.OnError(c, err)
				}
				return c.JSON(http.StatusInternalServerError, map[string]string{"detail": "Internal Server Error"})
			}

			// Remaining is -1 for pro accounts, which skip consumption.
			if remaining >= 0 {
				c.Set("CreditsRemaining", remaining)
			}

			return next(c)
		}
	}
}

// Convenience extractors

// FromContext returns an EmailExtractor that gets the email from Echo context values
// This is the recommended approach for integrating with auth middleware that sets
// user information via c.Set("UserEmail", "...") or similar.
func FromContext(key string) EmailExtractor {
	return func(c echo.Context) string {
		if val := c.Get(key); val != nil {
			if str, ok := val.(string); ok {
				return str
			}
		}
		return ""
	}
}

// FromHeader returns an EmailExtractor that gets the email from a header
func FromHeader(headerName string) EmailExtractor {
	return func(c echo.Context) string {
		return c.Request().Header.Get(headerName)
	}
}

// FromQuery returns an EmailExtractor that gets the email from a query parameter
func FromQuery(queryName string) EmailExtractor {
	return func(c echo.Context) string {
		return c.QueryParam(queryName)
	}
}
