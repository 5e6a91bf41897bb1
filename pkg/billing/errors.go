package billing

import "errors"

var (
	// ErrProviderNotConfigured is returned when a provider is missing required configuration
	ErrProviderNotConfigured = errors.New("billing provider not configured")

	// ErrInvalidWebhookSignature is returned when webhook signature validation fails
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")

	// ErrMissingRedirectURL is returned when a checkout link is requested with
	// no redirect URL in the request or the provider configuration
	ErrMissingRedirectURL = errors.New("redirect_url is required but not provided")
)
