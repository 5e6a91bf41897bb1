package billing

import (
	"context"
	"net/http"
)

// Provider is the generic interface that any payment backend must implement.
// This allows the application to swap Dodo Payments for Stripe with zero
// ledger changes.
type Provider interface {
	// Name returns the provider name (e.g., "dodo", "stripe")
	Name() string

	// WebhookHandler returns the HTTP handler that ingests payment events.
	// The implementation handles signature verification, deduplication, and
	// credit grants internally.
	WebhookHandler() http.Handler

	// CheckoutURL returns a checkout link for the pro product.
	// opts carries customer prefill and display parameters.
	CheckoutURL(ctx context.Context, opts CheckoutOptions) (string, error)
}

// CheckoutOptions carries the parameters a checkout link is built from.
type CheckoutOptions struct {
	// Quantity of the product to purchase (default 1).
	Quantity int

	// RedirectURL is where the provider sends the customer after payment.
	RedirectURL string

	// Email prefills the customer email field.
	Email string

	// FirstName and LastName prefill the customer name fields.
	FirstName string
	LastName  string

	// DisableEmail, DisableFirstName, DisableLastName lock the corresponding
	// prefilled field on the hosted page. Raw toggle values are passed through.
	DisableEmail     string
	DisableFirstName string
	DisableLastName  string

	// ShowDiscounts toggles the discount-code field on the hosted page.
	ShowDiscounts string
}
