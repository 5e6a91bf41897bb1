package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v83"

	"github.com/contractai/backend/pkg/billing"
)

// CheckoutURL creates a one-time payment Checkout Session for the
// configured price and returns its hosted URL.
func (p *Provider) CheckoutURL(ctx context.Context, opts billing.CheckoutOptions) (string, error) {
	if p.client == nil || p.config.PriceID == "" {
		return "", billing.ErrProviderNotConfigured
	}

	quantity := int64(opts.Quantity)
	if quantity <= 0 {
		quantity = 1
	}

	successURL := opts.RedirectURL
	if successURL == "" {
		successURL = p.config.SuccessURL
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(p.config.PriceID),
				Quantity: stripe.Int64(quantity),
			},
		},
		SuccessURL: stripe.String(successURL),
	}
	if p.config.CancelURL != "" {
		params.CancelURL = stripe.String(p.config.CancelURL)
	}
	if opts.Email != "" {
		params.CustomerEmail = stripe.String(opts.Email)
		params.Metadata = map[string]string{"email": opts.Email}
	}

	session, err := p.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("creating checkout session: %w", err)
	}

	return session.URL, nil
}
