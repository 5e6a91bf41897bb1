// Package stripe implements a Stripe billing provider. It is a secondary
// payment path next to Dodo: one-time Checkout Sessions for credit packs
// and signature-verified webhook processing.
package stripe

import (
	"strings"

	"github.com/stripe/stripe-go/v83"

	"github.com/contractai/backend/pkg/billing"
	"github.com/contractai/backend/pkg/ledger"
)

const (
	providerName        = "stripe"
	defaultMaxBodyBytes = 1 << 20
)

// Config configures the Stripe provider.
type Config struct {
	// APIKey is the Stripe secret key used for outbound API calls.
	APIKey string

	// WebhookSecret is the whsec_-prefixed endpoint signing secret.
	WebhookSecret string

	// PriceID is the Stripe Price the checkout link sells.
	PriceID string

	// SuccessURL and CancelURL are the checkout redirect targets.
	SuccessURL string
	CancelURL  string

	// MaxBodyBytes caps incoming webhook bodies. Defaults to 1 MB.
	MaxBodyBytes int64

	// Ledger receives credit grants for verified webhook events.
	Ledger *ledger.Service

	// Logger receives structured provider logs. Defaults to no-op.
	Logger ledger.Logger

	// Metrics collects webhook counters. Defaults to no-op.
	Metrics billing.Metrics
}

// Provider implements billing.Provider for Stripe.
type Provider struct {
	config Config
	client *stripe.Client
}

// NewProvider creates a Stripe provider bound to the given ledger.
func NewProvider(config Config) (*Provider, error) {
	if config.Ledger == nil {
		return nil, billing.ErrProviderNotConfigured
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxBodyBytes
	}
	if config.Logger == nil {
		config.Logger = &ledger.NoopLogger{}
	}
	if config.Metrics == nil {
		config.Metrics = &billing.NoopMetrics{}
	}

	p := &Provider{config: config}
	if apiKey := strings.TrimSpace(config.APIKey); apiKey != "" {
		p.client = stripe.NewClient(apiKey)
	}
	return p, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}
