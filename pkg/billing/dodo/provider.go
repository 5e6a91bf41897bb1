// Package dodo implements a Dodo Payments billing provider. Webhooks are
// verified with the standard-webhooks HMAC scheme and checkout links are
// built as static hosted-checkout URLs.
package dodo

import (
	"fmt"
	"time"

	"github.com/contractai/backend/pkg/billing"
	"github.com/contractai/backend/pkg/ledger"
)

const (
	defaultCheckoutBase = "https://checkout.dodopayments.com/buy"
	defaultMaxBodyBytes = 1 << 20 // 1 MB
)

// Config configures the Dodo provider.
type Config struct {
	// WebhookSecret is the whsec_-prefixed signing secret from the Dodo
	// dashboard. Webhook requests are rejected when it is unset.
	WebhookSecret string

	// CheckoutBase is the hosted checkout base URL.
	// Defaults to "https://checkout.dodopayments.com/buy".
	CheckoutBase string

	// ProductID is the product the checkout link is built for.
	ProductID string

	// ReturnURL is the default post-payment redirect target, used when a
	// checkout request does not supply one.
	ReturnURL string

	// MaxBodyBytes caps incoming webhook bodies. Defaults to 1 MB.
	MaxBodyBytes int64

	// Ledger receives credit grants for verified webhook events.
	Ledger *ledger.Service

	// Logger receives structured provider logs. Defaults to no-op.
	Logger ledger.Logger

	// Metrics collects webhook counters. Defaults to no-op.
	Metrics billing.Metrics

	// now overrides the clock for signature tolerance checks in tests.
	now func() time.Time
}

// Provider implements billing.Provider for Dodo Payments.
type Provider struct {
	config Config
}

// NewProvider creates a Dodo provider bound to the given ledger.
func NewProvider(config Config) (*Provider, error) {
	if config.Ledger == nil {
		return nil, fmt.Errorf("dodo: ledger is required")
	}
	if config.CheckoutBase == "" {
		config.CheckoutBase = defaultCheckoutBase
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
	if config.now == nil {
		config.now = time.Now
	}
	return &Provider{config: config}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "dodo"
}
