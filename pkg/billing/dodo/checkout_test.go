package dodo

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractai/backend/pkg/billing"
	"github.com/contractai/backend/pkg/ledger"
	"github.com/contractai/backend/storage/memory"
)

func newCheckoutProvider(t *testing.T, config Config) *Provider {
	t.Helper()

	if config.Ledger == nil {
		svc, err := ledger.NewService(memory.New(), ledger.Config{})
		require.NoError(t, err)
		config.Ledger = svc
	}

	provider, err := NewProvider(config)
	require.NoError(t, err)
	return provider
}

func TestCheckoutURL(t *testing.T) {
	provider := newCheckoutProvider(t, Config{ProductID: "prod_123"})

	link, err := provider.CheckoutURL(context.Background(), billing.CheckoutOptions{
		Email:        "user@example.com",
		FirstName:    "Ada",
		RedirectURL:  "https://app.example.com/done",
		DisableEmail: "true",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)

	assert.Equal(t, "checkout.dodopayments.com", parsed.Host)
	assert.Equal(t, "/buy/prod_123", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "1", query.Get("quantity"))
	assert.Equal(t, "user@example.com", query.Get("email"))
	assert.Equal(t, "Ada", query.Get("firstName"))
	assert.Equal(t, "https://app.example.com/done", query.Get("redirect_url"))
	assert.Equal(t, "true", query.Get("disableEmail"))
	assert.False(t, query.Has("lastName"))
	assert.False(t, query.Has("showDiscounts"))
}

func TestCheckoutURL_ReturnURLFallback(t *testing.T) {
	provider := newCheckoutProvider(t, Config{
		ProductID: "prod_123",
		ReturnURL: "https://app.example.com/billing",
	})

	link, err := provider.CheckoutURL(context.Background(), billing.CheckoutOptions{})
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/billing", parsed.Query().Get("redirect_url"))
}

func TestCheckoutURL_TrailingSlashBase(t *testing.T) {
	provider := newCheckoutProvider(t, Config{
		ProductID:    "prod_123",
		CheckoutBase: "https://test.checkout.dodopayments.com/buy/",
	})

	link, err := provider.CheckoutURL(context.Background(), billing.CheckoutOptions{
		Quantity:    3,
		RedirectURL: "https://app.example.com/done",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/buy/prod_123", parsed.Path)
	assert.Equal(t, "3", parsed.Query().Get("quantity"))
}

func TestCheckoutURL_MissingRedirect(t *testing.T) {
	provider := newCheckoutProvider(t, Config{ProductID: "prod_123"})

	_, err := provider.CheckoutURL(context.Background(), billing.CheckoutOptions{})
	assert.ErrorIs(t, err, billing.ErrMissingRedirectURL)
}

func TestCheckoutURL_MissingProduct(t *testing.T) {
	provider := newCheckoutProvider(t, Config{})

	_, err := provider.CheckoutURL(context.Background(), billing.CheckoutOptions{})
	assert.ErrorIs(t, err, billing.ErrProviderNotConfigured)
}
