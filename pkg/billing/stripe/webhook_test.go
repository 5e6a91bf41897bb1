package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"

	"github.com/contractai/backend/pkg/billing"
	"github.com/contractai/backend/pkg/ledger"
	"github.com/contractai/backend/storage/memory"
)

func newTestProvider(t *testing.T) (*Provider, *ledger.Service) {
	t.Helper()

	svc, err := ledger.NewService(memory.New(), ledger.Config{})
	require.NoError(t, err)

	provider, err := NewProvider(Config{
		WebhookSecret: "whsec_test",
		Ledger:        svc,
	})
	require.NoError(t, err)

	return provider, svc
}

func checkoutEvent(t *testing.T, id string, session map[string]any) *stripe.Event {
	t.Helper()

	raw, err := json.Marshal(session)
	require.NoError(t, err)

	return &stripe.Event{
		ID:   id,
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestProcessEvent_GrantThenDuplicate(t *testing.T) {
	provider, svc := newTestProvider(t)
	ctx := context.Background()

	event := checkoutEvent(t, "evt_stripe_1", map[string]any{
		"id":               "cs_test_1",
		"mode":             "payment",
		"customer_details": map[string]any{"email": "Buyer@Example.com"},
		"amount_total":     1500,
	})

	status, resp := provider.processEvent(ctx, event)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 10, resp["granted"])

	balance, err := svc.Balance(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	status, resp = provider.processEvent(ctx, event)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, resp["duplicate"])

	balance, err = svc.Balance(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
}

func TestProcessEvent_PlanMetadata(t *testing.T) {
	provider, svc := newTestProvider(t)
	ctx := context.Background()

	event := checkoutEvent(t, "evt_stripe_plan", map[string]any{
		"id":           "cs_test_2",
		"mode":         "subscription",
		"metadata":     map[string]string{"email": "sub@example.com", "plan": "pro"},
		"amount_total": 0,
	})

	status, resp := provider.processEvent(ctx, event)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 10, resp["granted"])

	plan, err := svc.Plan(ctx, "sub@example.com")
	require.NoError(t, err)
	assert.Equal(t, ledger.PlanPro, plan)
}

func TestProcessEvent_IgnoredEventType(t *testing.T) {
	provider, svc := newTestProvider(t)
	ctx := context.Background()

	event := &stripe.Event{
		ID:   "evt_stripe_refund",
		Type: "charge.refunded",
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}

	status, resp := provider.processEvent(ctx, event)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, resp["ok"])
	assert.NotContains(t, resp, "granted")

	processed, err := svc.IsEventProcessed(ctx, "evt_stripe_refund")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestProcessEvent_UnknownAmountIsAcknowledged(t *testing.T) {
	provider, svc := newTestProvider(t)
	ctx := context.Background()

	event := checkoutEvent(t, "evt_stripe_unknown", map[string]any{
		"id":             "cs_test_3",
		"mode":           "payment",
		"customer_email": "buyer@example.com",
		"amount_total":   4200,
	})

	status, resp := provider.processEvent(ctx, event)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, resp, "granted")

	balance, err := svc.Balance(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestProcessEvent_MissingEmail(t *testing.T) {
	provider, _ := newTestProvider(t)
	ctx := context.Background()

	event := checkoutEvent(t, "evt_stripe_no_email", map[string]any{
		"id":           "cs_test_4",
		"amount_total": 1500,
	})

	status, resp := provider.processEvent(ctx, event)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, resp, "granted")
}

func TestCheckoutURL_NotConfigured(t *testing.T) {
	provider, _ := newTestProvider(t)

	_, err := provider.CheckoutURL(context.Background(), billing.CheckoutOptions{})
	assert.ErrorIs(t, err, billing.ErrProviderNotConfigured)
}
