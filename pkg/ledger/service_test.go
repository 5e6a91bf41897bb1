package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractai/backend/pkg/ledger"
	"github.com/contractai/backend/storage/memory"
)

func newTestService(t *testing.T) *ledger.Service {
	t.Helper()
	svc, err := ledger.NewService(memory.New(), ledger.Config{})
	require.NoError(t, err)
	return svc
}

func TestNewService_RequiresStore(t *testing.T) {
	_, err := ledger.NewService(nil, ledger.Config{})
	assert.ErrorIs(t, err, ledger.ErrStorageUnavailable)
}

func TestService_CaseInsensitiveEmails(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Grant(ctx, "User@Example.com", 5)
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	balance, err = svc.Balance(ctx, "  USER@EXAMPLE.COM  ")
	require.NoError(t, err)
	assert.Equal(t, 5, balance)
}

func TestService_UnknownAccountIsZero(t *testing.T) {
	svc := newTestService(t)

	balance, err := svc.Balance(context.Background(), "never-seen@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestService_Grant(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	balance, err := svc.Grant(ctx, "a@b.com", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	// Zero is a no-op, not an error
	balance, err = svc.Grant(ctx, "a@b.com", 0)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	// Negative grants are rejected
	_, err = svc.Grant(ctx, "a@b.com", -5)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	// Empty email is rejected
	_, err = svc.Grant(ctx, "   ", 5)
	assert.ErrorIs(t, err, ledger.ErrInvalidEmail)
}

func TestService_Set(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "a@b.com", 7))
	balance, err := svc.Balance(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 7, balance)

	assert.ErrorIs(t, svc.Set(ctx, "a@b.com", -1), ledger.ErrInvalidAmount)
}

func TestService_Consume(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Consume(ctx, "a@b.com")
	assert.ErrorIs(t, err, ledger.ErrNoCredits)

	_, err = svc.Grant(ctx, "a@b.com", 2)
	require.NoError(t, err)

	remaining, err := svc.Consume(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestService_Consume_ProBypass(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetPlan(ctx, "pro@b.com", ledger.PlanPro))

	// Pro accounts never touch the balance, even at zero credits
	for i := 0; i < 3; i++ {
		remaining, err := svc.Consume(ctx, "pro@b.com")
		require.NoError(t, err)
		assert.Equal(t, -1, remaining)
	}

	balance, err := svc.Balance(ctx, "pro@b.com")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestService_Plan_DefaultsToFree(t *testing.T) {
	svc := newTestService(t)

	plan, err := svc.Plan(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, ledger.PlanFree, plan)
}

func TestService_ClaimEvent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	won, err := svc.ClaimEvent(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, won)

	won, err = svc.ClaimEvent(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, won)

	// Events without an id skip dedup entirely: every delivery proceeds
	for i := 0; i < 2; i++ {
		won, err = svc.ClaimEvent(ctx, "")
		require.NoError(t, err)
		assert.True(t, won)
	}

	processed, err := svc.IsEventProcessed(ctx, "")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestService_ResolveGrant(t *testing.T) {
	svc := newTestService(t)

	assert.Equal(t, 10, svc.ResolveGrant("Pro Plan", ""))
	assert.Equal(t, 1, svc.ResolveGrant("Free Tier", ""))
	assert.Equal(t, 10, svc.ResolveGrant("Unknown", "1500"))
	assert.Equal(t, 0, svc.ResolveGrant("Unknown", "999"))
}
