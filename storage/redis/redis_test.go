package redis

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractai/backend/pkg/ledger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := New(client, DefaultConfig())
	require.NoError(t, err)
	return store
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	require.Error(t, err)
}

func TestStore_Credits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	credits, err := store.GetCredits(ctx, "never-seen@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, credits)

	balance, err := store.AddCredits(ctx, "a@b.com", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	balance, err = store.AddCredits(ctx, "a@b.com", 5)
	require.NoError(t, err)
	assert.Equal(t, 15, balance)

	require.NoError(t, store.SetCredits(ctx, "a@b.com", 3))
	credits, err = store.GetCredits(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 3, credits)
}

func TestStore_ConsumeCredit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ConsumeCredit(ctx, "empty@example.com")
	assert.ErrorIs(t, err, ledger.ErrNoCredits)

	_, err = store.AddCredits(ctx, "a@b.com", 2)
	require.NoError(t, err)

	remaining, err := store.ConsumeCredit(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	remaining, err = store.ConsumeCredit(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	_, err = store.ConsumeCredit(ctx, "a@b.com")
	assert.ErrorIs(t, err, ledger.ErrNoCredits)
}

func TestStore_ClaimEvent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	won, err := store.ClaimEvent(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, won)

	won, err = store.ClaimEvent(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, won)

	processed, err := store.IsEventProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, processed)

	processed, err = store.IsEventProcessed(ctx, "evt_2")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestStore_ClaimEvent_Concurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := store.ClaimEvent(ctx, "evt_race")
			if err != nil {
				t.Errorf("ClaimEvent failed: %v", err)
				return
			}
			if won {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners, "exactly one delivery should win the claim")
}

func TestStore_Plans(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	plan, err := store.GetPlan(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "", plan)

	require.NoError(t, store.SetPlan(ctx, "a@b.com", ledger.PlanPro))
	plan, err = store.GetPlan(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, ledger.PlanPro, plan)
}
