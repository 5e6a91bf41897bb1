// Package redis provides a Redis implementation of the ledger.Store interface.
// Increments use INCRBY, event claims use SET NX, and the consume path runs a
// Lua script so the balance check and decrement are a single atomic step.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contractai/backend/pkg/ledger"
)

// consumeScript decrements a balance only when it is positive.
// Returns {remaining, "ok"} or {0, "empty"}.
var consumeScript = redis.NewScript(`
	local key = KEYS[1]
	local balance = tonumber(redis.call('GET', key) or '0')
	if balance <= 0 then
		return {0, 'empty'}
	end
	local remaining = redis.call('DECR', key)
	return {remaining, 'ok'}
`)

// Store implements ledger.Store using Redis
type Store struct {
	client redis.UniversalClient
	config Config
}

// Config holds Redis store configuration
type Config struct {
	// KeyPrefix is prepended to all Redis keys (default: "contractai:")
	KeyPrefix string

	// EventTTL is the TTL for processed-event claims (0 = no expiration).
	// Payment providers stop redelivering after days, so claims may expire.
	EventTTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		KeyPrefix: "contractai:",
		EventTTL:  30 * 24 * time.Hour,
	}
}

// New creates a new Redis store adapter.
// The client can be *redis.Client, *redis.ClusterClient, or *redis.Ring
func New(client redis.UniversalClient, config Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "contractai:"
	}
	return &Store{client: client, config: config}, nil
}

func (s *Store) creditsKey(key string) string {
	return s.config.KeyPrefix + "credits:" + key
}

func (s *Store) planKey(key string) string {
	return s.config.KeyPrefix + "plan:" + key
}

func (s *Store) eventKey(eventID string) string {
	return s.config.KeyPrefix + "events:" + eventID
}

// GetCredits implements ledger.Store
func (s *Store) GetCredits(ctx context.Context, key string) (int, error) {
	val, err := s.client.Get(ctx, s.creditsKey(key)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get credits: %w", err)
	}
	return val, nil
}

// AddCredits implements ledger.Store using an atomic INCRBY
func (s *Store) AddCredits(ctx context.Context, key string, amount int) (int, error) {
	balance, err := s.client.IncrBy(ctx, s.creditsKey(key), int64(amount)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to add credits: %w", err)
	}
	return int(balance), nil
}

// SetCredits implements ledger.Store
func (s *Store) SetCredits(ctx context.Context, key string, amount int) error {
	if err := s.client.Set(ctx, s.creditsKey(key), amount, 0).Err(); err != nil {
		return fmt.Errorf("failed to set credits: %w", err)
	}
	return nil
}

// ConsumeCredit implements ledger.Store via the consume Lua script
func (s *Store) ConsumeCredit(ctx context.Context, key string) (int, error) {
	result, err := consumeScript.Run(ctx, s.client, []string{s.creditsKey(key)}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to consume credit: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return 0, fmt.Errorf("unexpected consume script result: %v", result)
	}
	remaining, _ := values[0].(int64)
	status, _ := values[1].(string)
	if status == "empty" {
		return 0, ledger.ErrNoCredits
	}
	return int(remaining), nil
}

// GetPlan implements ledger.Store
func (s *Store) GetPlan(ctx context.Context, key string) (string, error) {
	plan, err := s.client.Get(ctx, s.planKey(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

// SetPlan implements ledger.Store
func (s *Store) SetPlan(ctx context.Context, key, plan string) error {
	if err := s.client.Set(ctx, s.planKey(key), plan, 0).Err(); err != nil {
		return fmt.Errorf("failed to set plan: %w", err)
	}
	return nil
}

// ClaimEvent implements ledger.Store. SET NX is the atomic claim: exactly one
// concurrent delivery observes true for a given event id.
func (s *Store) ClaimEvent(ctx context.Context, eventID string) (bool, error) {
	won, err := s.client.SetNX(ctx, s.eventKey(eventID), 1, s.config.EventTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim event: %w", err)
	}
	return won, nil
}

// IsEventProcessed implements ledger.Store
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.eventKey(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check event: %w", err)
	}
	return n > 0, nil
}
