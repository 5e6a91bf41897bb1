// Package postgres provides a PostgreSQL implementation of the ledger.Store
// interface. Balance mutations and event claims rely on single-statement
// upserts (ON CONFLICT), so no explicit locking is needed.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contractai/backend/pkg/ledger"
)

// Store implements ledger.Store using PostgreSQL
type Store struct {
	pool   *pgxpool.Pool
	config Config

	// stopCleanup cancels the background cleanup goroutine
	stopCleanup func()
}

// Config holds PostgreSQL store configuration
type Config struct {
	// ConnectionString is the PostgreSQL connection string
	ConnectionString string

	// Pool configuration
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// Cleanup configuration
	CleanupEnabled  bool
	CleanupInterval time.Duration // How often to prune old processed events
	EventTTL        time.Duration // Age after which processed events are pruned
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		CleanupEnabled:  true,
		CleanupInterval: time.Hour,
		EventTTL:        30 * 24 * time.Hour,
	}
}

// New creates a new PostgreSQL store adapter and ensures the schema exists.
func New(ctx context.Context, config Config) (*Store, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}
	if config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = config.MaxConnLifetime
	}
	if config.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cleanupCtx, cancel := context.WithCancel(context.Background())
	s := &Store{
		pool:        pool,
		config:      config,
		stopCleanup: cancel,
	}

	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		cancel()
		return nil, err
	}

	if config.CleanupEnabled {
		go s.startCleanup(cleanupCtx)
	}

	return s, nil
}

// Close releases the connection pool and stops the cleanup worker.
func (s *Store) Close() {
	s.stopCleanup()
	s.pool.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_accounts (
			email      TEXT PRIMARY KEY,
			credits    BIGINT NOT NULL DEFAULT 0,
			plan       TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS ledger_processed_events (
			event_id     TEXT PRIMARY KEY,
			processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// startCleanup prunes processed-event rows past their TTL. Providers stop
// redelivering long before this window closes.
func (s *Store) startCleanup(ctx context.Context) {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.config.EventTTL)
			_, _ = s.pool.Exec(ctx,
				`DELETE FROM ledger_processed_events WHERE processed_at < $1`, cutoff)
		}
	}
}

// GetCredits implements ledger.Store
func (s *Store) GetCredits(ctx context.Context, key string) (int, error) {
	var credits int
	err := s.pool.QueryRow(ctx,
		`SELECT credits FROM ledger_accounts WHERE email = $1`, key).Scan(&credits)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get credits: %w", err)
	}
	return credits, nil
}

// AddCredits implements ledger.Store with a single atomic upsert
func (s *Store) AddCredits(ctx context.Context, key string, amount int) (int, error) {
	var balance int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO ledger_accounts (email, credits, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (email) DO UPDATE SET
			credits = ledger_accounts.credits + EXCLUDED.credits,
			updated_at = now()
		RETURNING credits`, key, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to add credits: %w", err)
	}
	return balance, nil
}

// SetCredits implements ledger.Store
func (s *Store) SetCredits(ctx context.Context, key string, amount int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_accounts (email, credits, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (email) DO UPDATE SET
			credits = EXCLUDED.credits,
			updated_at = now()`, key, amount)
	if err != nil {
		return fmt.Errorf("failed to set credits: %w", err)
	}
	return nil
}

// ConsumeCredit implements ledger.Store. The guard lives in the WHERE clause,
// so the decrement never races with another consumer past zero.
func (s *Store) ConsumeCredit(ctx context.Context, key string) (int, error) {
	var remaining int
	err := s.pool.QueryRow(ctx, `
		UPDATE ledger_accounts
		SET credits = credits - 1, updated_at = now()
		WHERE email = $1 AND credits > 0
		RETURNING credits`, key).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ledger.ErrNoCredits
	}
	if err != nil {
		return 0, fmt.Errorf("failed to consume credit: %w", err)
	}
	return remaining, nil
}

// GetPlan implements ledger.Store
func (s *Store) GetPlan(ctx context.Context, key string) (string, error) {
	var plan string
	err := s.pool.QueryRow(ctx,
		`SELECT plan FROM ledger_accounts WHERE email = $1`, key).Scan(&plan)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

// SetPlan implements ledger.Store
func (s *Store) SetPlan(ctx context.Context, key, plan string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_accounts (email, plan, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (email) DO UPDATE SET
			plan = EXCLUDED.plan,
			updated_at = now()`, key, plan)
	if err != nil {
		return fmt.Errorf("failed to set plan: %w", err)
	}
	return nil
}

// ClaimEvent implements ledger.Store. ON CONFLICT DO NOTHING makes the insert
// the atomic claim: the row count tells us whether this delivery won.
func (s *Store) ClaimEvent(ctx context.Context, eventID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_processed_events (event_id)
		VALUES ($1)
		ON CONFLICT (event_id) DO NOTHING`, eventID)
	if err != nil {
		return false, fmt.Errorf("failed to claim event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// IsEventProcessed implements ledger.Store
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_processed_events WHERE event_id = $1)`,
		eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event: %w", err)
	}
	return exists, nil
}
