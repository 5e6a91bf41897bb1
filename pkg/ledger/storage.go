package ledger

import (
	"context"
	"strings"
)

// Store defines the interface for credit balance and processed-event persistence.
// Keys passed to a Store are already normalized by the Service; implementations
// treat them as opaque.
type Store interface {
	// GetCredits returns the current balance for a key.
	// Unknown keys return 0, never an error.
	GetCredits(ctx context.Context, key string) (int, error)

	// AddCredits atomically increments the balance for a key, creating the
	// record on first grant. Returns the new balance.
	AddCredits(ctx context.Context, key string, amount int) (int, error)

	// SetCredits sets the balance for a key to an absolute value.
	SetCredits(ctx context.Context, key string, amount int) error

	// ConsumeCredit atomically decrements the balance by one and returns the
	// remaining balance. Returns ErrNoCredits if the balance is already zero;
	// balances never go negative.
	ConsumeCredit(ctx context.Context, key string) (int, error)

	// GetPlan returns the stored plan for a key, or "" if none is recorded.
	GetPlan(ctx context.Context, key string) (string, error)

	// SetPlan records the plan for a key.
	SetPlan(ctx context.Context, key, plan string) error

	// ClaimEvent atomically inserts an event id into the processed-event set.
	// Returns true if this call won the claim, false if the id was already
	// present. Concurrent claims for the same id must resolve to exactly one
	// winner.
	ClaimEvent(ctx context.Context, eventID string) (bool, error)

	// IsEventProcessed reports whether an event id has been claimed.
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
}

// Plans recognized by the entitlement model.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// NormalizeEmail canonicalizes an account email for use as a ledger key.
// Lookups are case-insensitive: trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
