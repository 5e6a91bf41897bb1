package ledger

import (
	"context"
	"fmt"
)

// Service is the credit ledger: it normalizes account keys, applies grants
// resolved from payment metadata, and owns the processed-event set used for
// webhook idempotency.
type Service struct {
	store    Store
	resolver *Resolver
	logger   Logger
	metrics  Metrics
}

// Config holds Service configuration.
type Config struct {
	// Resolver maps plan/amount metadata to grants. Defaults to NewResolver().
	Resolver *Resolver

	// Logger receives structured ledger logs. Defaults to NoopLogger.
	Logger Logger

	// Metrics receives ledger counters. Defaults to NoopMetrics.
	Metrics Metrics
}

// NewService creates a ledger service over the given store.
func NewService(store Store, config Config) (*Service, error) {
	if store == nil {
		return nil, ErrStorageUnavailable
	}
	if config.Resolver == nil {
		config.Resolver = NewResolver()
	}
	if config.Logger == nil {
		config.Logger = &NoopLogger{}
	}
	if config.Metrics == nil {
		config.Metrics = &NoopMetrics{}
	}
	return &Service{
		store:    store,
		resolver: config.Resolver,
		logger:   config.Logger,
		metrics:  config.Metrics,
	}, nil
}

// Resolver returns the grant policy in use.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Balance returns the credit balance for an email. Unknown accounts have a
// zero balance; this is not an error.
func (s *Service) Balance(ctx context.Context, email string) (int, error) {
	key := NormalizeEmail(email)
	if key == "" {
		return 0, ErrInvalidEmail
	}
	return s.store.GetCredits(ctx, key)
}

// Grant increments an account's balance. Negative amounts are rejected with
// ErrInvalidAmount; a zero amount is a no-op. Returns the new balance.
func (s *Service) Grant(ctx context.Context, email string, amount int) (int, error) {
	key := NormalizeEmail(email)
	if key == "" {
		return 0, ErrInvalidEmail
	}
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	if amount == 0 {
		return s.store.GetCredits(ctx, key)
	}
	balance, err := s.store.AddCredits(ctx, key, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to add credits: %w", err)
	}
	s.metrics.RecordGrant(amount)
	s.logger.Info("credits granted",
		Field{Key: "email", Value: key},
		Field{Key: "amount", Value: amount},
		Field{Key: "balance", Value: balance})
	return balance, nil
}

// Set overwrites an account's balance with an absolute value.
func (s *Service) Set(ctx context.Context, email string, amount int) error {
	key := NormalizeEmail(email)
	if key == "" {
		return ErrInvalidEmail
	}
	if amount < 0 {
		return ErrInvalidAmount
	}
	return s.store.SetCredits(ctx, key, amount)
}

// Consume spends one credit. Pro accounts bypass the balance entirely.
// Returns the remaining balance (-1 for pro) or ErrNoCredits when the
// balance is already empty.
func (s *Service) Consume(ctx context.Context, email string) (int, error) {
	key := NormalizeEmail(email)
	if key == "" {
		return 0, ErrInvalidEmail
	}
	plan, err := s.store.GetPlan(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == PlanPro {
		return -1, nil
	}
	remaining, err := s.store.ConsumeCredit(ctx, key)
	if err != nil {
		s.metrics.RecordConsume("empty")
		return 0, err
	}
	s.metrics.RecordConsume("ok")
	return remaining, nil
}

// Plan returns the stored plan for an account, defaulting to free.
func (s *Service) Plan(ctx context.Context, email string) (string, error) {
	key := NormalizeEmail(email)
	if key == "" {
		return "", ErrInvalidEmail
	}
	plan, err := s.store.GetPlan(ctx, key)
	if err != nil {
		return "", err
	}
	if plan == "" {
		return PlanFree, nil
	}
	return plan, nil
}

// SetPlan records an account's plan.
func (s *Service) SetPlan(ctx context.Context, email, plan string) error {
	key := NormalizeEmail(email)
	if key == "" {
		return ErrInvalidEmail
	}
	return s.store.SetPlan(ctx, key, plan)
}

// ResolveGrant maps plan/amount metadata to a credit amount. A zero result is
// a legitimate outcome, counted as a resolution miss for observability.
func (s *Service) ResolveGrant(planName, amount string) int {
	credits := s.resolver.Resolve(planName, amount)
	if credits == 0 {
		s.metrics.RecordResolutionMiss()
		s.logger.Debug("plan resolved to zero grant",
			Field{Key: "plan", Value: planName},
			Field{Key: "amount", Value: amount})
	}
	return credits
}

// ClaimEvent atomically claims a webhook event id. The claim happens before
// any grant so that concurrent duplicate deliveries resolve to a single
// winner. An empty id is never claimed: dedup is skipped for events without
// an identifier.
func (s *Service) ClaimEvent(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	return s.store.ClaimEvent(ctx, eventID)
}

// IsEventProcessed reports whether an event id has already been claimed.
func (s *Service) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, nil
	}
	return s.store.IsEventProcessed(ctx, eventID)
}
