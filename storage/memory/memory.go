// Package memory provides an in-memory implementation of the ledger.Store
// interface. Balances and the processed-event set live for the life of the
// process only; use the redis or postgres backends when durability matters.
package memory

import (
	"context"
	"sync"

	"github.com/contractai/backend/pkg/ledger"
)

// Store implements ledger.Store using in-memory maps guarded by a single mutex.
type Store struct {
	mu              sync.Mutex
	credits         map[string]int
	plans           map[string]string
	processedEvents map[string]struct{}
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		credits:         make(map[string]int),
		plans:           make(map[string]string),
		processedEvents: make(map[string]struct{}),
	}
}

// GetCredits implements ledger.Store
func (s *Store) GetCredits(ctx context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits[key], nil
}

// AddCredits implements ledger.Store
func (s *Store) AddCredits(ctx context.Context, key string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credits[key] += amount
	return s.credits[key], nil
}

// SetCredits implements ledger.Store
func (s *Store) SetCredits(ctx context.Context, key string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credits[key] = amount
	return nil
}

// ConsumeCredit implements ledger.Store
func (s *Store) ConsumeCredit(ctx context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.credits[key]
	if balance <= 0 {
		return 0, ledger.ErrNoCredits
	}
	s.credits[key] = balance - 1
	return balance - 1, nil
}

// GetPlan implements ledger.Store
func (s *Store) GetPlan(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plans[key], nil
}

// SetPlan implements ledger.Store
func (s *Store) SetPlan(ctx context.Context, key, plan string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans[key] = plan
	return nil
}

// ClaimEvent implements ledger.Store. The check and the insert happen under
// one lock so concurrent duplicate deliveries resolve to a single winner.
func (s *Store) ClaimEvent(ctx context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.processedEvents[eventID]; ok {
		return false, nil
	}
	s.processedEvents[eventID] = struct{}{}
	return true, nil
}

// IsEventProcessed implements ledger.Store
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.processedEvents[eventID]
	return ok, nil
}

// Clear removes all data (useful for testing)
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credits = make(map[string]int)
	s.plans = make(map[string]string)
	s.processedEvents = make(map[string]struct{})
}
