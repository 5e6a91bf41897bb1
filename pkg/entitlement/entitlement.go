// Package entitlement keeps a local, non-authoritative mirror of a user's
// plan and credit balance. Clients consult it for instant UI-style gating
// between ledger refreshes; the credit ledger remains the source of truth.
package entitlement

import (
	"strconv"
	"sync"
)

const (
	keyPrefix = "contractai:"

	// DefaultCredits is assumed for a user the cache has never seen.
	DefaultCredits = 10

	PlanFree = "free"
	PlanPro  = "pro"
)

// KV is the flat key-value store the cache persists into. The in-process
// implementation is MemoryKV; embedders can back it with whatever local
// storage they have.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// MemoryKV is an in-memory KV safe for concurrent use.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryKV) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *MemoryKV) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// Snapshot is the cached view of one user, delivered to watchers.
type Snapshot struct {
	UserID  string
	Plan    string
	Credits int
}

// Cache mirrors plan and credits per user on top of a KV store.
type Cache struct {
	kv KV

	mu       sync.Mutex
	watchers map[int]func(Snapshot)
	nextID   int
}

// New creates a cache over kv. A nil kv gets an in-memory store.
func New(kv KV) *Cache {
	if kv == nil {
		kv = NewMemoryKV()
	}
	return &Cache{
		kv:       kv,
		watchers: make(map[int]func(Snapshot)),
	}
}

func cacheKey(name, userID string) string {
	return keyPrefix + name + ":" + userID
}

// Plan returns the cached plan, defaulting to free.
func (c *Cache) Plan(userID string) string {
	if plan, ok := c.kv.Get(cacheKey("plan", userID)); ok && plan != "" {
		return plan
	}
	return PlanFree
}

// Credits returns the cached balance. Users the cache has never seen get
// DefaultCredits, and a cached value that does not parse is treated the
// same way: the cache is best-effort, so corrupt state reads as unseen
// rather than as an empty balance. Negative values clamp to zero.
func (c *Cache) Credits(userID string) int {
	raw, ok := c.kv.Get(cacheKey("credits", userID))
	if !ok {
		return DefaultCredits
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultCredits
	}
	if n < 0 {
		return 0
	}
	return n
}

// SetPlan stores the plan and notifies watchers.
func (c *Cache) SetPlan(userID, plan string) {
	c.kv.Set(cacheKey("plan", userID), plan)
	c.notify(userID)
}

// SetCredits stores the balance, floored at zero, and notifies watchers.
func (c *Cache) SetCredits(userID string, credits int) {
	if credits < 0 {
		credits = 0
	}
	c.kv.Set(cacheKey("credits", userID), strconv.Itoa(credits))
	c.notify(userID)
}

// ConsumeCredit spends one cached credit. Pro users always pass without
// a decrement. The second return reports whether the action is allowed.
func (c *Cache) ConsumeCredit(userID string) (int, bool) {
	if c.Plan(userID) == PlanPro {
		return c.Credits(userID), true
	}

	credits := c.Credits(userID)
	if credits <= 0 {
		return 0, false
	}
	c.SetCredits(userID, credits-1)
	return credits - 1, true
}

// Refresh overwrites the cached view with authoritative values from the
// ledger.
func (c *Cache) Refresh(userID, plan string, credits int) {
	c.kv.Set(cacheKey("plan", userID), plan)
	if credits < 0 {
		credits = 0
	}
	c.kv.Set(cacheKey("credits", userID), strconv.Itoa(credits))
	c.notify(userID)
}

// Forget drops the cached view for a user.
func (c *Cache) Forget(userID string) {
	c.kv.Delete(cacheKey("plan", userID))
	c.kv.Delete(cacheKey("credits", userID))
	c.notify(userID)
}

// Watch registers fn to run after every change. The returned func cancels
// the registration.
func (c *Cache) Watch(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

func (c *Cache) notify(userID string) {
	snapshot := Snapshot{
		UserID:  userID,
		Plan:    c.Plan(userID),
		Credits: c.Credits(userID),
	}

	c.mu.Lock()
	fns := make([]func(Snapshot), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}
