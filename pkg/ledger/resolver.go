package ledger

import "strings"

// Resolver maps a payment event's plan name and amount metadata to a credit
// grant. Resolution is a pure function: deterministic, no side effects, and an
// unresolvable combination yields 0 rather than an error.
type Resolver struct {
	// ProCredits is granted when the plan name contains "pro" (default 10).
	ProCredits int

	// FreeCredits is granted when the plan name contains "free" (default 1).
	FreeCredits int

	// KnownAmounts are raw amount strings that identify a pro purchase when
	// the plan name resolves nothing (default "1500", "15", "15.00").
	KnownAmounts []string
}

// NewResolver returns a Resolver with the default grant policy.
func NewResolver() *Resolver {
	return &Resolver{
		ProCredits:   10,
		FreeCredits:  1,
		KnownAmounts: []string{"1500", "15", "15.00"},
	}
}

// Resolve returns the credit grant for a plan name, falling back to the raw
// amount field. Matching is a case-insensitive substring check.
func (r *Resolver) Resolve(planName, amount string) int {
	name := strings.ToLower(planName)
	if strings.Contains(name, "pro") {
		return r.ProCredits
	}
	if strings.Contains(name, "free") {
		return r.FreeCredits
	}
	for _, known := range r.KnownAmounts {
		if amount == known {
			return r.ProCredits
		}
	}
	return 0
}
