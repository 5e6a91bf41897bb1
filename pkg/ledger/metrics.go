package ledger

// Metrics defines the interface for tracking ledger operations.
// All methods are optional - callers should gracefully handle nil metrics
// by substituting NoopMetrics.
type Metrics interface {
	// RecordGrant records a credit grant applied to an account.
	RecordGrant(amount int)

	// RecordConsume records a credit consumed by an account.
	// status: "ok" or "empty"
	RecordConsume(status string)

	// RecordResolutionMiss records a plan/amount combination that resolved
	// to a zero grant.
	RecordResolutionMiss()
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordGrant(_ int)      {}
func (n *NoopMetrics) RecordConsume(_ string) {}
func (n *NoopMetrics) RecordResolutionMiss()  {}
