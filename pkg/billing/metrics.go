package billing

import "time"

// Metrics collects webhook counters and timings. Implementations must be
// safe for concurrent use.
type Metrics interface {
	// RecordWebhookEvent records one processed webhook event. status is one
	// of "granted", "duplicate", "skipped" or "rejected".
	RecordWebhookEvent(provider, eventType, status string)

	// RecordWebhookProcessingDuration records how long a webhook took.
	RecordWebhookProcessingDuration(provider string, d time.Duration)

	// RecordWebhookError records a webhook processing error by type.
	RecordWebhookError(provider, errorType string)
}

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordWebhookEvent(_, _, _ string)                         {}
func (n *NoopMetrics) RecordWebhookProcessingDuration(_ string, _ time.Duration) {}
func (n *NoopMetrics) RecordWebhookError(_, _ string)                            {}
