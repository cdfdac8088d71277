package notification

import "time"

// AuditEvent describes one completed dispatch attempt for the audit trail.
type AuditEvent struct {
	UserID    string
	Type      NotificationType
	Result    *AggregateResult
	Timestamp time.Time
}

// AuditLogger records dispatch activity. Calls are fire-and-forget: an
// implementation failure must never affect the dispatch outcome.
// Implementations live in infra/audit/.
type AuditLogger interface {
	Log(event AuditEvent)
}
