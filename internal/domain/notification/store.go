package notification

import (
	"context"
	"time"
)

// TemplateStore defines the contract for template content lookup.
// Implementations live in infra/templatestore/ and may cache lazily; cache
// priming must be idempotent and safe for concurrent readers.
//
// A backing-store read error degrades to "not found" for that entry rather
// than propagating — dispatch must keep attempting other channels.
type TemplateStore interface {
	// Get retrieves the template for the given channel, notification name,
	// and language. Returns nil, nil when no such template exists.
	Get(channel Channel, name NotificationType, language string) (*Template, error)

	// Exists reports whether any language has a template for the pair.
	Exists(channel Channel, name NotificationType) bool

	// Languages returns the set of language codes that have a template for
	// the pair, sorted ascending.
	Languages(channel Channel, name NotificationType) []string
}

// DispatchLogStore defines the contract for persisting dispatch records.
// Implementations live in infra/store/ (e.g., Supabase).
type DispatchLogStore interface {
	// Create inserts a new dispatch log record.
	Create(ctx context.Context, log *DispatchLog) error

	// GetByID retrieves a dispatch log by its ID.
	GetByID(ctx context.Context, id string) (*DispatchLog, error)

	// GetByIdempotencyKey retrieves a dispatch log by its idempotency key.
	// Returns nil, nil if no record is found.
	GetByIdempotencyKey(ctx context.Context, key string) (*DispatchLog, error)

	// UpdateStatus updates the status of a dispatch log, optionally attaching
	// per-channel outcomes and an error message.
	UpdateStatus(ctx context.Context, id string, status DispatchStatus, outcomes []Outcome, errMsg string) error

	// UpdateWebhookStatus updates a dispatch based on a transport-assigned
	// message ID (for delivery webhook events).
	UpdateWebhookStatus(ctx context.Context, messageID string, status DispatchStatus) error

	// List retrieves dispatch logs with pagination and filtering.
	List(ctx context.Context, filter ListFilter) ([]*DispatchLog, int, error)

	// ListStale retrieves dispatch logs stuck in queued/processing for longer
	// than the given threshold. Used by the reaper for reconciliation.
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*DispatchLog, error)
}
