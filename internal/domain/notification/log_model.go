package notification

import "time"

// DispatchStatus represents the lifecycle state of a persisted dispatch.
type DispatchStatus string

const (
	StatusQueued     DispatchStatus = "queued"
	StatusProcessing DispatchStatus = "processing"
	StatusSent       DispatchStatus = "sent"
	StatusPartial    DispatchStatus = "partial"
	StatusFailed     DispatchStatus = "failed"
	StatusSkipped    DispatchStatus = "skipped"
	StatusDelivered  DispatchStatus = "delivered"
	StatusBounced    DispatchStatus = "bounced"
)

// DispatchLog represents a persisted dispatch record.
type DispatchLog struct {
	ID             string         `json:"id"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
	UserID         string         `json:"user_id"`
	Type           string         `json:"type"`
	Data           map[string]any `json:"data,omitempty"`
	Outcomes       []Outcome      `json:"outcomes,omitempty"`
	MessageID      string         `json:"message_id,omitempty"`
	Status         DispatchStatus `json:"status"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	SentAt         *time.Time     `json:"sent_at,omitempty"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty"`
	BouncedAt      *time.Time     `json:"bounced_at,omitempty"`
}

// ListFilter defines pagination and filtering options for listing dispatch logs.
type ListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Status   string `form:"status"`
	UserID   string `form:"user_id"`
	Type     string `form:"type"`
}

// ListResponse wraps a paginated list of dispatch logs.
type ListResponse struct {
	Dispatches []*DispatchLog `json:"dispatches"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}
