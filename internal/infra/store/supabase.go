package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"herald/internal/domain/notification"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

const tableName = "dispatch_logs"

var _ notification.DispatchLogStore = (*SupabaseStore)(nil)

// SupabaseStore implements DispatchLogStore using the Supabase Go SDK.
type SupabaseStore struct {
	client *supa.Client
}

// NewSupabaseStore creates a new Supabase-backed dispatch log store.
func NewSupabaseStore(supabaseURL, serviceKey string) (*SupabaseStore, error) {
	client, err := supa.NewClient(supabaseURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

// supabaseRow is the internal representation for Supabase PostgREST insert/update.
type supabaseRow struct {
	ID             string          `json:"id,omitempty"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	UserID         string          `json:"user_id"`
	Type           string          `json:"type"`
	Data           map[string]any  `json:"data,omitempty"`
	Outcomes       json.RawMessage `json:"outcomes,omitempty"`
	MessageID      *string         `json:"message_id,omitempty"`
	Status         string          `json:"status"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
	CreatedAt      string          `json:"created_at,omitempty"`
	UpdatedAt      string          `json:"updated_at,omitempty"`
	SentAt         *string         `json:"sent_at,omitempty"`
	DeliveredAt    *string         `json:"delivered_at,omitempty"`
	BouncedAt      *string         `json:"bounced_at,omitempty"`
}

// Create inserts a new dispatch log record.
func (s *SupabaseStore) Create(ctx context.Context, log *notification.DispatchLog) error {
	row := supabaseRow{
		UserID: log.UserID,
		Type:   log.Type,
		Status: string(log.Status),
	}

	if log.IdempotencyKey != "" {
		row.IdempotencyKey = &log.IdempotencyKey
	}

	if log.Data != nil {
		row.Data = log.Data
	}

	// Insert and get the created row back
	var results []supabaseRow
	data, _, err := s.client.From(tableName).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("inserting dispatch log: %w", err)
	}

	if err := json.Unmarshal(data, &results); err != nil {
		return fmt.Errorf("parsing insert response: %w", err)
	}

	if len(results) > 0 {
		log.ID = results[0].ID
		if results[0].CreatedAt != "" {
			if t, err := time.Parse(time.RFC3339Nano, results[0].CreatedAt); err == nil {
				log.CreatedAt = t
			}
		}
		if results[0].UpdatedAt != "" {
			if t, err := time.Parse(time.RFC3339Nano, results[0].UpdatedAt); err == nil {
				log.UpdatedAt = t
			}
		}
	}

	return nil
}

// GetByID retrieves a dispatch log by its ID. Returns nil, nil when no such
// record exists.
func (s *SupabaseStore) GetByID(ctx context.Context, id string) (*notification.DispatchLog, error) {
	data, _, err := s.client.From(tableName).Select("*", "exact", false).Eq("id", id).Single().Execute()
	if err != nil {
		// PostgREST reports zero rows for Single() as an error.
		if strings.Contains(err.Error(), "PGRST116") {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching dispatch log: %w", err)
	}

	var row supabaseRow
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("parsing dispatch log: %w", err)
	}

	return rowToLog(&row), nil
}

// GetByIdempotencyKey retrieves a dispatch log by its idempotency key.
// Returns nil, nil if no record is found.
func (s *SupabaseStore) GetByIdempotencyKey(ctx context.Context, key string) (*notification.DispatchLog, error) {
	data, _, err := s.client.From(tableName).Select("*", "exact", false).Eq("idempotency_key", key).Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching by idempotency key: %w", err)
	}

	var rows []supabaseRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing idempotency result: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rowToLog(&rows[0]), nil
}

// UpdateStatus updates the status of a dispatch log, attaching per-channel
// outcomes when provided. The first successful outcome's message ID becomes
// the log's transport-facing message ID for webhook correlation.
func (s *SupabaseStore) UpdateStatus(ctx context.Context, id string, status notification.DispatchStatus, outcomes []notification.Outcome, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	update := map[string]any{
		"status":     string(status),
		"updated_at": now,
	}

	if len(outcomes) > 0 {
		encoded, err := json.Marshal(outcomes)
		if err != nil {
			return fmt.Errorf("marshaling outcomes: %w", err)
		}
		update["outcomes"] = json.RawMessage(encoded)

		for _, o := range outcomes {
			if o.Success && o.MessageID != "" {
				update["message_id"] = o.MessageID
				break
			}
		}
	}

	if errMsg != "" {
		update["error_message"] = errMsg
	}

	switch status {
	case notification.StatusSent, notification.StatusPartial:
		update["sent_at"] = now
	}

	_, _, err := s.client.From(tableName).Update(update, "", "").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("updating dispatch status: %w", err)
	}

	return nil
}

// UpdateWebhookStatus updates a dispatch based on a transport message ID.
func (s *SupabaseStore) UpdateWebhookStatus(ctx context.Context, messageID string, status notification.DispatchStatus) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	update := map[string]any{
		"status":     string(status),
		"updated_at": now,
	}

	switch status {
	case notification.StatusDelivered:
		update["delivered_at"] = now
	case notification.StatusBounced:
		update["bounced_at"] = now
	}

	_, _, err := s.client.From(tableName).Update(update, "", "").Eq("message_id", messageID).Execute()
	if err != nil {
		return fmt.Errorf("updating webhook status: %w", err)
	}

	return nil
}

// List retrieves dispatch logs with pagination and filtering.
func (s *SupabaseStore) List(ctx context.Context, filter notification.ListFilter) ([]*notification.DispatchLog, int, error) {
	// Apply defaults
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize

	query := s.client.From(tableName).Select("*", "exact", false)

	// Apply filters
	if filter.Status != "" {
		query = query.Eq("status", filter.Status)
	}
	if filter.UserID != "" {
		query = query.Eq("user_id", filter.UserID)
	}
	if filter.Type != "" {
		query = query.Eq("type", filter.Type)
	}

	// Order by created_at desc, paginate
	query = query.Order("created_at", &postgrest.OrderOpts{Ascending: false})
	query = query.Range(offset, offset+filter.PageSize-1, "")

	data, count, err := query.Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("listing dispatch logs: %w", err)
	}

	var rows []supabaseRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, 0, fmt.Errorf("parsing dispatch list: %w", err)
	}

	logs := make([]*notification.DispatchLog, len(rows))
	for i, row := range rows {
		logs[i] = rowToLog(&row)
	}

	return logs, int(count), nil
}

// ListStale retrieves dispatch logs stuck in queued/processing for longer than olderThan.
func (s *SupabaseStore) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*notification.DispatchLog, error) {
	if limit <= 0 {
		limit = 50
	}

	threshold := olderThan.UTC().Format(time.RFC3339Nano)

	// Query for records with status in (queued, processing) AND updated_at < threshold
	query := s.client.From(tableName).
		Select("*", "exact", false).
		In("status", []string{string(notification.StatusQueued), string(notification.StatusProcessing)}).
		Lt("updated_at", threshold).
		Order("updated_at", &postgrest.OrderOpts{Ascending: true}).
		Range(0, limit-1, "")

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("listing stale dispatches: %w", err)
	}

	var rows []supabaseRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing stale dispatches: %w", err)
	}

	logs := make([]*notification.DispatchLog, len(rows))
	for i, row := range rows {
		logs[i] = rowToLog(&row)
	}

	return logs, nil
}

// rowToLog converts a supabaseRow to a DispatchLog.
func rowToLog(row *supabaseRow) *notification.DispatchLog {
	log := &notification.DispatchLog{
		ID:     row.ID,
		UserID: row.UserID,
		Type:   row.Type,
		Status: notification.DispatchStatus(row.Status),
	}

	if row.IdempotencyKey != nil {
		log.IdempotencyKey = *row.IdempotencyKey
	}
	if row.Data != nil {
		log.Data = row.Data
	}
	if len(row.Outcomes) > 0 {
		// Malformed outcome payloads are dropped rather than failing the read.
		_ = json.Unmarshal(row.Outcomes, &log.Outcomes)
	}
	if row.MessageID != nil {
		log.MessageID = *row.MessageID
	}
	if row.ErrorMessage != nil {
		log.ErrorMessage = *row.ErrorMessage
	}

	if row.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, row.CreatedAt); err == nil {
			log.CreatedAt = t
		}
	}
	if row.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, row.UpdatedAt); err == nil {
			log.UpdatedAt = t
		}
	}
	if row.SentAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, *row.SentAt); err == nil {
			log.SentAt = &t
		}
	}
	if row.DeliveredAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, *row.DeliveredAt); err == nil {
			log.DeliveredAt = &t
		}
	}
	if row.BouncedAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, *row.BouncedAt); err == nil {
			log.BouncedAt = &t
		}
	}

	return log
}
