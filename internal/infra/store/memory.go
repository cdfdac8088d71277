package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"herald/internal/domain/notification"

	"github.com/google/uuid"
)

var _ notification.DispatchLogStore = (*MemoryStore)(nil)

// MemoryStore is a map-backed dispatch log store for tests and local
// development.
type MemoryStore struct {
	mu   sync.RWMutex
	logs map[string]*notification.DispatchLog
}

// NewMemoryStore creates an empty in-memory dispatch log store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[string]*notification.DispatchLog)}
}

// Create inserts a new dispatch log record, assigning an ID.
func (s *MemoryStore) Create(_ context.Context, log *notification.DispatchLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.ID = uuid.New().String()
	now := time.Now().UTC()
	log.CreatedAt = now
	log.UpdatedAt = now

	cp := *log
	s.logs[log.ID] = &cp
	return nil
}

// GetByID retrieves a dispatch log by its ID.
func (s *MemoryStore) GetByID(_ context.Context, id string) (*notification.DispatchLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[id]
	if !ok {
		return nil, nil
	}
	cp := *log
	return &cp, nil
}

// GetByIdempotencyKey retrieves a dispatch log by its idempotency key.
func (s *MemoryStore) GetByIdempotencyKey(_ context.Context, key string) (*notification.DispatchLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, log := range s.logs {
		if log.IdempotencyKey == key {
			cp := *log
			return &cp, nil
		}
	}
	return nil, nil
}

// UpdateStatus updates the status of a dispatch log.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status notification.DispatchStatus, outcomes []notification.Outcome, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.logs[id]
	if !ok {
		return fmt.Errorf("dispatch log not found: %s", id)
	}

	log.Status = status
	log.UpdatedAt = time.Now().UTC()
	if len(outcomes) > 0 {
		log.Outcomes = outcomes
		for _, o := range outcomes {
			if o.Success && o.MessageID != "" {
				log.MessageID = o.MessageID
				break
			}
		}
	}
	if errMsg != "" {
		log.ErrorMessage = errMsg
	}
	if status == notification.StatusSent || status == notification.StatusPartial {
		now := time.Now().UTC()
		log.SentAt = &now
	}
	return nil
}

// UpdateWebhookStatus updates a dispatch based on a transport message ID.
func (s *MemoryStore) UpdateWebhookStatus(_ context.Context, messageID string, status notification.DispatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, log := range s.logs {
		if log.MessageID == messageID {
			log.Status = status
			now := time.Now().UTC()
			log.UpdatedAt = now
			switch status {
			case notification.StatusDelivered:
				log.DeliveredAt = &now
			case notification.StatusBounced:
				log.BouncedAt = &now
			}
			return nil
		}
	}
	return fmt.Errorf("no dispatch with message id: %s", messageID)
}

// List retrieves dispatch logs with pagination and filtering.
func (s *MemoryStore) List(_ context.Context, filter notification.ListFilter) ([]*notification.DispatchLog, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*notification.DispatchLog
	for _, log := range s.logs {
		if filter.Status != "" && string(log.Status) != filter.Status {
			continue
		}
		if filter.UserID != "" && log.UserID != filter.UserID {
			continue
		}
		if filter.Type != "" && log.Type != filter.Type {
			continue
		}
		cp := *log
		matched = append(matched, &cp)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return []*notification.DispatchLog{}, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// ListStale retrieves dispatch logs stuck in queued/processing.
func (s *MemoryStore) ListStale(_ context.Context, olderThan time.Time, limit int) ([]*notification.DispatchLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	var stale []*notification.DispatchLog
	for _, log := range s.logs {
		if len(stale) >= limit {
			break
		}
		if (log.Status == notification.StatusQueued || log.Status == notification.StatusProcessing) &&
			log.UpdatedAt.Before(olderThan) {
			cp := *log
			stale = append(stale, &cp)
		}
	}
	return stale, nil
}
