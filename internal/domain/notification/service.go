package notification

import (
	"context"
	"fmt"
	"log/slog"

	"herald/internal/common"
)

// Enqueuer defines the contract for enqueuing dispatch tasks.
// This allows the service to be decoupled from the specific queue implementation.
type Enqueuer interface {
	EnqueueDispatch(logID string) error
}

// Service orchestrates the async dispatch flow:
// validate → check idempotency → check rate limit → create log → enqueue.
// The worker later picks up the log and runs the Processor pipeline.
type Service struct {
	store       DispatchLogStore
	enqueuer    Enqueuer
	rateLimiter UserRateLimiter
}

// NewService creates a new notification service.
func NewService(store DispatchLogStore, enqueuer Enqueuer, rateLimiter UserRateLimiter) *Service {
	return &Service{
		store:       store,
		enqueuer:    enqueuer,
		rateLimiter: rateLimiter,
	}
}

// Enqueue validates a dispatch request, checks idempotency and rate limits,
// creates a log record, and enqueues the task for async processing.
func (s *Service) Enqueue(ctx context.Context, req *DispatchRequest) (*DispatchResponse, error) {
	if !IsValidType(req.Type) {
		return nil, common.NewConfigurationError(fmt.Sprintf("unsupported notification type: %s", req.Type))
	}

	// Check idempotency — if a request with the same key already exists, return the existing result
	if req.IdempotencyKey != "" {
		existing, err := s.store.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			slog.Error("idempotency check failed", "key", req.IdempotencyKey, "error", err)
			// Don't fail the request — proceed without idempotency protection
		}
		if existing != nil {
			slog.Info("idempotent request — returning existing result",
				"idempotency_key", req.IdempotencyKey,
				"existing_id", existing.ID,
				"existing_status", existing.Status,
			)
			return &DispatchResponse{
				ID:             existing.ID,
				IdempotencyKey: existing.IdempotencyKey,
				Type:           existing.Type,
				Status:         string(existing.Status),
			}, nil
		}
	}

	// Check per-user rate limit
	if s.rateLimiter != nil {
		allowed, err := s.rateLimiter.Allow(ctx, req.UserID)
		if err != nil {
			slog.Error("rate limit check failed, proceeding without limit", "user_id", req.UserID, "error", err)
			// Fail open — don't block the request when Redis is down
		} else if !allowed {
			return nil, common.NewValidationError(fmt.Sprintf("rate limit exceeded for user: %s", req.UserID))
		}
	}

	// Create the dispatch log
	dispatchLog := &DispatchLog{
		IdempotencyKey: req.IdempotencyKey,
		UserID:         req.UserID,
		Type:           string(req.Type),
		Data:           req.Data,
		Status:         StatusQueued,
	}

	if err := s.store.Create(ctx, dispatchLog); err != nil {
		return nil, fmt.Errorf("creating dispatch log: %w", err)
	}

	// Enqueue the task for async processing
	if err := s.enqueuer.EnqueueDispatch(dispatchLog.ID); err != nil {
		// Update log status to failed since we couldn't enqueue
		_ = s.store.UpdateStatus(ctx, dispatchLog.ID, StatusFailed, nil, "failed to enqueue: "+err.Error())
		return nil, fmt.Errorf("enqueuing dispatch: %w", err)
	}

	slog.Info("dispatch enqueued",
		"id", dispatchLog.ID,
		"type", req.Type,
		"user_id", req.UserID,
	)

	return &DispatchResponse{
		ID:             dispatchLog.ID,
		IdempotencyKey: dispatchLog.IdempotencyKey,
		Type:           string(req.Type),
		Status:         string(StatusQueued),
	}, nil
}

// GetDispatch retrieves a dispatch log by ID.
func (s *Service) GetDispatch(ctx context.Context, id string) (*DispatchLog, error) {
	dispatchLog, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching dispatch: %w", err)
	}
	if dispatchLog == nil {
		return nil, common.NewNotFoundError("dispatch", id)
	}
	return dispatchLog, nil
}

// ListDispatches retrieves dispatch logs with pagination and filtering.
func (s *Service) ListDispatches(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	logs, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing dispatches: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	return &ListResponse{
		Dispatches: logs,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}

// HandleWebhookEvent processes a delivery status update from a transport webhook.
func (s *Service) HandleWebhookEvent(ctx context.Context, messageID string, status DispatchStatus) error {
	if messageID == "" {
		return common.NewValidationError("message_id is required")
	}

	if err := s.store.UpdateWebhookStatus(ctx, messageID, status); err != nil {
		return fmt.Errorf("updating webhook status: %w", err)
	}

	slog.Info("webhook status updated",
		"message_id", messageID,
		"status", status,
	)

	return nil
}
