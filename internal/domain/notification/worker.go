package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"herald/internal/common"
)

// Worker processes dispatch tasks from the queue. It picks up a task,
// fetches the log from the store, runs the full pipeline through the
// Processor, and records the aggregate outcome on the log.
type Worker struct {
	store     DispatchLogStore
	processor *Processor
}

// NewWorker creates a new dispatch worker.
func NewWorker(store DispatchLogStore, processor *Processor) *Worker {
	return &Worker{
		store:     store,
		processor: processor,
	}
}

// ProcessTask handles a dispatch task from the queue.
func (w *Worker) ProcessTask(ctx context.Context, logID string) error {
	start := time.Now()

	dispatchLog, err := w.store.GetByID(ctx, logID)
	if err != nil {
		return fmt.Errorf("fetching dispatch log %s: %w", logID, err)
	}

	if dispatchLog == nil {
		slog.Error("dispatch log not found", "log_id", logID)
		return fmt.Errorf("dispatch log not found: %s", logID)
	}

	if err := w.store.UpdateStatus(ctx, logID, StatusProcessing, nil, ""); err != nil {
		slog.Error("failed to update status to processing", "log_id", logID, "error", err)
	}

	req := &NotificationRequest{
		UserID:      dispatchLog.UserID,
		Type:        NotificationType(dispatchLog.Type),
		DynamicData: dispatchLog.Data,
	}

	result, err := w.processor.Process(ctx, req)
	if err != nil {
		// Request-level configuration error: permanent, record and surface.
		errMsg := fmt.Sprintf("configuration error: %s", err.Error())
		_ = w.store.UpdateStatus(ctx, logID, StatusFailed, nil, errMsg)
		return common.NewConfigurationError(errMsg)
	}

	status, errMsg := summarize(result)
	if updateErr := w.store.UpdateStatus(ctx, logID, status, result.Outcomes, errMsg); updateErr != nil {
		slog.Error("failed to record dispatch outcome", "log_id", logID, "error", updateErr)
	}

	slog.Info("dispatch processed",
		"log_id", logID,
		"type", req.Type,
		"user_id", req.UserID,
		"status", status,
		"attempted", len(result.AttemptedChannels),
		"succeeded", len(result.SuccessfulChannels),
		"duration", time.Since(start),
	)

	// Total failure with at least one attempt: return an error so the queue
	// retries. Partial success and no-channels are terminal.
	if !result.OverallSuccess && len(result.AttemptedChannels) > 0 {
		return common.NewTransportError("dispatch", errMsg)
	}

	return nil
}

// summarize maps an aggregate result onto the log status lifecycle.
func summarize(result *AggregateResult) (DispatchStatus, string) {
	switch {
	case result.Reason == ReasonNoEnabledChannels:
		return StatusSkipped, ReasonNoEnabledChannels
	case result.Reason == ReasonUnexpectedError:
		return StatusFailed, ReasonUnexpectedError
	case result.PartialSuccess:
		return StatusPartial, joinFailures(result.Outcomes)
	case result.OverallSuccess:
		return StatusSent, ""
	default:
		return StatusFailed, joinFailures(result.Outcomes)
	}
}

// joinFailures collects the failed outcomes into one message.
func joinFailures(outcomes []Outcome) string {
	var parts []string
	for _, o := range outcomes {
		if !o.Success {
			parts = append(parts, fmt.Sprintf("%s: %s (%s)", o.Channel, o.ErrorDetail, o.ErrorKind))
		}
	}
	return strings.Join(parts, "; ")
}
