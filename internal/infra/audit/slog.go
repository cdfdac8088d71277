package audit

import (
	"log/slog"

	"herald/internal/domain/notification"
)

var _ notification.AuditLogger = (*SlogAuditor)(nil)

// SlogAuditor writes dispatch audit events to the structured log.
type SlogAuditor struct {
	logger *slog.Logger
}

// NewSlogAuditor creates an audit logger writing to the given slog logger.
// Passing nil uses the default logger.
func NewSlogAuditor(logger *slog.Logger) *SlogAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAuditor{logger: logger}
}

// Log records one dispatch attempt. Fire-and-forget: never returns an error
// and never panics past this boundary.
func (a *SlogAuditor) Log(event notification.AuditEvent) {
	attrs := []any{
		"user_id", event.UserID,
		"type", event.Type,
		"timestamp", event.Timestamp,
	}
	if event.Result != nil {
		attrs = append(attrs,
			"overall_success", event.Result.OverallSuccess,
			"partial_success", event.Result.PartialSuccess,
			"attempted", len(event.Result.AttemptedChannels),
			"succeeded", len(event.Result.SuccessfulChannels),
		)
		if event.Result.Reason != "" {
			attrs = append(attrs, "reason", event.Result.Reason)
		}
	}
	a.logger.Info("notification dispatched", attrs...)
}
