package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"herald/internal/common"
)

// Processor runs the full notification pipeline for one request:
// preference resolution → template resolution → rendering → dispatch.
//
// Only request-level configuration errors (unknown user, unconfigured
// notification type) are returned as errors, before any channel is
// attempted. Everything else — including a panic anywhere in the pipeline —
// surfaces as a structured AggregateResult.
type Processor struct {
	prefs      *PreferenceResolver
	resolver   *Resolver
	renderer   *Renderer
	dispatcher *Dispatcher
	audit      AuditLogger
	renderOpts RenderOptions
}

// NewProcessor creates a new notification processor. renderOpts carries the
// deployment-wide rendering policy; per-request values still take priority
// over anything in its DefaultOverrides.
func NewProcessor(prefs *PreferenceResolver, resolver *Resolver, renderer *Renderer, dispatcher *Dispatcher, audit AuditLogger, renderOpts RenderOptions) *Processor {
	return &Processor{
		prefs:      prefs,
		resolver:   resolver,
		renderer:   renderer,
		dispatcher: dispatcher,
		audit:      audit,
		renderOpts: renderOpts,
	}
}

// Process resolves eligible channels, renders a template per channel, and
// dispatches to each channel independently, aggregating the outcomes.
func (p *Processor) Process(ctx context.Context, req *NotificationRequest) (result *AggregateResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("notification pipeline panicked",
				"user_id", req.UserID, "type", req.Type, "panic", r)
			result = &AggregateResult{
				AttemptedChannels:  []Channel{},
				SuccessfulChannels: []Channel{},
				Outcomes:           []Outcome{},
				Reason:             ReasonUnexpectedError,
			}
			err = nil
		}
	}()

	if !IsValidType(req.Type) {
		return nil, common.NewConfigurationError(fmt.Sprintf("unsupported notification type: %s", req.Type))
	}

	plan, err := p.prefs.EligibleChannels(ctx, req.UserID, req.Type)
	if err != nil {
		return nil, err
	}

	if len(plan.Channels) == 0 {
		result = &AggregateResult{
			AttemptedChannels:  []Channel{},
			SuccessfulChannels: []Channel{},
			Outcomes:           []Outcome{},
			Reason:             ReasonNoEnabledChannels,
		}
		p.recordAudit(req, result)
		return result, nil
	}

	// Profile-derived values sit below the request data in the placeholder
	// priority chain, so callers can always override them per request.
	renderOpts := p.renderOpts
	if plan.DisplayName != "" {
		overrides := make(map[string]string, len(p.renderOpts.DefaultOverrides)+2)
		for k, v := range p.renderOpts.DefaultOverrides {
			overrides[k] = v
		}
		overrides["userName"] = plan.DisplayName
		overrides["displayName"] = plan.DisplayName
		renderOpts.DefaultOverrides = overrides
	}

	content := make(map[Channel]*Content, len(plan.Channels))
	for _, ch := range plan.Channels {
		resolved := p.resolver.Resolve(ch, req.Type, []string{plan.Language}, ResolveOptions{})
		if resolved == nil {
			// Resolution miss is not fatal: the channel fails with
			// no_template while siblings proceed.
			slog.Warn("no template for channel",
				"channel", ch, "type", req.Type, "language", plan.Language)
			continue
		}
		if resolved.FallbackUsed {
			slog.Info("template language fallback",
				"channel", ch, "type", req.Type,
				"requested", resolved.RequestedLanguage,
				"selected", resolved.SelectedLanguage)
		}
		content[ch] = p.renderer.Render(resolved.Template, req.DynamicData, renderOpts)
	}

	result = p.dispatcher.Dispatch(ctx, plan, content)
	p.recordAudit(req, result)
	return result, nil
}

// recordAudit notifies the audit trail. Audit failures are contained here;
// they never influence the returned result.
func (p *Processor) recordAudit(req *NotificationRequest, result *AggregateResult) {
	if p.audit == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("audit logger panicked", "panic", r)
		}
	}()
	p.audit.Log(AuditEvent{
		UserID:    req.UserID,
		Type:      req.Type,
		Result:    result,
		Timestamp: time.Now().UTC(),
	})
}
