package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrorKind classifies a per-channel dispatch failure.
type ErrorKind string

const (
	ErrKindValidation ErrorKind = "validation"
	ErrKindNoTemplate ErrorKind = "no_template"
	ErrKindTransport  ErrorKind = "transport_error"
)

// Aggregate result reasons for terminal states that attempted no channel.
const (
	ReasonNoEnabledChannels = "NO_ENABLED_CHANNELS"
	ReasonUnexpectedError   = "UNEXPECTED_ERROR"
)

// Outcome records the result of one channel's dispatch attempt.
type Outcome struct {
	Channel     Channel   `json:"channel"`
	Success     bool      `json:"success"`
	MessageID   string    `json:"message_id,omitempty"`
	ErrorKind   ErrorKind `json:"error_kind,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// AggregateResult is the partial-success-aware view over all per-channel
// outcomes of one dispatch call. It is computed, never persisted directly.
type AggregateResult struct {
	OverallSuccess     bool      `json:"overall_success"`
	PartialSuccess     bool      `json:"partial_success"`
	AttemptedChannels  []Channel `json:"attempted_channels"`
	SuccessfulChannels []Channel `json:"successful_channels"`
	Outcomes           []Outcome `json:"outcomes"`

	// Reason is set for success-free terminal states that never attempted a
	// channel, e.g. NO_ENABLED_CHANNELS.
	Reason string `json:"reason,omitempty"`
}

// Dispatcher sends rendered content to each eligible channel independently
// and aggregates the outcomes. Channel failures are fully isolated: one
// channel's error or panic never aborts a sibling attempt.
type Dispatcher struct {
	transports map[Channel]Transport
}

// NewDispatcher creates a dispatcher over the given channel transports.
func NewDispatcher(transports ...Transport) *Dispatcher {
	tm := make(map[Channel]Transport, len(transports))
	for _, t := range transports {
		tm[t.Channel()] = t
	}
	return &Dispatcher{transports: tm}
}

// Dispatch attempts every channel in the plan concurrently. A channel moves
// through PENDING → FAILED(validation) | FAILED(no_template) → SENT |
// FAILED(transport_error); all channels are attempted even when earlier ones
// fail. Outcomes are ordered by the fixed channel order regardless of
// completion order. No retry happens within one call.
func (d *Dispatcher) Dispatch(ctx context.Context, plan *ChannelPlan, content map[Channel]*Content) *AggregateResult {
	if plan == nil || len(plan.Channels) == 0 {
		return &AggregateResult{
			AttemptedChannels:  []Channel{},
			SuccessfulChannels: []Channel{},
			Outcomes:           []Outcome{},
			Reason:             ReasonNoEnabledChannels,
		}
	}

	// Attempt in the fixed channel order so outcome slots are deterministic.
	attempted := make([]Channel, 0, len(plan.Channels))
	for _, ch := range allChannels {
		if containsChannel(plan.Channels, ch) {
			attempted = append(attempted, ch)
		}
	}

	outcomes := make([]Outcome, len(attempted))
	var wg sync.WaitGroup
	for i, ch := range attempted {
		wg.Add(1)
		go func(slot int, channel Channel) {
			defer wg.Done()
			outcomes[slot] = d.attempt(ctx, channel, plan.Recipients[channel], content[channel])
		}(i, ch)
	}
	wg.Wait()

	result := &AggregateResult{
		AttemptedChannels:  attempted,
		SuccessfulChannels: []Channel{},
		Outcomes:           outcomes,
	}

	allOK := true
	for _, o := range outcomes {
		if o.Success {
			result.OverallSuccess = true
			result.SuccessfulChannels = append(result.SuccessfulChannels, o.Channel)
		} else {
			allOK = false
		}
	}
	result.PartialSuccess = result.OverallSuccess && !allOK

	return result
}

// attempt runs one channel's state machine to completion. Panics from a
// transport are contained here so they cannot reach sibling channels.
func (d *Dispatcher) attempt(ctx context.Context, channel Channel, recipient string, content *Content) (outcome Outcome) {
	outcome = Outcome{Channel: channel, Timestamp: time.Now().UTC()}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("transport panicked", "channel", channel, "panic", r)
			outcome.Success = false
			outcome.ErrorKind = ErrKindTransport
			outcome.ErrorDetail = fmt.Sprintf("transport panic: %v", r)
		}
	}()

	if err := ValidateRecipient(channel, recipient); err != nil {
		outcome.ErrorKind = ErrKindValidation
		outcome.ErrorDetail = err.Error()
		return outcome
	}

	if content == nil {
		outcome.ErrorKind = ErrKindNoTemplate
		outcome.ErrorDetail = "no template resolved for channel"
		return outcome
	}

	transport, ok := d.transports[channel]
	if !ok {
		outcome.ErrorKind = ErrKindTransport
		outcome.ErrorDetail = fmt.Sprintf("no transport registered for channel %s", channel)
		return outcome
	}

	// SMS recipients go out in canonical E.164 form.
	if channel == ChannelSMS {
		normalized, err := NormalizePhone(recipient)
		if err != nil {
			outcome.ErrorKind = ErrKindValidation
			outcome.ErrorDetail = err.Error()
			return outcome
		}
		recipient = normalized
	}

	messageID, err := transport.Send(ctx, recipient, content)
	if err != nil {
		outcome.ErrorKind = ErrKindTransport
		outcome.ErrorDetail = err.Error()
		return outcome
	}

	outcome.Success = true
	outcome.MessageID = messageID
	return outcome
}

func containsChannel(channels []Channel, c Channel) bool {
	for _, ch := range channels {
		if ch == c {
			return true
		}
	}
	return false
}
