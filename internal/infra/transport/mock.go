package transport

import (
	"context"
	"fmt"
	"sync"

	"herald/internal/domain/notification"

	"github.com/google/uuid"
)

var _ notification.Transport = (*MockTransport)(nil)

// FailureMode controls how a MockTransport behaves. The default mode always
// succeeds; failures are explicit and deterministic, never random.
type FailureMode int

const (
	// FailNever delivers every message.
	FailNever FailureMode = iota
	// FailAlways rejects every message with a transport error.
	FailAlways
	// FailPanic panics on send, for exercising per-channel panic isolation.
	FailPanic
)

// SentMessage records one delivery accepted by a MockTransport.
type SentMessage struct {
	Recipient string
	Content   *notification.Content
}

// MockTransport is an in-memory transport for tests and local development.
type MockTransport struct {
	channel     notification.Channel
	failureMode FailureMode

	mu   sync.Mutex
	sent []SentMessage
}

// NewMockTransport creates a mock transport for the given channel.
func NewMockTransport(channel notification.Channel, mode FailureMode) *MockTransport {
	return &MockTransport{channel: channel, failureMode: mode}
}

// Channel returns the channel this mock handles.
func (t *MockTransport) Channel() notification.Channel {
	return t.channel
}

// Send records the message and returns a generated message ID, or fails
// according to the configured failure mode.
func (t *MockTransport) Send(ctx context.Context, recipient string, content *notification.Content) (string, error) {
	switch t.failureMode {
	case FailAlways:
		return "", fmt.Errorf("mock %s transport: forced failure", t.channel)
	case FailPanic:
		panic(fmt.Sprintf("mock %s transport: forced panic", t.channel))
	}

	t.mu.Lock()
	t.sent = append(t.sent, SentMessage{Recipient: recipient, Content: content})
	t.mu.Unlock()

	return uuid.New().String(), nil
}

// Sent returns a copy of all messages accepted so far.
func (t *MockTransport) Sent() []SentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SentMessage, len(t.sent))
	copy(out, t.sent)
	return out
}
