package notification

import "context"

// Transport defines the contract for a channel delivery mechanism.
// Implementations live in infra/transport/ (e.g., Resend for email, Twilio
// for SMS). A transport call is treated as a bounded external call; timeout
// policy belongs to the implementation.
type Transport interface {
	// Send delivers rendered content to a recipient and returns the
	// transport's message ID.
	Send(ctx context.Context, recipient string, content *Content) (string, error)

	// Channel returns which delivery channel this transport handles.
	Channel() Channel
}
