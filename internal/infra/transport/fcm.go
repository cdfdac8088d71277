package transport

import (
	"context"
	"fmt"

	"herald/internal/domain/notification"

	"firebase.google.com/go/v4/messaging"
)

var _ notification.Transport = (*FCMTransport)(nil)

// MessagingClient is the subset of the Firebase Messaging API used for
// push delivery. *messaging.Client satisfies it.
type MessagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMTransport sends push notifications through Firebase Cloud Messaging.
type FCMTransport struct {
	client MessagingClient
}

// NewFCMTransport creates a new FCM push transport.
func NewFCMTransport(client MessagingClient) *FCMTransport {
	return &FCMTransport{client: client}
}

// Channel returns the push channel identifier.
func (t *FCMTransport) Channel() notification.Channel {
	return notification.ChannelPush
}

// Send delivers a push notification to a single device token and returns
// the FCM message ID.
func (t *FCMTransport) Send(ctx context.Context, recipient string, content *notification.Content) (string, error) {
	msg := &messaging.Message{
		Token: recipient,
		Notification: &messaging.Notification{
			Title: content.Subject,
			Body:  content.Body,
		},
	}

	id, err := t.client.Send(ctx, msg)
	if err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) {
			return "", fmt.Errorf("fcm: token no longer registered: %w", err)
		}
		return "", fmt.Errorf("fcm: %w", err)
	}

	return id, nil
}
