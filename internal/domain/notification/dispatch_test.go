package notification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herald/internal/domain/notification"
	"herald/internal/infra/transport"
)

func planFor(channels ...notification.Channel) *notification.ChannelPlan {
	plan := &notification.ChannelPlan{
		Channels:   channels,
		Recipients: make(map[notification.Channel]string),
		Language:   "en",
	}
	for _, ch := range channels {
		switch ch {
		case notification.ChannelEmail:
			plan.Recipients[ch] = "user@example.com"
		case notification.ChannelSMS:
			plan.Recipients[ch] = "+14155552671"
		case notification.ChannelPush:
			plan.Recipients[ch] = "device-token"
		}
	}
	return plan
}

func contentFor(channels ...notification.Channel) map[notification.Channel]*notification.Content {
	content := make(map[notification.Channel]*notification.Content)
	for _, ch := range channels {
		content[ch] = &notification.Content{Subject: "s", Body: "b"}
	}
	return content
}

func TestDispatch_AllChannelsSucceed(t *testing.T) {
	email := transport.NewMockTransport(notification.ChannelEmail, transport.FailNever)
	sms := transport.NewMockTransport(notification.ChannelSMS, transport.FailNever)
	d := notification.NewDispatcher(email, sms)

	result := d.Dispatch(context.Background(),
		planFor(notification.ChannelEmail, notification.ChannelSMS),
		contentFor(notification.ChannelEmail, notification.ChannelSMS))

	assert.True(t, result.OverallSuccess)
	assert.False(t, result.PartialSuccess)
	assert.Equal(t, []notification.Channel{notification.ChannelEmail, notification.ChannelSMS}, result.SuccessfulChannels)
	require.Len(t, result.Outcomes, 2)
	for _, o := range result.Outcomes {
		assert.True(t, o.Success)
		assert.NotEmpty(t, o.MessageID)
	}
}

func TestDispatch_PartialSuccess(t *testing.T) {
	email := transport.NewMockTransport(notification.ChannelEmail, transport.FailNever)
	sms := transport.NewMockTransport(notification.ChannelSMS, transport.FailAlways)
	d := notification.NewDispatcher(email, sms)

	result := d.Dispatch(context.Background(),
		planFor(notification.ChannelEmail, notification.ChannelSMS),
		contentFor(notification.ChannelEmail, notification.ChannelSMS))

	assert.True(t, result.OverallSuccess)
	assert.True(t, result.PartialSuccess)
	assert.Equal(t, []notification.Channel{notification.ChannelEmail}, result.SuccessfulChannels)

	require.Len(t, result.Outcomes, 2)
	assert.True(t, result.Outcomes[0].Success)
	assert.False(t, result.Outcomes[1].Success)
	assert.Equal(t, notification.ErrKindTransport, result.Outcomes[1].ErrorKind)
}

func TestDispatch_PanicIsolatedToChannel(t *testing.T) {
	email := transport.NewMockTransport(notification.ChannelEmail, transport.FailPanic)
	sms := transport.NewMockTransport(notification.ChannelSMS, transport.FailNever)
	d := notification.NewDispatcher(email, sms)

	result := d.Dispatch(context.Background(),
		planFor(notification.ChannelEmail, notification.ChannelSMS),
		contentFor(notification.ChannelEmail, notification.ChannelSMS))

	assert.True(t, result.OverallSuccess)
	assert.True(t, result.PartialSuccess)

	require.Len(t, result.Outcomes, 2)
	assert.False(t, result.Outcomes[0].Success)
	assert.Equal(t, notification.ErrKindTransport, result.Outcomes[0].ErrorKind)
	assert.Contains(t, result.Outcomes[0].ErrorDetail, "panic")
	assert.True(t, result.Outcomes[1].Success)
	assert.Len(t, sms.Sent(), 1)
}

func TestDispatch_TotalFailure(t *testing.T) {
	email := transport.NewMockTransport(notification.ChannelEmail, transport.FailAlways)
	d := notification.NewDispatcher(email)

	result := d.Dispatch(context.Background(),
		planFor(notification.ChannelEmail),
		contentFor(notification.ChannelEmail))

	assert.False(t, result.OverallSuccess)
	assert.False(t, result.PartialSuccess)
	assert.Empty(t, result.SuccessfulChannels)
	assert.Len(t, result.AttemptedChannels, 1)
}

func TestDispatch_EmptyPlan(t *testing.T) {
	d := notification.NewDispatcher()

	for _, plan := range []*notification.ChannelPlan{nil, {Channels: nil}} {
		result := d.Dispatch(context.Background(), plan, nil)
		assert.False(t, result.OverallSuccess)
		assert.Equal(t, notification.ReasonNoEnabledChannels, result.Reason)
		assert.Empty(t, result.AttemptedChannels)
		assert.Empty(t, result.Outcomes)
	}
}

func TestDispatch_InvalidRecipientFailsValidation(t *testing.T) {
	email := transport.NewMockTransport(notification.ChannelEmail, transport.FailNever)
	d := notification.NewDispatcher(email)

	plan := planFor(notification.ChannelEmail)
	plan.Recipients[notification.ChannelEmail] = "not-an-email"

	result := d.Dispatch(context.Background(), plan, contentFor(notification.ChannelEmail))

	assert.False(t, result.OverallSuccess)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, notification.ErrKindValidation, result.Outcomes[0].ErrorKind)
	// The transport never saw the message.
	assert.Empty(t, email.Sent())
}

func TestDispatch_MissingContentFailsNoTemplate(t *testing.T) {
	email := transport.NewMockTransport(notification.ChannelEmail, transport.FailNever)
	sms := transport.NewMockTransport(notification.ChannelSMS, transport.FailNever)
	d := notification.NewDispatcher(email, sms)

	// Content resolved for email only; SMS had no template.
	result := d.Dispatch(context.Background(),
		planFor(notification.ChannelEmail, notification.ChannelSMS),
		contentFor(notification.ChannelEmail))

	assert.True(t, result.OverallSuccess)
	assert.True(t, result.PartialSuccess)
	require.Len(t, result.Outcomes, 2)
	assert.True(t, result.Outcomes[0].Success)
	assert.Equal(t, notification.ErrKindNoTemplate, result.Outcomes[1].ErrorKind)
}

func TestDispatch_MissingTransportFailsChannel(t *testing.T) {
	d := notification.NewDispatcher() // no transports registered

	result := d.Dispatch(context.Background(),
		planFor(notification.ChannelEmail),
		contentFor(notification.ChannelEmail))

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, notification.ErrKindTransport, result.Outcomes[0].ErrorKind)
	assert.Contains(t, result.Outcomes[0].ErrorDetail, "no transport registered")
}

func TestDispatch_OutcomesInFixedChannelOrder(t *testing.T) {
	email := transport.NewMockTransport(notification.ChannelEmail, transport.FailNever)
	sms := transport.NewMockTransport(notification.ChannelSMS, transport.FailNever)
	push := transport.NewMockTransport(notification.ChannelPush, transport.FailNever)
	d := notification.NewDispatcher(email, sms, push)

	// Plan lists channels out of order; outcomes still come back ordered.
	plan := planFor(notification.ChannelPush, notification.ChannelEmail, notification.ChannelSMS)
	content := contentFor(notification.ChannelEmail, notification.ChannelSMS, notification.ChannelPush)

	for i := 0; i < 10; i++ {
		result := d.Dispatch(context.Background(), plan, content)
		require.Len(t, result.Outcomes, 3)
		assert.Equal(t, notification.ChannelEmail, result.Outcomes[0].Channel)
		assert.Equal(t, notification.ChannelSMS, result.Outcomes[1].Channel)
		assert.Equal(t, notification.ChannelPush, result.Outcomes[2].Channel)
	}
}

func TestDispatch_SMSRecipientNormalized(t *testing.T) {
	sms := transport.NewMockTransport(notification.ChannelSMS, transport.FailNever)
	d := notification.NewDispatcher(sms)

	plan := planFor(notification.ChannelSMS)
	plan.Recipients[notification.ChannelSMS] = "+1 (415) 555-2671"

	result := d.Dispatch(context.Background(), plan, contentFor(notification.ChannelSMS))

	assert.True(t, result.OverallSuccess)
	sent := sms.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "+14155552671", sent[0].Recipient)
}
