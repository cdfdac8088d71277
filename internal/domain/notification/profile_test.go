package notification_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herald/internal/common"
	"herald/internal/domain/notification"
	"herald/internal/infra/profile"
)

func fullProfile(userID string) *notification.UserChannelProfile {
	return &notification.UserChannelProfile{
		UserID:            userID,
		EmailEnabled:      true,
		SMSEnabled:        true,
		PushEnabled:       true,
		EmailAddress:      "user@example.com",
		PhoneNumber:       "+14155552671",
		PushToken:         "device-token",
		PreferredLanguage: "es",
		DisplayName:       "Ada",
		TypeSettings: map[notification.NotificationType]notification.ChannelToggle{
			notification.TypeWelcome: {Email: true, SMS: true, Push: true},
			notification.TypeOTP:     {Email: false, SMS: true, Push: false},
		},
	}
}

func TestEligibleChannels_AllEnabled(t *testing.T) {
	store := profile.NewMemoryStore()
	store.Put(fullProfile("u1"))
	r := notification.NewPreferenceResolver(store)

	plan, err := r.EligibleChannels(context.Background(), "u1", notification.TypeWelcome)

	require.NoError(t, err)
	assert.Equal(t, []notification.Channel{
		notification.ChannelEmail,
		notification.ChannelSMS,
		notification.ChannelPush,
	}, plan.Channels)
	assert.Equal(t, "user@example.com", plan.Recipients[notification.ChannelEmail])
	assert.Equal(t, "+14155552671", plan.Recipients[notification.ChannelSMS])
	assert.Equal(t, "es", plan.Language)
	assert.Equal(t, "Ada", plan.DisplayName)
}

func TestEligibleChannels_PerTypeToggleIntersectsGlobalFlag(t *testing.T) {
	store := profile.NewMemoryStore()
	store.Put(fullProfile("u1"))
	r := notification.NewPreferenceResolver(store)

	// OTP enables SMS only at the type level.
	plan, err := r.EligibleChannels(context.Background(), "u1", notification.TypeOTP)

	require.NoError(t, err)
	assert.Equal(t, []notification.Channel{notification.ChannelSMS}, plan.Channels)
}

func TestEligibleChannels_SMSWithoutPhoneDropped(t *testing.T) {
	p := fullProfile("u1")
	p.PhoneNumber = ""
	store := profile.NewMemoryStore()
	store.Put(p)
	r := notification.NewPreferenceResolver(store)

	plan, err := r.EligibleChannels(context.Background(), "u1", notification.TypeWelcome)

	require.NoError(t, err)
	assert.NotContains(t, plan.Channels, notification.ChannelSMS)
	assert.Contains(t, plan.Channels, notification.ChannelEmail)
}

func TestEligibleChannels_GlobalFlagOverridesTypeToggle(t *testing.T) {
	p := fullProfile("u1")
	p.EmailEnabled = false
	store := profile.NewMemoryStore()
	store.Put(p)
	r := notification.NewPreferenceResolver(store)

	plan, err := r.EligibleChannels(context.Background(), "u1", notification.TypeWelcome)

	require.NoError(t, err)
	assert.NotContains(t, plan.Channels, notification.ChannelEmail)
}

func TestEligibleChannels_EmptyPlanIsValid(t *testing.T) {
	p := fullProfile("u1")
	p.EmailEnabled = false
	p.SMSEnabled = false
	p.PushEnabled = false
	store := profile.NewMemoryStore()
	store.Put(p)
	r := notification.NewPreferenceResolver(store)

	plan, err := r.EligibleChannels(context.Background(), "u1", notification.TypeWelcome)

	require.NoError(t, err)
	assert.Empty(t, plan.Channels)
}

func TestEligibleChannels_UnknownUser(t *testing.T) {
	r := notification.NewPreferenceResolver(profile.NewMemoryStore())

	_, err := r.EligibleChannels(context.Background(), "ghost", notification.TypeWelcome)

	var notFound *common.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestEligibleChannels_TypeNotConfigured(t *testing.T) {
	store := profile.NewMemoryStore()
	store.Put(fullProfile("u1"))
	r := notification.NewPreferenceResolver(store)

	_, err := r.EligibleChannels(context.Background(), "u1", notification.TypeAccountAlert)

	var confErr *common.ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestEligibleChannels_LanguageDefaultsToCanonical(t *testing.T) {
	p := fullProfile("u1")
	p.PreferredLanguage = ""
	store := profile.NewMemoryStore()
	store.Put(p)
	r := notification.NewPreferenceResolver(store)

	plan, err := r.EligibleChannels(context.Background(), "u1", notification.TypeWelcome)

	require.NoError(t, err)
	assert.Equal(t, notification.CanonicalLanguage, plan.Language)
}

// failingProfileStore simulates an unreachable preference backend.
type failingProfileStore struct{}

func (failingProfileStore) GetProfile(context.Context, string) (*notification.UserChannelProfile, error) {
	return nil, errors.New("profile backend unreachable")
}

func TestEligibleChannels_StoreErrorPropagates(t *testing.T) {
	r := notification.NewPreferenceResolver(failingProfileStore{})

	_, err := r.EligibleChannels(context.Background(), "u1", notification.TypeWelcome)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile backend unreachable")
}
