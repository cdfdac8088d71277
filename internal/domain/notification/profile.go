package notification

import (
	"context"
	"fmt"

	"herald/internal/common"
)

// ChannelToggle holds per-notification-type channel opt-ins for one user.
type ChannelToggle struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

// UserChannelProfile is a user's channel preferences and contact details as
// supplied by the external preference store. The core treats it as read-only.
//
// SMSEnabled does not guarantee a phone number is present — eligibility
// re-checks it.
type UserChannelProfile struct {
	UserID            string                             `json:"user_id"`
	EmailEnabled      bool                               `json:"email_enabled"`
	SMSEnabled        bool                               `json:"sms_enabled"`
	PushEnabled       bool                               `json:"push_enabled"`
	EmailAddress      string                             `json:"email_address"`
	PhoneNumber       string                             `json:"phone_number,omitempty"`
	PushToken         string                             `json:"push_token,omitempty"`
	PreferredLanguage string                             `json:"preferred_language"`
	DisplayName       string                             `json:"display_name"`
	TypeSettings      map[NotificationType]ChannelToggle `json:"type_settings,omitempty"`
}

// ProfileStore defines the contract for the external user preference store.
// Implementations live in infra/profile/.
type ProfileStore interface {
	// GetProfile retrieves a user's channel profile.
	// Returns nil, nil if the user is unknown.
	GetProfile(ctx context.Context, userID string) (*UserChannelProfile, error)
}

// ChannelPlan is the output of preference resolution: the ordered set of
// eligible channels, the recipient address per channel, and the user's
// language and display name for rendering.
type ChannelPlan struct {
	Channels    []Channel
	Recipients  map[Channel]string
	Language    string
	DisplayName string
}

// PreferenceResolver turns a user identity and notification type into a
// ChannelPlan.
type PreferenceResolver struct {
	profiles ProfileStore
}

// NewPreferenceResolver creates a new preference resolver backed by the given
// profile store.
func NewPreferenceResolver(profiles ProfileStore) *PreferenceResolver {
	return &PreferenceResolver{profiles: profiles}
}

// EligibleChannels resolves which channels apply for the given user and
// notification type.
//
// A channel is eligible only if the user's global flag for it is set AND the
// per-type toggle enables it AND, for SMS, a non-empty phone number exists.
// An empty channel set is a valid plan, not an error.
func (r *PreferenceResolver) EligibleChannels(ctx context.Context, userID string, notifType NotificationType) (*ChannelPlan, error) {
	profile, err := r.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching profile for %s: %w", userID, err)
	}
	if profile == nil {
		return nil, common.NewNotFoundError("user", userID)
	}

	toggle, ok := profile.TypeSettings[notifType]
	if !ok {
		return nil, common.NewConfigurationError(
			fmt.Sprintf("notification type %q not configured for user %s", notifType, userID))
	}

	plan := &ChannelPlan{
		Recipients:  make(map[Channel]string),
		Language:    profile.PreferredLanguage,
		DisplayName: profile.DisplayName,
	}
	if plan.Language == "" {
		plan.Language = CanonicalLanguage
	}

	if profile.EmailEnabled && toggle.Email && profile.EmailAddress != "" {
		plan.Channels = append(plan.Channels, ChannelEmail)
		plan.Recipients[ChannelEmail] = profile.EmailAddress
	}
	if profile.SMSEnabled && toggle.SMS && profile.PhoneNumber != "" {
		plan.Channels = append(plan.Channels, ChannelSMS)
		plan.Recipients[ChannelSMS] = profile.PhoneNumber
	}
	if profile.PushEnabled && toggle.Push && profile.PushToken != "" {
		plan.Channels = append(plan.Channels, ChannelPush)
		plan.Recipients[ChannelPush] = profile.PushToken
	}

	return plan, nil
}
