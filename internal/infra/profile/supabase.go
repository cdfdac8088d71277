package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"herald/internal/domain/notification"

	supa "github.com/supabase-community/supabase-go"
)

const tableName = "user_channel_profiles"

var _ notification.ProfileStore = (*SupabaseStore)(nil)

// SupabaseStore implements ProfileStore using the Supabase Go SDK.
type SupabaseStore struct {
	client *supa.Client
}

// NewSupabaseStore creates a new Supabase-backed profile store.
func NewSupabaseStore(supabaseURL, serviceKey string) (*SupabaseStore, error) {
	client, err := supa.NewClient(supabaseURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

// supabaseRow is the internal representation for Supabase PostgREST reads.
type supabaseRow struct {
	UserID            string          `json:"user_id"`
	EmailEnabled      bool            `json:"email_enabled"`
	SMSEnabled        bool            `json:"sms_enabled"`
	PushEnabled       bool            `json:"push_enabled"`
	EmailAddress      *string         `json:"email_address,omitempty"`
	PhoneNumber       *string         `json:"phone_number,omitempty"`
	PushToken         *string         `json:"push_token,omitempty"`
	PreferredLanguage *string         `json:"preferred_language,omitempty"`
	DisplayName       *string         `json:"display_name,omitempty"`
	TypeSettings      json.RawMessage `json:"type_settings,omitempty"`
}

// GetProfile retrieves a user's channel profile. Returns nil, nil if the
// user is unknown.
func (s *SupabaseStore) GetProfile(ctx context.Context, userID string) (*notification.UserChannelProfile, error) {
	data, _, err := s.client.From(tableName).Select("*", "exact", false).Eq("user_id", userID).Single().Execute()
	if err != nil {
		// PostgREST reports zero rows for Single() as an error; treat it as
		// an unknown user rather than a store failure.
		if strings.Contains(err.Error(), "PGRST116") {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching user profile: %w", err)
	}

	var row supabaseRow
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("parsing user profile: %w", err)
	}

	return rowToProfile(&row)
}

// rowToProfile converts a supabaseRow to a UserChannelProfile.
func rowToProfile(row *supabaseRow) (*notification.UserChannelProfile, error) {
	p := &notification.UserChannelProfile{
		UserID:       row.UserID,
		EmailEnabled: row.EmailEnabled,
		SMSEnabled:   row.SMSEnabled,
		PushEnabled:  row.PushEnabled,
	}

	if row.EmailAddress != nil {
		p.EmailAddress = *row.EmailAddress
	}
	if row.PhoneNumber != nil {
		p.PhoneNumber = *row.PhoneNumber
	}
	if row.PushToken != nil {
		p.PushToken = *row.PushToken
	}
	if row.PreferredLanguage != nil {
		p.PreferredLanguage = *row.PreferredLanguage
	}
	if row.DisplayName != nil {
		p.DisplayName = *row.DisplayName
	}

	if len(row.TypeSettings) > 0 {
		settings := make(map[notification.NotificationType]notification.ChannelToggle)
		if err := json.Unmarshal(row.TypeSettings, &settings); err != nil {
			return nil, fmt.Errorf("parsing type settings: %w", err)
		}
		p.TypeSettings = settings
	}

	return p, nil
}
