package notification

// Channel represents a notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// allChannels is the fixed channel ordering used everywhere outcomes are
// aggregated. Results are ordered by this list, never by completion order.
var allChannels = []Channel{ChannelEmail, ChannelSMS, ChannelPush}

// IsValidChannel checks whether a channel is one of the supported kinds.
func IsValidChannel(c Channel) bool {
	for _, ch := range allChannels {
		if c == ch {
			return true
		}
	}
	return false
}

// NotificationType enumerates all supported notification template types.
type NotificationType string

const (
	TypeWelcome       NotificationType = "welcome"
	TypeOTP           NotificationType = "otp"
	TypePasswordReset NotificationType = "password_reset"
	TypeOrderShipped  NotificationType = "order_shipped"
	TypePaymentFailed NotificationType = "payment_failed"
	TypeAccountAlert  NotificationType = "account_alert"
)

// validTypes is the set of all recognized notification types.
var validTypes = map[NotificationType]bool{
	TypeWelcome:       true,
	TypeOTP:           true,
	TypePasswordReset: true,
	TypeOrderShipped:  true,
	TypePaymentFailed: true,
	TypeAccountAlert:  true,
}

// IsValidType checks whether a notification type is recognized.
func IsValidType(t NotificationType) bool {
	return validTypes[t]
}

// CanonicalLanguage is the designated fallback language. A template in this
// language must exist for every supported notification type.
const CanonicalLanguage = "en"

// NotificationRequest is the core input: who to notify, about what, and any
// per-request dynamic values for placeholder substitution. Created per call,
// never persisted.
type NotificationRequest struct {
	UserID      string           `json:"user_id"`
	Type        NotificationType `json:"type"`
	DynamicData map[string]any   `json:"data,omitempty"`
}

// Template is the raw template content for one (channel, type, language)
// entry. Email templates carry a subject and body; SMS and push templates are
// flat and use only the body.
type Template struct {
	Subject string `yaml:"subject" json:"subject,omitempty"`
	Body    string `yaml:"body" json:"body"`
}

// Content is a rendered template with all placeholders substituted.
// For flat (SMS-style) templates the subject is empty.
type Content struct {
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// ResolvedTemplate pairs a template with metadata about how it was selected.
// Built fresh on every resolution; the resolver never caches these.
type ResolvedTemplate struct {
	Template          *Template
	SelectedLanguage  string
	RequestedLanguage string
	FallbackUsed      bool

	// AvailableLanguages lists every language the store holds for the pair.
	// Populated only when ResolveOptions.IncludeMetadata is set.
	AvailableLanguages []string
}

// DispatchRequest is the API request payload for dispatching a notification.
type DispatchRequest struct {
	UserID         string           `json:"user_id" binding:"required"`
	Type           NotificationType `json:"type" binding:"required"`
	Data           map[string]any   `json:"data"`
	IdempotencyKey string           `json:"idempotency_key"`
}

// DispatchResponse is the API response payload after a dispatch is enqueued.
type DispatchResponse struct {
	ID             string `json:"id"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Type           string `json:"type"`
	Status         string `json:"status"`
}
