package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"herald/internal/domain/notification"
)

var _ notification.Transport = (*ResendTransport)(nil)

// ResendTransport sends emails using the Resend API.
type ResendTransport struct {
	apiKey      string
	fromAddress string
	fromName    string
	httpClient  *http.Client
}

// NewResendTransport creates a new Resend email transport.
func NewResendTransport(apiKey, fromAddress, fromName string) *ResendTransport {
	return &ResendTransport{
		apiKey:      apiKey,
		fromAddress: fromAddress,
		fromName:    fromName,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel returns the email channel identifier.
func (t *ResendTransport) Channel() notification.Channel {
	return notification.ChannelEmail
}

// Send delivers an email via the Resend API and returns the message ID.
func (t *ResendTransport) Send(ctx context.Context, recipient string, content *notification.Content) (string, error) {
	from := t.fromAddress
	if t.fromName != "" {
		from = fmt.Sprintf("%s <%s>", t.fromName, t.fromAddress)
	}

	payload := map[string]any{
		"from":    from,
		"to":      []string{recipient},
		"subject": content.Subject,
		"text":    content.Body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message    string `json:"message"`
			StatusCode int    `json:"statusCode"`
		}
		_ = json.Unmarshal(respBody, &errResp)

		msg := errResp.Message
		if msg == "" {
			msg = fmt.Sprintf("resend API error: status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("resend: %s", msg)
	}

	var successResp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &successResp); err != nil {
		return "", fmt.Errorf("parsing resend response: %w", err)
	}

	return successResp.ID, nil
}
