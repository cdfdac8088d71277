package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"herald/internal/domain/notification"
)

var _ notification.Transport = (*TwilioTransport)(nil)

// TwilioTransport sends SMS messages using the Twilio Messages API.
type TwilioTransport struct {
	accountSID string
	authToken  string
	fromNumber string
	httpClient *http.Client
}

// NewTwilioTransport creates a new Twilio SMS transport.
func NewTwilioTransport(accountSID, authToken, fromNumber string) *TwilioTransport {
	return &TwilioTransport{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel returns the SMS channel identifier.
func (t *TwilioTransport) Channel() notification.Channel {
	return notification.ChannelSMS
}

// Send delivers an SMS via the Twilio API and returns the message SID.
// SMS content is flat: only the body is sent.
func (t *TwilioTransport) Send(ctx context.Context, recipient string, content *notification.Content) (string, error) {
	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", t.accountSID)

	form := url.Values{}
	form.Set("To", recipient)
	form.Set("From", t.fromNumber)
	form.Set("Body", content.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.accountSID, t.authToken)

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
			Message string `json:"message"`
			Code    int    `json:"code"`
		}
		_ = json.Unmarshal(respBody, &errResp)

		msg := errResp.Message
		if msg == "" {
			msg = fmt.Sprintf("twilio API error: status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("twilio: %s", msg)
	}

	var successResp struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(respBody, &successResp); err != nil {
		return "", fmt.Errorf("parsing twilio response: %w", err)
	}

	return successResp.SID, nil
}
