// Package whatsapp implements the Twilio WhatsApp transport: sending
// messages, validating webhook signatures, and parsing inbound webhooks.
package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sender delivers outbound WhatsApp messages through the Twilio REST API.
type Sender struct {
	accountSID string
	authToken  string
	fromNumber string // without the whatsapp: prefix
	baseURL    string
	httpClient *http.Client
}

// NewSender creates a Twilio message sender.
func NewSender(accountSID, authToken, fromNumber, baseURL string) *Sender {
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	return &Sender{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// twilioMessageResponse is the subset of Twilio's create-message response we
// care about.
type twilioMessageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"message"` // set on API error responses
}

// SendText sends a plain text message to a phone number (E.164, without the
// whatsapp: prefix) and returns the Twilio message SID.
func (s *Sender) SendText(ctx context.Context, toNumber, body string) (string, error) {
	form := url.Values{}
	form.Set("From", "whatsapp:"+s.fromNumber)
	form.Set("To", "whatsapp:"+toNumber)
	form.Set("Body", body)
	return s.createMessage(ctx, form)
}

// SendImage sends an image by URL with an optional caption.
func (s *Sender) SendImage(ctx context.Context, toNumber, imageURL, caption string) (string, error) {
	form := url.Values{}
	form.Set("From", "whatsapp:"+s.fromNumber)
	form.Set("To", "whatsapp:"+toNumber)
	form.Set("MediaUrl", imageURL)
	form.Set("Body", caption)
	return s.createMessage(ctx, form)
}

func (s *Sender) createMessage(ctx context.Context, form url.Values) (string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read twilio response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("twilio API error (status %d): %s", resp.StatusCode, string(data))
	}

	var msg twilioMessageResponse
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("failed to parse twilio response: %w", err)
	}
	return msg.SID, nil
}

// FetchMedia downloads inbound media (e.g. a food photo) from a Twilio media
// URL. Twilio media endpoints require basic auth with the account credentials.
func (s *Sender) FetchMedia(ctx context.Context, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create media request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("media fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media fetch failed (status %d)", resp.StatusCode)
	}

	// WhatsApp images top out well below 16 MB.
	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
