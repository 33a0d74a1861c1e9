package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dealbrief/prospect"
)

// EmailConfig configures the hosted email-send client.
type EmailConfig struct {
	BaseURL    string
	APIKey     string
	From       string
	HTTPClient *http.Client
}

// EmailClient sends quote-request emails through the provider's REST API.
// It implements prospect.EmailSender.
type EmailClient struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
}

func NewEmailClient(cfg EmailConfig) *EmailClient {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &EmailClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		client:  client,
	}
}

type emailSendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type emailSendResponse struct {
	ID string `json:"id"`
}

// SendEmail delivers one message and returns the provider message id.
func (c *EmailClient) SendEmail(ctx context.Context, msg prospect.EmailMessage) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingCredential
	}
	if msg.To == "" {
		return "", fmt.Errorf("outreach: email missing recipient")
	}

	body, err := json.Marshal(emailSendRequest{
		From:    c.from,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Body,
	})
	if err != nil {
		return "", fmt.Errorf("outreach: marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/send", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("outreach: build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("outreach: email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("outreach: email provider returned status %d", resp.StatusCode)
	}

	var out emailSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("outreach: decode email response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("outreach: email provider returned no message id")
	}
	return out.ID, nil
}
