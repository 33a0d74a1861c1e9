// Package outreach holds the thin REST clients for the external providers:
// the LLM-backed dealership finder, the email-send service, and the SMS-send
// service. Every client takes its dependencies through a config struct so
// tests substitute fakes instead of touching real providers.
package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dealbrief/prospect"
)

// ErrMissingCredential signals a client was constructed without an API key.
var ErrMissingCredential = errors.New("outreach: missing credential")

// DealerFinderConfig configures the LLM candidate-lookup client.
type DealerFinderConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// DealerFinder queries a chat-completions style LLM endpoint for dealership
// candidates around a ZIP code. It implements prospect.CandidateFinder.
type DealerFinder struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewDealerFinder(cfg DealerFinderConfig) *DealerFinder {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &DealerFinder{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   model,
		client:  client,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type dealerPayload struct {
	Dealers []struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		City    string `json:"city"`
		State   string `json:"state"`
		Zip     string `json:"zip"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
	} `json:"dealers"`
}

const finderSystemPrompt = `You are a car-dealership directory assistant. Respond with a JSON object ` +
	`{"dealers": [...]} where each dealer has name, address, city, state, zip, email, phone. ` +
	`Only include franchised dealerships of the requested brands within the requested drive radius. ` +
	`Use empty strings for unknown contact fields; never invent emails or phone numbers.`

// FindDealers issues one completion request and parses the JSON dealer list.
func (f *DealerFinder) FindDealers(ctx context.Context, q prospect.DealerQuery) ([]prospect.Candidate, error) {
	if f.apiKey == "" {
		return nil, ErrMissingCredential
	}

	userPrompt := fmt.Sprintf("Find up to %d dealerships selling %s within about %.1f hours drive of ZIP %s.",
		q.Limit, strings.Join(q.Brands, ", "), q.DriveHours, q.Zip)
	if q.AdditionalContext != "" {
		userPrompt += " Additional context: " + q.AdditionalContext
	}

	body, err := json.Marshal(chatRequest{
		Model: f.model,
		Messages: []chatMessage{
			{Role: "system", Content: finderSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("outreach: marshal finder request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("outreach: build finder request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("outreach: finder request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("outreach: finder returned status %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("outreach: decode finder response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("outreach: finder returned no choices")
	}

	var payload dealerPayload
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("outreach: parse dealer list: %w", err)
	}

	out := make([]prospect.Candidate, 0, len(payload.Dealers))
	for _, d := range payload.Dealers {
		out = append(out, prospect.Candidate{
			Name:    d.Name,
			Address: d.Address,
			City:    d.City,
			State:   d.State,
			Zip:     d.Zip,
			Email:   d.Email,
			Phone:   d.Phone,
		})
	}
	return out, nil
}
