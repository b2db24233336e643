package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const DefaultLingvaURL = "https://lingva.ml"

// Lingva is a lingva-translate instance, a thin front over Google Translate
// with a plain JSON API.
type Lingva struct {
	BaseURL string
	Client  *http.Client
}

func NewLingva(baseURL string) *Lingva {
	if baseURL == "" {
		baseURL = DefaultLingvaURL
	}
	return &Lingva{BaseURL: baseURL, Client: http.DefaultClient}
}

func (l *Lingva) Name() string { return "lingva" }

type lingvaResponse struct {
	Translation string `json:"translation"`
}

func (l *Lingva) Translate(ctx context.Context, req Request) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v2/%s/%s/%s",
		strings.TrimRight(l.BaseURL, "/"),
		url.PathEscape(req.Source),
		url.PathEscape(req.Target),
		url.PathEscape(req.Text))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := l.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("lingva request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lingva returned status %d", resp.StatusCode)
	}

	var body lingvaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("lingva returned malformed payload: %w", err)
	}

	text := strings.TrimSpace(body.Translation)
	if text == "" {
		return "", fmt.Errorf("lingva returned empty translation")
	}
	return text, nil
}
