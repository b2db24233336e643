package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const DefaultMyMemoryURL = "https://api.mymemory.translated.net/get"

// MyMemory is the translated.net memory API. An optional contact email
// raises the anonymous rate limit.
type MyMemory struct {
	BaseURL string
	Email   string
	Client  *http.Client
}

func NewMyMemory(baseURL, email string) *MyMemory {
	if baseURL == "" {
		baseURL = DefaultMyMemoryURL
	}
	return &MyMemory{BaseURL: baseURL, Email: email, Client: http.DefaultClient}
}

func (m *MyMemory) Name() string { return "mymemory" }

type myMemoryResponse struct {
	ResponseStatus int `json:"responseStatus"`
	ResponseData   struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
}

func (m *MyMemory) Translate(ctx context.Context, req Request) (string, error) {
	u, err := url.Parse(m.BaseURL)
	if err != nil {
		return "", fmt.Errorf("bad mymemory url: %w", err)
	}
	q := u.Query()
	q.Set("q", req.Text)
	q.Set("langpair", req.Source+"|"+req.Target)
	if m.Email != "" {
		q.Set("de", m.Email)
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := m.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("mymemory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mymemory returned status %d", resp.StatusCode)
	}

	var body myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("mymemory returned malformed payload: %w", err)
	}
	if body.ResponseStatus != http.StatusOK {
		return "", fmt.Errorf("mymemory returned response status %d", body.ResponseStatus)
	}

	text := strings.TrimSpace(body.ResponseData.TranslatedText)
	if text == "" {
		return "", fmt.Errorf("mymemory returned empty translation")
	}
	return text, nil
}
