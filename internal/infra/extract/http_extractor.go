package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lms-personalization/internal/domain/ports/adapter"
)

var _ adapter.DocumentExtractor = (*HTTPExtractor)(nil)

// HTTPExtractor calls an external text-extraction service. The service takes
// a document URL and returns the extracted plain text; anything it cannot
// parse comes back as an error, which callers treat as "no CV data".
type HTTPExtractor struct {
	base   string
	client *http.Client
}

func NewHTTPExtractor(base string) *HTTPExtractor {
	return &HTTPExtractor{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *HTTPExtractor) Extract(ctx context.Context, url string) (string, error) {
	if e.base == "" {
		return "", errors.New("extractor not configured")
	}
	if url == "" {
		return "", errors.New("empty document url")
	}

	body, _ := json.Marshal(map[string]string{"url": url})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.base+"/extract", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("extractor http %d", resp.StatusCode)
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.Text == "" {
		return "", errors.New("extractor returned no text")
	}
	return payload.Text, nil
}
