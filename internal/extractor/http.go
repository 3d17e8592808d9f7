package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/perscribe/persona-backend/internal/model"
)

// HTTPExtractor calls the trait-extraction scorer over HTTP.
type HTTPExtractor struct {
	client *resty.Client
}

// NewHTTPExtractor creates a client for the scorer at baseURL.
func NewHTTPExtractor(baseURL string, timeout time.Duration) *HTTPExtractor {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &HTTPExtractor{client: c}
}

type extractResponse struct {
	Candidates []model.TraitCandidate `json:"candidates"`
}

// Extract posts the answer to the scorer and returns its candidates. A non-200
// response is retried once before failing.
func (e *HTTPExtractor) Extract(ctx context.Context, req ExtractRequest) ([]model.TraitCandidate, error) {
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(&req).
		Post("/v1/traits/extract")
	if err != nil {
		return nil, fmt.Errorf("extractor request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		resp2, err2 := e.client.R().SetContext(ctx).SetBody(&req).Post("/v1/traits/extract")
		if err2 != nil {
			return nil, fmt.Errorf("extractor status %d: %s (retry err=%v)", resp.StatusCode(), resp.String(), err2)
		}
		if resp2.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("extractor status %d: %s", resp2.StatusCode(), resp2.String())
		}
		resp = resp2
	}

	var out extractResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("extractor response: %w", err)
	}
	return out.Candidates, nil
}
