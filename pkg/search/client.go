package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/httpx"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

const (
	// Transport errors and 5xx are retried this many times before the call
	// surfaces as search-unavailable. Kept small: silent retry loops mask
	// outages behind slow responses.
	searchRetries   = 2
	searchRetryWait = 200 * time.Millisecond
)

// Client talks to the vector-search service over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	AuthHeader string
	AuthToken  string
}

func NewClient(baseURL string, client *http.Client) *Client {
	return &Client{BaseURL: baseURL, HTTPClient: client}
}

func (c *Client) SearchPolicies(ctx context.Context, queryText string, topK int) ([]models.PolicyCandidate, error) {
	if topK <= 0 {
		topK = 20
	}
	body, _ := json.Marshal(map[string]interface{}{
		"query": queryText,
		"top_k": topK,
	})
	var out struct {
		Hits []models.PolicyCandidate `json:"hits"`
	}
	if err := c.post(ctx, "/v1/search/policies", body, &out); err != nil {
		return nil, err
	}
	return out.Hits, nil
}

func (c *Client) SearchClauses(ctx context.Context, policyID, queryText string) ([]models.Clause, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"policy_id": policyID,
		"query":     queryText,
	})
	var out struct {
		Hits []models.Clause `json:"hits"`
	}
	if err := c.post(ctx, "/v1/search/clauses", body, &out); err != nil {
		return nil, err
	}
	return out.Hits, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte, out interface{}) error {
	headers := map[string]string{}
	if c.AuthHeader != "" && c.AuthToken != "" {
		headers[c.AuthHeader] = c.AuthToken
	}
	status, respBody, err := httpx.RequestJSON(ctx, c.HTTPClient, http.MethodPost, c.BaseURL+path, body, headers, searchRetries, searchRetryWait)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrSearchUnavailable, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", models.ErrSearchUnavailable, status)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", models.ErrSearchUnavailable, err)
	}
	return nil
}
