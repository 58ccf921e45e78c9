// Package searchapi talks to the structure search service: one POST endpoint
// per result category, each taking {"smiles": ...} and answering with a list
// of {smiles, similarity}.
package searchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloo-solutions/molpanel/internal/domain"
	"github.com/cloo-solutions/molpanel/internal/telemetry"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 4 << 10
)

var endpoints = map[domain.Category]string{
	domain.CategorySimilar:    "/generate_similar",
	domain.CategoryCommercial: "/search_commercial",
	domain.CategoryPubChem:    "/search_pubchem",
}

// Endpoint returns the path serving a category.
func Endpoint(c domain.Category) (string, bool) {
	p, ok := endpoints[c]
	return p, ok
}

// Observer is told about every outbound request.
type Observer interface {
	ObserveUpstream(category string, d time.Duration, err error)
}

// APIError is a non-2xx answer from the search service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

type searchRequest struct {
	SMILES string `json:"smiles"`
}

// errorBody is the FastAPI error shape.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithObserver reports request durations and failures to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a Client. An empty baseURL or zero timeout falls back to
// the defaults.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateSimilar asks for structures similar to smiles.
func (c *Client) GenerateSimilar(ctx context.Context, smiles string) ([]domain.SearchResult, error) {
	return c.Search(ctx, domain.CategorySimilar, smiles)
}

// SearchCommercial asks for purchasable reagents matching smiles.
func (c *Client) SearchCommercial(ctx context.Context, smiles string) ([]domain.SearchResult, error) {
	return c.Search(ctx, domain.CategoryCommercial, smiles)
}

// SearchPubChem asks for PubChem compounds matching smiles.
func (c *Client) SearchPubChem(ctx context.Context, smiles string) ([]domain.SearchResult, error) {
	return c.Search(ctx, domain.CategoryPubChem, smiles)
}

// Search posts smiles to the category's endpoint. Errors wrap
// domain.ErrSearchFailed; non-2xx answers also carry an *APIError.
func (c *Client) Search(ctx context.Context, category domain.Category, smiles string) (results []domain.SearchResult, err error) {
	path, ok := Endpoint(category)
	if !ok {
		return nil, domain.ErrInvalidCategory
	}

	ctx, span := telemetry.StartSpan(ctx, "searchapi"+path, telemetry.SpanAttributes{
		Category:  string(category),
		Operation: "search",
	})
	start := time.Now()
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.End()
		if c.observer != nil {
			c.observer.ObserveUpstream(string(category), time.Since(start), err)
		}
	}()

	results, err = c.post(ctx, path, smiles)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, domain.ErrSearchFailed.Message, fmt.Errorf("%s: %w", path, err))
	}
	return results, nil
}

func (c *Client) post(ctx context.Context, path, smiles string) ([]domain.SearchResult, error) {
	body, err := json.Marshal(searchRequest{SMILES: smiles})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	var results []domain.SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	return results, nil
}

// errorMessage pulls "detail" out of a FastAPI error body, falling back to
// the raw text.
func errorMessage(raw []byte) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil && len(eb.Detail) > 0 {
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil {
			return s
		}
		return string(eb.Detail)
	}
	return strings.TrimSpace(string(raw))
}
