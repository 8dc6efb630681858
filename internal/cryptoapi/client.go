// Package cryptoapi is a typed client for the gateway's JSON API.
package cryptoapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"cryptoproxy/internal/coingecko"
)

// DefaultBaseURL is where a locally started server listens.
const DefaultBaseURL = "http://localhost:8000"

// HTTPClient describes an HTTP client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a response the gateway answered with success=false.
type APIError struct {
	StatusCode int
	Message    string
	// Errors lists per-field messages of a validation failure.
	Errors map[string][]string
	// Detail is the diagnostic the server exposes in debug mode.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 answer from the gateway.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Query   string              `json:"query"`
	Message string              `json:"message"`
	Error   *string             `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

// Client reads market data from a running gateway.
type Client struct {
	baseURL    string
	httpClient HTTPClient
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// New returns a client for the gateway at baseURL, DefaultBaseURL when empty.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TopCryptos returns the ten largest coins by market cap.
func (c *Client) TopCryptos(ctx context.Context) ([]coingecko.CoinSummary, error) {
	var coins []coingecko.CoinSummary
	if _, err := c.get(ctx, "/api/top-cryptos", nil, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// CryptoByID returns the detail of one coin.
func (c *Client) CryptoByID(ctx context.Context, id string) (*coingecko.CoinDetail, error) {
	var coin coingecko.CoinDetail
	if _, err := c.get(ctx, "/api/crypto/"+url.PathEscape(id), nil, &coin); err != nil {
		return nil, err
	}
	return &coin, nil
}

// Search returns matching coins and the query as the server understood it.
func (c *Client) Search(ctx context.Context, query string) ([]coingecko.SearchResult, string, error) {
	var results []coingecko.SearchResult
	env, err := c.get(ctx, "/api/search", url.Values{"query": []string{query}}, &results)
	if err != nil {
		return nil, "", err
	}
	return results, env.Query, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) (*envelope, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &APIError{StatusCode: res.StatusCode, Message: http.StatusText(res.StatusCode), Detail: err.Error()}
	}
	if !env.Success {
		apiErr := &APIError{StatusCode: res.StatusCode, Message: env.Message, Errors: env.Errors}
		if env.Error != nil {
			apiErr.Detail = *env.Error
		}
		return nil, apiErr
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return nil, fmt.Errorf("decoding data: %w", err)
	}
	return &env, nil
}
