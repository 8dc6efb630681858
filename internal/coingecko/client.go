package coingecko

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the public CoinGecko v3 API.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 10 * time.Second
	// DefaultAttempts is the total number of tries, the first one included.
	DefaultAttempts = 3
	// DefaultRetryDelay is the fixed pause between attempts.
	DefaultRetryDelay = 100 * time.Millisecond

	apiKeyHeader = "x-cg-demo-api-key"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=coingecko_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the CoinGecko REST API.
type Client struct {
	// baseURL is the base URL for the API, without a trailing slash.
	baseURL string
	// httpClient performs the requests.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// timeout bounds every attempt separately.
	timeout time.Duration
	// attempts is the total number of tries for a transport failure.
	attempts int
	// retryDelay is the pause between two attempts.
	retryDelay time.Duration
	logger     logrus.FieldLogger
}

// ClientOption is a configuration option for the CoinGecko client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithAPIKey authenticates requests with a CoinGecko demo key.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		if key != "" {
			c.header.Set(apiKeyHeader, key)
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetry sets the total number of attempts and the fixed delay between them.
func WithRetry(attempts int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.attempts = attempts
		c.retryDelay = delay
	}
}

// WithLogger sets the logger used to report retries and failures.
func WithLogger(logger logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new CoinGecko client.
func NewClient(options ...ClientOption) (*Client, error) {
	var client = &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		header: http.Header{
			"Accept": []string{"application/json"},
		},
		timeout:    DefaultTimeout,
		attempts:   DefaultAttempts,
		retryDelay: DefaultRetryDelay,
		logger:     logrus.StandardLogger(),
	}
	for _, option := range options {
		option(client)
	}
	if client.httpClient == nil {
		return nil, errors.New("coingecko: nil http client")
	}
	if client.attempts < 1 {
		return nil, errors.New("coingecko: attempts must be at least 1")
	}
	if client.timeout <= 0 {
		return nil, errors.New("coingecko: timeout must be positive")
	}
	if client.retryDelay < 0 {
		client.retryDelay = 0
	}
	return client, nil
}

