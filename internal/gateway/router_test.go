package gateway_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoproxy/internal/coingecko"
	"cryptoproxy/internal/gateway"
	"cryptoproxy/internal/httpx"
	"cryptoproxy/internal/ratelimit"
)

func newGateway(t *testing.T, upstreamURL string, debug bool, limiter *ratelimit.Limiter) *httptest.Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client, err := coingecko.NewClient(
		coingecko.WithBaseURL(upstreamURL),
		coingecko.WithHTTPClient(httpx.New(time.Second)),
		coingecko.WithTimeout(time.Second),
		coingecko.WithRetry(3, time.Millisecond),
		coingecko.WithLogger(logger),
	)
	require.NoError(t, err)

	h := gateway.New(client, gateway.WithDebug(debug), gateway.WithLogger(logger))
	srv := httptest.NewServer(gateway.NewRouter(h, gateway.RouterConfig{Limiter: limiter}))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return res, body
}

func TestGateway_CoinByIDEndToEnd(t *testing.T) {
	// Arrange
	var gotPath, gotQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"bitcoin","symbol":"btc","market_data":{"current_price":{"usd":50000}}}`))
	}))
	defer upstream.Close()
	srv := newGateway(t, upstream.URL, false, nil)

	// Act
	res, body := getJSON(t, srv.URL+"/api/crypto/bitcoin")

	// Assert
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", res.Header.Get("Content-Type"))
	assert.Equal(t, "/coins/bitcoin", gotPath)
	assert.Contains(t, gotQuery, "market_data=true")
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "bitcoin", data["id"])
	assert.Equal(t, 50000.0, data["market_data"].(map[string]any)["current_price"].(map[string]any)["usd"])
}

func TestGateway_UnknownCoinIs404(t *testing.T) {
	// Arrange
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"coin not found"}`))
	}))
	defer upstream.Close()
	srv := newGateway(t, upstream.URL, false, nil)

	// Act
	res, body := getJSON(t, srv.URL+"/api/crypto/nonexistent")

	// Assert
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Cryptocurrency 'nonexistent' not found", body["message"])
	assert.Contains(t, body, "error")
	assert.Nil(t, body["error"])
}

func TestGateway_SearchUnwrapsCoins(t *testing.T) {
	// Arrange
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`{"coins":[{"id":"bitcoin","name":"Bitcoin","symbol":"BTC","market_cap_rank":1}],"exchanges":[],"nfts":[]}`))
	}))
	defer upstream.Close()
	srv := newGateway(t, upstream.URL, false, nil)

	// Act
	res, body := getJSON(t, srv.URL+"/api/search?query=bitcoin")

	// Assert
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "bitcoin", body["query"])
	coins := body["data"].([]any)
	require.Len(t, coins, 1)
	assert.Equal(t, "Bitcoin", coins[0].(map[string]any)["name"])
}

func TestGateway_UnreachableUpstreamIs503(t *testing.T) {
	// Arrange
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()
	srv := newGateway(t, url, true, nil)

	// Act
	res, body := getJSON(t, srv.URL+"/api/top-cryptos")

	// Assert
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.Equal(t, "Failed to fetch cryptocurrencies", body["message"])
	assert.Contains(t, body["error"], "after 3 attempt(s)")
}

func TestGateway_UpstreamStatusIsNotRetried(t *testing.T) {
	// Arrange
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer upstream.Close()
	srv := newGateway(t, upstream.URL, false, nil)

	// Act
	res, body := getJSON(t, srv.URL+"/api/crypto/bitcoin")

	// Assert
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.Equal(t, "Failed to fetch crypto details for 'bitcoin': 429", body["message"])
	assert.Equal(t, int32(1), hits.Load())
}

func TestGateway_RateLimit(t *testing.T) {
	// Arrange
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer upstream.Close()
	srv := newGateway(t, upstream.URL, false, ratelimit.PerMinute(2))

	// Act
	first, _ := getJSON(t, srv.URL+"/api/top-cryptos")
	second, _ := getJSON(t, srv.URL+"/api/top-cryptos")
	third, body := getJSON(t, srv.URL+"/api/top-cryptos")

	// Assert
	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, "2", first.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header.Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, third.StatusCode)
	assert.NotEmpty(t, third.Header.Get("Retry-After"))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Too Many Attempts.", body["message"])
	assert.Equal(t, int32(2), hits.Load())
}

func TestGateway_CORSPreflight(t *testing.T) {
	// Arrange
	srv := newGateway(t, "http://127.0.0.1:1", false, nil)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/top-cryptos", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	// Act
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	// Assert
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}
