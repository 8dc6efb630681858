package cryptoapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"cryptoproxy/internal/cryptoapi"
	"cryptoproxy/internal/httpx"
)

func newServer(t *testing.T, status int, body string, check func(r *http.Request)) *cryptoapi.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return cryptoapi.New(srv.URL+"/", cryptoapi.WithHTTPClient(httpx.New(0)))
}

func TestTopCryptos(t *testing.T) {
	var gotPath string
	client := newServer(t, http.StatusOK,
		`{"success":true,"data":[{"id":"bitcoin","symbol":"btc","current_price":50000,"market_cap_rank":1,"price_change_percentage_24h":-1.5},{"id":"ethereum","current_price":3000}]}`,
		func(r *http.Request) { gotPath = r.URL.Path })

	coins, err := client.TopCryptos(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/api/top-cryptos", gotPath)
	require.Len(t, coins, 2)
	require.Equal(t, "bitcoin", coins[0].ID)
	require.Equal(t, 50000.0, coins[0].CurrentPrice)
	require.NotNil(t, coins[0].MarketCapRank)
	require.Equal(t, 1, *coins[0].MarketCapRank)
	require.Equal(t, -1.5, *coins[0].PriceChangePercentage24h)
	require.Nil(t, coins[1].MarketCapRank)
}

func TestCryptoByID(t *testing.T) {
	var gotPath string
	client := newServer(t, http.StatusOK,
		`{"success":true,"data":{"id":"bitcoin","name":"Bitcoin","description":{"en":"Peer to peer"},"market_data":{"current_price":{"usd":50000},"price_change_percentage_24h":2.1},"links":{"homepage":["https://bitcoin.org"]}}}`,
		func(r *http.Request) { gotPath = r.URL.EscapedPath() })

	coin, err := client.CryptoByID(context.Background(), "bitcoin")
	require.NoError(t, err)
	require.Equal(t, "/api/crypto/bitcoin", gotPath)
	require.Equal(t, "Bitcoin", coin.Name)
	require.Equal(t, "Peer to peer", coin.Description.EN)
	require.Equal(t, 50000.0, coin.MarketData.CurrentPrice["usd"])
	require.Equal(t, []string{"https://bitcoin.org"}, coin.Links.Homepage)
}

func TestCryptoByID_NotFound(t *testing.T) {
	client := newServer(t, http.StatusNotFound,
		`{"success":false,"message":"Cryptocurrency 'nope' not found","error":null}`, nil)

	_, err := client.CryptoByID(context.Background(), "nope")
	require.Error(t, err)
	require.True(t, cryptoapi.IsNotFound(err))

	var apiErr *cryptoapi.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Cryptocurrency 'nope' not found", apiErr.Message)
	require.Empty(t, apiErr.Detail)
}

func TestSearch(t *testing.T) {
	var gotQuery string
	client := newServer(t, http.StatusOK,
		`{"success":true,"data":[{"id":"bitcoin","name":"Bitcoin","symbol":"BTC","thumb":"t.png","market_cap_rank":1}],"query":"bitcoin"}`,
		func(r *http.Request) { gotQuery = r.URL.Query().Get("query") })

	results, query, err := client.Search(context.Background(), "bitcoin")
	require.NoError(t, err)
	require.Equal(t, "bitcoin", gotQuery)
	require.Equal(t, "bitcoin", query)
	require.Len(t, results, 1)
	require.Equal(t, "BTC", results[0].Symbol)
}

func TestSearch_ValidationFailure(t *testing.T) {
	client := newServer(t, http.StatusUnprocessableEntity,
		`{"success":false,"message":"Invalid search query","errors":{"query":["The query field is required."]}}`, nil)

	_, _, err := client.Search(context.Background(), "")
	var apiErr *cryptoapi.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	require.Equal(t, []string{"The query field is required."}, apiErr.Errors["query"])
	require.False(t, cryptoapi.IsNotFound(err))
}

func TestServiceUnavailableWithDetail(t *testing.T) {
	client := newServer(t, http.StatusServiceUnavailable,
		`{"success":false,"message":"Failed to fetch cryptocurrencies","error":"upstream status 500"}`, nil)

	_, err := client.TopCryptos(context.Background())
	require.EqualError(t, err, "503 Failed to fetch cryptocurrencies: upstream status 500")
}

func TestNonJSONResponse(t *testing.T) {
	client := newServer(t, http.StatusBadGateway, `<html>bad gateway</html>`, nil)

	_, err := client.TopCryptos(context.Background())
	var apiErr *cryptoapi.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, "Bad Gateway", apiErr.Message)
}
