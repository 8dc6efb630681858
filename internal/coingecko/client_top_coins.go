package coingecko

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
)

// TopCount is the number of coins returned by TopCoins.
const TopCount = 10

// TopCoins returns the first page of coins by market cap, in USD, exactly
// as CoinGecko ordered them.
func (c *Client) TopCoins(ctx context.Context) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("vs_currency", "usd")
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(TopCount))
	query.Set("page", "1")
	query.Set("sparkline", "false")

	body, err := c.get(ctx, call{
		path:     "coins/markets",
		query:    query,
		resource: "coins/markets",
		notFound: "CoinGecko API endpoint not found",
		failed:   "Failed to fetch cryptocurrencies from CoinGecko",
		network:  "Network error while fetching cryptocurrencies",
	})
	if err != nil {
		return nil, err
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return json.RawMessage("[]"), nil
	}
	if !json.Valid(body) || body[0] != '[' {
		return nil, &UpstreamError{
			StatusCode: 200,
			Message:    "Failed to fetch cryptocurrencies from CoinGecko",
			Err:        errors.New("decoding markets response: expected a JSON array"),
		}
	}
	return json.RawMessage(body), nil
}
