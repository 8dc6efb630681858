package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"github.com/tidwall/gjson"
)

// Search looks coins up by name or symbol. CoinGecko answers with coins,
// exchanges, categories and NFTs; only the coins collection is returned,
// and a response without one yields an empty list.
func (c *Client) Search(ctx context.Context, q string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("query", q)

	body, err := c.get(ctx, call{
		path:     "search",
		query:    query,
		resource: "search",
		notFound: "CoinGecko search endpoint not found",
		failed:   "Failed to search cryptocurrencies",
		network:  "Network error while searching cryptocurrencies",
	})
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, &UpstreamError{
			StatusCode: 200,
			Message:    "Failed to search cryptocurrencies",
			Err:        errors.New("decoding search response: invalid JSON"),
		}
	}
	coins := gjson.GetBytes(body, "coins")
	if !coins.IsArray() {
		return json.RawMessage("[]"), nil
	}
	return json.RawMessage(coins.Raw), nil
}
