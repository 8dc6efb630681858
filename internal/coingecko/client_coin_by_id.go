package coingecko

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// CoinByID returns the detail document of a single coin. The id is used as
// given, apart from path escaping.
func (c *Client) CoinByID(ctx context.Context, id string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("localization", "false")
	query.Set("tickers", "false")
	query.Set("market_data", "true")
	query.Set("community_data", "false")
	query.Set("developer_data", "false")
	query.Set("sparkline", "false")

	body, err := c.get(ctx, call{
		path:     "coins/" + url.PathEscape(id),
		query:    query,
		resource: id,
		notFound: fmt.Sprintf("Cryptocurrency '%s' not found", id),
		failed:   fmt.Sprintf("Failed to fetch crypto details for '%s'", id),
		network:  fmt.Sprintf("Network error while fetching crypto '%s'", id),
	})
	if err != nil {
		return nil, err
	}

	body = bytes.TrimSpace(body)
	if !json.Valid(body) || len(body) == 0 || body[0] != '{' {
		return nil, &UpstreamError{
			StatusCode: 200,
			Message:    fmt.Sprintf("Failed to fetch crypto details for '%s'", id),
			Err:        errors.New("decoding coin response: expected a JSON object"),
		}
	}
	return json.RawMessage(body), nil
}
