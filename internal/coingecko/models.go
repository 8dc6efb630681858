package coingecko

// CoinSummary is one row of /coins/markets.
type CoinSummary struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             float64  `json:"current_price"`
	MarketCap                float64  `json:"market_cap"`
	MarketCapRank            *int     `json:"market_cap_rank"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	TotalVolume              float64  `json:"total_volume"`
	High24h                  *float64 `json:"high_24h"`
	Low24h                   *float64 `json:"low_24h"`
}

// CoinDetail is the subset of /coins/{id} the display client renders.
type CoinDetail struct {
	ID            string      `json:"id"`
	Symbol        string      `json:"symbol"`
	Name          string      `json:"name"`
	Description   Description `json:"description"`
	Image         Images      `json:"image"`
	MarketCapRank *int        `json:"market_cap_rank"`
	MarketData    MarketData  `json:"market_data"`
	Links         Links       `json:"links"`
}

type Description struct {
	EN string `json:"en"`
}

type Images struct {
	Thumb string `json:"thumb"`
	Small string `json:"small"`
	Large string `json:"large"`
}

// MarketData holds currency-keyed market figures, e.g. CurrentPrice["usd"].
type MarketData struct {
	CurrentPrice             map[string]float64 `json:"current_price"`
	MarketCap                map[string]float64 `json:"market_cap"`
	TotalVolume              map[string]float64 `json:"total_volume"`
	High24h                  map[string]float64 `json:"high_24h"`
	Low24h                   map[string]float64 `json:"low_24h"`
	PriceChangePercentage24h float64            `json:"price_change_percentage_24h"`
}

type Links struct {
	Homepage []string `json:"homepage"`
}

// SearchResult is one entry of the "coins" collection returned by /search.
type SearchResult struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Thumb         string `json:"thumb"`
	MarketCapRank *int   `json:"market_cap_rank"`
}
