package yahoo

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"

	"marketquotes/internal/fetcher"
	"marketquotes/internal/quote"
)

// QuoteResult is one entry of a Yahoo-compatible quote response
type QuoteResult struct {
	Symbol                     string  `json:"symbol"`
	ShortName                  string  `json:"shortName"`
	MarketState                string  `json:"marketState"`
	Price                      float64 `json:"price"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	MarketCap                  float64 `json:"marketCap"`
	PreMarketPrice             float64 `json:"preMarketPrice"`
	PostMarketPrice            float64 `json:"postMarketPrice"`
}

// QuoteResponse represents the /v6/finance/quote payload
type QuoteResponse struct {
	QuoteResponse struct {
		Result []QuoteResult `json:"result"`
		Error  any           `json:"error"`
	} `json:"quoteResponse"`
}

// QuoteFetcher fetches regular and extended-hours quotes from a Yahoo-compatible API
type QuoteFetcher struct {
	apiKey string
	client *resty.Client
}

// NewQuoteFetcher creates a new quote fetcher; an empty API key disables it
func NewQuoteFetcher(apiKey, baseURL string, timeout time.Duration) *QuoteFetcher {
	client := fetcher.NewHTTPClient(baseURL, timeout).
		SetHeader("X-API-KEY", apiKey)

	return &QuoteFetcher{
		apiKey: apiKey,
		client: client,
	}
}

// Source implements fetcher.Adapter
func (f *QuoteFetcher) Source() quote.Source {
	return quote.SourceYahoo
}

// FetchQuote retrieves the quote including pre- and post-market prices
func (f *QuoteFetcher) FetchQuote(ctx context.Context, symbol string) (quote.Quote, error) {
	if f.apiKey == "" {
		return quote.Quote{}, fetcher.ErrUnavailable
	}

	var result QuoteResponse

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("symbols", symbol).
		SetResult(&result).
		Get("/v6/finance/quote")

	if err != nil {
		return quote.Quote{}, fmt.Errorf("failed to fetch yahoo quote for %s: %w", symbol, fetcher.ClassifyTransportError(err))
	}

	if !resp.IsSuccess() {
		return quote.Quote{}, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	if len(result.QuoteResponse.Result) == 0 {
		return quote.Quote{}, fetcher.NewInvalidSymbolError(symbol)
	}

	r := result.QuoteResponse.Result[0]
	price := r.RegularMarketPrice
	if !quote.Positive(price) {
		price = r.Price
	}
	if !quote.Positive(price) {
		return quote.Quote{}, fetcher.NewInvalidSymbolError(symbol)
	}

	return quote.Quote{
		Symbol:          symbol,
		Price:           price,
		Change:          r.RegularMarketChange,
		ChangePercent:   r.RegularMarketChangePercent,
		MarketCap:       r.MarketCap,
		PreMarketPrice:  r.PreMarketPrice,
		PostMarketPrice: r.PostMarketPrice,
		Source:          quote.SourceYahoo,
	}, nil
}
