package finnhub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"resty.dev/v3"

	"marketquotes/internal/fetcher"
	"marketquotes/internal/quote"
)

// profile2 reports market capitalization in millions
const marketCapUnit = 1e6

// QuoteResponse represents the Finnhub /quote payload
type QuoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// ProfileResponse represents the Finnhub /stock/profile2 payload
type ProfileResponse struct {
	Ticker               string  `json:"ticker"`
	Name                 string  `json:"name"`
	Currency             string  `json:"currency"`
	Exchange             string  `json:"exchange"`
	MarketCapitalization float64 `json:"marketCapitalization"`
}

// QuoteFetcher fetches quotes and market capitalization from Finnhub
type QuoteFetcher struct {
	apiKey string
	client *resty.Client
	logger *slog.Logger
}

// NewQuoteFetcher creates a new Finnhub quote fetcher.
// Without an API key the fetcher reports itself unavailable.
func NewQuoteFetcher(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *QuoteFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuoteFetcher{
		apiKey: apiKey,
		client: fetcher.NewHTTPClient(baseURL, timeout),
		logger: logger,
	}
}

// Source implements fetcher.Adapter
func (f *QuoteFetcher) Source() quote.Source {
	return quote.SourceFinnhub
}

// FetchQuote retrieves the current quote and, for non-index symbols, the market capitalization
func (f *QuoteFetcher) FetchQuote(ctx context.Context, symbol string) (quote.Quote, error) {
	if f.apiKey == "" {
		return quote.Quote{}, fetcher.ErrUnavailable
	}

	var result QuoteResponse

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"token":  f.apiKey,
		}).
		SetResult(&result).
		Get("/quote")

	if err != nil {
		return quote.Quote{}, fmt.Errorf("failed to fetch finnhub quote for %s: %w", symbol, fetcher.ClassifyTransportError(err))
	}

	if !resp.IsSuccess() {
		return quote.Quote{}, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	// Finnhub answers unknown symbols with 200 and an all-zero body
	if !quote.Positive(result.Current) {
		return quote.Quote{}, fetcher.NewInvalidSymbolError(symbol)
	}

	q := quote.Quote{
		Symbol:        symbol,
		Price:         result.Current,
		Change:        result.Change,
		ChangePercent: result.ChangePercent,
		Source:        quote.SourceFinnhub,
	}

	// indices have no market cap; skipping them saves quota
	if quote.IsIndex(symbol) {
		return q, nil
	}

	marketCap, err := f.fetchMarketCap(ctx, symbol)
	if err != nil {
		f.logger.Debug("market cap lookup failed", "source", quote.SourceFinnhub, "symbol", symbol, "error", err.Error())
		return q, nil
	}
	q.MarketCap = marketCap

	return q, nil
}

// fetchMarketCap gets the market capitalization in currency units
func (f *QuoteFetcher) fetchMarketCap(ctx context.Context, symbol string) (float64, error) {
	var result ProfileResponse

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"token":  f.apiKey,
		}).
		SetResult(&result).
		Get("/stock/profile2")

	if err != nil {
		return 0, fmt.Errorf("failed to fetch finnhub profile: %w", fetcher.ClassifyTransportError(err))
	}

	if !resp.IsSuccess() {
		return 0, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	return result.MarketCapitalization * marketCapUnit, nil
}
