package custom

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cast"
	"resty.dev/v3"

	"marketquotes/internal/fetcher"
	"marketquotes/internal/quote"
)

// Field names accepted in the payload, in order of preference
var (
	priceFields         = []string{"price", "last", "close", "current"}
	previousCloseFields = []string{"previous_close", "previousClose", "prev_close", "open"}
	changeFields        = []string{"change"}
	changePercentFields = []string{"changePercent", "change_percent"}
)

// QuoteFetcher fetches quotes from an operator-configured JSON endpoint.
// The URL template may reference the symbol as {symbol} or {ticker}.
type QuoteFetcher struct {
	urlTemplate string
	apiKey      string
	client      *resty.Client
}

// NewQuoteFetcher creates a fetcher for the given URL template.
// An empty template leaves the adapter unconfigured.
func NewQuoteFetcher(urlTemplate, apiKey string, timeout time.Duration) *QuoteFetcher {
	return &QuoteFetcher{
		urlTemplate: urlTemplate,
		apiKey:      apiKey,
		client:      fetcher.NewHTTPClient("", timeout),
	}
}

// Source implements fetcher.Adapter
func (f *QuoteFetcher) Source() quote.Source {
	return quote.SourceCustom
}

// URL expands the template for symbol and appends the API key when it is not already part of it
func (f *QuoteFetcher) URL(symbol string) string {
	escaped := url.PathEscape(symbol)
	u := strings.NewReplacer("{symbol}", escaped, "{ticker}", escaped).Replace(f.urlTemplate)
	if f.apiKey != "" && !strings.Contains(u, f.apiKey) {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + "apikey=" + url.QueryEscape(f.apiKey)
	}
	return u
}

// FetchQuote implements fetcher.Adapter
func (f *QuoteFetcher) FetchQuote(ctx context.Context, symbol string) (quote.Quote, error) {
	if f.urlTemplate == "" {
		return quote.Quote{}, fetcher.ErrUnavailable
	}

	var payload map[string]any

	resp, err := f.client.R().
		SetContext(ctx).
		SetForceResponseContentType("application/json").
		SetResult(&payload).
		Get(f.URL(symbol))

	if err != nil {
		return quote.Quote{}, fmt.Errorf("failed to fetch custom quote for %s: %w", symbol, fetcher.ClassifyTransportError(err))
	}

	if !resp.IsSuccess() {
		return quote.Quote{}, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	if payload == nil {
		return quote.Quote{}, fetcher.NewValidationError(fmt.Sprintf("empty payload for %s", symbol))
	}

	price := firstPositive(payload, priceFields)
	if !quote.Positive(price) {
		return quote.Quote{}, fetcher.NewInvalidSymbolError(symbol)
	}

	q := quote.Quote{
		Symbol: symbol,
		Price:  price,
		Source: quote.SourceCustom,
	}

	change, hasChange := firstNumber(payload, changeFields)
	percent, hasPercent := firstNumber(payload, changePercentFields)
	if hasChange && hasPercent {
		q.Change, q.ChangePercent = change, percent
		return q, nil
	}

	// previous close falls back to the price itself, which yields a flat change
	prevClose := firstPositive(payload, previousCloseFields)
	if !quote.Positive(prevClose) {
		prevClose = price
	}
	q.Change = price - prevClose
	q.ChangePercent = (price - prevClose) / prevClose * 100

	return q, nil
}

func firstNumber(payload map[string]any, fields []string) (float64, bool) {
	for _, name := range fields {
		raw, ok := payload[name]
		if !ok || raw == nil {
			continue
		}
		if v, err := cast.ToFloat64E(raw); err == nil {
			return v, true
		}
	}
	return 0, false
}

func firstPositive(payload map[string]any, fields []string) float64 {
	for _, name := range fields {
		v, ok := firstNumber(payload, []string{name})
		if ok && quote.Positive(v) {
			return v
		}
	}
	return 0
}
