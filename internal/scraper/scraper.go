package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"resty.dev/v3"

	"marketquotes/internal/fetcher"
	"marketquotes/internal/quote"
)

// QuoteFetcher scrapes public finance pages. It needs no credentials and is
// always available as the lowest-priority source.
type QuoteFetcher struct {
	strategy Strategy
	client   *resty.Client
}

// NewQuoteFetcher creates a scraper rooted at baseURL.
// A nil strategy selects the Google Finance layout.
func NewQuoteFetcher(baseURL string, strategy Strategy, timeout time.Duration) *QuoteFetcher {
	if strategy == nil {
		strategy = NewGoogleFinance()
	}

	client := fetcher.NewHTTPClient(baseURL, timeout).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetHeader("User-Agent", fetcher.BrowserUserAgent)

	return &QuoteFetcher{
		strategy: strategy,
		client:   client,
	}
}

// Source implements fetcher.Adapter
func (f *QuoteFetcher) Source() quote.Source {
	return quote.SourceScraper
}

// FetchQuote downloads the quote page for symbol and extracts a quote from it
func (f *QuoteFetcher) FetchQuote(ctx context.Context, symbol string) (quote.Quote, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetPathParam("path", f.strategy.Path(symbol)).
		Get("/quote/{path}")

	if err != nil {
		return quote.Quote{}, fmt.Errorf("failed to fetch quote page for %s: %w", symbol, fetcher.ClassifyTransportError(err))
	}
	defer resp.Body.Close()

	if !resp.IsSuccess() {
		return quote.Quote{}, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return quote.Quote{}, &fetcher.FetchError{
			Type:    fetcher.ErrorTypeValidation,
			Message: fmt.Sprintf("failed to parse quote page for %s", symbol),
			Cause:   err,
		}
	}

	return f.strategy.Extract(symbol, doc)
}
