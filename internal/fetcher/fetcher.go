package fetcher

import (
	"context"

	"marketquotes/internal/quote"
)

//go:generate mockgen -source=fetcher.go -destination=../testutil/mock_adapter.go -package=testutil

// Adapter is the interface every upstream quote source implements.
// Each adapter translates one provider's payload into the common Quote shape.
type Adapter interface {
	// Source identifies the adapter in resolved quotes and logs.
	Source() quote.Source

	// FetchQuote retrieves the current quote for an already normalized symbol.
	// It returns ErrUnavailable when the adapter is not configured, a
	// *FetchError for transport, status, parse or not-found failures, and
	// otherwise a quote with a positive price.
	FetchQuote(ctx context.Context, symbol string) (quote.Quote, error)
}
