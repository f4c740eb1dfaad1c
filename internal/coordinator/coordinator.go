package coordinator

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/iter"
	"golang.org/x/sync/singleflight"

	"marketquotes/internal/quote"
)

// QuoteFetcher resolves a single symbol
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (quote.Quote, bool)
}

// Coordinator fans a QuoteFetcher out across many symbols
type Coordinator struct {
	fetcher QuoteFetcher
	logger  *slog.Logger
}

// New creates a new Coordinator over the given resolver
func New(fetcher QuoteFetcher, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		fetcher: fetcher,
		logger:  logger,
	}
}

type resolved struct {
	symbol string
	quote  quote.Quote
	ok     bool
}

// FetchQuotes resolves every symbol concurrently and returns the successful
// quotes keyed by normalized symbol.
// Symbols that could not be resolved are left out of the map; the call never fails.
// Each symbol gets its own goroutine and concurrent duplicates share one resolution.
func (c *Coordinator) FetchQuotes(ctx context.Context, symbols []string) map[string]quote.Quote {
	out := make(map[string]quote.Quote, len(symbols))
	if len(symbols) == 0 {
		return out
	}

	var group singleflight.Group
	mapper := iter.Mapper[string, resolved]{MaxGoroutines: len(symbols)}

	results := mapper.Map(symbols, func(s *string) resolved {
		sym := quote.NormalizeSymbol(*s)
		if sym == "" {
			return resolved{symbol: sym}
		}
		v, _, _ := group.Do(sym, func() (any, error) {
			q, ok := c.fetcher.FetchQuote(ctx, sym)
			return resolved{symbol: sym, quote: q, ok: ok}, nil
		})
		return v.(resolved)
	})

	var missing []string
	for _, r := range results {
		if !r.ok {
			if r.symbol != "" {
				missing = append(missing, r.symbol)
			}
			continue
		}
		out[r.symbol] = r.quote
	}

	if len(missing) > 0 {
		c.logger.Debug("batch resolved partially",
			"requested", len(symbols),
			"resolved", len(out),
			"missing", missing)
	}

	return out
}
